package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

const (
	localeKey  contextKey = "locale"
	countryKey contextKey = "country"
)

// Response locales. The first entry is what the matcher falls back to.
var (
	supportedTags    = []language.Tag{language.English, language.Indonesian}
	supportedLocales = []string{"en", "id"}
	localeMatcher    = language.NewMatcher(supportedTags)
)

// Edge and proxy headers that carry the client's country, in trust order.
var countryHeaders = []string{"X-Country-Code", "X-IP-Country", "CF-IPCountry", "X-Appengine-Country"}

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// I18N stores the response locale and the donor country on the request
// context and echoes the locale in Content-Language.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			locale := detectLocale(r, defaultLocale, country)

			ctx := ContextWithLocale(r.Context(), locale)
			if country != "" {
				ctx = context.WithValue(ctx, countryKey, country)
			}
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, fallback, country string) string {
	switch {
	case r.Header.Get("X-Locale") != "":
		return normalizeLocale(r.Header.Get("X-Locale"))
	case parseAcceptLanguage(r.Header.Get("Accept-Language")) != "":
		return parseAcceptLanguage(r.Header.Get("Accept-Language"))
	case country == "ID":
		return "id"
	case country != "":
		return "en"
	case fallback != "":
		return normalizeLocale(fallback)
	}
	return "en"
}

// parseAcceptLanguage matches the weighted header against the supported
// locales. It returns "" when the header is absent or malformed.
func parseAcceptLanguage(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, idx, _ := localeMatcher.Match(tags...)
	return supportedLocales[idx]
}

func normalizeLocale(locale string) string {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return "en"
	}
	if base, _ := tag.Base(); base.String() == "id" {
		return "id"
	}
	return "en"
}

// ContextWithLocale overrides the response locale, e.g. from a token claim.
func ContextWithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey, normalizeLocale(locale))
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(localeKey).(string); ok {
		return v
	}
	return "en"
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	country, _ := ctx.Value(countryKey).(string)
	return country
}

// ResolveCountry returns a best-effort ISO 3166 country for the request:
// proxy headers first, then the locale, then the IP lookup.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, key := range countryHeaders {
		if country := countryCode(r.Header.Get(key)); country != "" {
			return country
		}
	}
	if country := countryFromLocale(r); country != "" {
		return country
	}
	if lookup == nil {
		return ""
	}
	ip := ClientIP(r)
	if ip == "" {
		return ""
	}
	code, err := lookup(ip)
	if err != nil {
		return ""
	}
	return countryCode(code)
}

func countryFromLocale(r *http.Request) string {
	xLocale := r.Header.Get("X-Locale")
	accept := r.Header.Get("Accept-Language")
	if region := localeRegion(xLocale); region != "" {
		return region
	}
	if region := localeRegion(accept); region != "" {
		return region
	}
	if (xLocale != "" && normalizeLocale(xLocale) == "id") || parseAcceptLanguage(accept) == "id" {
		return "ID"
	}
	return ""
}

// countryCode canonicalizes a two-letter region. Cloudflare's "XX" (unknown)
// and "T1" (Tor) placeholders and anything malformed yield "".
func countryCode(raw string) string {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if len(raw) != 2 || raw == "XX" || raw == "T1" {
		return ""
	}
	region, err := language.ParseRegion(raw)
	if err != nil {
		return ""
	}
	return region.String()
}

// localeRegion returns the explicit region subtag of the first language in
// header, ignoring regions the parser would only guess.
func localeRegion(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	region, conf := tags[0].Region()
	if conf != language.Exact {
		return ""
	}
	return countryCode(region.String())
}
