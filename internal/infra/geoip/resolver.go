// Package geoip resolves donor countries from client addresses.
package geoip

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// ErrUnavailable is returned for public addresses when no database is loaded.
var ErrUnavailable = errors.New("geoip: database not loaded")

// Resolver looks up countries in a MaxMind GeoIP2 or GeoLite2 country database.
// A nil *Resolver is valid and only answers for non-routable addresses.
type Resolver struct {
	db *geoip2.Reader
}

// NewResolver opens the database at path. A blank path returns (nil, nil).
func NewResolver(path string) (*Resolver, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open %s: %w", path, err)
	}
	return &Resolver{db: db}, nil
}

// CountryCode returns the upper-case ISO 3166 code for ip, or "" when the
// address is not routable or the database has no country for it.
func (r *Resolver) CountryCode(ip string) (string, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return "", fmt.Errorf("geoip: %w", err)
	}
	addr = addr.Unmap()
	if !routable(addr) {
		return "", nil
	}
	if r == nil || r.db == nil {
		return "", ErrUnavailable
	}

	rec, err := r.db.Country(addr.AsSlice())
	if err != nil {
		return "", fmt.Errorf("geoip: country for %s: %w", addr, err)
	}
	return strings.ToUpper(rec.Country.IsoCode), nil
}

func routable(addr netip.Addr) bool {
	return !(addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsMulticast())
}

func (r *Resolver) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
