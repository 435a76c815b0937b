package geoip

import (
	"errors"
	"testing"
)

func TestNewResolverEmptyPath(t *testing.T) {
	r, err := NewResolver("  ")
	if err != nil {
		t.Fatalf("NewResolver returned error: %v", err)
	}
	if r != nil {
		t.Fatalf("expected nil resolver for empty path")
	}
}

func TestCountryCodeWithoutDatabase(t *testing.T) {
	var r *Resolver

	if _, err := r.CountryCode("not-an-ip"); err == nil {
		t.Fatalf("expected error for invalid ip")
	}
	code, err := r.CountryCode("10.1.2.3")
	if err != nil || code != "" {
		t.Fatalf("private address: got (%q, %v), want empty code and nil error", code, err)
	}
	code, err = r.CountryCode("127.0.0.1")
	if err != nil || code != "" {
		t.Fatalf("loopback address: got (%q, %v)", code, err)
	}
	for _, ip := range []string{"169.254.10.1", "::ffff:192.168.1.9", "fe80::1"} {
		if code, err := r.CountryCode(ip); err != nil || code != "" {
			t.Fatalf("%s: got (%q, %v), want non-routable", ip, code, err)
		}
	}
	if _, err := r.CountryCode("203.0.113.7"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("public address without database: got %v, want ErrUnavailable", err)
	}
}

func TestCloseNilResolver(t *testing.T) {
	var r *Resolver
	if err := r.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}
