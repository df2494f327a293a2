// Package emailcheck decides whether an address can receive a verification
// code: it must be a bare, well-formed address and its domain must publish
// at least one usable MX record.
package emailcheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/signupd/internal/common"
)

// Resolver is the subset of *net.Resolver used for MX lookups.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// Validator checks address syntax and domain deliverability.
type Validator struct {
	resolver Resolver
	checkMX  bool
}

// NewValidator returns a Validator using r for DNS. With checkMX false only
// the syntax is verified, which is useful on hosts without DNS.
func NewValidator(r Resolver, checkMX bool) *Validator {
	if r == nil {
		r = net.DefaultResolver
	}
	return &Validator{resolver: r, checkMX: checkMX}
}

// Normalize trims surrounding whitespace and lowercases the address. The
// result is the uniqueness key for accounts.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// IsWellFormed reports whether address is a plain RFC 5322 addr-spec (no
// display name, no angle brackets) with a dotted domain.
func (v *Validator) IsWellFormed(address string) bool {
	if address == "" || len(address) > 320 {
		return false
	}

	parsed, err := mail.ParseAddress(address)
	if err != nil || parsed.Name != "" || parsed.Address != address {
		return false
	}

	local, domain, ok := strings.Cut(address, "@")
	if !ok || local == "" || len(local) > 64 {
		return false
	}

	return isHostname(domain)
}

// HasMailExchanger reports whether domain publishes an MX record that is not
// a null MX (RFC 7505). A missing domain or record is (false, nil); lookup
// failures are returned as errors.
func (v *Validator) HasMailExchanger(ctx context.Context, domain string) (bool, error) {
	records, err := v.resolver.LookupMX(ctx, domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return false, nil
		}
		return false, fmt.Errorf("mx lookup %s: %w", domain, err)
	}

	for _, mx := range records {
		if host := strings.TrimSuffix(mx.Host, "."); host != "" {
			return true, nil
		}
	}

	return false, nil
}

// Validate normalizes address and runs both checks. Every failure wraps
// common.ErrInvalidAddress.
func (v *Validator) Validate(ctx context.Context, address string) (string, error) {
	normalized := Normalize(address)

	if !v.IsWellFormed(normalized) {
		return "", fmt.Errorf("%w: malformed", common.ErrInvalidAddress)
	}

	if !v.checkMX {
		return normalized, nil
	}

	domain := normalized[strings.LastIndexByte(normalized, '@')+1:]
	ok, err := v.HasMailExchanger(ctx, domain)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrInvalidAddress, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: no mail exchanger for %s", common.ErrInvalidAddress, domain)
	}

	return normalized, nil
}

func isHostname(domain string) bool {
	if len(domain) > 253 || !strings.Contains(domain, ".") {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" || len(label) > 63 || label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
				return false
			}
		}
	}
	return true
}
