package caseid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/crosscheck/internal/harness"
)

// DomainCase separates case keys from any other hash of the same bytes.
const DomainCase = "crosscheck/case/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Object returns the fields that identify a case. The tolerance override
// is left out: re-running a case under a looser bound is the same case.
func Object(c harness.Case) map[string]any {
	o := c.Order
	return map[string]any{
		"suite":   c.Suite,
		"name":    c.Name,
		"variant": string(c.Variant),
		"dialect": string(c.Dialect),
		"order": map[string]any{
			"p": o.P, "d": o.D, "q": o.Q,
			"P": o.SP, "D": o.SD, "Q": o.SQ,
			"s":      o.S,
			"length": o.Length,
			"solver": string(o.Solver),
		},
	}
}

// Key returns the case's content-addressed key.
func Key(c harness.Case) (string, error) {
	canonical, err := MarshalCanonical(Object(c))
	if err != nil {
		return "", fmt.Errorf("case key: %w", err)
	}
	return hashWithDomain(DomainCase, canonical), nil
}

// MustKey is like Key but panics on error.
func MustKey(c harness.Case) string {
	k, err := Key(c)
	if err != nil {
		panic(err)
	}
	return k
}
