package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"sort"
	"strings"
)

// SignatureField is excluded from every canonical string; providers never
// sign the signature itself.
const SignatureField = "signature"

type SignatureEncoding int

const (
	EncodingHex SignatureEncoding = iota
	EncodingBase64
)

// Signer builds and verifies the canonical keyed-hash signatures the payment
// providers use: lexicographically sorted `k=v&...` string, HMAC-SHA256 with
// the provider secret, hex or base64 encoded. Providers differ only in
// encoding and the set of included fields, so both are construction-time
// configuration rather than per-call branching.
type Signer struct {
	secret   []byte
	encoding SignatureEncoding
	fields   map[string]struct{} // nil means sign every field present
}

// NewSigner builds a signer for the given secret and encoding. When `fields`
// is non-empty only those keys participate in the canonical string.
func NewSigner(secret string, encoding SignatureEncoding, fields ...string) *Signer {
	s := &Signer{secret: []byte(secret), encoding: encoding}
	if len(fields) > 0 {
		s.fields = make(map[string]struct{}, len(fields))
		for _, f := range fields {
			s.fields[f] = struct{}{}
		}
	}
	return s
}

// Canonical returns the sorted `k=v&...` string the signature is computed
// over. Exposed for request logging and tests.
func (s *Signer) Canonical(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == SignatureField {
			continue
		}
		if s.fields != nil {
			if _, ok := s.fields[k]; !ok {
				continue
			}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
	}
	return b.String()
}

func (s *Signer) Sign(fields map[string]string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(s.Canonical(fields)))
	sum := mac.Sum(nil)
	if s.encoding == EncodingBase64 {
		return base64.StdEncoding.EncodeToString(sum)
	}
	return hex.EncodeToString(sum)
}

// Verify recomputes the signature and compares in constant time. Hex
// signatures are case-folded first since providers differ in casing.
func (s *Signer) Verify(fields map[string]string, signature string) bool {
	if signature == "" || len(s.secret) == 0 {
		return false
	}
	expected := s.Sign(fields)
	if s.encoding == EncodingHex {
		signature = strings.ToLower(signature)
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
