package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strings"
)

// Signature fields never take part in the signed payload.
const (
	FieldSecureHash     = "vnp_SecureHash"
	FieldSecureHashType = "vnp_SecureHashType"
)

var signatureFields = []string{FieldSecureHash, FieldSecureHashType}

// Signer computes and checks HMAC-SHA512 digests over canonical parameter encodings.
// It holds no mutable state and is safe for concurrent use.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the lower-case hex HMAC-SHA512 of canonical.
func (s *Signer) Sign(canonical []byte) string {
	return hex.EncodeToString(s.mac(canonical))
}

// SignParams signs the canonical encoding of params without the signature fields.
func (s *Signer) SignParams(params url.Values) string {
	return s.Sign([]byte(Canonicalize(params, signatureFields...)))
}

// Verify recomputes the digest of params (signature fields excluded) and compares the hex text
// with provided in constant time. A digest written entirely in upper case is accepted; mixed
// case is not. It fails closed on an unset secret and on a missing digest.
func (s *Signer) Verify(params url.Values, provided string) bool {
	if len(s.secret) == 0 || provided == "" {
		return false
	}
	want := s.SignParams(params)
	return hmac.Equal([]byte(want), []byte(provided)) ||
		hmac.Equal([]byte(strings.ToUpper(want)), []byte(provided))
}

func (s *Signer) mac(b []byte) []byte {
	m := hmac.New(sha512.New, s.secret)
	m.Write(b)
	return m.Sum(nil)
}
