// Package payment holds the provider-neutral pieces of gateway signing: the canonical
// parameter encoding and the HMAC signer that runs over it.
package payment

import (
	"net/url"
	"sort"
	"strings"
)

// Canonicalize serializes params into the byte-for-byte deterministic signing input.
//
// Names are sorted byte-wise ascending and joined as name=value pairs with '&'. Names and
// values are percent-encoded: RFC 3986 unreserved characters stay as they are, every other
// byte becomes %XX and a space becomes %20. A name with an empty value encodes as "name=";
// a name with no value at all is left out. Multi-valued names contribute their first value.
// Names listed in exclude are skipped.
func Canonicalize(params url.Values, exclude ...string) string {
	keys := make([]string, 0, len(params))
	for k, vs := range params {
		if len(vs) == 0 || excluded(k, exclude) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(Escape(k))
		b.WriteByte('=')
		b.WriteString(Escape(params[k][0]))
	}
	return b.String()
}

// Escape percent-encodes s with space as %20.
func Escape(s string) string {
	// QueryEscape already turns a literal '+' into %2B, so every '+' left is a space.
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func excluded(k string, exclude []string) bool {
	for _, e := range exclude {
		if k == e {
			return true
		}
	}
	return false
}
