package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"net/url"
	"sort"
	"strings"
)

// Field is one key/value pair of a fixed-order signature string.
type Field struct {
	Key   string
	Value string
}

func HMACSHA256Hex(key, data string) string {
	return hmacHex(sha256.New, key, data)
}

func HMACSHA512Hex(key, data string) string {
	return hmacHex(sha512.New, key, data)
}

func hmacHex(h func() hash.Hash, key, data string) string {
	mac := hmac.New(h, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// OrderedFieldString joins fields as k=v&k=v in the given order, values unescaped.
func OrderedFieldString(fields []Field) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(f.Key)
		b.WriteByte('=')
		b.WriteString(f.Value)
	}
	return b.String()
}

// SortedQueryString joins params sorted by key with query-escaped values.
// Spaces encode as "+".
func SortedQueryString(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
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
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}

// EqualSignature compares two hex signatures exactly, case included, in constant time.
func EqualSignature(expected, got string) bool {
	if got == "" {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(got))
}
