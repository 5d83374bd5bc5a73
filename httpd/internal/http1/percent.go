package http1

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidEscape marks a malformed %-escape in a path or query. These are
// rejected instead of being passed through verbatim.
var ErrInvalidEscape = errors.New("http1: invalid percent escape")

// QueryPair is one key=value pair from a query string. Arrival order and
// duplicate keys are preserved.
type QueryPair struct {
	Key   string
	Value string
}

// SplitTarget divides a request target into path and query at the first '?'.
// The query part is returned without the '?', empty if none was present.
func SplitTarget(target string) (rawPath, rawQuery string) {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		return target[:i], target[i+1:]
	}
	return target, ""
}

// Unescape decodes %XX escapes. plusSpace additionally maps '+' to a space,
// which applies inside query components but not in the path.
func Unescape(s string, plusSpace bool) (string, error) {
	if !strings.ContainsAny(s, "%+") {
		return s, nil
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '%':
			if i+2 >= len(s) {
				return "", fmt.Errorf("%w: truncated escape in %q", ErrInvalidEscape, s)
			}
			hi, ok1 := unhex(s[i+1])
			lo, ok2 := unhex(s[i+2])
			if !ok1 || !ok2 {
				return "", fmt.Errorf("%w: %q", ErrInvalidEscape, s[i:i+3])
			}
			sb.WriteByte(hi<<4 | lo)
			i += 2
		case c == '+' && plusSpace:
			sb.WriteByte(' ')
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}

// Escape percent-encodes every byte outside the unreserved set, so that
// Unescape(Escape(x)) == x for any input.
func Escape(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hexDigits[c>>4])
		sb.WriteByte(hexDigits[c&0xf])
	}
	return sb.String()
}

// ParseQuery decodes a raw query string into ordered pairs. Pairs are split
// on '&', keys from values on the first '='; a pair without '=' becomes a
// key with an empty value. Empty pairs ("a=1&&b=2") are skipped.
func ParseQuery(raw string) ([]QueryPair, error) {
	if raw == "" {
		return nil, nil
	}
	var pairs []QueryPair
	for _, seg := range strings.Split(raw, "&") {
		if seg == "" {
			continue
		}
		var k, v string
		if i := strings.IndexByte(seg, '='); i >= 0 {
			k, v = seg[:i], seg[i+1:]
		} else {
			k = seg
		}
		dk, err := Unescape(k, true)
		if err != nil {
			return nil, err
		}
		dv, err := Unescape(v, true)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, QueryPair{Key: dk, Value: dv})
	}
	return pairs, nil
}

const hexDigits = "0123456789ABCDEF"

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func isUnreserved(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' ||
		'0' <= c && c <= '9' || c == '-' || c == '_' || c == '.' || c == '~'
}
