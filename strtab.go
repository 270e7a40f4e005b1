package rpccodec

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// StringTable deduplicates string values and hands out 1-based indices.
// Index 0 is reserved for the null string.
type StringTable struct {
	index  map[string]int
	values []string
}

// NewStringTable creates an empty table for writing.
func NewStringTable() *StringTable {
	return &StringTable{index: make(map[string]int)}
}

// newStringTableFrom wraps decoded values for reading. Lookups by value are
// never needed on the read side, so no index is built.
func newStringTableFrom(values []string) *StringTable {
	return &StringTable{values: values}
}

// validString rejects a value the table cannot carry: both encodings store
// strings as UTF-8.
func validString(s string) error {
	if !utf8.ValidString(s) {
		return errors.Wrapf(ErrNotSerializable, "string %q is not valid utf-8", s)
	}
	return nil
}

// checkStrings reports the first decoded value that is not valid UTF-8.
func checkStrings(values []string) error {
	for i, s := range values {
		if !utf8.ValidString(s) {
			return corruptf("string %d: invalid utf-8", i+1)
		}
	}
	return nil
}

// Intern returns the index of s, appending it on first sight.
func (t *StringTable) Intern(s string) int {
	if i, ok := t.index[s]; ok {
		return i
	}
	t.values = append(t.values, s)
	i := len(t.values)
	t.index[s] = i
	return i
}

// At returns the value at a 1-based index.
func (t *StringTable) At(index int) (string, error) {
	if index < 1 || index > len(t.values) {
		return "", corruptf("string index %d out of range [1, %d]", index, len(t.values))
	}
	return t.values[index-1], nil
}

// Len returns the number of distinct values.
func (t *StringTable) Len() int { return len(t.values) }

// Values returns the table in index order. The slice must not be modified.
func (t *StringTable) Values() []string { return t.values }

const (
	separator  = '|'
	escapeChar = '\\'
	hexDigits  = "0123456789abcdef"
)

// needsEscape reports whether s has to go through escapeString.
func needsEscape(s string, asciiOnly bool) bool {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == 0, c == separator, c == escapeChar:
			return true
		case asciiOnly && c >= utf8.RuneSelf:
			return true
		}
	}
	return false
}

// escapeString makes s safe to place between separators:
// NUL -> \0, '|' -> \!, '\' -> \\, and optionally non-ASCII -> \uXXXX.
func escapeString(s string, asciiOnly bool) string {
	if !needsEscape(s, asciiOnly) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf || !asciiOnly {
			switch c {
			case 0:
				b.WriteString(`\0`)
			case separator:
				b.WriteString(`\!`)
			case escapeChar:
				b.WriteString(`\\`)
			default:
				b.WriteByte(c)
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
			writeUnicodeEscape(&b, r1)
			writeUnicodeEscape(&b, r2)
		} else {
			writeUnicodeEscape(&b, r)
		}
	}
	return b.String()
}

func writeUnicodeEscape(b *strings.Builder, r rune) {
	b.WriteString(`\u`)
	b.WriteByte(hexDigits[(r>>12)&0xf])
	b.WriteByte(hexDigits[(r>>8)&0xf])
	b.WriteByte(hexDigits[(r>>4)&0xf])
	b.WriteByte(hexDigits[r&0xf])
}

// unescapeString reverses escapeString. The result is never longer than tok.
func unescapeString(tok string) (string, error) {
	if strings.IndexByte(tok, escapeChar) < 0 {
		return tok, nil
	}
	var b strings.Builder
	b.Grow(len(tok))
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		if c != escapeChar {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(tok) {
			return "", corruptf("truncated escape at offset %d", i-1)
		}
		switch tok[i] {
		case '0':
			b.WriteByte(0)
		case '!':
			b.WriteByte(separator)
		case escapeChar:
			b.WriteByte(escapeChar)
		case 'u':
			r, err := parseUnicodeEscape(tok, i+1)
			if err != nil {
				return "", err
			}
			i += 4
			if utf16.IsSurrogate(r) {
				if len(tok) < i+7 || tok[i+1] != escapeChar || tok[i+2] != 'u' {
					return "", corruptf("unpaired surrogate at offset %d", i-5)
				}
				lo, err := parseUnicodeEscape(tok, i+3)
				if err != nil {
					return "", err
				}
				r = utf16.DecodeRune(r, lo)
				if r == utf8.RuneError {
					return "", corruptf("invalid surrogate pair at offset %d", i-5)
				}
				i += 6
			}
			b.WriteRune(r)
		default:
			return "", corruptf("unknown escape 0x%02x at offset %d", tok[i], i-1)
		}
	}
	return b.String(), nil
}

// parseUnicodeEscape reads the four hex digits of a \u escape starting at off.
func parseUnicodeEscape(tok string, off int) (rune, error) {
	if off+4 > len(tok) {
		return 0, corruptf("truncated unicode escape at offset %d", off-2)
	}
	var r rune
	for _, c := range []byte(tok[off : off+4]) {
		var d byte
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		default:
			return 0, corruptf("invalid hex digit in unicode escape at offset %d", off-2)
		}
		r = r<<4 | rune(d)
	}
	return r, nil
}
