package wire

import (
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Characters travel as one ISO-8859-1 byte each. A zero byte reads back as a
// space and never terminates a string; runes outside Latin-1 are written as '?'.
var latin1 = charmap.ISO8859_1

// randomAlphabet is the character pool for generated strings and chars.
const randomAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()_+=-]}[{'\"\\|/.,<>?äöüÄÖÜß"

var randomRunes = []rune(randomAlphabet)

func randomRune(r *rand.Rand) rune {
	return randomRunes[r.IntN(len(randomRunes))]
}

func decodeChar(c byte) rune {
	if c == 0 {
		c = ' '
	}
	return latin1.DecodeByte(c)
}

func encodeChar(r rune) byte {
	if c, ok := latin1.EncodeRune(r); ok {
		return c
	}
	return '?'
}

type charSchema struct{}

var charItem = &charSchema{}

// Char returns the schema of a single Latin-1 character.
func Char() Schema[rune] {
	return charItem
}

func (*charSchema) shape() *shape {
	return &shape{kind: KindChar, width: 1}
}

func (c *charSchema) compile(bool) item[rune] {
	return c
}

func (*charSchema) decode(data []byte, offset *int, limit int) (rune, error) {
	if remaining := limit - *offset; remaining < 1 {
		return 0, underrun("char", 1, remaining)
	}

	r := decodeChar(data[*offset])
	*offset++
	return r, nil
}

func (*charSchema) encode(v rune, b *ByteBuffer) {
	b.AppendU8(encodeChar(v))
}

func (*charSchema) random(r *rand.Rand) rune {
	return randomRune(r)
}

func (*charSchema) describe() string {
	return KindChar.String()
}

type stringSchema struct{}

// String returns the schema of a Latin-1 string.
func String() Schema[string] {
	return stringSchema{}
}

func (stringSchema) shape() *shape {
	return &shape{kind: KindString}
}

func (stringSchema) compile(derived bool) item[string] {
	return &stringItem{derived: derived}
}

type stringItem struct {
	// derived strings have no length prefix and run to the limit
	derived bool
}

func (s *stringItem) decode(data []byte, offset *int, limit int) (string, error) {
	var length int
	if s.derived {
		length = limit - *offset
		if length < 0 {
			return "", underrun("derived string", 0, length)
		}
	} else {
		n, err := ReadSize(data, offset, limit)
		if err != nil {
			return "", err
		}
		if remaining := limit - *offset; remaining < n {
			return "", underrun("string", n, remaining)
		}
		length = n
	}

	var sb strings.Builder
	sb.Grow(length)
	for _, c := range data[*offset : *offset+length] {
		sb.WriteRune(decodeChar(c))
	}
	*offset += length
	return sb.String(), nil
}

func (s *stringItem) encode(v string, b *ByteBuffer) {
	if !s.derived {
		b.WriteSize(utf8.RuneCountInString(v))
	}
	for _, r := range v {
		b.AppendU8(encodeChar(r))
	}
}

func (s *stringItem) random(r *rand.Rand) string {
	n := randomLength(r)
	var sb strings.Builder
	for range n {
		sb.WriteRune(randomRune(r))
	}
	return sb.String()
}

func (s *stringItem) describe() string {
	if s.derived {
		return "string(derived)"
	}
	return "string"
}
