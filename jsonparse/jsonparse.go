// Package jsonparse is a single-pass JSON tokenizer over a fixed-capacity
// token arena. Responses from untrusted providers are tokenized once and
// fields are extracted by fixed positional index, so the accepted and rejected
// input classes and the resulting token layout are part of the external
// contract. This is not a general-purpose JSON decoder.
package jsonparse

import "errors"

var (
	// ErrInvalid marks input rejected as corrupted: mismatched or stray
	// closing brackets, unknown escapes, non-printable bytes inside a
	// primitive, or unexpected characters.
	ErrInvalid = errors.New("jsonparse: invalid json")
	// ErrPartial marks input that ended before a string or container was
	// closed.
	ErrPartial = errors.New("jsonparse: partial json")
	// ErrNoMemory marks an allocation past the fixed token capacity. The
	// arena is never grown.
	ErrNoMemory = errors.New("jsonparse: token capacity exhausted")
	// ErrBadNumber marks a fixed-point literal the lexer cannot accept.
	ErrBadNumber = errors.New("jsonparse: bad fixed-point number")
)

type TokenType int

const (
	TypeUndefined TokenType = iota
	TypeObject
	TypeArray
	TypeString
	TypePrimitive
)

func (t TokenType) String() string {
	switch t {
	case TypeObject:
		return "object"
	case TypeArray:
		return "array"
	case TypeString:
		return "string"
	case TypePrimitive:
		return "primitive"
	default:
		return "undefined"
	}
}

// Token is a typed span of the parsed text. Start and End are byte offsets
// into the input, [Start, End); Size counts direct children. Tokens are owned
// by one Parse call and discarded after extraction.
type Token struct {
	Type  TokenType
	Start int
	End   int
	Size  int
}

// Value extracts the token's span from the text it was parsed from.
func (t Token) Value(s string) string {
	return Slice(s, t.Start, t.End)
}

// Slice extracts the substring [start, end). Offsets are clamped to the valid
// range.
func Slice(s string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	if start >= end {
		return ""
	}
	return s[start:end]
}

type parser struct {
	input string
	// fixed arena; next is the allocation cursor and never moves backwards
	tokens []Token
	next   int
	// super is the token the next value attaches under, -1 at top level
	super int
	// open holds the arena indexes of still-open containers, innermost last
	open []int
}

// Parse tokenizes input in a single pass. capacity is a hard upper bound on
// the token count; exceeding it fails ErrNoMemory. The returned slice holds
// exactly the allocated tokens in allocation order.
func Parse(input string, capacity int) ([]Token, error) {
	if capacity <= 0 {
		return nil, ErrNoMemory
	}
	p := &parser{
		input:  input,
		tokens: make([]Token, capacity),
		super:  -1,
	}
	for i := range p.tokens {
		p.tokens[i] = Token{Type: TypeUndefined, Start: -1, End: -1}
	}

	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case c == '{' || c == '[':
			idx, err := p.alloc()
			if err != nil {
				return nil, err
			}
			if p.super != -1 {
				p.tokens[p.super].Size++
			}
			kind := TypeObject
			if c == '[' {
				kind = TypeArray
			}
			p.tokens[idx].Type = kind
			p.tokens[idx].Start = i
			p.open = append(p.open, idx)
			p.super = idx

		case c == '}' || c == ']':
			want := TypeObject
			if c == ']' {
				want = TypeArray
			}
			if len(p.open) == 0 {
				return nil, ErrInvalid
			}
			top := p.open[len(p.open)-1]
			if p.tokens[top].Type != want {
				return nil, ErrInvalid
			}
			p.tokens[top].End = i + 1
			p.open = p.open[:len(p.open)-1]
			if len(p.open) > 0 {
				p.super = p.open[len(p.open)-1]
			} else {
				p.super = -1
			}

		case c == '"':
			end, err := p.scanString(i)
			if err != nil {
				return nil, err
			}
			i = end

		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			// skip

		case c == ':':
			// the value that follows attaches under the key just closed
			p.super = p.next - 1

		case c == ',':
			if p.super != -1 &&
				p.tokens[p.super].Type != TypeArray &&
				p.tokens[p.super].Type != TypeObject {
				if len(p.open) > 0 {
					p.super = p.open[len(p.open)-1]
				} else {
					p.super = -1
				}
			}

		case c == '-' || (c >= '0' && c <= '9') || c == 'f' || c == 't' || c == 'n':
			end, err := p.scanPrimitive(i)
			if err != nil {
				return nil, err
			}
			i = end

		default:
			return nil, ErrInvalid
		}
	}

	if len(p.open) > 0 {
		return nil, ErrPartial
	}
	return p.tokens[:p.next], nil
}

func (p *parser) alloc() (int, error) {
	if p.next >= len(p.tokens) {
		return -1, ErrNoMemory
	}
	idx := p.next
	p.next++
	return idx, nil
}

// scanString consumes from the opening quote at start through the next
// unescaped quote and returns the index of the closing quote.
func (p *parser) scanString(start int) (int, error) {
	for i := start + 1; i < len(p.input); i++ {
		c := p.input[i]
		if c == '"' {
			idx, err := p.alloc()
			if err != nil {
				return -1, err
			}
			p.tokens[idx].Type = TypeString
			p.tokens[idx].Start = start + 1
			p.tokens[idx].End = i
			if p.super != -1 {
				p.tokens[p.super].Size++
			}
			return i, nil
		}
		if c == '\\' {
			i++
			if i >= len(p.input) {
				return -1, ErrPartial
			}
			switch p.input[i] {
			case '"', '/', '\\', 'b', 'f', 'r', 'n', 't':
				// accepted escapes; anything else is corruption
			default:
				return -1, ErrInvalid
			}
		}
	}
	return -1, ErrPartial
}

// scanPrimitive consumes a number/true/false/null literal starting at start
// and returns the index of its last byte.
func (p *parser) scanPrimitive(start int) (int, error) {
	end := len(p.input)
	for i := start; i < len(p.input); i++ {
		c := p.input[i]
		if c == '\t' || c == '\r' || c == '\n' || c == ' ' || c == ',' || c == ']' || c == '}' {
			end = i
			break
		}
		if c < 0x20 || c >= 0x7f {
			return -1, ErrInvalid
		}
	}
	idx, err := p.alloc()
	if err != nil {
		return -1, err
	}
	p.tokens[idx].Type = TypePrimitive
	p.tokens[idx].Start = start
	p.tokens[idx].End = end
	if p.super != -1 {
		p.tokens[p.super].Size++
	}
	return end - 1, nil
}
