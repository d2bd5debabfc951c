package jsonparse

import (
	"errors"
	"testing"
)

func mustParse(t *testing.T, input string, capacity int) []Token {
	t.Helper()
	tokens, err := Parse(input, capacity)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return tokens
}

func TestParseSimpleObject(t *testing.T) {
	input := `{"a":"b"}`
	tokens := mustParse(t, input, 3)

	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(tokens))
	}
	if tokens[0].Type != TypeObject || tokens[0].Size != 1 {
		t.Fatalf("expected object with 1 child, got %+v", tokens[0])
	}
	if tokens[1].Type != TypeString || tokens[1].Value(input) != "a" || tokens[1].Size != 1 {
		t.Fatalf("expected key token a, got %+v", tokens[1])
	}
	if tokens[2].Type != TypeString || tokens[2].Value(input) != "b" || tokens[2].Size != 0 {
		t.Fatalf("expected value token b, got %+v", tokens[2])
	}
	if tokens[0].Start != 0 || tokens[0].End != len(input) {
		t.Fatalf("expected object span [0,%d), got [%d,%d)", len(input), tokens[0].Start, tokens[0].End)
	}
}

func TestParseMultiKeyObject(t *testing.T) {
	input := `{"rate":"1.23","id":42}`
	tokens := mustParse(t, input, 8)

	if len(tokens) != 5 {
		t.Fatalf("expected 5 tokens, got %d", len(tokens))
	}
	if tokens[0].Size != 2 {
		t.Fatalf("expected 2 direct children, got %d", tokens[0].Size)
	}
	if tokens[2].Value(input) != "1.23" {
		t.Fatalf("expected positional value 1.23, got %q", tokens[2].Value(input))
	}
	if tokens[4].Type != TypePrimitive || tokens[4].Value(input) != "42" {
		t.Fatalf("expected primitive 42, got %+v", tokens[4])
	}
}

func TestParseArray(t *testing.T) {
	input := `[1, "two", true, null]`
	tokens := mustParse(t, input, 8)

	if len(tokens) != 5 {
		t.Fatalf("expected 5 tokens, got %d", len(tokens))
	}
	if tokens[0].Type != TypeArray || tokens[0].Size != 4 {
		t.Fatalf("expected array with 4 children, got %+v", tokens[0])
	}
	wantValues := []string{"1", "two", "true", "null"}
	wantTypes := []TokenType{TypePrimitive, TypeString, TypePrimitive, TypePrimitive}
	for i, token := range tokens[1:] {
		if token.Type != wantTypes[i] || token.Value(input) != wantValues[i] {
			t.Fatalf("token %d: expected %s %q, got %s %q",
				i+1, wantTypes[i], wantValues[i], token.Type, token.Value(input))
		}
	}
}

func TestParseNestedContainers(t *testing.T) {
	input := `{"outer":{"inner":[1,2]}}`
	tokens := mustParse(t, input, 16)

	if len(tokens) != 7 {
		t.Fatalf("expected 7 tokens, got %d", len(tokens))
	}
	if tokens[0].Type != TypeObject || tokens[0].Size != 1 {
		t.Fatalf("expected outer object size 1, got %+v", tokens[0])
	}
	if tokens[2].Type != TypeObject || tokens[2].Size != 1 {
		t.Fatalf("expected inner object size 1, got %+v", tokens[2])
	}
	if tokens[4].Type != TypeArray || tokens[4].Size != 2 {
		t.Fatalf("expected array size 2, got %+v", tokens[4])
	}
}

func TestParseTopLevelPrimitiveAndString(t *testing.T) {
	tokens := mustParse(t, `42`, 1)
	if len(tokens) != 1 || tokens[0].Type != TypePrimitive {
		t.Fatalf("expected lone primitive, got %+v", tokens)
	}

	input := `"hello"`
	tokens = mustParse(t, input, 1)
	if len(tokens) != 1 || tokens[0].Type != TypeString || tokens[0].Value(input) != "hello" {
		t.Fatalf("expected lone string, got %+v", tokens)
	}
}

func TestParseAcceptedEscapes(t *testing.T) {
	input := `{"a":"x\"y\\z\/\b\f\r\n\t"}`
	tokens := mustParse(t, input, 4)
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(tokens))
	}
	if tokens[2].Type != TypeString {
		t.Fatalf("expected escaped string token, got %+v", tokens[2])
	}
}

func TestParseRejectsUnknownEscape(t *testing.T) {
	if _, err := Parse(`{"a":"\x41"}`, 8); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if _, err := Parse(`{"a":"\u0041"}`, 8); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unicode escape, got %v", err)
	}
}

func TestParsePartialInputs(t *testing.T) {
	cases := []string{
		`{"a":`,
		`{"a":"b"`,
		`{"a`,
		`["x", `,
		`{`,
		`"unterminated`,
		`{"a":"b\`,
	}
	for _, input := range cases {
		if _, err := Parse(input, 16); !errors.Is(err, ErrPartial) {
			t.Fatalf("parse %q: expected ErrPartial, got %v", input, err)
		}
	}
}

func TestParseInvalidInputs(t *testing.T) {
	cases := []string{
		`}`,
		`]`,
		`{]`,
		`[}`,
		`{"a":"b"}}`,
		`hello`,
		`{"a"~1}`,
		`+1`,
	}
	for _, input := range cases {
		if _, err := Parse(input, 16); !errors.Is(err, ErrInvalid) {
			t.Fatalf("parse %q: expected ErrInvalid, got %v", input, err)
		}
	}
}

func TestParseRejectsNonPrintableInPrimitive(t *testing.T) {
	if _, err := Parse("[1\x012]", 8); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for control byte, got %v", err)
	}
	if _, err := Parse("[n\x80ll]", 8); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for high byte, got %v", err)
	}
}

func TestParseCapacityExhaustion(t *testing.T) {
	if _, err := Parse(`{"a":"b"}`, 1); !errors.Is(err, ErrNoMemory) {
		t.Fatalf("expected ErrNoMemory, got %v", err)
	}
	if _, err := Parse(`{"a":"b"}`, 2); !errors.Is(err, ErrNoMemory) {
		t.Fatalf("expected ErrNoMemory, got %v", err)
	}
	// Exactly enough never trips the arena bound.
	if _, err := Parse(`{"a":"b"}`, 3); err != nil {
		t.Fatalf("expected success at exact capacity, got %v", err)
	}
	if _, err := Parse(`{"a":"b"}`, 0); !errors.Is(err, ErrNoMemory) {
		t.Fatalf("expected ErrNoMemory for zero capacity, got %v", err)
	}
}

func TestParseEmptyContainersAndInput(t *testing.T) {
	tokens := mustParse(t, `{}`, 1)
	if len(tokens) != 1 || tokens[0].Type != TypeObject || tokens[0].Size != 0 {
		t.Fatalf("expected empty object, got %+v", tokens)
	}
	tokens = mustParse(t, `[]`, 1)
	if len(tokens) != 1 || tokens[0].Type != TypeArray || tokens[0].Size != 0 {
		t.Fatalf("expected empty array, got %+v", tokens)
	}
	tokens = mustParse(t, "  \t\r\n ", 4)
	if len(tokens) != 0 {
		t.Fatalf("expected no tokens for whitespace, got %d", len(tokens))
	}
}

func TestSliceClampsBounds(t *testing.T) {
	if got := Slice("abcdef", 2, 4); got != "cd" {
		t.Fatalf("expected cd, got %q", got)
	}
	if got := Slice("abc", -3, 99); got != "abc" {
		t.Fatalf("expected clamped full string, got %q", got)
	}
	if got := Slice("abc", 2, 1); got != "" {
		t.Fatalf("expected empty for inverted range, got %q", got)
	}
}
