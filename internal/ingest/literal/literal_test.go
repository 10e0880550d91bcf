package literal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flibusta-go/libupdater/internal/ingest/literal"
)

func TestLiteral_Integer(t *testing.T) {
	v, ok := literal.Literal{Kind: literal.KindInteger, Int: 42}.Integer()
	assert.True(t, ok)
	assert.Equal(t, int64(42), v)

	_, ok = literal.Literal{Kind: literal.KindNegatedInteger, Int: 42}.Integer()
	assert.False(t, ok, "Integer must reject a negated literal")

	_, ok = literal.Literal{Kind: literal.KindString, Str: "42"}.Integer()
	assert.False(t, ok)
}

func TestLiteral_SignedInteger(t *testing.T) {
	v, ok := literal.Literal{Kind: literal.KindInteger, Int: 7}.SignedInteger()
	assert.True(t, ok)
	assert.Equal(t, int64(7), v)

	v, ok = literal.Literal{Kind: literal.KindNegatedInteger, Int: 7}.SignedInteger()
	assert.True(t, ok)
	assert.Equal(t, int64(-7), v)

	_, ok = literal.Literal{Kind: literal.KindNull}.SignedInteger()
	assert.False(t, ok)
}

func TestLiteral_Text(t *testing.T) {
	v, ok := literal.Literal{Kind: literal.KindString, Str: "hello"}.Text()
	assert.True(t, ok)
	assert.Equal(t, "hello", v)

	_, ok = literal.Literal{Kind: literal.KindInteger, Int: 1}.Text()
	assert.False(t, ok)
}

func TestLiteral_IsNull(t *testing.T) {
	assert.True(t, literal.Literal{Kind: literal.KindNull}.IsNull())
	assert.False(t, literal.Literal{Kind: literal.KindString}.IsNull())
}

func TestLiteral_String(t *testing.T) {
	tests := []struct {
		name string
		lit  literal.Literal
		want string
	}{
		{"integer", literal.Literal{Kind: literal.KindInteger, Int: 3}, "3"},
		{"negated", literal.Literal{Kind: literal.KindNegatedInteger, Int: 3}, "-3"},
		{"string", literal.Literal{Kind: literal.KindString, Str: "x"}, "x"},
		{"null", literal.Literal{Kind: literal.KindNull}, "NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.lit.String())
		})
	}
}
