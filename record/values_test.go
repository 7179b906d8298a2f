package record

import (
	"math"
	"testing"
	"time"

	"github.com/goliatone/go-datamapper/schema"
	"github.com/stretchr/testify/assert"
)

type label string

func (l label) String() string { return "label:" + string(l) }

func TestNormalize(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	n := 7

	tests := []struct {
		name  string
		bind  schema.BindType
		in    any
		want  any
		valid bool
	}{
		{name: "int from int", bind: schema.BindInt, in: 3, want: int64(3), valid: true},
		{name: "int from uint8", bind: schema.BindInt, in: uint8(200), want: int64(200), valid: true},
		{name: "int from integral float", bind: schema.BindInt, in: 4.0, want: int64(4), valid: true},
		{name: "int rejects fraction", bind: schema.BindInt, in: 4.5, valid: false},
		{name: "int rejects float above range", bind: schema.BindInt, in: 1e19, valid: false},
		{name: "int rejects float below range", bind: schema.BindInt, in: -1e19, valid: false},
		{name: "int rejects two to the 63", bind: schema.BindInt, in: math.Pow(2, 63), valid: false},
		{name: "int accepts minimum", bind: schema.BindInt, in: -math.Pow(2, 63), want: int64(math.MinInt64), valid: true},
		{name: "int rejects infinity", bind: schema.BindInt, in: math.Inf(1), valid: false},
		{name: "int rejects NaN", bind: schema.BindInt, in: math.NaN(), valid: false},
		{name: "int rejects exponent string above range", bind: schema.BindInt, in: "1e19", valid: false},
		{name: "int from string", bind: schema.BindInt, in: " 12 ", want: int64(12), valid: true},
		{name: "int from bool", bind: schema.BindInt, in: true, want: int64(1), valid: true},
		{name: "int from time", bind: schema.BindInt, in: at, want: at.Unix(), valid: true},
		{name: "int from pointer", bind: schema.BindInt, in: &n, want: int64(7), valid: true},
		{name: "int rejects word", bind: schema.BindInt, in: "seven", valid: false},
		{name: "float from float32", bind: schema.BindFloat, in: float32(9.99), want: 9.99, valid: true},
		{name: "float from int", bind: schema.BindFloat, in: 2, want: 2.0, valid: true},
		{name: "float from bytes", bind: schema.BindFloat, in: []byte("1.25"), want: 1.25, valid: true},
		{name: "string from int", bind: schema.BindString, in: int64(5), want: "5", valid: true},
		{name: "string from float", bind: schema.BindString, in: 0.5, want: "0.5", valid: true},
		{name: "string from time", bind: schema.BindString, in: at, want: "2024-03-01 12:30:00", valid: true},
		{name: "string from stringer", bind: schema.BindString, in: label("x"), want: "label:x", valid: true},
		{name: "string rejects map", bind: schema.BindString, in: map[string]int{}, valid: false},
		{name: "blob from string", bind: schema.BindBlob, in: "ab", want: []byte("ab"), valid: true},
		{name: "blob rejects int", bind: schema.BindBlob, in: 1, valid: false},
		{name: "nil stays nil", bind: schema.BindString, in: nil, want: nil, valid: true},
		{name: "nil blob stays untyped", bind: schema.BindBlob, in: []byte(nil), want: nil, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := normalize(tt.bind, tt.in)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNormalize_BlobIsCopied(t *testing.T) {
	in := []byte("abc")
	got, ok := normalize(schema.BindBlob, in)
	assert.True(t, ok)

	in[0] = 'z'
	assert.Equal(t, []byte("abc"), got)
}

func TestDefaultValue(t *testing.T) {
	assert.Equal(t, int64(0), defaultValue(schema.BindInt))
	assert.Equal(t, 0.0, defaultValue(schema.BindFloat))
	assert.Equal(t, "", defaultValue(schema.BindString))
	assert.Nil(t, defaultValue(schema.BindBlob))
}

func TestSameValue(t *testing.T) {
	assert.True(t, sameValue(int64(1), int64(1)))
	assert.False(t, sameValue(int64(1), 1.0))
	assert.True(t, sameValue([]byte("a"), []byte("a")))
	assert.False(t, sameValue([]byte{}, nil))
	assert.True(t, sameValue(nil, nil))
}
