package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintIgnoresKeyOrder(t *testing.T) {
	a := Params{"b": 2, "a": 1, "nested": map[string]any{"y": 1, "x": 2}}
	b := Params{"nested": map[string]any{"x": 2, "y": 1}, "a": 1, "b": 2}
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.Equal(t, `{"a":1,"b":2,"nested":{"x":2,"y":1}}`, Fingerprint(a))
}

func TestFingerprintNilEqualsEmpty(t *testing.T) {
	assert.Equal(t, Fingerprint(nil), Fingerprint(Params{}))
}

func TestFingerprintDistinguishesValues(t *testing.T) {
	assert.NotEqual(t, Fingerprint(Params{"a": 1}), Fingerprint(Params{"a": 2}))
	assert.NotEqual(t, Fingerprint(Params{"a": "1"}), Fingerprint(Params{"a": 1}))
}

func TestWithoutDoesNotMutate(t *testing.T) {
	p := Params{"id": "1", "name": "x"}
	q := p.Without("id")
	assert.Equal(t, Params{"name": "x"}, q)
	assert.Len(t, p, 2)
}

func TestIsSequence(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{nil, false},
		{"abc", false},
		{[]byte("abc"), false},
		{42, false},
		{[]string{"a"}, true},
		{[]any{1, "b"}, true},
		{[2]int{1, 2}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSequence(tt.v), "%#v", tt.v)
	}
}

func TestSequence(t *testing.T) {
	assert.Equal(t, []any{"a", "b"}, Sequence([]string{"a", "b"}))
	assert.Nil(t, Sequence("a"))
}

func TestValuesEqualAcrossNumericKinds(t *testing.T) {
	assert.True(t, ValuesEqual(1, float64(1)))
	assert.True(t, ValuesEqual([]any{"a"}, []string{"a"}))
	assert.False(t, ValuesEqual(1, 2))
	assert.False(t, ValuesEqual("1", 1))
}
