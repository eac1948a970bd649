package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntBool_Scan(t *testing.T) {
	testCases := []struct {
		name string
		src  interface{}
		want IntBool
	}{
		{"null", nil, false},
		{"integer one", int64(1), true},
		{"integer zero", int64(0), false},
		{"boolean", true, true},
		{"text", []byte("1"), true},
		{"postgres text false", "f", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := IntBool(!tc.want)
			require.NoError(t, b.Scan(tc.src))
			assert.Equal(t, tc.want, b)
		})
	}

	var b IntBool
	assert.Error(t, b.Scan(3.5))
	assert.Error(t, b.Scan("maybe"))
}

func TestIntBool_Value(t *testing.T) {
	v, err := IntBool(true).Value()
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = IntBool(false).Value()
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}
