package uniuri

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	b, err := New()
	require.NoError(t, err)

	assert.Len(t, a, StdLen)
	assert.NotEqual(t, a, b)

	for _, c := range a {
		assert.True(t, strings.ContainsRune(string(StdChars), c))
	}
}

func TestNewLenChars(t *testing.T) {
	testCases := []struct {
		name    string
		length  int
		chars   []byte
		wantErr error
	}{
		{name: "binary charset", length: 64, chars: []byte("01")},
		{name: "empty result", length: 0, chars: StdChars},
		{name: "charset too short", length: 4, chars: []byte("a"), wantErr: ErrCharset},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewLenChars(tc.length, tc.chars)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Len(t, got, tc.length)
			assert.Empty(t, strings.Trim(got, string(tc.chars)))
		})
	}
}
