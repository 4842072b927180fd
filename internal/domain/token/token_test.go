package token

import (
	"encoding/base64"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var urlSafe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantLen int
		wantErr bool
	}{
		{name: "default length", length: DefaultLength, wantLen: 43},
		{name: "short", length: 16, wantLen: 22},
		{name: "zero", length: 0, wantErr: true},
		{name: "negative", length: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := Generate(tt.length)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Len(t, tok, tt.wantLen)
			assert.Regexp(t, urlSafe, tok)

			raw, err := base64.RawURLEncoding.DecodeString(tok)
			require.NoError(t, err)
			assert.Len(t, raw, tt.length)
		})
	}
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		tok, err := Generate(DefaultLength)
		require.NoError(t, err)
		_, dup := seen[tok]
		require.False(t, dup)
		seen[tok] = struct{}{}
	}
}

func TestHash(t *testing.T) {
	h1 := Hash("some-token")
	h2 := Hash("some-token")

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, Hash("some-token2"))
	// sha256("") is well known
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Hash(""))
}
