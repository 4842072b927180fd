package crypto

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIterations = 1000

func TestDeriveKey_Deterministic(t *testing.T) {
	tests := []struct {
		name       string
		passphrase string
		salt       string
	}{
		{name: "regular", passphrase: "CorrectHorse!23", salt: "42"},
		{name: "empty passphrase", passphrase: "", salt: "7"},
		{name: "unicode", passphrase: "пароль-密码", salt: "100500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k1 := DeriveKey(tt.passphrase, tt.salt, testIterations)
			k2 := DeriveKey(tt.passphrase, tt.salt, testIterations)

			assert.True(t, k1.Equal(k2))
			assert.Len(t, k1.b, keyLength)
		})
	}
}

func TestDeriveKey_InputsMatter(t *testing.T) {
	base := DeriveKey("pw", "1", testIterations)

	assert.False(t, base.Equal(DeriveKey("pw", "2", testIterations)), "salt")
	assert.False(t, base.Equal(DeriveKey("pw2", "1", testIterations)), "passphrase")
	assert.False(t, base.Equal(DeriveKey("pw", "1", testIterations+1)), "iterations")
}

func TestDeriveKeyContext(t *testing.T) {
	key, err := DeriveKeyContext(context.Background(), "pw", "1", testIterations)
	require.NoError(t, err)
	assert.True(t, key.Equal(DeriveKey("pw", "1", testIterations)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// cancelled before start; whichever branch wins, a cancelled ctx never yields a key silently
	key, err = DeriveKeyContext(ctx, "pw", "1", 2_000_000)
	if err == nil {
		assert.NotNil(t, key)
	} else {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestDerivedKey_NotExportable(t *testing.T) {
	key := DeriveKey("pw", "1", testIterations)

	_, err := json.Marshal(key)
	assert.ErrorIs(t, err, ErrKeyNotExportable)

	_, err = json.Marshal(struct{ K *DerivedKey }{K: key})
	assert.Error(t, err)

	assert.Equal(t, "DerivedKey(redacted)", fmt.Sprintf("%v", key))
	assert.Equal(t, "DerivedKey(redacted)", fmt.Sprintf("%#v", key))
}

func TestDerivedKey_Wipe(t *testing.T) {
	key := DeriveKey("pw", "1", testIterations)
	raw := key.b

	key.Wipe()

	assert.Equal(t, make([]byte, keyLength), raw)
	assert.False(t, key.usable())
	_, err := Encrypt(key, "x")
	assert.Error(t, err)
}

func TestSaltForUser(t *testing.T) {
	assert.Equal(t, "42", SaltForUser(42))
	assert.Equal(t, "1", SaltForUser(1))
}

