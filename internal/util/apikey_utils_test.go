package util

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurallempire/neurallempire-api/internal/domain/apikey"
)

func TestGenerateAPIKey(t *testing.T) {
	fullKey, prefix, keyHash, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(fullKey, fmt.Sprintf("ne_%s_", prefix)))
	assert.Len(t, prefix, apikey.APIKeyPrefixLength)
	assert.Len(t, keyHash, 64, "sha256 hex digest")
	assert.Equal(t, HashAPIKey(fullKey), keyHash)

	// The secret must never leak into the stored hash or prefix.
	secret := strings.TrimPrefix(fullKey, "ne_"+prefix+"_")
	assert.Len(t, secret, apikey.APIKeySecretLength)
	assert.NotContains(t, keyHash, secret)
}

func TestGenerateAPIKeyIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		fullKey, _, _, err := GenerateAPIKey()
		require.NoError(t, err)
		require.False(t, seen[fullKey])
		seen[fullKey] = true
	}
}

func TestHashAPIKeyIsDeterministic(t *testing.T) {
	assert.Equal(t, HashAPIKey("ne_abc_def"), HashAPIKey("ne_abc_def"))
	assert.NotEqual(t, HashAPIKey("ne_abc_def"), HashAPIKey("ne_abc_deg"))
}

func TestParseAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantPrefix string
		wantOK     bool
	}{
		{"valid key", "ne_abcd1234_secretsecretsecret", "abcd1234", true},
		{"secret containing underscores", "ne_abcd1234_se_cr_et", "abcd1234", true},
		{"wrong sentinel", "sk_abcd1234_secret", "", false},
		{"missing secret", "ne_abcd1234", "", false},
		{"empty prefix", "ne__secret", "", false},
		{"empty secret", "ne_abcd1234_", "", false},
		{"not a key at all", "some-bearer-token", "", false},
		{"empty string", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, ok := ParseAPIKey(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantPrefix, prefix)
		})
	}
}
