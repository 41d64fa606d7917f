package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateKey(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"256-bit key", KeySize256},
		{"512-bit key", KeySize512},
		{"custom size", 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := GenerateKey(tt.size)
			require.NoError(t, err)
			require.Len(t, key, tt.size)

			key2, err := GenerateKey(tt.size)
			require.NoError(t, err)
			require.NotEqual(t, key, key2, "keys should be unique")
		})
	}
}

func TestGenerateKey_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		key, err := GenerateKey(size)
		require.Error(t, err)
		require.Nil(t, key)

		token, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, token)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(KeySize512)
	require.NoError(t, err)

	raw, err := DecodeToken(token)
	require.NoError(t, err)
	require.Len(t, raw, KeySize512)

	_, err = DecodeToken("not base64 !!")
	require.Error(t, err)
}

func TestFingerprintToken(t *testing.T) {
	fp1a := FingerprintToken("test-token-1")
	fp1b := FingerprintToken("test-token-1")
	fp2 := FingerprintToken("test-token-2")

	require.Equal(t, fp1a, fp1b, "fingerprint should be deterministic")
	require.NotEqual(t, fp1a, fp2)
	require.Len(t, fp1a, 12)
}
