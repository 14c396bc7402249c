package utils

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
    hash, err := HashPassword("open sesame", 4)
    require.NoError(t, err)
    assert.True(t, VerifyPassword(hash, "open sesame"))
    assert.False(t, VerifyPassword(hash, "open says me"))
}

func TestHashPasswordDefaultCost(t *testing.T) {
    hash, err := HashPassword("open sesame", 0)
    require.NoError(t, err)
    assert.True(t, VerifyPassword(hash, "open sesame"))
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
    assert.False(t, VerifyPassword("not-a-bcrypt-hash", "anything"))
}
