package handler

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
    cases := []struct {
        in   string
        want string
    }{
        {"leonard@example.com", "le*****@example.com"},
        {"ab@example.com", "ab@example.com"},
        {"a@example.com", "a@example.com"},
        {"not-an-email", "not-an-email"},
    }
    for _, tc := range cases {
        assert.Equal(t, tc.want, maskEmail(tc.in), tc.in)
    }
}
