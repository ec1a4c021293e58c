package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keygate/keygate/internal/shared"
)

func TestValidatePasswordOrder(t *testing.T) {
	cases := []struct {
		name     string
		password string
		message  string
	}{
		{"too short", "abc", "password must be at least 8 characters long"},
		{"short beats missing classes", "A1!", "password must be at least 8 characters long"},
		{"no uppercase", "alllower1!", "password must contain at least one uppercase letter"},
		{"no lowercase", "ALLUPPER1!", "password must contain at least one lowercase letter"},
		{"no digit", "NoDigits!!", "password must contain at least one number"},
		{"no symbol", "NoSymbol11", "password must contain at least one special character"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassword(tc.password)
			require.Error(t, err)
			require.True(t, errors.Is(err, shared.ErrWeakPassword))
			require.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestValidatePasswordAccepts(t *testing.T) {
	require.NoError(t, ValidatePassword("Sup3rSecret!"))
}

func TestValidatePasswordMaxLength(t *testing.T) {
	long := make([]byte, 129)
	for i := range long {
		long[i] = 'a'
	}
	err := ValidatePassword(string(long))
	require.Error(t, err)
	require.Contains(t, err.Error(), "at most 128 characters")
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret!")
	require.NoError(t, err)
	require.NotEqual(t, "Sup3rSecret!", hash)
	require.True(t, CheckPassword("Sup3rSecret!", hash))
	require.False(t, CheckPassword("sup3rsecret!", hash))
}
