package user_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openverse/user-service/internal/user"
)

func TestPlainHasher(t *testing.T) {
	hasher := user.PlainHasher{}

	stored, err := hasher.Hash("Secret1!")
	require.NoError(t, err)
	require.Equal(t, "Secret1!", stored)

	require.True(t, hasher.Compare(stored, "Secret1!"))
	require.False(t, hasher.Compare(stored, "Wrongpass3!"))
}

func TestBcryptHasher(t *testing.T) {
	hasher := user.BcryptHasher{}

	stored, err := hasher.Hash("Secret1!")
	require.NoError(t, err)
	require.NotEqual(t, "Secret1!", stored)

	require.True(t, hasher.Compare(stored, "Secret1!"))
	require.False(t, hasher.Compare(stored, "Wrongpass3!"))
}
