package errors_test

import (
	"fmt"
	"testing"

	apperrors "github.com/jrsteele09/bookstore-auth/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestWrapf(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.NoError(t, apperrors.Wrapf(nil, "lookup %s", "x"))
	})

	t.Run("keeps the chain", func(t *testing.T) {
		err := apperrors.Wrapf(apperrors.ErrNotFound, "user %s", "a@b.com")
		require.EqualError(t, err, "user a@b.com: not found")
		require.True(t, apperrors.Is(err, apperrors.ErrNotFound))
		require.False(t, apperrors.Is(err, apperrors.ErrAlreadyExists))
	})
}

type codedErr struct{ code int }

func (c codedErr) Error() string { return fmt.Sprintf("code %d", c.code) }

func TestAs(t *testing.T) {
	err := apperrors.Wrapf(codedErr{code: 7}, "outer")
	var target codedErr
	require.True(t, apperrors.As(err, &target))
	require.Equal(t, 7, target.code)
}
