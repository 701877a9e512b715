package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"designforge/pkg/auth"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	j := auth.New("test-secret")
	tok, err := j.Sign("user-123", time.Hour)
	require.NoError(t, err)

	uid, err := j.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "user-123", uid)
}

func TestVerifyRejects(t *testing.T) {
	t.Parallel()

	j := auth.New("test-secret")
	tok, err := j.Sign("user-123", time.Hour)
	require.NoError(t, err)

	// Wrong secret.
	_, err = auth.New("other-secret").Verify(tok)
	require.Error(t, err)

	// Expired.
	expired, err := j.Sign("user-123", -time.Minute)
	require.NoError(t, err)
	_, err = j.Verify(expired)
	require.Error(t, err)

	// Garbage.
	_, err = j.Verify("not.a.token")
	require.Error(t, err)
}

func TestSignEmptyUID(t *testing.T) {
	t.Parallel()

	_, err := auth.New("s").Sign("", time.Hour)
	require.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := auth.WithUser(context.Background(), "u1")
	require.Equal(t, "u1", auth.UserID(ctx))
	require.Empty(t, auth.UserID(context.Background()))
}
