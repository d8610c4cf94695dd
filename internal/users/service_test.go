package users

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	svc := NewService(NewMemoryRepo())
	n := 0
	svc.NewID = func() string {
		n++
		return fmt.Sprintf("00000000-0000-0000-0000-%012d", n)
	}
	return svc
}

func TestSyncFromIdentityCreatesThenResyncs(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, err := svc.SyncFromIdentity(ctx, Identity{Subject: "g-1", Email: "ada@example.com", Name: "Ada", AvatarURL: "https://img/1"})
	require.NoError(t, err)
	require.Equal(t, "Ada", first.Username)
	require.Equal(t, "https://img/1", first.AvatarURL)

	again, err := svc.SyncFromIdentity(ctx, Identity{Subject: "g-1", Email: "ada@example.com", Name: "Ada L.", AvatarURL: "https://img/2"})
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
	require.Equal(t, "Ada L.", again.Username)
	require.Equal(t, "https://img/2", again.AvatarURL)
	require.Equal(t, first.CreatedAt, again.CreatedAt)
}

func TestSyncFromIdentitySuffixesCollidingUsername(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.SyncFromIdentity(ctx, Identity{Subject: "g-1", Email: "a@example.com", Name: "Sam"})
	require.NoError(t, err)
	other, err := svc.SyncFromIdentity(ctx, Identity{Subject: "g-2", Email: "b@example.com", Name: "Sam"})
	require.NoError(t, err)
	require.NotEqual(t, "Sam", other.Username)
	require.True(t, strings.HasPrefix(other.Username, "Sam-"))
}

func TestSyncFromIdentityFallsBackToEmailLocalPart(t *testing.T) {
	svc := newTestService()
	user, err := svc.SyncFromIdentity(context.Background(), Identity{Subject: "g-3", Email: "carol@example.com"})
	require.NoError(t, err)
	require.Equal(t, "carol", user.Username)
}

func TestSyncFromIdentityRequiresSubjectAndEmail(t *testing.T) {
	svc := newTestService()
	_, err := svc.SyncFromIdentity(context.Background(), Identity{Email: "x@example.com"})
	require.Error(t, err)
	_, err = svc.SyncFromIdentity(context.Background(), Identity{Subject: "g"})
	require.Error(t, err)
}

func TestGetByIDNotFound(t *testing.T) {
	svc := newTestService()
	_, err := svc.GetByID(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}
