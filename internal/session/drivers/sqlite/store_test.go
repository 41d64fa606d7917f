package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/eas/internal/session"
	"github.com/aussiebroadwan/eas/internal/session/drivers/sqlite"
	"github.com/aussiebroadwan/eas/pkg/attendsdk"
	"github.com/stretchr/testify/require"
)

var keyMaterial = []byte("sqlite-store-test-key-material!!")

func openStore(t *testing.T, path string, key []byte) *sqlite.Store {
	t.Helper()

	store, err := sqlite.Open(path, key)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := openStore(t, filepath.Join(t.TempDir(), "eas.db"), keyMaterial)
	require.NoError(t, store.Ping(ctx))
	require.Equal(t, uint(1), store.SchemaVersion())

	s, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, s.IsZero())

	want := session.Session{
		Credential: "tok-abc",
		User:       &attendsdk.User{ID: 9, FullName: "Lee Park", Role: attendsdk.RoleHR, IsActive: true},
	}
	require.NoError(t, store.Save(ctx, want))
	require.NoError(t, store.Save(ctx, want), "saving twice upserts")

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)

	require.NoError(t, store.Clear(ctx))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestStoreSurvivesReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "eas.db")
	want := session.Session{
		Credential: "tok-abc",
		User:       &attendsdk.User{ID: 1, Role: attendsdk.RoleEmployee},
	}

	first, err := sqlite.Open(path, keyMaterial)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, want))
	require.NoError(t, first.Close())

	second := openStore(t, path, keyMaterial)
	require.Equal(t, uint(1), second.SchemaVersion(), "reopening finds nothing to migrate")

	got, err := second.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestStoreDiscardsCredentialSealedWithAnotherKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "eas.db")

	first, err := sqlite.Open(path, keyMaterial)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, session.Session{
		Credential: "tok",
		User:       &attendsdk.User{ID: 1, Role: attendsdk.RoleAdmin},
	}))
	require.NoError(t, first.Close())

	second := openStore(t, path, []byte("a-completely-different-key-value"))
	got, err := second.Load(ctx)
	require.NoError(t, err)
	require.True(t, got.IsZero())

	// The unreadable rows are gone, so the first key finds nothing either
	require.NoError(t, second.Close())
	third := openStore(t, path, keyMaterial)
	got, err = third.Load(ctx)
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := openStore(t, filepath.Join(t.TempDir(), "not", "yet", "eas.db"), keyMaterial)
	require.NoError(t, store.Save(ctx, session.Session{
		Credential: "tok",
		User:       &attendsdk.User{ID: 1, Role: attendsdk.RoleEmployee},
	}))
}
