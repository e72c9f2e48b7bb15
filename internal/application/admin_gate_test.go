package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCachedGate(store *memoryStore, identities IdentityRegistrar, secret string) *AdminGate {
	return NewAdminGate(store, identities, AdminGateConfig{
		AdmissionSecret: secret,
		CacheTTL:        time.Minute,
		IDGenerator:     sequentialIDs("adm"),
		Now:             func() time.Time { return testStart },
	})
}

func TestAdminGate_IsAdmin(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.admins = []AdminRecord{{ID: "adm-1", UID: adminIdentity.UID}}
	gate := newCachedGate(store, nil, "")
	ctx := context.Background()

	ok, err := gate.IsAdmin(ctx, adminIdentity)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = gate.IsAdmin(ctx, aliceIdentity)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = gate.IsAdmin(ctx, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = gate.IsAdmin(ctx, &Identity{Email: "nobody@example.com"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdminGate_CachesUntilIdentityChanges(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	gate := newCachedGate(store, nil, "")
	ctx := context.Background()

	ok, err := gate.IsAdmin(ctx, aliceIdentity)
	require.NoError(t, err)
	assert.False(t, ok)

	store.admins = append(store.admins, AdminRecord{ID: "adm-2", UID: aliceIdentity.UID})
	ok, err = gate.IsAdmin(ctx, aliceIdentity)
	require.NoError(t, err)
	assert.False(t, ok, "cached decision is reused")
	assert.Equal(t, 1, store.hits())

	gate.HandleIdentityEvent(IdentityEvent{Kind: IdentitySignedIn, Identity: *aliceIdentity})
	ok, err = gate.IsAdmin(ctx, aliceIdentity)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, store.hits())
}

func TestAdminGate_RequireAdminFailsClosed(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.adminErr = errors.New("connection reset")
	gate := newCachedGate(store, nil, "")

	err := gate.RequireAdmin(context.Background(), adminIdentity)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.adminErr)

	store.adminErr = nil
	err = gate.RequireAdmin(context.Background(), adminIdentity)
	var authErr *AuthorizationError
	assert.ErrorAs(t, err, &authErr, "a failed lookup is not cached as a decision")
}

func TestAdminGate_RegisterAdmin(t *testing.T) {
	t.Parallel()

	newIdentities := func(store *memoryStore) *IdentityService {
		return NewIdentityService(store, IdentityConfig{
			Secret:         []byte("test-secret"),
			PasswordParams: testPasswordHP,
			IDGenerator:    sequentialIDs("uid"),
			Now:            func() time.Time { return testStart },
		})
	}

	t.Run("valid secret", func(t *testing.T) {
		store := newMemoryStore()
		identities := newIdentities(store)
		gate := newCachedGate(store, identities, "letmein")
		ctx := context.Background()

		record, session, err := gate.RegisterAdmin(ctx, AdminSignUpParams{
			Email:           "Root@Example.com",
			Password:        "s3cret-pass",
			Name:            "Root",
			AdmissionSecret: "letmein",
		})
		require.NoError(t, err)
		assert.Equal(t, session.Identity.UID, record.UID)
		assert.Equal(t, "root@example.com", record.Email)
		assert.Equal(t, "Root", record.Name)
		assert.NotEmpty(t, session.Token)

		ok, err := gate.IsAdmin(ctx, &session.Identity)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("wrong secret creates nothing", func(t *testing.T) {
		store := newMemoryStore()
		gate := newCachedGate(store, newIdentities(store), "letmein")

		_, _, err := gate.RegisterAdmin(context.Background(), AdminSignUpParams{
			Email: "root@example.com", Password: "s3cret-pass", Name: "Root", AdmissionSecret: "guess",
		})
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Empty(t, store.users)
		assert.Empty(t, store.admins)
	})

	t.Run("sign-up disabled without secret", func(t *testing.T) {
		store := newMemoryStore()
		gate := newCachedGate(store, newIdentities(store), "")

		_, _, err := gate.RegisterAdmin(context.Background(), AdminSignUpParams{
			Email: "root@example.com", Password: "s3cret-pass", Name: "Root",
		})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("missing name", func(t *testing.T) {
		store := newMemoryStore()
		gate := newCachedGate(store, newIdentities(store), "letmein")

		_, _, err := gate.RegisterAdmin(context.Background(), AdminSignUpParams{
			Email: "root@example.com", Password: "s3cret-pass", AdmissionSecret: "letmein",
		})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "name")
	})
}
