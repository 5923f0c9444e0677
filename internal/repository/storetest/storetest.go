// Package storetest holds behavioural checks shared by every repository.Store
// implementation that can run without an external server.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"rescue-id/internal/domain/entity"
	"rescue-id/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) repository.Store

func Run(t *testing.T, newStore Factory) {
	t.Run("account round trip", func(t *testing.T) { testAccountRoundTrip(t, newStore(t)) })
	t.Run("duplicate email", func(t *testing.T) { testDuplicateEmail(t, newStore(t)) })
	t.Run("duplicate account id", func(t *testing.T) { testDuplicateAccountID(t, newStore(t)) })
	t.Run("concurrent signups with one email", func(t *testing.T) { testConcurrentSameEmail(t, newStore(t)) })
	t.Run("profile round trip", func(t *testing.T) { testProfileRoundTrip(t, newStore(t)) })
	t.Run("duplicate profile id", func(t *testing.T) { testDuplicateProfileID(t, newStore(t)) })
	t.Run("concurrent profiles", func(t *testing.T) { testConcurrentProfiles(t, newStore(t)) })
	t.Run("login history", func(t *testing.T) { testLoginHistory(t, newStore(t)) })
}

func NewAccount(email string) *entity.Account {
	return &entity.Account{
		ID:           uuid.NewString(),
		FullName:     "Ann",
		Email:        email,
		PasswordHash: "$2a$04$abcdefghijklmnopqrstuv",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

func NewProfile(id string) *entity.EmergencyProfile {
	return &entity.EmergencyProfile{
		ID:                 id,
		FullName:           "Bob",
		Age:                "42",
		BloodType:          "O+",
		ContactNo:          "+1 555 0100",
		AlternateContactNo: entity.DefaultUnknown,
		PermanentAddress:   entity.DefaultUnknown,
		MedicalHistory:     entity.DefaultMedicalHistory,
		Allergies:          "Penicillin",
		Medicines:          entity.DefaultMedicines,
		EmergencyContact:   "Alice +1 555 0101",
		CreatedAt:          time.Now().UTC().Truncate(time.Millisecond),
	}
}

func testAccountRoundTrip(t *testing.T, store repository.Store) {
	ctx := context.Background()
	account := NewAccount("ann@x.com")

	exists, err := store.Accounts().ExistsByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Accounts().FindByEmail(ctx, "ann@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.Accounts().Create(ctx, account))

	exists, err = store.Accounts().ExistsByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	found, err := store.Accounts().FindByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)
	assert.Equal(t, account.FullName, found.FullName)
	assert.Equal(t, account.PasswordHash, found.PasswordHash)
	assert.True(t, account.CreatedAt.Equal(found.CreatedAt))
}

func testDuplicateEmail(t *testing.T, store repository.Store) {
	ctx := context.Background()
	require.NoError(t, store.Accounts().Create(ctx, NewAccount("ann@x.com")))

	err := store.Accounts().Create(ctx, NewAccount("ann@x.com"))
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func testDuplicateAccountID(t *testing.T, store repository.Store) {
	ctx := context.Background()
	first := NewAccount("ann@x.com")
	require.NoError(t, store.Accounts().Create(ctx, first))

	second := NewAccount("bob@x.com")
	second.ID = first.ID
	err := store.Accounts().Create(ctx, second)
	assert.ErrorIs(t, err, repository.ErrDuplicateID)

	_, err = store.Accounts().FindByEmail(ctx, "bob@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testConcurrentSameEmail(t *testing.T, store repository.Store) {
	ctx := context.Background()
	const n = 50

	var created, duplicates atomic.Int32
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			err := store.Accounts().Create(ctx, NewAccount("race@x.com"))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, repository.ErrDuplicateEmail):
				duplicates.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, created.Load())
	assert.EqualValues(t, n-1, duplicates.Load())
}

func testProfileRoundTrip(t *testing.T, store repository.Store) {
	ctx := context.Background()
	profile := NewProfile("RID-1700000000000-AB12C")
	profile.OwnerAccountID = uuid.NewString()

	_, err := store.Profiles().FindByID(ctx, profile.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.Profiles().Create(ctx, profile))

	exists, err := store.Profiles().ExistsByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	found, err := store.Profiles().FindByID(ctx, profile.ID)
	require.NoError(t, err)
	AssertProfileEqual(t, profile, found)

	exists, err = store.Profiles().ExistsByID(ctx, "RID-0-ZZZZZ")
	require.NoError(t, err)
	assert.False(t, exists)
}

func testDuplicateProfileID(t *testing.T, store repository.Store) {
	ctx := context.Background()
	require.NoError(t, store.Profiles().Create(ctx, NewProfile("RID-1-AAAAA")))

	other := NewProfile("RID-1-AAAAA")
	other.FullName = "Mallory"
	err := store.Profiles().Create(ctx, other)
	assert.ErrorIs(t, err, repository.ErrDuplicateID)

	found, err := store.Profiles().FindByID(ctx, "RID-1-AAAAA")
	require.NoError(t, err)
	assert.Equal(t, "Bob", found.FullName)
}

func testConcurrentProfiles(t *testing.T, store repository.Store) {
	ctx := context.Background()
	const n = 100

	var g errgroup.Group
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("RID-1700000000000-%05d", i)
		g.Go(func() error {
			return store.Profiles().Create(ctx, NewProfile(id))
		})
	}
	require.NoError(t, g.Wait())

	for i := 0; i < n; i++ {
		exists, err := store.Profiles().ExistsByID(ctx, fmt.Sprintf("RID-1700000000000-%05d", i))
		require.NoError(t, err)
		assert.True(t, exists)
	}
}

func testLoginHistory(t *testing.T, store repository.Store) {
	ctx := context.Background()
	accountID := uuid.NewString()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.LoginHistory().Append(ctx, &entity.LoginRecord{
			ID:        uuid.NewString(),
			AccountID: accountID,
			Email:     "ann@x.com",
			FullName:  "Ann",
			LoginTime: base.Add(time.Duration(i) * time.Minute),
			Metadata:  entity.LoginMetadata{entity.LoginMetaRemoteAddr: "10.0.0.1"},
		}))
	}

	records, err := store.LoginHistory().FindByAccountID(ctx, accountID, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].LoginTime.Equal(base.Add(2*time.Minute)))
	assert.True(t, records[1].LoginTime.Equal(base.Add(time.Minute)))
	assert.Equal(t, "10.0.0.1", records[0].Metadata[entity.LoginMetaRemoteAddr])

	records, err = store.LoginHistory().FindByAccountID(ctx, uuid.NewString(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

// AssertProfileEqual compares two profiles, using time.Equal for CreatedAt.
func AssertProfileEqual(t *testing.T, want, got *entity.EmergencyProfile) {
	t.Helper()
	require.NotNil(t, got)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "createdAt %v != %v", want.CreatedAt, got.CreatedAt)

	w, g := *want, *got
	w.CreatedAt, g.CreatedAt = time.Time{}, time.Time{}
	assert.Equal(t, w, g)
}
