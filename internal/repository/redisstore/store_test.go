package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"rescue-id/internal/domain/entity"
	"rescue-id/internal/domain/repository"
	"rescue-id/internal/repository/storetest"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return NewStore(client, 3, time.Second), mock
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestAccountCreate(t *testing.T) {
	tests := []struct {
		name    string
		result  int64
		wantErr error
	}{
		{name: "created", result: 1},
		{name: "email taken", result: -1, wantErr: repository.ErrDuplicateEmail},
		{name: "id taken", result: -2, wantErr: repository.ErrDuplicateID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			account := storetest.NewAccount("ann@example.com")

			mock.ExpectEvalSha(
				createAccountScript.Hash(),
				[]string{"rescue:account:email:ann@example.com", "rescue:account:" + account.ID},
				account.ID, mustJSON(t, account),
			).SetVal(tt.result)

			err := store.Accounts().Create(context.Background(), account)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAccountCreate_RedisError(t *testing.T) {
	store, mock := newMockStore(t)
	account := storetest.NewAccount("ann@example.com")

	mock.ExpectEvalSha(
		createAccountScript.Hash(),
		[]string{"rescue:account:email:ann@example.com", "rescue:account:" + account.ID},
		account.ID, mustJSON(t, account),
	).SetErr(errors.New("connection refused"))

	err := store.Accounts().Create(context.Background(), account)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestAccountFindByEmail(t *testing.T) {
	store, mock := newMockStore(t)
	account := storetest.NewAccount("ann@example.com")

	mock.ExpectGet("rescue:account:email:ann@example.com").SetVal(account.ID)
	mock.ExpectGet("rescue:account:" + account.ID).SetVal(mustJSON(t, account))

	got, err := store.Accounts().FindByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)
	assert.Equal(t, account.PasswordHash, got.PasswordHash)
	assert.True(t, account.CreatedAt.Equal(got.CreatedAt))
}

func TestAccountFindByEmail_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectGet("rescue:account:email:nobody@example.com").RedisNil()

	_, err := store.Accounts().FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAccountExistsByEmail(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExists("rescue:account:email:ann@example.com").SetVal(1)
	mock.ExpectExists("rescue:account:email:bob@example.com").SetVal(0)

	exists, err := store.Accounts().ExistsByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Accounts().ExistsByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestProfileCreate(t *testing.T) {
	store, mock := newMockStore(t)
	profile := storetest.NewProfile("RID-1700000000000-AB12C")
	payload := mustJSON(t, profile)

	mock.ExpectSetNX("rescue:profile:RID-1700000000000-AB12C", payload, 0).SetVal(true)
	mock.ExpectSetNX("rescue:profile:RID-1700000000000-AB12C", payload, 0).SetVal(false)

	require.NoError(t, store.Profiles().Create(context.Background(), profile))
	assert.ErrorIs(t, store.Profiles().Create(context.Background(), profile), repository.ErrDuplicateID)
}

func TestProfileFindByID(t *testing.T) {
	store, mock := newMockStore(t)
	want := storetest.NewProfile("RID-1700000000000-AB12C")

	mock.ExpectGet("rescue:profile:RID-1700000000000-AB12C").SetVal(mustJSON(t, want))
	mock.ExpectGet("rescue:profile:RID-0-MISSING").RedisNil()

	got, err := store.Profiles().FindByID(context.Background(), want.ID)
	require.NoError(t, err)
	storetest.AssertProfileEqual(t, want, got)

	_, err = store.Profiles().FindByID(context.Background(), "RID-0-MISSING")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProfileFindByID_CorruptValue(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectGet("rescue:profile:RID-1").SetVal("{not json")

	_, err := store.Profiles().FindByID(context.Background(), "RID-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrNotFound)
}

func TestLoginHistoryAppend_TrimsToLimit(t *testing.T) {
	store, mock := newMockStore(t)
	record := &entity.LoginRecord{
		ID:        "login-1",
		AccountID: "acc-1",
		Email:     "ann@example.com",
		FullName:  "Ann",
		LoginTime: time.Now().UTC().Truncate(time.Millisecond),
	}

	mock.ExpectTxPipeline()
	mock.ExpectLPush("rescue:logins:acc-1", mustJSON(t, record)).SetVal(1)
	mock.ExpectLTrim("rescue:logins:acc-1", 0, 2).SetVal("OK")
	mock.ExpectTxPipelineExec()

	assert.NoError(t, store.LoginHistory().Append(context.Background(), record))
}

func TestLoginHistoryFindByAccountID(t *testing.T) {
	store, mock := newMockStore(t)
	newer := entity.LoginRecord{ID: "login-2", AccountID: "acc-1", LoginTime: time.Unix(200, 0).UTC()}
	older := entity.LoginRecord{ID: "login-1", AccountID: "acc-1", LoginTime: time.Unix(100, 0).UTC()}

	mock.ExpectLRange("rescue:logins:acc-1", 0, 1).SetVal([]string{mustJSON(t, newer), mustJSON(t, older)})

	records, err := store.LoginHistory().FindByAccountID(context.Background(), "acc-1", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "login-2", records[0].ID)
	assert.Equal(t, "login-1", records[1].ID)
}

func TestLoginHistoryFindByAccountID_Empty(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectLRange("rescue:logins:acc-9", 0, -1).SetVal([]string{})

	records, err := store.LoginHistory().FindByAccountID(context.Background(), "acc-9", 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}
