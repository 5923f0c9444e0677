// Package redisstore keeps records as JSON strings in Redis.
//
// Keys:
//
//	<prefix>account:<id>           account JSON
//	<prefix>account:email:<email>  account id
//	<prefix>profile:<id>           emergency profile JSON
//	<prefix>logins:<account id>    list of login record JSON, newest first
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rescue-id/internal/domain/entity"
	"rescue-id/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "rescue:"

// createAccountScript claims the email index and writes the account in one
// step. Returns 1 on success, -1 when the email is taken, -2 when the id is.
var createAccountScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 1 then
		return -1
	end
	if redis.call('EXISTS', KEYS[2]) == 1 then
		return -2
	end
	redis.call('SET', KEYS[1], ARGV[1])
	redis.call('SET', KEYS[2], ARGV[2])
	return 1
`)

type Store struct {
	client       redis.UniversalClient
	prefix       string
	historyLimit int64
	timeout      time.Duration
}

func NewStore(client redis.UniversalClient, historyLimit int, timeout time.Duration) *Store {
	return &Store{
		client:       client,
		prefix:       DefaultKeyPrefix,
		historyLimit: int64(historyLimit),
		timeout:      timeout,
	}
}

func (s *Store) Accounts() repository.AccountRepository {
	return &accountRepository{s}
}

func (s *Store) Profiles() repository.EmergencyProfileRepository {
	return &profileRepository{s}
}

func (s *Store) LoginHistory() repository.LoginHistoryRepository {
	return &loginHistoryRepository{s}
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Close()
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) accountKey(id string) string         { return s.prefix + "account:" + id }
func (s *Store) accountEmailKey(email string) string { return s.prefix + "account:email:" + email }
func (s *Store) profileKey(id string) string         { return s.prefix + "profile:" + id }
func (s *Store) loginsKey(accountID string) string   { return s.prefix + "logins:" + accountID }

type accountRepository struct{ s *Store }

func (r *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	payload, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}

	keys := []string{r.s.accountEmailKey(account.Email), r.s.accountKey(account.ID)}
	result, err := createAccountScript.Run(ctx, r.s.client, keys, account.ID, string(payload)).Int64()
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}

	switch result {
	case -1:
		return repository.ErrDuplicateEmail
	case -2:
		return repository.ErrDuplicateID
	}
	return nil
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	id, err := r.s.client.Get(ctx, r.s.accountEmailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account id: %w", err)
	}

	var account entity.Account
	if err := r.s.getJSON(ctx, r.s.accountKey(id), &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.s.exists(ctx, r.s.accountEmailKey(email))
}

type profileRepository struct{ s *Store }

func (r *profileRepository) Create(ctx context.Context, profile *entity.EmergencyProfile) error {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode emergency profile: %w", err)
	}

	created, err := r.s.client.SetNX(ctx, r.s.profileKey(profile.ID), string(payload), 0).Result()
	if err != nil {
		return fmt.Errorf("insert emergency profile: %w", err)
	}
	if !created {
		return repository.ErrDuplicateID
	}
	return nil
}

func (r *profileRepository) FindByID(ctx context.Context, id string) (*entity.EmergencyProfile, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	var profile entity.EmergencyProfile
	if err := r.s.getJSON(ctx, r.s.profileKey(id), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	return r.s.exists(ctx, r.s.profileKey(id))
}

type loginHistoryRepository struct{ s *Store }

// Append pushes the record and trims the list to the history limit.
func (r *loginHistoryRepository) Append(ctx context.Context, record *entity.LoginRecord) error {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode login record: %w", err)
	}

	key := r.s.loginsKey(record.AccountID)
	pipe := r.s.client.TxPipeline()
	pipe.LPush(ctx, key, string(payload))
	if r.s.historyLimit > 0 {
		pipe.LTrim(ctx, key, 0, r.s.historyLimit-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append login record: %w", err)
	}
	return nil
}

func (r *loginHistoryRepository) FindByAccountID(ctx context.Context, accountID string, limit int) ([]entity.LoginRecord, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	raw, err := r.s.client.LRange(ctx, r.s.loginsKey(accountID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("find login records: %w", err)
	}

	records := make([]entity.LoginRecord, 0, len(raw))
	for _, item := range raw {
		var record entity.LoginRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			return nil, fmt.Errorf("decode login record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Store) getJSON(ctx context.Context, key string, dst interface{}) error {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", key, err)
	}
	return n > 0, nil
}
