// Package memory keeps every collection in process memory. Data is lost on
// restart; it is meant for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"rescue-id/internal/domain/entity"
	"rescue-id/internal/domain/repository"
)

type Store struct {
	mu       sync.RWMutex
	accounts map[string]*entity.Account // by id
	emails   map[string]string          // email -> account id
	profiles map[string]*entity.EmergencyProfile
	logins   map[string][]entity.LoginRecord // by account id, append order
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*entity.Account),
		emails:   make(map[string]string),
		profiles: make(map[string]*entity.EmergencyProfile),
		logins:   make(map[string][]entity.LoginRecord),
	}
}

func (s *Store) Accounts() repository.AccountRepository {
	return accountRepository{s}
}

func (s *Store) Profiles() repository.EmergencyProfileRepository {
	return profileRepository{s}
}

func (s *Store) LoginHistory() repository.LoginHistoryRepository {
	return loginHistoryRepository{s}
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}

type accountRepository struct{ s *Store }

func (r accountRepository) Create(ctx context.Context, account *entity.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.emails[account.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	if _, ok := r.s.accounts[account.ID]; ok {
		return repository.ErrDuplicateID
	}

	stored := *account
	r.s.accounts[account.ID] = &stored
	r.s.emails[account.Email] = account.ID
	return nil
}

func (r accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.emails[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	account := *r.s.accounts[id]
	return &account, nil
}

func (r accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.emails[email]
	return ok, nil
}

type profileRepository struct{ s *Store }

func (r profileRepository) Create(ctx context.Context, profile *entity.EmergencyProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.profiles[profile.ID]; ok {
		return repository.ErrDuplicateID
	}
	stored := *profile
	r.s.profiles[profile.ID] = &stored
	return nil
}

func (r profileRepository) FindByID(ctx context.Context, id string) (*entity.EmergencyProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	profile, ok := r.s.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	found := *profile
	return &found, nil
}

func (r profileRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.profiles[id]
	return ok, nil
}

type loginHistoryRepository struct{ s *Store }

func (r loginHistoryRepository) Append(ctx context.Context, record *entity.LoginRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.logins[record.AccountID] = append(r.s.logins[record.AccountID], *record)
	return nil
}

func (r loginHistoryRepository) FindByAccountID(ctx context.Context, accountID string, limit int) ([]entity.LoginRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	records := make([]entity.LoginRecord, len(r.s.logins[accountID]))
	copy(records, r.s.logins[accountID])
	r.s.mu.RUnlock()

	return newestFirst(records, limit), nil
}

func newestFirst(records []entity.LoginRecord, limit int) []entity.LoginRecord {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].LoginTime.After(records[j].LoginTime)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}
