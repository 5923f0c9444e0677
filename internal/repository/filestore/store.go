// Package filestore persists all collections in one JSON document that is
// read in full and rewritten in full on every mutation. A single mutex
// serializes access, so only one process may own the file.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"rescue-id/internal/domain/entity"
	"rescue-id/internal/domain/repository"
)

// document is the on-disk layout.
type document struct {
	Users       []entity.Account          `json:"users"`
	Emergencies []entity.EmergencyProfile `json:"emergencies"`
	Logins      []entity.LoginRecord      `json:"logins,omitempty"`
}

type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore opens path, creating an empty document when the file is missing.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := s.write(&document{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
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

func (s *Store) read() (*document, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	doc := &document{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return doc, nil
}

// write replaces the file through a temp file and rename so readers never
// observe a partial document.
func (s *Store) write(doc *document) error {
	if doc.Users == nil {
		doc.Users = []entity.Account{}
	}
	if doc.Emergencies == nil {
		doc.Emergencies = []entity.EmergencyProfile{}
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

// view runs fn against a freshly read document.
func (s *Store) view(ctx context.Context, fn func(doc *document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	return fn(doc)
}

// update runs fn and persists the document when fn succeeds.
func (s *Store) update(ctx context.Context, fn func(doc *document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.write(doc)
}

type accountRepository struct{ s *Store }

func (r accountRepository) Create(ctx context.Context, account *entity.Account) error {
	return r.s.update(ctx, func(doc *document) error {
		for _, existing := range doc.Users {
			if existing.Email == account.Email {
				return repository.ErrDuplicateEmail
			}
			if existing.ID == account.ID {
				return repository.ErrDuplicateID
			}
		}
		doc.Users = append(doc.Users, *account)
		return nil
	})
}

func (r accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	var found *entity.Account
	err := r.s.view(ctx, func(doc *document) error {
		for i := range doc.Users {
			if doc.Users[i].Email == email {
				found = &doc.Users[i]
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

type profileRepository struct{ s *Store }

func (r profileRepository) Create(ctx context.Context, profile *entity.EmergencyProfile) error {
	return r.s.update(ctx, func(doc *document) error {
		for _, existing := range doc.Emergencies {
			if existing.ID == profile.ID {
				return repository.ErrDuplicateID
			}
		}
		doc.Emergencies = append(doc.Emergencies, *profile)
		return nil
	})
}

func (r profileRepository) FindByID(ctx context.Context, id string) (*entity.EmergencyProfile, error) {
	var found *entity.EmergencyProfile
	err := r.s.view(ctx, func(doc *document) error {
		for i := range doc.Emergencies {
			if doc.Emergencies[i].ID == id {
				found = &doc.Emergencies[i]
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r profileRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, err := r.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

type loginHistoryRepository struct{ s *Store }

func (r loginHistoryRepository) Append(ctx context.Context, record *entity.LoginRecord) error {
	return r.s.update(ctx, func(doc *document) error {
		doc.Logins = append(doc.Logins, *record)
		return nil
	})
}

func (r loginHistoryRepository) FindByAccountID(ctx context.Context, accountID string, limit int) ([]entity.LoginRecord, error) {
	var records []entity.LoginRecord
	err := r.s.view(ctx, func(doc *document) error {
		for _, record := range doc.Logins {
			if record.AccountID == accountID {
				records = append(records, record)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].LoginTime.After(records[j].LoginTime)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
