// Package postgres stores collections in PostgreSQL through gorm. Uniqueness
// comes from the schema: primary keys and the idx_accounts_email index.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rescue-id/internal/domain/entity"
	"rescue-id/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

type Store struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewStore(db *gorm.DB, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
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
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// conn returns a gorm session bound to ctx and the store timeout.
func (s *Store) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if s.timeout <= 0 {
		return s.db.WithContext(ctx), func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

type accountRepository struct{ s *Store }

func (r *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	if err := db.Create(account).Error; err != nil {
		switch {
		case isDuplicateKeyError(err, "email"):
			return repository.ErrDuplicateEmail
		case isDuplicateKeyError(err, "pkey"):
			return repository.ErrDuplicateID
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	var account entity.Account
	err := db.Where("email = ?", email).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &account, nil
}

func (r *accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	var count int64
	if err := db.Model(&entity.Account{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count accounts: %w", err)
	}
	return count > 0, nil
}

type profileRepository struct{ s *Store }

func (r *profileRepository) Create(ctx context.Context, profile *entity.EmergencyProfile) error {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	if err := db.Create(profile).Error; err != nil {
		if isDuplicateKeyError(err, "pkey") {
			return repository.ErrDuplicateID
		}
		return fmt.Errorf("insert emergency profile: %w", err)
	}
	return nil
}

func (r *profileRepository) FindByID(ctx context.Context, id string) (*entity.EmergencyProfile, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	var profile entity.EmergencyProfile
	err := db.Where("id = ?", id).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find emergency profile: %w", err)
	}
	return &profile, nil
}

func (r *profileRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	var count int64
	if err := db.Model(&entity.EmergencyProfile{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count emergency profiles: %w", err)
	}
	return count > 0, nil
}

type loginHistoryRepository struct{ s *Store }

func (r *loginHistoryRepository) Append(ctx context.Context, record *entity.LoginRecord) error {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	if err := db.Create(record).Error; err != nil {
		return fmt.Errorf("insert login record: %w", err)
	}
	return nil
}

func (r *loginHistoryRepository) FindByAccountID(ctx context.Context, accountID string, limit int) ([]entity.LoginRecord, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	var records []entity.LoginRecord
	err := db.Where("account_id = ?", accountID).
		Order("login_time DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("find login records: %w", err)
	}
	return records, nil
}

// isDuplicateKeyError reports a PostgreSQL unique_violation whose constraint
// name contains constraintName.
func isDuplicateKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation &&
			strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName))
	}
	return false
}
