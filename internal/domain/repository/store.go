package repository

import (
	"context"
	"errors"

	"rescue-id/internal/domain/entity"
)

// Errors every Store implementation reports. Implementations enforce
// uniqueness themselves, so a concurrent duplicate surfaces here instead of
// being committed.
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("duplicate email")
	ErrDuplicateID    = errors.New("duplicate id")
)

type AccountRepository interface {
	// Create fails with ErrDuplicateEmail or ErrDuplicateID.
	Create(ctx context.Context, account *entity.Account) error
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type EmergencyProfileRepository interface {
	// Create fails with ErrDuplicateID when the id is taken.
	Create(ctx context.Context, profile *entity.EmergencyProfile) error
	FindByID(ctx context.Context, id string) (*entity.EmergencyProfile, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
}

type LoginHistoryRepository interface {
	Append(ctx context.Context, record *entity.LoginRecord) error
	// FindByAccountID returns at most limit records, newest first.
	FindByAccountID(ctx context.Context, accountID string, limit int) ([]entity.LoginRecord, error)
}

// Store is a persistence backend holding all collections.
type Store interface {
	Accounts() AccountRepository
	Profiles() EmergencyProfileRepository
	LoginHistory() LoginHistoryRepository
	Close(ctx context.Context) error
}
