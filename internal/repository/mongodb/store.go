// Package mongodb stores collections in MongoDB. Record ids are document _id
// values; account emails carry a unique index created by EnsureIndexes.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rescue-id/internal/domain/entity"
	"rescue-id/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	accountsCollection     = "accounts"
	profilesCollection     = "profiles"
	loginHistoryCollection = "login_history"

	accountsEmailIndex = "idx_accounts_email"
)

type Store struct {
	db      *mongo.Database
	timeout time.Duration
}

func NewStore(db *mongo.Database, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
}

// EnsureIndexes creates the indexes the store relies on. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.Collection(accountsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName(accountsEmailIndex).SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", accountsEmailIndex, err)
	}

	_, err = s.db.Collection(loginHistoryCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "account_id", Value: 1}, {Key: "login_time", Value: -1}},
		Options: options.Index().SetName("idx_login_history_account_id_login_time"),
	})
	if err != nil {
		return fmt.Errorf("create login history index: %w", err)
	}
	return nil
}

func (s *Store) Accounts() repository.AccountRepository {
	return &accountRepository{s: s, coll: s.db.Collection(accountsCollection)}
}

func (s *Store) Profiles() repository.EmergencyProfileRepository {
	return &profileRepository{s: s, coll: s.db.Collection(profilesCollection)}
}

func (s *Store) LoginHistory() repository.LoginHistoryRepository {
	return &loginHistoryRepository{s: s, coll: s.db.Collection(loginHistoryCollection)}
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

type accountRepository struct {
	s    *Store
	coll *mongo.Collection
}

func (r *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, account); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if duplicateOnIndex(err, accountsEmailIndex) {
				return repository.ErrDuplicateEmail
			}
			return repository.ErrDuplicateID
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	var account entity.Account
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&account); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &account, nil
}

func (r *accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return exists(ctx, r.s, r.coll, bson.M{"email": email})
}

type profileRepository struct {
	s    *Store
	coll *mongo.Collection
}

func (r *profileRepository) Create(ctx context.Context, profile *entity.EmergencyProfile) error {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, profile); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateID
		}
		return fmt.Errorf("insert emergency profile: %w", err)
	}
	return nil
}

func (r *profileRepository) FindByID(ctx context.Context, id string) (*entity.EmergencyProfile, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	var profile entity.EmergencyProfile
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&profile); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find emergency profile: %w", err)
	}
	return &profile, nil
}

func (r *profileRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.s, r.coll, bson.M{"_id": id})
}

type loginHistoryRepository struct {
	s    *Store
	coll *mongo.Collection
}

func (r *loginHistoryRepository) Append(ctx context.Context, record *entity.LoginRecord) error {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("insert login record: %w", err)
	}
	return nil
}

func (r *loginHistoryRepository) FindByAccountID(ctx context.Context, accountID string, limit int) ([]entity.LoginRecord, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "login_time", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.M{"account_id": accountID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find login records: %w", err)
	}

	records := []entity.LoginRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode login records: %w", err)
	}
	return records, nil
}

func exists(ctx context.Context, s *Store, coll *mongo.Collection, filter bson.M) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count %s: %w", coll.Name(), err)
	}
	return n > 0, nil
}

// duplicateOnIndex reports whether a duplicate key error names index.
func duplicateOnIndex(err error, index string) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 && strings.Contains(e.Message, index) {
				return true
			}
		}
		return false
	}
	return strings.Contains(err.Error(), index)
}
