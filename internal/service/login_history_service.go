package service

import (
	"context"
	"time"

	"rescue-id/internal/domain/entity"
	"rescue-id/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LoginMeta describes the client of a successful signin.
type LoginMeta struct {
	RemoteAddr string
	UserAgent  string
}

type LoginHistoryService interface {
	Record(ctx context.Context, account *entity.Account, meta LoginMeta) error
	List(ctx context.Context, accountID string) ([]entity.LoginRecord, error)
}

type loginHistoryService struct {
	log     *logrus.Logger
	repo    repository.LoginHistoryRepository
	enabled bool
	limit   int
	now     func() time.Time
}

func NewLoginHistoryService(log *logrus.Logger, repo repository.LoginHistoryRepository, enabled bool, limit int) LoginHistoryService {
	return &loginHistoryService{
		log:     log,
		repo:    repo,
		enabled: enabled,
		limit:   limit,
		now:     time.Now,
	}
}

// Record is a no-op when login history is disabled.
func (s *loginHistoryService) Record(ctx context.Context, account *entity.Account, meta LoginMeta) error {
	if !s.enabled {
		return nil
	}

	metadata := entity.LoginMetadata{}
	if meta.RemoteAddr != "" {
		metadata[entity.LoginMetaRemoteAddr] = meta.RemoteAddr
	}
	if meta.UserAgent != "" {
		metadata[entity.LoginMetaUserAgent] = meta.UserAgent
	}

	record := &entity.LoginRecord{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Email:     account.Email,
		FullName:  account.FullName,
		LoginTime: s.now().UTC().Truncate(time.Millisecond),
		Metadata:  metadata,
	}

	if err := s.repo.Append(ctx, record); err != nil {
		s.log.Warnf("Failed to record login: %+v", err)
		return err
	}

	return nil
}

func (s *loginHistoryService) List(ctx context.Context, accountID string) ([]entity.LoginRecord, error) {
	records, err := s.repo.FindByAccountID(ctx, accountID, s.limit)
	if err != nil {
		s.log.Warnf("Failed to find login history: %+v", err)
		return nil, err
	}
	return records, nil
}
