package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rescue-id/internal/converter"
	"rescue-id/internal/delivery/dto"
	"rescue-id/internal/domain/entity"
	"rescue-id/internal/domain/repository"
	"rescue-id/internal/service"
	"rescue-id/pkg/jwt"
	"rescue-id/pkg/validator"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const MinPasswordLength = 6

var (
	ErrFieldsRequired         = errors.New("full name, email and password are required")
	ErrInvalidEmail           = errors.New("invalid email address")
	ErrCredentialsRequired    = errors.New("email and password are required")
	ErrPasswordMismatch       = errors.New("passwords do not match")
	ErrWeakPassword           = errors.New("password is too short")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid email or password")
)

type AccountUsecase interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*dto.AccountResponse, error)
	Signin(ctx context.Context, req *dto.SigninRequest, meta service.LoginMeta) (*dto.AccountResponse, error)
	LoginHistory(ctx context.Context, accountID string) ([]dto.LoginRecordResponse, error)
}

type accountUsecase struct {
	log          *logrus.Logger
	accountRepo  repository.AccountRepository
	hasher       service.PasswordHasher
	loginHistory service.LoginHistoryService
	jwtService   *jwt.JWTService
	validator    *validator.CustomValidator
	now          func() time.Time
}

func NewAccountUsecase(
	log *logrus.Logger,
	accountRepo repository.AccountRepository,
	hasher service.PasswordHasher,
	loginHistory service.LoginHistoryService,
	jwtService *jwt.JWTService,
	validator *validator.CustomValidator,
) AccountUsecase {
	return &accountUsecase{
		log:          log,
		accountRepo:  accountRepo,
		hasher:       hasher,
		loginHistory: loginHistory,
		jwtService:   jwtService,
		validator:    validator,
		now:          time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *accountUsecase) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.AccountResponse, error) {
	in := *req
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = normalizeEmail(in.Email)

	if err := u.validator.Validate(&in); err != nil {
		fields := u.validator.FormatValidationErrors(err)
		if u.validator.HasFailedTag(err, "required") {
			return nil, newValidationError(ErrFieldsRequired, "All fields required", fields)
		}
		return nil, newValidationError(ErrInvalidEmail, "Invalid email address", fields)
	}

	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if len(in.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	// Skip the hash for emails we already know; Create below still decides.
	exists, err := u.accountRepo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		u.log.Warnf("Failed to check email: %+v", err)
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyRegistered
	}

	hashedPassword, err := u.hasher.Hash(in.Password)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &entity.Account{
		ID:           uuid.NewString(),
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: hashedPassword,
		CreatedAt:    u.now().UTC().Truncate(time.Millisecond),
	}

	if err := u.accountRepo.Create(ctx, account); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrEmailAlreadyRegistered
		case errors.Is(err, repository.ErrDuplicateID):
			u.log.Warnf("Failed to create account, id %s already taken", account.ID)
			return nil, ErrStorageConflict
		}
		u.log.Warnf("Failed to create account: %+v", err)
		return nil, fmt.Errorf("create account: %w", err)
	}

	return u.withToken(account)
}

func (u *accountUsecase) Signin(ctx context.Context, req *dto.SigninRequest, meta service.LoginMeta) (*dto.AccountResponse, error) {
	in := *req
	in.Email = normalizeEmail(in.Email)

	if err := u.validator.Validate(&in); err != nil {
		return nil, newValidationError(ErrCredentialsRequired, "Email and password required", u.validator.FormatValidationErrors(err))
	}

	account, err := u.accountRepo.FindByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		u.hasher.CompareDummy(in.Password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		u.log.Warnf("Failed to find account by email: %+v", err)
		return nil, fmt.Errorf("find account: %w", err)
	}

	if err := u.hasher.Compare(account.PasswordHash, in.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	// History is best effort; the service already logs failures.
	_ = u.loginHistory.Record(ctx, account, meta)

	return u.withToken(account)
}

func (u *accountUsecase) LoginHistory(ctx context.Context, accountID string) ([]dto.LoginRecordResponse, error) {
	records, err := u.loginHistory.List(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list login history: %w", err)
	}
	return converter.LoginRecordsToResponse(records), nil
}

func (u *accountUsecase) withToken(account *entity.Account) (*dto.AccountResponse, error) {
	token, _, err := u.jwtService.GenerateAccessToken(account.ID, account.Email)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	resp := converter.AccountToResponse(account)
	resp.Token = token
	resp.ExpiresIn = int64(u.jwtService.GetAccessExpiry().Seconds())
	return resp, nil
}
