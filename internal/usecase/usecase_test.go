package usecase

import (
	"io"
	"time"

	"rescue-id/config"
	"rescue-id/internal/domain/repository"
	"rescue-id/internal/repository/memory"
	"rescue-id/internal/service"
	"rescue-id/pkg/idgen"
	"rescue-id/pkg/jwt"
	"rescue-id/pkg/validator"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newJWTService() *jwt.JWTService {
	return jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Hour})
}

func newAccountUsecaseWith(store repository.Store, accounts repository.AccountRepository) AccountUsecase {
	log := discardLogger()
	return NewAccountUsecase(
		log,
		accounts,
		service.NewBcryptHasher(bcrypt.MinCost),
		service.NewLoginHistoryService(log, store.LoginHistory(), true, 10),
		newJWTService(),
		validator.NewValidator(),
	)
}

func newTestAccountUsecase() (AccountUsecase, *memory.Store) {
	store := memory.NewStore()
	return newAccountUsecaseWith(store, store.Accounts()), store
}

func defaultProfileConfig() config.ProfileConfig {
	return config.ProfileConfig{IDPrefix: "RID", IDSuffixLength: 5, IDMaxAttempts: 5}
}

func newTestProfileUsecase(profiles repository.EmergencyProfileRepository, cfg config.ProfileConfig, qr config.QRConfig) EmergencyProfileUsecase {
	return NewEmergencyProfileUsecase(
		discardLogger(),
		profiles,
		idgen.New(cfg.IDSuffixLength),
		validator.NewValidator(),
		cfg,
		qr,
	)
}
