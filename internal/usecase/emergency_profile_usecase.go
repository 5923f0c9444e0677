package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"rescue-id/config"
	"rescue-id/internal/converter"
	"rescue-id/internal/delivery/dto"
	"rescue-id/internal/domain/entity"
	"rescue-id/internal/domain/repository"
	"rescue-id/pkg/idgen"
	"rescue-id/pkg/validator"

	"github.com/sirupsen/logrus"
)

const QRServerURL = "https://api.qrserver.com/v1/create-qr-code/"

var (
	ErrProfileFieldsRequired = errors.New("required emergency profile fields are missing")
	ErrEmergencyIDRequired   = errors.New("emergency id is required")
	ErrProfileNotFound       = errors.New("emergency profile not found")
	ErrStorageConflict       = errors.New("could not allocate a unique identifier")
)

type EmergencyProfileUsecase interface {
	Create(ctx context.Context, req *dto.CreateEmergencyProfileRequest, ownerID string) (*dto.CreatedEmergencyProfileResponse, error)
	Get(ctx context.Context, id string) (*dto.EmergencyProfileResponse, error)
	// GenerateQR builds the public page URL for an existing profile. requestBaseURL
	// is used when no public base URL is configured.
	GenerateQR(ctx context.Context, id string, requestBaseURL string) (*dto.QRCodeResponse, error)
}

type emergencyProfileUsecase struct {
	log         *logrus.Logger
	profileRepo repository.EmergencyProfileRepository
	ids         *idgen.Generator
	validator   *validator.CustomValidator
	profileCfg  config.ProfileConfig
	qrCfg       config.QRConfig
	now         func() time.Time
}

func NewEmergencyProfileUsecase(
	log *logrus.Logger,
	profileRepo repository.EmergencyProfileRepository,
	ids *idgen.Generator,
	validator *validator.CustomValidator,
	profileCfg config.ProfileConfig,
	qrCfg config.QRConfig,
) EmergencyProfileUsecase {
	if profileCfg.IDMaxAttempts <= 0 {
		profileCfg.IDMaxAttempts = 1
	}
	return &emergencyProfileUsecase{
		log:         log,
		profileRepo: profileRepo,
		ids:         ids,
		validator:   validator,
		profileCfg:  profileCfg,
		qrCfg:       qrCfg,
		now:         time.Now,
	}
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func (u *emergencyProfileUsecase) Create(ctx context.Context, req *dto.CreateEmergencyProfileRequest, ownerID string) (*dto.CreatedEmergencyProfileResponse, error) {
	in := *req
	in.FullName = strings.TrimSpace(in.FullName)
	in.BloodType = strings.TrimSpace(in.BloodType)
	in.Age = dto.FlexString(strings.TrimSpace(string(in.Age)))

	err := u.validator.Validate(&in)
	if u.profileCfg.RequireAge {
		if err != nil || in.Age == "" {
			fields := u.validator.FormatValidationErrors(err)
			if in.Age == "" {
				fields["age"] = "age is required"
			}
			return nil, newValidationError(ErrProfileFieldsRequired, "Name, age, and blood type are required", fields)
		}
	} else if err != nil {
		return nil, newValidationError(ErrProfileFieldsRequired, "Name and blood type required", u.validator.FormatValidationErrors(err))
	}

	// A verified token wins over the body's userId.
	if ownerID == "" {
		ownerID = strings.TrimSpace(in.UserID)
	}

	profile := &entity.EmergencyProfile{
		OwnerAccountID:     ownerID,
		FullName:           in.FullName,
		Age:                orDefault(string(in.Age), entity.DefaultUnknown),
		BloodType:          in.BloodType,
		ContactNo:          orDefault(in.ContactNo, entity.DefaultUnknown),
		AlternateContactNo: orDefault(in.AlternateContactNo, entity.DefaultUnknown),
		PermanentAddress:   orDefault(in.PermanentAddress, entity.DefaultUnknown),
		MedicalHistory:     orDefault(in.MedicalHistory, entity.DefaultMedicalHistory),
		Allergies:          orDefault(in.Allergies, entity.DefaultAllergies),
		Medicines:          orDefault(in.Medicines, entity.DefaultMedicines),
		EmergencyContact:   orDefault(in.EmergencyContact, entity.DefaultUnknown),
		CreatedAt:          u.now().UTC().Truncate(time.Millisecond),
	}

	for attempt := 1; attempt <= u.profileCfg.IDMaxAttempts; attempt++ {
		profile.ID = u.ids.Generate(u.profileCfg.IDPrefix)

		err := u.profileRepo.Create(ctx, profile)
		if err == nil {
			return converter.EmergencyProfileToCreatedResponse(profile), nil
		}
		if !errors.Is(err, repository.ErrDuplicateID) {
			u.log.Warnf("Failed to create emergency profile: %+v", err)
			return nil, fmt.Errorf("create emergency profile: %w", err)
		}
		u.log.WithField("attempt", attempt).Infof("Emergency profile id %s already taken", profile.ID)
	}

	u.log.Warnf("Failed to allocate emergency profile id after %d attempts", u.profileCfg.IDMaxAttempts)
	return nil, ErrStorageConflict
}

func (u *emergencyProfileUsecase) Get(ctx context.Context, id string) (*dto.EmergencyProfileResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, newValidationError(ErrEmergencyIDRequired, "Emergency ID required", nil)
	}

	profile, err := u.profileRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		u.log.Warnf("Failed to find emergency profile: %+v", err)
		return nil, fmt.Errorf("find emergency profile: %w", err)
	}

	return converter.EmergencyProfileToResponse(profile), nil
}

func (u *emergencyProfileUsecase) GenerateQR(ctx context.Context, id string, requestBaseURL string) (*dto.QRCodeResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, newValidationError(ErrEmergencyIDRequired, "Emergency ID required", nil)
	}

	exists, err := u.profileRepo.ExistsByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to check emergency profile: %+v", err)
		return nil, fmt.Errorf("check emergency profile: %w", err)
	}
	if !exists {
		return nil, ErrProfileNotFound
	}

	base := u.qrCfg.PublicBaseURL
	if base == "" {
		base = requestBaseURL
	}
	pageURL := strings.TrimRight(base, "/") + "/emergency.html?id=" + url.QueryEscape(id)

	size := u.qrCfg.ImageSize
	if size <= 0 {
		size = 300
	}
	imageURL := fmt.Sprintf("%s?size=%dx%d&data=%s", QRServerURL, size, size, url.QueryEscape(pageURL))

	return &dto.QRCodeResponse{
		Success:     true,
		EmergencyID: id,
		QRURL:       pageURL,
		QRAPIURL:    imageURL,
	}, nil
}
