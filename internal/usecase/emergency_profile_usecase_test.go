package usecase

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"

	"rescue-id/config"
	"rescue-id/internal/delivery/dto"
	"rescue-id/internal/domain/entity"
	"rescue-id/internal/domain/repository"
	"rescue-id/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCreateProfile_BobScenario(t *testing.T) {
	store := memory.NewStore()
	uc := newTestProfileUsecase(store.Profiles(), defaultProfileConfig(), config.QRConfig{ImageSize: 300})
	ctx := context.Background()

	created, err := uc.Create(ctx, &dto.CreateEmergencyProfileRequest{FullName: "Bob", BloodType: "O+"}, "")
	require.NoError(t, err)
	assert.True(t, created.Success)
	assert.Regexp(t, `^RID-\d+-[A-Z0-9]{5,9}$`, created.EmergencyID)
	assert.Equal(t, "Bob", created.FullName)
	assert.Equal(t, "O+", created.BloodType)
	assert.Equal(t, "Emergency profile created", created.Message)

	got, err := uc.Get(ctx, created.EmergencyID)
	require.NoError(t, err)
	assert.Equal(t, created.EmergencyID, got.ID)
	assert.Equal(t, "Bob", got.FullName)
	assert.Equal(t, "O+", got.BloodType)
	assert.Equal(t, entity.DefaultUnknown, got.Age)
	assert.Equal(t, entity.DefaultUnknown, got.ContactNo)
	assert.Equal(t, entity.DefaultUnknown, got.AlternateContactNo)
	assert.Equal(t, entity.DefaultUnknown, got.PermanentAddress)
	assert.Equal(t, entity.DefaultUnknown, got.EmergencyContact)
	assert.Equal(t, "None recorded", got.MedicalHistory)
	assert.Equal(t, "No known allergies", got.Allergies)
	assert.Equal(t, "None", got.Medicines)

	stored, err := store.Profiles().FindByID(ctx, created.EmergencyID)
	require.NoError(t, err)
	assert.Empty(t, stored.OwnerAccountID, "anonymous profile")
}

func TestCreateProfile_KeepsProvidedFields(t *testing.T) {
	store := memory.NewStore()
	uc := newTestProfileUsecase(store.Profiles(), defaultProfileConfig(), config.QRConfig{})

	created, err := uc.Create(context.Background(), &dto.CreateEmergencyProfileRequest{
		FullName:         " Bob ",
		Age:              "42",
		BloodType:        "AB-",
		Allergies:        "Penicillin",
		Medicines:        "  ",
		EmergencyContact: "Alice +1 555 0101",
	}, "")
	require.NoError(t, err)

	got, err := uc.Get(context.Background(), created.EmergencyID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.FullName)
	assert.Equal(t, "42", got.Age)
	assert.Equal(t, "Penicillin", got.Allergies)
	assert.Equal(t, "None", got.Medicines)
	assert.Equal(t, "Alice +1 555 0101", got.EmergencyContact)
}

func TestCreateProfile_KeepsLongFields(t *testing.T) {
	store := memory.NewStore()
	cfg := defaultProfileConfig()
	cfg.IDPrefix = "REGIONAL-RESCUE-SERVICE"
	cfg.IDSuffixLength = 9
	uc := newTestProfileUsecase(store.Profiles(), cfg, config.QRConfig{})
	owner := strings.Repeat("o", 100)

	req := &dto.CreateEmergencyProfileRequest{
		FullName:  strings.Repeat("Bartholomew ", 30),
		Age:       "forty two and a half, approximately",
		BloodType: "AB negative (Rh null)",
		ContactNo: strings.Repeat("+1 555 0101 ext 9 / ", 5),
	}
	created, err := uc.Create(context.Background(), req, owner)
	require.NoError(t, err)
	assert.Greater(t, len(created.EmergencyID), 32)

	got, err := uc.Get(context.Background(), created.EmergencyID)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(req.FullName), got.FullName)
	assert.Equal(t, string(req.Age), got.Age)
	assert.Equal(t, req.BloodType, got.BloodType)
	assert.Equal(t, strings.TrimSpace(req.ContactNo), got.ContactNo)

	stored, err := store.Profiles().FindByID(context.Background(), created.EmergencyID)
	require.NoError(t, err)
	assert.Equal(t, owner, stored.OwnerAccountID)
}

func TestCreateProfile_Owner(t *testing.T) {
	tests := []struct {
		name    string
		bodyID  string
		ownerID string
		want    string
	}{
		{name: "anonymous", want: ""},
		{name: "body user id", bodyID: "acc-body", want: "acc-body"},
		{name: "token wins", bodyID: "acc-body", ownerID: "acc-token", want: "acc-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			uc := newTestProfileUsecase(store.Profiles(), defaultProfileConfig(), config.QRConfig{})

			created, err := uc.Create(context.Background(), &dto.CreateEmergencyProfileRequest{
				UserID: tt.bodyID, FullName: "Bob", BloodType: "O+",
			}, tt.ownerID)
			require.NoError(t, err)

			stored, err := store.Profiles().FindByID(context.Background(), created.EmergencyID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored.OwnerAccountID)
		})
	}
}

func TestCreateProfile_Validation(t *testing.T) {
	strict := defaultProfileConfig()
	strict.RequireAge = true

	tests := []struct {
		name    string
		cfg     config.ProfileConfig
		req     dto.CreateEmergencyProfileRequest
		wantMsg string
	}{
		{name: "missing name", cfg: defaultProfileConfig(), req: dto.CreateEmergencyProfileRequest{BloodType: "O+"}, wantMsg: "Name and blood type required"},
		{name: "blank blood type", cfg: defaultProfileConfig(), req: dto.CreateEmergencyProfileRequest{FullName: "Bob", BloodType: " "}, wantMsg: "Name and blood type required"},
		{name: "strict missing age", cfg: strict, req: dto.CreateEmergencyProfileRequest{FullName: "Bob", BloodType: "O+"}, wantMsg: "Name, age, and blood type are required"},
		{name: "strict missing name", cfg: strict, req: dto.CreateEmergencyProfileRequest{Age: "40", BloodType: "O+"}, wantMsg: "Name, age, and blood type are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := newTestProfileUsecase(memory.NewStore().Profiles(), tt.cfg, config.QRConfig{})

			_, err := uc.Create(context.Background(), &tt.req, "")
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.ErrorIs(t, err, ErrProfileFieldsRequired)
			assert.Equal(t, tt.wantMsg, verr.Message)
			assert.NotEmpty(t, verr.Fields)
		})
	}
}

func TestCreateProfile_StrictAcceptsAge(t *testing.T) {
	cfg := defaultProfileConfig()
	cfg.RequireAge = true
	uc := newTestProfileUsecase(memory.NewStore().Profiles(), cfg, config.QRConfig{})

	_, err := uc.Create(context.Background(), &dto.CreateEmergencyProfileRequest{FullName: "Bob", Age: "42", BloodType: "O+"}, "")
	assert.NoError(t, err)
}

func TestCreateProfile_RescueVariant(t *testing.T) {
	cfg := config.ProfileConfig{IDPrefix: "RESCUE", IDSuffixLength: 9, IDMaxAttempts: 3}
	uc := newTestProfileUsecase(memory.NewStore().Profiles(), cfg, config.QRConfig{})

	created, err := uc.Create(context.Background(), &dto.CreateEmergencyProfileRequest{FullName: "Bob", BloodType: "O+"}, "")
	require.NoError(t, err)
	assert.Regexp(t, `^RESCUE-\d+-[A-Z0-9]{9}$`, created.EmergencyID)
}

func TestCreateProfile_ConcurrentDistinctIDs(t *testing.T) {
	store := memory.NewStore()
	uc := newTestProfileUsecase(store.Profiles(), defaultProfileConfig(), config.QRConfig{})

	const n = 150
	var mu sync.Mutex
	ids := make(map[string]struct{}, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			created, err := uc.Create(context.Background(), &dto.CreateEmergencyProfileRequest{FullName: "Bob", BloodType: "O+"}, "")
			if err != nil {
				return err
			}
			mu.Lock()
			ids[created.EmergencyID] = struct{}{}
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, ids, n)
}

// collidingProfiles reports the first n inserts as duplicate ids.
type collidingProfiles struct {
	repository.EmergencyProfileRepository
	mu         sync.Mutex
	rejections int
	attempts   int
}

func (c *collidingProfiles) Create(ctx context.Context, profile *entity.EmergencyProfile) error {
	c.mu.Lock()
	c.attempts++
	reject := c.attempts <= c.rejections
	c.mu.Unlock()
	if reject {
		return repository.ErrDuplicateID
	}
	return c.EmergencyProfileRepository.Create(ctx, profile)
}

func TestCreateProfile_RetriesOnDuplicateID(t *testing.T) {
	repo := &collidingProfiles{EmergencyProfileRepository: memory.NewStore().Profiles(), rejections: 2}
	uc := newTestProfileUsecase(repo, defaultProfileConfig(), config.QRConfig{})

	created, err := uc.Create(context.Background(), &dto.CreateEmergencyProfileRequest{FullName: "Bob", BloodType: "O+"}, "")
	require.NoError(t, err)
	assert.NotEmpty(t, created.EmergencyID)
	assert.Equal(t, 3, repo.attempts)
}

func TestCreateProfile_StorageConflictWhenExhausted(t *testing.T) {
	repo := &collidingProfiles{EmergencyProfileRepository: memory.NewStore().Profiles(), rejections: 100}
	cfg := defaultProfileConfig()
	cfg.IDMaxAttempts = 4
	uc := newTestProfileUsecase(repo, cfg, config.QRConfig{})

	_, err := uc.Create(context.Background(), &dto.CreateEmergencyProfileRequest{FullName: "Bob", BloodType: "O+"}, "")
	assert.ErrorIs(t, err, ErrStorageConflict)
	assert.Equal(t, 4, repo.attempts)
}

type brokenProfiles struct {
	repository.EmergencyProfileRepository
}

var errBackendDown = errors.New("backend down")

func (brokenProfiles) Create(ctx context.Context, profile *entity.EmergencyProfile) error {
	return errBackendDown
}

func (brokenProfiles) FindByID(ctx context.Context, id string) (*entity.EmergencyProfile, error) {
	return nil, errBackendDown
}

func (brokenProfiles) ExistsByID(ctx context.Context, id string) (bool, error) {
	return false, errBackendDown
}

func TestProfileUsecase_BackendErrorsAreWrapped(t *testing.T) {
	uc := newTestProfileUsecase(brokenProfiles{}, defaultProfileConfig(), config.QRConfig{})
	ctx := context.Background()

	_, err := uc.Create(ctx, &dto.CreateEmergencyProfileRequest{FullName: "Bob", BloodType: "O+"}, "")
	assert.ErrorIs(t, err, errBackendDown)
	assert.NotErrorIs(t, err, ErrStorageConflict)

	_, err = uc.Get(ctx, "RID-1-AAAAA")
	assert.ErrorIs(t, err, errBackendDown)

	_, err = uc.GenerateQR(ctx, "RID-1-AAAAA", "http://localhost")
	assert.ErrorIs(t, err, errBackendDown)
}

func TestGetProfile_Errors(t *testing.T) {
	uc := newTestProfileUsecase(memory.NewStore().Profiles(), defaultProfileConfig(), config.QRConfig{})

	_, err := uc.Get(context.Background(), "RID-0-NOPE0")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	_, err = uc.Get(context.Background(), "  ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrEmergencyIDRequired)
	assert.Equal(t, "Emergency ID required", verr.Message)
}

func TestGenerateQR(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Profiles().Create(ctx, &entity.EmergencyProfile{ID: "RID-1700000000000-AB12C", FullName: "Bob", BloodType: "O+"}))

	tests := []struct {
		name        string
		qr          config.QRConfig
		requestBase string
		wantPage    string
		wantSize    string
	}{
		{
			name:        "request host",
			qr:          config.QRConfig{ImageSize: 300},
			requestBase: "http://localhost:8080",
			wantPage:    "http://localhost:8080/emergency.html?id=RID-1700000000000-AB12C",
			wantSize:    "300x300",
		},
		{
			name:        "configured base",
			qr:          config.QRConfig{PublicBaseURL: "https://rescue.example.org/", ImageSize: 500},
			requestBase: "http://internal:8080",
			wantPage:    "https://rescue.example.org/emergency.html?id=RID-1700000000000-AB12C",
			wantSize:    "500x500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := newTestProfileUsecase(store.Profiles(), defaultProfileConfig(), tt.qr)

			resp, err := uc.GenerateQR(ctx, "RID-1700000000000-AB12C", tt.requestBase)
			require.NoError(t, err)
			assert.True(t, resp.Success)
			assert.Equal(t, "RID-1700000000000-AB12C", resp.EmergencyID)
			assert.Equal(t, tt.wantPage, resp.QRURL)

			imageURL, err := url.Parse(resp.QRAPIURL)
			require.NoError(t, err)
			assert.Equal(t, "api.qrserver.com", imageURL.Host)
			assert.Equal(t, "/v1/create-qr-code/", imageURL.Path)
			assert.Equal(t, tt.wantSize, imageURL.Query().Get("size"))
			assert.Equal(t, tt.wantPage, imageURL.Query().Get("data"))
		})
	}
}

func TestGenerateQR_Errors(t *testing.T) {
	uc := newTestProfileUsecase(memory.NewStore().Profiles(), defaultProfileConfig(), config.QRConfig{ImageSize: 300})

	_, err := uc.GenerateQR(context.Background(), "", "http://localhost")
	assert.ErrorIs(t, err, ErrEmergencyIDRequired)

	_, err = uc.GenerateQR(context.Background(), "RID-0-NOPE0", "http://localhost")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
