package handler

import (
	"net/http"

	"rescue-id/internal/delivery/dto"
	"rescue-id/internal/delivery/http/middleware"
	"rescue-id/internal/usecase"
	"rescue-id/pkg/response"

	"github.com/gorilla/mux"
)

type EmergencyHandler struct {
	profileUsecase usecase.EmergencyProfileUsecase
}

func NewEmergencyHandler(profileUsecase usecase.EmergencyProfileUsecase) *EmergencyHandler {
	return &EmergencyHandler{
		profileUsecase: profileUsecase,
	}
}

// CreateProfile stores a new emergency profile
// @Summary Create an emergency profile
// @Description A bearer token links the profile to its account; without one the body userId is kept, or the profile is anonymous.
// @Tags Emergency
// @Accept json
// @Produce json
// @Param request body dto.CreateEmergencyProfileRequest true "Emergency profile"
// @Success 201 {object} dto.CreatedEmergencyProfileResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /emergency [post]
func (h *EmergencyHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEmergencyProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	ownerID, _ := middleware.GetUserIDFromContext(r.Context())

	created, err := h.profileUsecase.Create(r.Context(), &req, ownerID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, created)
}

// GetProfile is public; responders scan the QR code without an account.
// @Summary Read an emergency profile
// @Tags Emergency
// @Produce json
// @Param id path string false "Emergency ID"
// @Param id query string false "Emergency ID"
// @Success 200 {object} dto.EmergencyProfileResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /emergency/{id} [get]
func (h *EmergencyHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := mux.Vars(r)["id"]
	if !ok {
		id = r.URL.Query().Get("id")
	}

	profile, err := h.profileUsecase.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, profile)
}

// GenerateQR returns the profile page URL and a qrserver image URL for it
// @Summary Build QR code URLs for a profile
// @Tags Emergency
// @Accept json
// @Produce json
// @Param request body dto.GenerateQRRequest true "Emergency ID"
// @Success 200 {object} dto.QRCodeResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /generate-qr [post]
func (h *EmergencyHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	var req dto.GenerateQRRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	qr, err := h.profileUsecase.GenerateQR(r.Context(), req.EmergencyID, requestBaseURL(r))
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, qr)
}
