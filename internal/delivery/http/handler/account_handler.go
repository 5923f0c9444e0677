package handler

import (
	"net/http"

	"rescue-id/internal/delivery/dto"
	"rescue-id/internal/delivery/http/middleware"
	"rescue-id/internal/service"
	"rescue-id/internal/usecase"
	"rescue-id/pkg/response"
)

type AccountHandler struct {
	accountUsecase usecase.AccountUsecase
}

func NewAccountHandler(accountUsecase usecase.AccountUsecase) *AccountHandler {
	return &AccountHandler{
		accountUsecase: accountUsecase,
	}
}

// Signup handles account registration
// @Summary Register a new account
// @Tags Account
// @Accept json
// @Produce json
// @Param request body dto.SignupRequest true "Signup Request"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} response.ErrorBody
// @Router /signup [post]
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	account, err := h.accountUsecase.Signup(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, dto.AuthResponse{
		Success:         true,
		Message:         "Account created successfully",
		AccountResponse: account,
	})
}

// Signin handles login
// @Summary Sign in with email and password
// @Tags Account
// @Accept json
// @Produce json
// @Param request body dto.SigninRequest true "Signin Request"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Router /signin [post]
func (h *AccountHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req dto.SigninRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	meta := service.LoginMeta{
		RemoteAddr: clientAddr(r),
		UserAgent:  r.UserAgent(),
	}

	account, err := h.accountUsecase.Signin(r.Context(), &req, meta)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.AuthResponse{
		Success:         true,
		Message:         "Login successful",
		AccountResponse: account,
	})
}

// LoginHistory lists the caller's recent logins
// @Summary Recent logins of the authenticated account
// @Tags Account
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.LoginHistoryResponse
// @Failure 401 {object} response.ErrorBody
// @Router /account/logins [get]
func (h *AccountHandler) LoginHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	logins, err := h.accountUsecase.LoginHistory(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.LoginHistoryResponse{
		Success: true,
		Logins:  logins,
		Total:   len(logins),
	})
}
