package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/snapshot"
	"github.com/cmlabs-hris/timeclock/internal/handler/http/response"
	"github.com/cmlabs-hris/timeclock/internal/pkg/jwt"
	"github.com/cmlabs-hris/timeclock/internal/service/master"
	"github.com/go-chi/jwtauth/v5"
)

type AdminHandler interface {
	Unlock(w http.ResponseWriter, r *http.Request)
	Lock(w http.ResponseWriter, r *http.Request)
	ChangePIN(w http.ResponseWriter, r *http.Request)
}

type adminHandlerImpl struct {
	masterService master.MasterService
	syncService   snapshot.SyncService
	jwtService    jwt.Service
}

func NewAdminHandler(masterService master.MasterService, syncService snapshot.SyncService, jwtService jwt.Service) AdminHandler {
	return &adminHandlerImpl{
		masterService: masterService,
		syncService:   syncService,
		jwtService:    jwtService,
	}
}

type pinRequest struct {
	PIN string `json:"pin"`
}

type unlockResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
	PINCreated  bool   `json:"pin_created"`
}

// Unlock implements AdminHandler. The first unlock on a device sets the PIN.
func (h *adminHandlerImpl) Unlock(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	created, err := h.masterService.Unlock(r.Context(), req.PIN)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	deviceID, err := h.syncService.DeviceID(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	token, expiresAt, err := h.jwtService.GenerateAdminToken(deviceID)
	if err != nil {
		slog.Error("Failed to issue admin token", "error", err)
		response.InternalServerError(w, "Failed to issue admin session")
		return
	}

	response.SuccessWithMessage(w, "Admin unlocked", unlockResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   time.Unix(expiresAt, 0).UTC().Format(time.RFC3339),
		PINCreated:  created,
	})
}

// Lock implements AdminHandler by revoking the current admin token.
func (h *adminHandlerImpl) Lock(w http.ResponseWriter, r *http.Request) {
	token, _, err := jwtauth.FromContext(r.Context())
	if err != nil || token == nil {
		response.Unauthorized(w, "Admin session required, unlock with the admin PIN")
		return
	}

	h.jwtService.RevokeToken(jwtauth.TokenFromHeader(r), token.Expiration().Unix())
	response.SuccessWithMessage(w, "Admin locked", nil)
}

// ChangePIN implements AdminHandler.
func (h *adminHandlerImpl) ChangePIN(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := h.masterService.SetPIN(r.Context(), req.PIN); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Admin PIN updated", nil)
}
