package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cmlabs-hris/timeclock/internal/domain/snapshot"
	"github.com/cmlabs-hris/timeclock/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type SyncHandler interface {
	Push(w http.ResponseWriter, r *http.Request)
	Pull(w http.ResponseWriter, r *http.Request)
	GetSettings(w http.ResponseWriter, r *http.Request)
	UpdateSettings(w http.ResponseWriter, r *http.Request)
}

type syncHandlerImpl struct {
	syncService snapshot.SyncService
}

func NewSyncHandler(syncService snapshot.SyncService) SyncHandler {
	return &syncHandlerImpl{
		syncService: syncService,
	}
}

type pushRequest struct {
	Description string `json:"description"`
}

type pullResponse struct {
	Target      string                `json:"target"`
	Collections []snapshot.Collection `json:"collections"`
	Branches    int                   `json:"branches"`
	Employees   int                   `json:"employees"`
	TimeEntries int                   `json:"time_entries"`
}

// Push implements SyncHandler. The body is optional.
func (h *syncHandlerImpl) Push(w http.ResponseWriter, r *http.Request) {
	var req pushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.syncService.PushTarget(r.Context(), chi.URLParam(r, "target"), req.Description)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Snapshot pushed", result)
}

// Pull implements SyncHandler.
func (h *syncHandlerImpl) Pull(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "target")

	snap, err := h.syncService.PullTarget(r.Context(), target)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Snapshot applied", pullResponse{
		Target:      target,
		Collections: snap.Collections(),
		Branches:    snap.Count(snapshot.Branches),
		Employees:   snap.Count(snapshot.Employees),
		TimeEntries: snap.Count(snapshot.TimeEntries),
	})
}

// GetSettings implements SyncHandler.
func (h *syncHandlerImpl) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.syncService.Settings(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, settings)
}

// UpdateSettings implements SyncHandler.
func (h *syncHandlerImpl) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req snapshot.ConfigureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	settings, err := h.syncService.Configure(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Sync settings updated", settings)
}
