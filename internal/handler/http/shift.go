package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock/internal/domain/shift"
	"github.com/cmlabs-hris/timeclock/internal/handler/http/response"
	"github.com/cmlabs-hris/timeclock/internal/pkg/errkind"
	"github.com/cmlabs-hris/timeclock/internal/pkg/sse"
	"github.com/cmlabs-hris/timeclock/internal/pkg/validator"
)

type ShiftHandler interface {
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Purge(w http.ResponseWriter, r *http.Request)
	Events(w http.ResponseWriter, r *http.Request)
}

type shiftHandlerImpl struct {
	attendanceService attendance.AttendanceService
	ledgerService     shift.LedgerService
}

func NewShiftHandler(attendanceService attendance.AttendanceService, ledgerService shift.LedgerService) ShiftHandler {
	return &shiftHandlerImpl{
		attendanceService: attendanceService,
		ledgerService:     ledgerService,
	}
}

// ClockIn implements ShiftHandler.
func (h *shiftHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	var req shift.ClockInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	outcome, err := h.attendanceService.ClockIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Clock in successful", attendance.NewOutcomeResponse(outcome, errkind.Message))
}

// ClockOut implements ShiftHandler.
func (h *shiftHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	var req shift.ClockOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	outcome, err := h.attendanceService.ClockOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Clock out successful", attendance.NewOutcomeResponse(outcome, errkind.Message))
}

// Status implements ShiftHandler.
func (h *shiftHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	employeeID, err := idParam(r, "employeeID")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	status, err := h.attendanceService.CurrentStatus(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, shift.StatusResponse{
		EmployeeID: employeeID,
		Status:     status,
		NextAction: status.NextAction(),
	})
}

// List implements ShiftHandler.
func (h *shiftHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	var errs validator.ValidationErrors
	filter := shift.ShiftFilter{
		EmployeeID: queryInt64(r, "employee_id", &errs),
		Since:      queryTime(r, "since", &errs),
		OpenOnly:   r.URL.Query().Get("open") == "true",
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if limitNum, err := strconv.Atoi(l); err == nil && limitNum > 0 {
			filter.Limit = limitNum
		} else {
			errs.Add("limit", "limit must be a positive number")
		}
	}
	if err := errs.Err(); err != nil {
		response.HandleError(w, err)
		return
	}

	events, err := h.ledgerService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	results := make([]shift.ShiftResponse, 0, len(events))
	for _, e := range events {
		results = append(results, shift.NewShiftResponse(e))
	}
	response.SuccessWithMeta(w, results, &response.Meta{Limit: filter.Limit, TotalItems: int64(len(results))})
}

// Purge implements ShiftHandler.
func (h *shiftHandlerImpl) Purge(w http.ResponseWriter, r *http.Request) {
	days := 30
	if d := r.URL.Query().Get("days"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil {
			response.HandleError(w, validator.ValidationErrors{{Field: "days", Message: "days must be a number"}})
			return
		}
		days = n
	}

	deleted, err := h.ledgerService.PurgeOlderThan(r.Context(), days)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Old shifts deleted", map[string]int64{"deleted": deleted})
}

// eventsKeepalive is how often an idle event stream is pinged.
var eventsKeepalive = 30 * time.Second

// Events implements ShiftHandler by streaming clock events as server-sent events.
func (h *shiftHandlerImpl) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.attendanceService.Subscribe(r.Context())
	defer cleanup()

	sse.Write(w, "connected", map[string]string{"status": "connected"})
	flusher.Flush()

	keepalive := time.NewTicker(eventsKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := sse.Write(w, event.Name, event.Outcome); err != nil {
				return
			}
			flusher.Flush()

		case <-keepalive.C:
			sse.Write(w, "ping", map[string]int64{"timestamp": time.Now().Unix()})
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
