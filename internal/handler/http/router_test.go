package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/pkg/geo"
	"github.com/cmlabs-hris/timeclock/internal/pkg/geolocation"
	"github.com/cmlabs-hris/timeclock/internal/pkg/jwt"
	"github.com/cmlabs-hris/timeclock/internal/pkg/storage"
	"github.com/cmlabs-hris/timeclock/internal/repository/sqlite"
	"github.com/cmlabs-hris/timeclock/internal/service/attendance"
	"github.com/cmlabs-hris/timeclock/internal/service/ledger"
	"github.com/cmlabs-hris/timeclock/internal/service/master"
	"github.com/cmlabs-hris/timeclock/internal/service/reconcile"
	"github.com/cmlabs-hris/timeclock/internal/service/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledgerSvc := ledger.NewLedgerService(store, store.Employees, store.Shifts, ledger.WithLogger(logger))
	syncSvc := reconcile.NewSyncService(store, storage.NewSnapshotStore(files), reconcile.WithLogger(logger))
	masterSvc := master.NewMasterService(store, store.Branches, store.Employees, store.Settings, logger)
	reportSvc, err := report.NewReportService(store.Branches, store.Employees, store.Shifts, logger)
	require.NoError(t, err)
	t.Cleanup(reportSvc.Close)

	provider := geolocation.NewProvider(geolocation.Static(geo.Coord{Lat: 19.43, Lng: -99.13}), time.Second, logger)
	attendanceSvc := attendance.NewAttendanceService(ledgerSvc, provider, attendance.WithLogger(logger))
	jwtSvc := jwt.NewJWTService(handlerTestSecret, time.Hour)

	router := NewRouter(RouterConfig{Env: "test", AllowedOrigins: []string{"*"}, LogLevel: slog.LevelError}, jwtSvc, Handlers{
		Shift:  NewShiftHandler(attendanceSvc, ledgerSvc),
		Master: NewMasterHandler(masterSvc),
		Report: NewReportHandler(reportSvc),
		Sync:   NewSyncHandler(syncSvc),
		Admin:  NewAdminHandler(masterSvc, syncSvc, jwtSvc),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(res.Body).Decode(&env))
	return res.StatusCode, env
}

func unlock(t *testing.T, srv *httptest.Server, pin string) string {
	t.Helper()
	status, env := call(t, srv, http.MethodPost, "/api/v1/admin/unlock", "", map[string]string{"pin": pin})
	require.Equal(t, http.StatusOK, status)

	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.AccessToken)
	return data.AccessToken
}

func createEmployee(t *testing.T, srv *httptest.Server, token, name string) int64 {
	t.Helper()
	status, env := call(t, srv, http.MethodPost, "/api/v1/employees", token, map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, status)

	var data struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.ID
}

func TestAdminRoutesRequireSession(t *testing.T) {
	srv := newTestServer(t)

	status, env := call(t, srv, http.MethodPost, "/api/v1/branches", "", map[string]any{"name": "Centro"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)

	status, _ = call(t, srv, http.MethodPost, "/api/v1/admin/unlock", "", map[string]string{"pin": "12"})
	assert.Equal(t, http.StatusUnprocessableEntity, status, "pin too short")

	token := unlock(t, srv, "1234")

	status, env = call(t, srv, http.MethodPost, "/api/v1/branches", token, map[string]any{"name": "Centro"})
	assert.Equal(t, http.StatusCreated, status)
	assert.True(t, env.Success)

	status, env = call(t, srv, http.MethodPost, "/api/v1/admin/unlock", "", map[string]string{"pin": "9999"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, _ = call(t, srv, http.MethodPost, "/api/v1/admin/lock", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, http.MethodPost, "/api/v1/branches", token, map[string]any{"name": "Norte"})
	assert.Equal(t, http.StatusUnauthorized, status, "locked session is rejected")
}

func TestClockFlow(t *testing.T) {
	srv := newTestServer(t)
	token := unlock(t, srv, "1234")
	id := createEmployee(t, srv, token, "Ana")

	status, env := call(t, srv, http.MethodPost, "/api/v1/shifts/clock-in", "", map[string]any{"employee_id": id})
	require.Equal(t, http.StatusCreated, status)
	var outcome struct {
		Shift struct {
			InCoords *geo.Coord `json:"in_coords"`
			Open     bool       `json:"open"`
		} `json:"shift"`
		Synced bool `json:"synced"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &outcome))
	assert.True(t, outcome.Shift.Open)
	require.NotNil(t, outcome.Shift.InCoords)
	assert.Equal(t, 19.43, outcome.Shift.InCoords.Lat, "provider fills missing coordinates")

	status, env = call(t, srv, http.MethodPost, "/api/v1/shifts/clock-in", "", map[string]any{"employee_id": id})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	status, env = call(t, srv, http.MethodGet, fmt.Sprintf("/api/v1/shifts/status/%d", id), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, fmt.Sprintf(`{"employee_id":%d,"status":"IN","next_action":"clock-out"}`, id), string(env.Data))

	status, _ = call(t, srv, http.MethodPost, "/api/v1/shifts/clock-out", "", map[string]any{"employee_id": id})
	assert.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, http.MethodPost, "/api/v1/shifts/clock-out", "", map[string]any{"employee_id": id})
	assert.Equal(t, http.StatusNotFound, status)

	status, env = call(t, srv, http.MethodGet, fmt.Sprintf("/api/v1/shifts?employee_id=%d", id), "", nil)
	require.Equal(t, http.StatusOK, status)
	var shifts []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &shifts))
	assert.Len(t, shifts, 1)
}

func TestClockIn_Validation(t *testing.T) {
	srv := newTestServer(t)

	status, env := call(t, srv, http.MethodPost, "/api/v1/shifts/clock-in", "", map[string]any{"employee_id": 1, "latitude": 95.0, "longitude": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Error.Details, "latitude")

	status, _ = call(t, srv, http.MethodPost, "/api/v1/shifts/clock-in", "", map[string]any{"employee_id": 42})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, srv, http.MethodGet, "/api/v1/shifts/status/abc", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestRetentionRequiresAdmin(t *testing.T) {
	srv := newTestServer(t)

	status, _ := call(t, srv, http.MethodDelete, "/api/v1/shifts/retention?days=30", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	token := unlock(t, srv, "1234")
	status, env := call(t, srv, http.MethodDelete, "/api/v1/shifts/retention?days=30", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"deleted":0}`, string(env.Data))

	status, _ = call(t, srv, http.MethodDelete, "/api/v1/shifts/retention?days=0", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestReports(t *testing.T) {
	srv := newTestServer(t)
	token := unlock(t, srv, "1234")
	id := createEmployee(t, srv, token, "Ana")

	_, _ = call(t, srv, http.MethodPost, "/api/v1/shifts/clock-in", "", map[string]any{"employee_id": id})

	status, env := call(t, srv, http.MethodGet, "/api/v1/reports/summary", "", nil)
	require.Equal(t, http.StatusOK, status)
	var summary struct {
		OpenShifts int `json:"open_shifts"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 1, summary.OpenShifts)

	status, _ = call(t, srv, http.MethodGet, "/api/v1/reports/summary?since=yesterday", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	res, err := srv.Client().Get(srv.URL + "/api/v1/reports/export")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, xlsxContentType, res.Header.Get("Content-Type"))
	assert.Contains(t, res.Header.Get("Content-Disposition"), "timeclock-report-")
}

func TestSyncRoutes(t *testing.T) {
	srv := newTestServer(t)
	token := unlock(t, srv, "1234")
	createEmployee(t, srv, token, "Ana")

	status, env := call(t, srv, http.MethodPost, "/api/v1/sync/push/config", token, nil)
	require.Equal(t, http.StatusOK, status)
	var pushed struct {
		TargetID string `json:"target_id"`
		Created  bool   `json:"created"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &pushed))
	assert.True(t, pushed.Created)

	status, env = call(t, srv, http.MethodGet, "/api/v1/settings/sync", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), pushed.TargetID)

	status, env = call(t, srv, http.MethodPost, "/api/v1/sync/pull/config", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"employees":1`)

	status, _ = call(t, srv, http.MethodPost, "/api/v1/sync/pull/shifts", token, nil)
	assert.Equal(t, http.StatusNotFound, status, "shifts target was never pushed")

	status, _ = call(t, srv, http.MethodPost, "/api/v1/sync/push/payroll", token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, srv, http.MethodPut, "/api/v1/settings/sync", token, map[string]any{"targets": map[string]string{"nope": "x"}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

// nextEvent reads the next event name and data line from a stream.
func nextEvent(t *testing.T, r *bufio.Reader) (name, data string) {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestShiftEventsStream(t *testing.T) {
	srv := newTestServer(t)
	token := unlock(t, srv, "1234")
	id := createEmployee(t, srv, token, "Ana")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/shifts/events", nil)
	require.NoError(t, err)
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	stream := bufio.NewReader(res.Body)
	name, _ := nextEvent(t, stream)
	require.Equal(t, "connected", name)

	status, _ := call(t, srv, http.MethodPost, "/api/v1/shifts/clock-in", "", map[string]any{"employee_id": id})
	require.Equal(t, http.StatusCreated, status)

	name, data := nextEvent(t, stream)
	assert.Equal(t, "clock_in", name)
	var outcome struct {
		Shift struct {
			EmployeeID int64 `json:"employee_id"`
			Open       bool  `json:"open"`
		} `json:"shift"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &outcome))
	assert.Equal(t, id, outcome.Shift.EmployeeID)
	assert.True(t, outcome.Shift.Open)
}
