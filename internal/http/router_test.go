package http

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/testfixtures"
)

const admissionSecret = "letmein"

type testServer struct {
	handler  http.Handler
	services testfixtures.Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	harness := testfixtures.NewSQLiteHarness(t)
	harness.SeedRooms(t,
		testfixtures.NewRoomFixture(testfixtures.WithRoomID("R1"), testfixtures.WithRoomName("Aster")),
		testfixtures.NewRoomFixture(testfixtures.WithRoomID("R2"), testfixtures.WithRoomName("Birch")),
	)

	factory := testfixtures.NewServiceFactory()
	services := factory.NewSQLiteServices(harness, application.ReservationOptions{}, admissionSecret)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := NewRouter(RouterConfig{
		Auth:       NewAuthHandler(services.Identities, services.Admins, logger),
		Rooms:      NewRoomHandler(services.Rooms, services.Queries, logger),
		Bookings:   NewBookingHandler(services.Reservations, services.Queries, logger),
		Admin:      NewAdminHandler(services.Reservations, services.Queries, factory.Clock.NowFunc(), logger),
		Identities: services.Identities,
		Admins:     services.Admins,
		Logger:     logger,
		Middleware: []func(http.Handler) http.Handler{RequestLogger(logger), Recoverer(logger)},
	})
	return &testServer{handler: handler, services: services}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signUp(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auth/signup", "", credentialsRequest{Email: email, Password: "password1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var session sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)
	return session.Token
}

func (s *testServer) signUpAdmin(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auth/admin-signup", "", adminSignUpRequest{
		Email: "root@example.com", Password: "password1", Name: "Root", AdmissionSecret: admissionSecret,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp adminSignUpResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestBookingFlow(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	alice := srv.signUp(t, "alice@example.com")
	bob := srv.signUp(t, "bob@example.com")

	rec := srv.do(t, http.MethodPost, "/bookings", alice, createBookingRequest{RoomID: "R1", Date: testfixtures.ReferenceDate, Slot: 9, Duration: 2, Name: "Alice"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[reservationDTO](t, rec)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.Equal(t, "Aster", created.RoomName)
	assert.Equal(t, "09:00 - 11:00", created.Hours)
	assert.Equal(t, "/bookings/"+created.ID, rec.Header().Get("Location"))

	rec = srv.do(t, http.MethodPost, "/bookings", bob, createBookingRequest{RoomID: "R1", Date: testfixtures.ReferenceDate, Slot: 10, Duration: 1, Name: "Bob"})
	require.Equal(t, http.StatusConflict, rec.Code)
	conflict := decode[errorResponse](t, rec)
	assert.Equal(t, "BOOKING_CONFLICT", conflict.ErrorCode)
	require.Len(t, conflict.Conflicts, 1)
	assert.Equal(t, conflictDTO{ReservationID: created.ID, Start: 9, End: 11, OverlapStart: 10, OverlapEnd: 11}, conflict.Conflicts[0])

	rec = srv.do(t, http.MethodPost, "/bookings", bob, createBookingRequest{RoomID: "R1", Date: testfixtures.ReferenceDate, Slot: 11, Duration: 1, Name: "Bob"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = srv.do(t, http.MethodGet, "/bookings/mine", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]reservationDTO](t, rec), 1)

	rec = srv.do(t, http.MethodGet, "/rooms/R1/bookings?date="+testfixtures.ReferenceDate, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]reservationDTO](t, rec), 2)

	rec = srv.do(t, http.MethodDelete, "/bookings/"+created.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodDelete, "/bookings/"+created.ID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodDelete, "/bookings/"+created.ID, alice, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(t, http.MethodDelete, "/bookings/"+created.ID, alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateBookingValidation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/bookings", "", createBookingRequest{RoomID: "R1", Date: "2025/11/21", Slot: 20, Duration: 1})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[errorResponse](t, rec)
	assert.Equal(t, "日付は YYYY-MM-DD 形式で指定してください。", resp.Errors["date"])
	assert.Equal(t, "氏名は必須です。", resp.Errors["name"])
	assert.Equal(t, "利用時間は 8:00 から 20:00 の範囲で指定してください。", resp.Errors["slot"])

	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader("{"))
	bad := httptest.NewRecorder()
	srv.handler.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestAdminRoutes(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	alice := srv.signUp(t, "alice@example.com")

	rec := srv.do(t, http.MethodPost, "/auth/admin-signup", "", adminSignUpRequest{
		Email: "mallory@example.com", Password: "password1", Name: "Mallory", AdmissionSecret: "guess",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := srv.signUpAdmin(t)

	rec = srv.do(t, http.MethodPost, "/bookings", alice, createBookingRequest{RoomID: "R1", Date: testfixtures.ReferenceDate, Slot: 9, Duration: 1, Name: "Alice, \"A\"", Purpose: "planning, quarterly"})
	require.Equal(t, http.StatusCreated, rec.Code)
	booking := decode[reservationDTO](t, rec)

	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/admin/bookings", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodGet, "/admin/bookings", alice, nil).Code)

	statusPath := "/admin/bookings/" + booking.ID + "/status"
	rec = srv.do(t, http.MethodPut, statusPath, alice, setStatusRequest{Status: "approved"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodPut, statusPath, admin, setStatusRequest{Status: "approved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "approved", decode[reservationDTO](t, rec).Status)

	rec = srv.do(t, http.MethodPut, statusPath, admin, setStatusRequest{Status: "archived"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = srv.do(t, http.MethodGet, "/admin/bookings?email=ALICE", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]reservationDTO](t, rec), 1)

	rec = srv.do(t, http.MethodGet, "/admin/bookings/export", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=bookings_export_2025-11-21.csv", rec.Header().Get("Content-Disposition"))
	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Alice, \"A\"", records[1][6])
	assert.Equal(t, "planning, quarterly", records[1][8])
	assert.Equal(t, "approved", records[1][9])

	assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodDelete, "/admin/bookings/"+booking.ID, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodDelete, "/admin/bookings/"+booking.ID, admin, nil).Code)
}

func TestAuthRoutes(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	srv.signUp(t, "carol@example.com")

	rec := srv.do(t, http.MethodPost, "/auth/signup", "", credentialsRequest{Email: "carol@example.com", Password: "password1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(t, http.MethodPost, "/auth/signin", "", credentialsRequest{Email: "carol@example.com", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodPost, "/auth/signin", "", credentialsRequest{Email: "carol@example.com", Password: "password1"})
	require.Equal(t, http.StatusOK, rec.Code)
	session := decode[sessionResponse](t, rec)
	assert.Equal(t, session.Token, rec.Header().Get("X-Session-Token"))
	require.NotEmpty(t, rec.Result().Cookies())

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/bookings/mine", session.Token, nil).Code)

	rec = srv.do(t, http.MethodPost, "/auth/signout", session.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(t, http.MethodGet, "/bookings/mine", session.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTH_SESSION_EXPIRED", decode[errorResponse](t, rec).ErrorCode)

	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodPost, "/auth/signout", "", nil).Code)
}

func TestCatalogRoutes(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/rooms", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rooms := decode[[]roomDTO](t, rec)
	require.Len(t, rooms, 2)
	assert.Equal(t, "Aster", rooms[0].Name)
	assert.NotNil(t, rooms[0].Features)

	rec = srv.do(t, http.MethodGet, "/slots", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	slots := decode[[]slotDTO](t, rec)
	require.Len(t, slots, 12)
	assert.Equal(t, slotDTO{Slot: 19, Label: "19:00 - 20:00", MaxDuration: 1}, slots[11])

	rec = srv.do(t, http.MethodGet, "/availability", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = srv.do(t, http.MethodGet, "/availability?date="+testfixtures.ReferenceDate, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	grid := decode[[]availabilityDTO](t, rec)
	require.Len(t, grid, 2)
	assert.True(t, grid[0].Slots[0].Free)

	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/nowhere", "", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, srv.do(t, http.MethodPatch, "/rooms", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/rooms", "not-a-token", nil).Code)
}
