package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/supernanny-backend/config"
	"github.com/oksasatya/supernanny-backend/internal/container"
	"github.com/oksasatya/supernanny-backend/internal/infrastructure/memory"
	"github.com/oksasatya/supernanny-backend/internal/interface/middleware"
	"github.com/oksasatya/supernanny-backend/internal/realtime"
	"github.com/oksasatya/supernanny-backend/internal/router"
	"github.com/oksasatya/supernanny-backend/internal/seed"
	"github.com/oksasatya/supernanny-backend/pkg/helpers"
	"github.com/oksasatya/supernanny-backend/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
	helpers.PasswordCost = bcrypt.MinCost
}

type app struct {
	engine *gin.Engine
	tokens map[string]string
	ids    map[string]string
	nanny  string // profile id of the Tel Aviv nanny
}

func newApp(t *testing.T) *app {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.Config{
		JWTAccessSecret:    "test-secret",
		AccessTTL:          time.Hour,
		PlatformFeePercent: 15,
		SearchMaxLimit:     50,
		WSPingInterval:     time.Second,
	}

	store := memory.NewStore()
	repos := container.MemoryRepositories(store)
	accounts, err := seed.Demo(context.Background(), repos.Users, repos.Nannies)
	require.NoError(t, err)

	c := container.New(cfg, logger, repos, container.Adapters{})
	a := &app{tokens: map[string]string{}, ids: map[string]string{}}
	for _, acc := range accounts {
		name, _, _ := strings.Cut(acc.User.Email, ".")
		tok, _, err := c.JWT.GenerateAccessToken(acc.User.ID, string(acc.User.Role))
		require.NoError(t, err)
		a.tokens[name] = tok
		a.ids[name] = acc.User.ID
		if name == "noa" {
			a.nanny = acc.Profile.ID
		}
	}

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	reg := router.NewRegistry(r)
	router.InitModules(reg, c)
	reg.RegisterAll()
	a.engine = r
	return a
}

type envelope struct {
	Status    int             `json:"status"`
	RequestID string          `json:"request_id"`
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Error     map[string]string
}

func (a *app) do(t *testing.T, method, path, who string, body any) (int, envelope) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if who != "" {
		req.Header.Set("Authorization", "Bearer "+a.tokens[who])
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func field[T any](t *testing.T, raw json.RawMessage, key string) T {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	var v T
	require.NoError(t, json.Unmarshal(m[key], &v), key)
	return v
}

func (a *app) createBooking(t *testing.T, who string, start time.Time, hours int) (int, envelope) {
	return a.do(t, http.MethodPost, "/api/bookings", who, map[string]any{
		"nanny_user_id": a.ids["noa"],
		"start_time":    start.Format(time.RFC3339),
		"end_time":      start.Add(time.Duration(hours) * time.Hour).Format(time.RFC3339),
	})
}

var day = time.Date(2030, 5, 5, 9, 0, 0, 0, time.UTC)

func TestBookingFlowOverHTTP(t *testing.T) {
	a := newApp(t)

	code, env := a.createBooking(t, "dana", day, 2)
	require.Equal(t, http.StatusCreated, code, env.Message)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.RequestID)
	id := field[string](t, env.Data, "id")
	assert.Equal(t, 120, field[int](t, env.Data, "total_amount_nis"))
	assert.Equal(t, "REQUESTED", field[string](t, env.Data, "status"))

	code, env = a.createBooking(t, "yossi", day.Add(time.Hour), 2)
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)

	code, _ = a.createBooking(t, "noa", day.Add(48*time.Hour), 1)
	assert.Equal(t, http.StatusForbidden, code, "nannies cannot book")

	code, _ = a.do(t, http.MethodGet, "/api/bookings/"+id, "yossi", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(t, http.MethodPatch, "/api/bookings/"+id+"/status", "dana", map[string]string{"status": "ACCEPTED"})
	assert.Equal(t, http.StatusForbidden, code, "only the nanny accepts")

	code, env = a.do(t, http.MethodPatch, "/api/bookings/"+id+"/status", "noa", map[string]string{"status": "IN_PROGRESS"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "status")

	for _, st := range []string{"ACCEPTED", "COMPLETED"} {
		code, env = a.do(t, http.MethodPatch, "/api/bookings/"+id+"/status", "noa", map[string]string{"status": st})
		require.Equal(t, http.StatusOK, code, env.Message)
		assert.Equal(t, st, field[string](t, env.Data, "status"))
	}

	code, env = a.do(t, http.MethodGet, "/api/users/me/earnings", "noa", nil)
	require.Equal(t, http.StatusOK, code)
	summary := field[map[string]int](t, env.Data, "summary")
	assert.Equal(t, 102, summary["total_earned"])

	code, _ = a.do(t, http.MethodGet, "/api/users/me/earnings", "dana", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = a.do(t, http.MethodPost, "/api/reviews", "dana", map[string]any{"booking_id": id, "rating": 4})
	require.Equal(t, http.StatusCreated, code, env.Message)
	assert.Equal(t, 4.0, field[float64](t, env.Data, "nanny_rating"))

	code, _ = a.do(t, http.MethodPost, "/api/reviews", "dana", map[string]any{"booking_id": id, "rating": 5})
	assert.Equal(t, http.StatusConflict, code)

	code, env = a.do(t, http.MethodGet, "/api/nannies/"+a.nanny, "", nil)
	require.Equal(t, http.StatusOK, code)
	profile := field[map[string]any](t, env.Data, "profile")
	assert.Equal(t, 4.0, profile["rating"])
	assert.Equal(t, 1.0, profile["completed_jobs"])
}

func TestBookingValidationOverHTTP(t *testing.T) {
	a := newApp(t)

	code, env := a.do(t, http.MethodPost, "/api/bookings", "dana", map[string]any{"nanny_user_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "must be a valid UUID", env.Error["nanny_user_id"])
	assert.Equal(t, "is required", env.Error["start_time"])

	code, _ = a.createBooking(t, "dana", day, 0)
	assert.Equal(t, http.StatusBadRequest, code, "empty window")

	code, _ = a.do(t, http.MethodGet, "/api/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = a.do(t, http.MethodGet, "/api/bookings?status=BOGUS", "dana", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(t, http.MethodGet, "/api/bookings/00000000-0000-0000-0000-000000000000", "dana", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	a := newApp(t)
	tests := []struct {
		method, path, who string
		body              any
	}{
		{http.MethodGet, "/api/bookings/abc", "dana", nil},
		{http.MethodPatch, "/api/bookings/abc/status", "noa", map[string]string{"status": "ACCEPTED"}},
		{http.MethodGet, "/api/messages/abc", "dana", nil},
		{http.MethodPost, "/api/messages/abc", "dana", map[string]string{"text": "hi"}},
		{http.MethodGet, "/api/nannies/abc", "", nil},
		{http.MethodGet, "/api/reviews/nanny/abc", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			code, env := a.do(t, tt.method, tt.path, tt.who, tt.body)
			assert.Equal(t, http.StatusNotFound, code)
			assert.False(t, env.Success)
		})
	}
}

func TestMessagingOverHTTP(t *testing.T) {
	a := newApp(t)
	_, env := a.createBooking(t, "dana", day, 2)
	id := field[string](t, env.Data, "id")

	code, _ := a.do(t, http.MethodPost, "/api/messages/"+id, "dana", map[string]string{"text": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = a.do(t, http.MethodPost, "/api/messages/"+id, "yossi", map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = a.do(t, http.MethodPost, "/api/messages/"+id, "dana", map[string]string{"text": "see you at nine"})
	require.Equal(t, http.StatusCreated, code)
	assert.False(t, field[bool](t, env.Data, "is_read"))

	code, env = a.do(t, http.MethodGet, "/api/messages/conversations", "noa", nil)
	require.Equal(t, http.StatusOK, code)
	var convs []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &convs))
	require.Len(t, convs, 1)
	assert.Equal(t, 1.0, convs[0]["unread_count"])

	code, _ = a.do(t, http.MethodGet, "/api/messages/"+id, "noa", nil)
	require.Equal(t, http.StatusOK, code)
	_, env = a.do(t, http.MethodGet, "/api/messages/conversations", "noa", nil)
	require.NoError(t, json.Unmarshal(env.Data, &convs))
	assert.Equal(t, 0.0, convs[0]["unread_count"])
}

func TestNannySearchOverHTTP(t *testing.T) {
	a := newApp(t)

	code, env := a.do(t, http.MethodGet, "/api/nannies?sort=rate_asc&lat=32.0853&lng=34.7818&radius_km=70", "", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var res struct {
		Nannies []struct {
			FullName   string   `json:"full_name"`
			DistanceKm *float64 `json:"distance_km"`
		} `json:"nannies"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Len(t, res.Nannies, 2, "Haifa is beyond 70 km")
	assert.Equal(t, "Noa Mizrahi", res.Nannies[0].FullName)
	assert.Equal(t, 0.0, *res.Nannies[0].DistanceKm)
	assert.InDelta(t, 53.9, *res.Nannies[1].DistanceKm, 0.2)

	code, _ = a.do(t, http.MethodGet, "/api/nannies/text-search?q=noa", "", nil)
	assert.Equal(t, http.StatusBadRequest, code, "index not configured")

	code, env = a.do(t, http.MethodGet, "/api/nannies/me", "noa", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, a.nanny, field[string](t, env.Data, "id"))

	code, _ = a.do(t, http.MethodGet, "/api/nannies/me", "dana", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = a.do(t, http.MethodPut, "/api/nannies/me", "noa", map[string]any{
		"hourly_rate_nis": 65,
		"availability":    []map[string]any{{"day_of_week": 6, "from_time": "9:00", "to_time": "12:00"}},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "availability[0].from_time")

	code, _ = a.do(t, http.MethodGet, "/api/nannies/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPaymentsDisabledOverHTTP(t *testing.T) {
	a := newApp(t)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader("{}"))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRealtimeOverWebSocket(t *testing.T) {
	a := newApp(t)
	_, env := a.createBooking(t, "dana", day, 2)
	id := field[string](t, env.Data, "id")

	srv := httptest.NewServer(a.engine)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+a.tokens["dana"], nil)
	require.NoError(t, err)
	defer conn.Close()

	send := func(event string, data any) {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		require.NoError(t, conn.WriteJSON(realtime.Envelope{Event: event, Data: raw}))
	}
	send(realtime.EventBookingJoin, map[string]string{"booking_id": id})
	send(realtime.EventMessageSend, map[string]string{"booking_id": id, "text": "hello from the socket"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var got realtime.Envelope
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, realtime.EventMessageNew, got.Event)
	assert.Equal(t, "hello from the socket", field[string](t, got.Data, "text"))

	code, env := a.do(t, http.MethodGet, "/api/messages/"+id, "noa", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "hello from the socket")
}
