package handlers_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"match-integrity-system/engine/enginetest"
	"match-integrity-system/handlers"
	"match-integrity-system/models"
	"match-integrity-system/services"
)

type staticTokens map[string]string

func (s staticTokens) ValidateToken(accessToken, deviceID string) (*services.ValidateResponse, error) {
	user, ok := s[accessToken]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &services.ValidateResponse{UserID: user, DeviceID: deviceID}, nil
}

func newLiveApp(t *testing.T, tickWait time.Duration) (*fiber.App, *services.LiveService) {
	t.Helper()
	live := services.NewLiveService(newMatchService(t), tickWait)
	app := fiber.New()
	handlers.SetupLiveRoutes(app, live, staticTokens{"good-token": "viewer-1"})
	return app, live
}

func startBody(matchID string, ticks uint64) map[string]any {
	return map[string]any{
		"matchId":       matchID,
		"home":          enginetest.Team("home", 10, enginetest.DefaultRatings),
		"away":          enginetest.Team("away", 10, enginetest.DefaultRatings),
		"seed":          5,
		"durationTicks": ticks,
	}
}

func TestLiveMatchLifecycle(t *testing.T) {
	app, live := newLiveApp(t, 5*time.Millisecond)

	status, out := do(t, app, request{method: http.MethodPost, path: "/live/matches", body: startBody("lv-1", 50000), user: "u-1"})
	require.Equal(t, http.StatusCreated, status, out)
	assert.Equal(t, "lv-1", out["matchId"])

	status, out = do(t, app, request{method: http.MethodGet, path: "/live/matches", user: "u-1"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"lv-1"}, out["running"])

	inputs := []models.PlayerInput{{Tick: 40000, ActorID: "home-p2", ActionKind: models.ActionSprint, TimestampMs: 4000010}}
	status, out = do(t, app, request{method: http.MethodPost, path: "/live/matches/lv-1/inputs", body: inputs, user: "u-1"})
	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, float64(1), out["accepted"])

	status, out = do(t, app, request{method: http.MethodPost, path: "/live/matches/lv-1/inputs", body: []byte(`[{"tick":1,"actorId":"home-p2","actionKind":"FLY"}]`), user: "u-1"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, out["details"], "input[0]")

	status, _ = do(t, app, request{method: http.MethodPost, path: "/live/matches/lv-1/abort", user: "u-1"})
	assert.Equal(t, http.StatusAccepted, status)

	rec, err := live.Wait(t.Context(), "lv-1")
	require.NoError(t, err)
	assert.True(t, rec.Aborted)

	status, _ = do(t, app, request{method: http.MethodPost, path: "/live/matches/lv-1/abort", user: "u-1"})
	assert.Equal(t, http.StatusGone, status)
	status, _ = do(t, app, request{method: http.MethodPost, path: "/live/matches/nope/abort", user: "u-1"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLiveRoutesRequireUserContext(t *testing.T) {
	app, _ := newLiveApp(t, 5*time.Millisecond)
	status, _ := do(t, app, request{method: http.MethodPost, path: "/live/matches", body: startBody("lv-2", 10)})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLiveEventStream(t *testing.T) {
	app, live := newLiveApp(t, 5*time.Millisecond)

	status, _ := do(t, app, request{method: http.MethodGet, path: "/live/matches/lv-3/events"})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = do(t, app, request{method: http.MethodGet, path: "/live/matches/lv-3/events?token=bad&device_id=d1"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = do(t, app, request{method: http.MethodGet, path: "/live/matches/lv-3/events?token=good-token&device_id=d1"})
	assert.Equal(t, http.StatusNotFound, status)

	status, out := do(t, app, request{method: http.MethodPost, path: "/live/matches", body: startBody("lv-3", 40), user: "u-1"})
	require.Equal(t, http.StatusCreated, status, out)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/live/matches/lv-3/events?token=good-token&device_id=d1", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	stream := string(body)
	assert.Contains(t, stream, "event: tick\n")
	assert.Contains(t, stream, "event: final\n")
	assert.True(t, strings.HasSuffix(stream, "\n\n"))

	_, err = live.Wait(t.Context(), "lv-3")
	require.NoError(t, err)
	status, _ = do(t, app, request{method: http.MethodGet, path: "/live/matches/lv-3/events?token=good-token&device_id=d1"})
	assert.Equal(t, http.StatusGone, status)
}
