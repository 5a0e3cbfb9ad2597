package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"habittracker/habits-api/internal/auth"
	"habittracker/habits-api/internal/habitlogs"
	"habittracker/habits-api/internal/habits"
)

func newInMemoryHandler(t *testing.T) http.Handler {
	t.Helper()
	h, _ := newInMemoryHandlerWithStore(t)
	return h
}

// newInMemoryHandlerWithStore also returns the habit store so tests can seed
// rows directly.
func newInMemoryHandlerWithStore(t *testing.T) (http.Handler, *habits.InMemoryStore) {
	t.Helper()
	authSvc, err := auth.NewService(auth.NewInMemoryUserStore(), auth.ServiceConfig{
		JWTSecret:  "flow-secret",
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)

	habitStore := habits.NewInMemoryStore()
	habitSvc, err := habits.NewService(habitStore)
	require.NoError(t, err)
	logSvc, err := habitlogs.NewService(habitlogs.NewInMemoryStore(habitStore), habitSvc)
	require.NoError(t, err)

	return NewHandler(Deps{
		Auth:       authSvc,
		Habits:     habitSvc,
		HabitLogs:  logSvc,
		SessionTTL: time.Hour,
	}), habitStore
}

func registerAndLogin(t *testing.T, h http.Handler, email string) *http.Cookie {
	t.Helper()
	rec := doRequest(t, h, http.MethodPost, "/api/auth/register",
		map[string]string{"name": "User", "email": email, "password": "pw123456"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(t, h, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": "pw123456"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	c := findCookie(rec, sessionCookieName)
	require.NotNil(t, c)
	return &http.Cookie{Name: c.Name, Value: c.Value}
}

func TestFlowCreateListDelete(t *testing.T) {
	h := newInMemoryHandler(t)
	cookie := registerAndLogin(t, h, "ada@example.com")

	rec := doRequest(t, h, http.MethodGet, "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"ada@example.com"}`, rec.Body.String())

	rec = doRequest(t, h, http.MethodPost, "/api/habits",
		map[string]string{"name": "Read", "description": "20 pages", "frequency": "Daily"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created habits.Habit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doRequest(t, h, http.MethodGet, "/api/habits", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []habits.Habit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, habits.Daily, list[0].Frequency)

	rec = doRequest(t, h, http.MethodDelete, "/api/habits/"+created.ID, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/habits", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestFlowCrossUserIsolation(t *testing.T) {
	h := newInMemoryHandler(t)
	alice := registerAndLogin(t, h, "alice@example.com")
	bob := registerAndLogin(t, h, "bob@example.com")

	rec := doRequest(t, h, http.MethodPost, "/api/habits", map[string]string{"name": "Run", "frequency": "Weekly"}, alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	var habit habits.Habit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &habit))

	rec = doRequest(t, h, http.MethodGet, "/api/habits", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = doRequest(t, h, http.MethodPut, "/api/habits/"+habit.ID, map[string]string{"name": "Mine"}, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doRequest(t, h, http.MethodDelete, "/api/habits/"+habit.ID, nil, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doRequest(t, h, http.MethodPost, "/api/habit-logs", map[string]string{"habitId": habit.ID}, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodPut, "/api/habits/not-a-uuid", map[string]string{"name": "x"}, alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodPut, "/api/habits/"+habit.ID, map[string]string{"name": "Run far"}, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated habits.Habit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Run far", updated.Name)
	assert.Equal(t, habits.Weekly, updated.Frequency)

	rec = doRequest(t, h, http.MethodPut, "/api/habits/"+strings.ToUpper(habit.ID), map[string]string{"description": "5k"}, alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, habit.ID, updated.ID)
}

func TestFlowLogsAndSummary(t *testing.T) {
	h := newInMemoryHandler(t)
	cookie := registerAndLogin(t, h, "ada@example.com")

	rec := doRequest(t, h, http.MethodPost, "/api/habits", map[string]string{"name": "Read", "frequency": "Daily"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	var habit habits.Habit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &habit))

	for _, status := range []string{"Completed", "", "missed"} {
		rec = doRequest(t, h, http.MethodPost, "/api/habit-logs", map[string]string{"habitId": habit.ID, "status": status}, cookie)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec = doRequest(t, h, http.MethodPost, "/api/habit-logs", map[string]string{"habitId": habit.ID, "status": "skipped"}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/habit-logs", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs []habitlogs.HabitLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs, 3)
	require.NotNil(t, logs[0].Habit)
	assert.Equal(t, "Read", logs[0].Habit.Name)
	assert.Equal(t, habitlogs.Missed, logs[2].Status)

	rec = doRequest(t, h, http.MethodGet, "/api/habits/summary", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []habitlogs.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Equal(t, []habitlogs.Summary{{HabitID: habit.ID, HabitName: "Read", DoneCount: 2, MissedCount: 1}}, rows)
}

func TestFlowLoginFailures(t *testing.T) {
	h := newInMemoryHandler(t)
	registerAndLogin(t, h, "ada@example.com")

	rec := doRequest(t, h, http.MethodPost, "/api/auth/register",
		map[string]string{"name": "Again", "email": "ADA@example.com", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists", decodeMessage(t, rec))

	rec = doRequest(t, h, http.MethodPost, "/api/auth/login", map[string]string{"email": "ada@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decodeMessage(t, rec))

	rec = doRequest(t, h, http.MethodPost, "/api/auth/login", map[string]string{"email": "nobody@example.com", "password": "pw"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "User not found", decodeMessage(t, rec))
}

func TestFlowRepeatedReadsAreStable(t *testing.T) {
	h, store := newInMemoryHandlerWithStore(t)
	cookie := registerAndLogin(t, h, "ada@example.com")

	rec := doRequest(t, h, http.MethodPost, "/api/habits", map[string]string{"name": "Read", "frequency": "Daily"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	var first habits.Habit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	// two habits sharing a timestamp exercise the id tie-break
	same := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	ids := []string{"11111111-1111-4111-8111-111111111111", "22222222-2222-4222-8222-222222222222"}
	for i, id := range ids {
		require.NoError(t, store.Create(context.Background(), habits.Habit{
			ID: id, UserID: first.UserID, Name: fmt.Sprintf("Tied %d", i), Frequency: habits.Weekly, CreatedAt: same,
		}))
	}

	for _, id := range append([]string{first.ID}, ids...) {
		rec = doRequest(t, h, http.MethodPost, "/api/habit-logs", map[string]string{"habitId": id, "status": "Missed"}, cookie)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	for _, path := range []string{"/api/habits", "/api/habit-logs", "/api/habits/summary"} {
		a := doRequest(t, h, http.MethodGet, path, nil, cookie)
		b := doRequest(t, h, http.MethodGet, path, nil, cookie)
		require.Equal(t, http.StatusOK, a.Code, path)
		require.Equal(t, http.StatusOK, b.Code, path)
		assert.Equal(t, a.Body.String(), b.Body.String(), path)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/habits", nil, cookie)
	var list []habits.Habit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)
	assert.Equal(t, ids[0], list[2].ID)
}
