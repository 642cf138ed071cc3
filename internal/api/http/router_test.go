package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teamboard/teamboard/internal/api/http/handlers"
	"github.com/teamboard/teamboard/internal/auth"
	"github.com/teamboard/teamboard/internal/config"
	"github.com/teamboard/teamboard/internal/events"
	"github.com/teamboard/teamboard/internal/observability"
	"github.com/teamboard/teamboard/internal/repository/memory"
	"github.com/teamboard/teamboard/internal/service"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type testServer struct {
	app     *fiber.App
	metrics *observability.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: 4}}
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	db := memory.New()
	dispatcher := events.NewInMemoryDispatcher(logger)

	teamService := service.NewTeamService(service.TeamDependencies{
		TeamRepo:   db.Teams(),
		UserRepo:   db.Users(),
		TaskRepo:   db.Tasks(),
		PostRepo:   db.Posts(),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	authService := service.NewAuthService(cfg, service.AuthDependencies{UserRepo: db.Users(), Directory: teamService.Store()})
	userService := service.NewUserService(db.Users(), db.Tasks())
	taskService := service.NewTaskService(service.TaskDependencies{TaskRepo: db.Tasks(), UserRepo: db.Users(), Store: teamService.Store()})
	dashboard := service.NewDashboardService(service.DashboardDependencies{Users: userService, TaskRepo: db.Tasks(), Teams: teamService.Store(), Metrics: metrics})
	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notifications.RegisterHandlers()

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("teamboard", "test", pinger{}, pinger{err: errors.New("redis down")}, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Teams:          handlers.NewTeamsHandler(teamService),
		Users:          handlers.NewUsersHandler(userService),
		Tasks:          handlers.NewTasksHandler(taskService),
		Dashboard:      handlers.NewDashboardHandler(dashboard),
		Notifications:  handlers.NewNotificationsHandler(notifications),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), db.Users()),
		TeamLookup:     teamService.Store(),
	})
	return &testServer{app: app, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

type session struct {
	id    string
	token string
}

func (s *testServer) register(t *testing.T, name, email string) session {
	t.Helper()
	status, env := s.do(t, fiber.MethodPost, "/api/auth/register", "", fiber.Map{
		"fullName": name, "email": email, "password": "correct-horse",
	})
	require.Equal(t, fiber.StatusCreated, status)
	var out struct {
		User  struct{ ID string } `json:"user"`
		Token string              `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return session{id: out.User.ID, token: out.Token}
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, fiber.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(t, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status, "redis is optional")

	status, env := s.do(t, fiber.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
	assert.NotEmpty(t, env.Error.Message)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, fiber.MethodPost, "/api/auth/register", "", fiber.Map{"email": "nope"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "email")
	assert.Contains(t, env.Error.Details, "password")

	ann := s.register(t, "Ann Lee", "ann@example.com")
	status, env = s.do(t, fiber.MethodPost, "/api/auth/register", "", fiber.Map{
		"fullName": "Ann Again", "email": "ann@example.com", "password": "correct-horse",
	})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	status, _ = s.do(t, fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": "ann@example.com", "password": "wrong-horse"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	status, _ = s.do(t, fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": "ann@example.com", "password": "correct-horse"})
	assert.Equal(t, fiber.StatusOK, status)

	status, env = s.do(t, fiber.MethodGet, "/api/teams", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, env = s.do(t, fiber.MethodGet, "/api/users/"+ann.id, ann.token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"fullName":"Ann Lee"`)
}

func TestTeamWorkflow(t *testing.T) {
	s := newTestServer(t)
	ann := s.register(t, "Ann Lee", "ann@example.com")
	bob := s.register(t, "Bob Ray", "bob@example.com")
	dee := s.register(t, "Dee Fox", "dee@example.com")

	status, env := s.do(t, fiber.MethodPost, "/api/teams", ann.token, fiber.Map{
		"name": "Core", "members": []fiber.Map{{"userId": bob.id, "role": "ENGINEER"}},
	})
	require.Equal(t, fiber.StatusCreated, status)
	var team struct{ ID string }
	require.NoError(t, json.Unmarshal(env.Data, &team))

	status, env = s.do(t, fiber.MethodGet, "/api/teams?view=joined", bob.token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var joined []struct{ Name string }
	require.NoError(t, json.Unmarshal(env.Data, &joined))
	require.Len(t, joined, 1)
	assert.Equal(t, "Core", joined[0].Name)

	status, _ = s.do(t, fiber.MethodPut, "/api/teams/"+team.ID, bob.token, fiber.Map{"name": "Mine"})
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = s.do(t, fiber.MethodPut, "/api/teams/"+team.ID, ann.token, fiber.Map{"name": "Platform"})
	assert.Equal(t, fiber.StatusOK, status)

	status, env = s.do(t, fiber.MethodDelete, "/api/teams/"+team.ID+"/members/"+ann.id, ann.token, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	status, _ = s.do(t, fiber.MethodGet, "/api/teams/"+team.ID+"/stats", dee.token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = s.do(t, fiber.MethodPost, "/api/teams/"+team.ID+"/posts", bob.token, fiber.Map{"body": "hello"})
	assert.Equal(t, fiber.StatusCreated, status)

	status, _ = s.do(t, fiber.MethodPost, "/api/tasks", bob.token, fiber.Map{
		"teamId": team.ID, "title": "wire login", "type": 2, "priority": 1,
	})
	require.Equal(t, fiber.StatusCreated, status)

	status, env = s.do(t, fiber.MethodGet, "/api/teams/"+team.ID+"/stats", ann.token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"totalTasks":1`)

	status, env = s.do(t, fiber.MethodGet, "/api/users/"+bob.id+"/predictions", ann.token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var report struct {
		Predictions []struct{ Title string } `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	require.Len(t, report.Predictions, 1)
	assert.Equal(t, "wire login", report.Predictions[0].Title)

	status, env = s.do(t, fiber.MethodGet, "/api/users/"+bob.id+"/predictions", dee.token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, env = s.do(t, fiber.MethodGet, "/api/notifications", bob.token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var notes []struct{ Message string }
	require.NoError(t, json.Unmarshal(env.Data, &notes))
	require.Len(t, notes, 2)
	assert.Equal(t, "Team Platform was updated", notes[0].Message)

	status, _ = s.do(t, fiber.MethodDelete, "/api/teams/"+team.ID, ann.token, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
	status, _ = s.do(t, fiber.MethodGet, "/api/teams/"+team.ID, ann.token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	snap := s.metrics.Snapshot()
	assert.NotEmpty(t, snap.Requests)
	assert.Equal(t, int64(1), snap.Predictions["local-heuristic"])
}

func TestStoredTeamIDsSurviveLaterRequests(t *testing.T) {
	s := newTestServer(t)
	ann := s.register(t, "Ann Lee", "ann@example.com")
	bob := s.register(t, "Bob Ray", "bob@example.com")

	status, env := s.do(t, fiber.MethodPost, "/api/teams", ann.token, fiber.Map{
		"name": "Core", "members": []fiber.Map{{"userId": bob.id, "role": "ENGINEER"}},
	})
	require.Equal(t, fiber.StatusCreated, status)
	var team struct{ ID string }
	require.NoError(t, json.Unmarshal(env.Data, &team))

	status, _ = s.do(t, fiber.MethodPost, "/api/teams/"+team.ID+"/posts", ann.token, fiber.Map{"body": "kickoff"})
	require.Equal(t, fiber.StatusCreated, status)
	status, _ = s.do(t, fiber.MethodPut, "/api/teams/"+team.ID, ann.token, fiber.Map{"name": "Platform"})
	require.Equal(t, fiber.StatusOK, status)

	// later requests reuse the request buffers the route params were read from
	for i := 0; i < 5; i++ {
		status, _ = s.do(t, fiber.MethodGet, "/api/users/"+bob.id+"/series", bob.token, nil)
		require.Equal(t, fiber.StatusOK, status)
	}

	status, env = s.do(t, fiber.MethodGet, "/api/notifications", bob.token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var notes []struct {
		Type   string `json:"type"`
		TeamID string `json:"teamId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &notes))
	require.Len(t, notes, 3)
	for _, n := range notes {
		assert.Equal(t, team.ID, n.TeamID, n.Type)
	}

	status, env = s.do(t, fiber.MethodGet, "/api/teams/"+team.ID+"/posts", bob.token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var posts []struct {
		TeamID string `json:"teamId"`
		Body   string `json:"body"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, team.ID, posts[0].TeamID)
	assert.Equal(t, "kickoff", posts[0].Body)
}

func TestPanicsBecomeInternalErrors(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	app.Get("/boom", func(*fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
	assert.Equal(t, "internal server error", env.Error.Message)
}
