package api

import (
	"alcyxob/fitness-scheduler/internal/metrics"
	"alcyxob/fitness-scheduler/internal/repository/memory"
	"alcyxob/fitness-scheduler/internal/service"
	"alcyxob/fitness-scheduler/internal/storage"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testSecret = "api-test-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

type testServer struct {
	router *gin.Engine
	auth   service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore(false)
	tx := store.Transactor()
	m, reg := metrics.NewTestManagerAndRegistry()

	auth := service.NewAuthService(store.Users(), store.Clients(), tx, testSecret, time.Hour)
	deps := Dependencies{
		JWTSecret:       testSecret,
		AuthService:     auth,
		ExerciseService: service.NewExerciseService(store.Exercises(), store.Workouts(), store.Programs(), tx, storage.Unconfigured()),
		CatalogService: service.NewCatalogService(
			store.Exercises(), store.Workouts(), store.Programs(), store.ClientWorkouts(), store.ClientPrograms(), tx),
		AssignmentService: service.NewAssignmentService(
			store.Users(), store.Clients(), store.Workouts(), store.Programs(), store.ClientWorkouts(), store.ClientPrograms(), tx),
		TrainerService: service.NewTrainerService(store.Users(), store.Clients(), tx),
		ClientService:  service.NewClientService(store.Users(), store.Clients()),
		CalendarService: service.NewCalendarService(
			store.Users(), store.Clients(), store.Workouts(), store.Programs(), store.ClientWorkouts(), store.ClientPrograms()),
		Metrics:  m,
		Registry: reg,
	}
	return &testServer{router: NewRouter(deps), auth: auth}
}

// do sends a JSON request and returns the recorded response.
func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, kind service.ErrorKind) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decode[errorBody](t, rec)
	require.Equal(t, string(kind), body.Kind)
	require.NotEmpty(t, body.Error)
}

// signup registers an account over the API and logs it in.
func (s *testServer) signup(t *testing.T, name, email, role string) (string, UserResponse) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Name: name, Email: email, Password: "s3cret-pass", Role: role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return s.login(t, email, "s3cret-pass")
}

func (s *testServer) login(t *testing.T, email, password string) (string, UserResponse) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[LoginResponse](t, rec)
	return resp.Token, resp.User
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	require.NoError(t, s.auth.EnsureAdmin(context.Background(), "", "admin@example.com", "s3cret-pass"))
	token, _ := s.login(t, "admin@example.com", "s3cret-pass")
	return token
}
