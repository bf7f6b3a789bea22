package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"folio/internal/auth"
	"folio/internal/database"
	"folio/internal/events"
	"folio/internal/repository"
	"folio/internal/throttle"
)

const (
	testUsername = "admin"
	testPassword = "correct horse battery staple"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
	Errors  []FieldError    `json:"errors"`
}

// recordingPublisher 记录所有发布的事件。
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type+":"+e.Resource)
	}
	return out
}

type testServer struct {
	router    *gin.Engine
	store     *repository.Store
	auth      *auth.AuthService
	limiter   *throttle.MemoryLimiter
	publisher *recordingPublisher
	relay     *fakeRelay
	token     string
}

type serverOption func(*Dependencies)

func withRegistration(d *Dependencies) { d.AllowRegister = true }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	authService, err := auth.NewAuthService("api-test-secret", time.Hour)
	require.NoError(t, err)

	store := repository.NewStore(newTestDB(t))
	hashed, err := authService.HashPassword(testPassword)
	require.NoError(t, err)
	user, err := store.Users.Create(context.Background(), testUsername, hashed)
	require.NoError(t, err)
	token, err := authService.IssueToken(user.ID)
	require.NoError(t, err)

	srv := &testServer{
		store:     store,
		auth:      authService,
		limiter:   throttle.NewMemoryLimiter(throttle.Limits{PerHour: 100, LockThreshold: 3, LockTTL: time.Minute}),
		publisher: &recordingPublisher{},
		relay:     &fakeRelay{},
		token:     token,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps := Dependencies{
		Store:   store,
		Auth:    authService,
		Limiter: srv.limiter,
		Relay:   srv.relay,
		Events:  srv.publisher,
		Logger:  logger,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	srv.router = NewRouter(logger, nil)
	RegisterRoutes(srv.router, deps)
	return srv
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(v)
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func decodeData[T any](t *testing.T, resp apiResponse) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out), string(resp.Data))
	return out
}
