package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/nutrisnap/backend/config"
	"github.com/pageza/nutrisnap/backend/internal/database"
	"github.com/pageza/nutrisnap/backend/internal/flow"
	"github.com/pageza/nutrisnap/backend/internal/logger"
	"github.com/pageza/nutrisnap/backend/internal/middleware"
	"github.com/pageza/nutrisnap/backend/internal/mocks"
	"github.com/pageza/nutrisnap/backend/internal/types"
)

const (
	testToken = "valid-token"
	testPhoto = "data:image/png;base64,iVBORw0KGgo="
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeModel is a flow.ModelClient with canned answers.
type fakeModel struct {
	mu     sync.Mutex
	calls  []flow.GenerateRequest
	output json.RawMessage
	err    error
	chunks []string
	// onChunk runs before chunk i is yielded.
	onChunk func(i int)
}

func (f *fakeModel) Generate(ctx context.Context, req flow.GenerateRequest) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.output, f.err
}

func (f *fakeModel) GenerateStream(ctx context.Context, req flow.GenerateRequest) (*flow.Stream, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &flow.Stream{
		Chunks: func(yield func(flow.Chunk, error) bool) {
			for i, text := range f.chunks {
				if f.onChunk != nil {
					f.onChunk(i)
				}
				if !yield(flow.TextChunk(text), nil) {
					return
				}
			}
		},
		Response: func(ctx context.Context) error { return nil },
	}, nil
}

func (f *fakeModel) lastCall() flow.GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type testEnv struct {
	router   *gin.Engine
	auth     *mocks.MockAuthService
	profiles *mocks.MockProfileService
	model    *fakeModel
	userID   uuid.UUID
	claims   *types.TokenClaims
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		auth:     &mocks.MockAuthService{},
		profiles: &mocks.MockProfileService{},
		model:    &fakeModel{},
		userID:   uuid.New(),
	}
	env.claims = &types.TokenClaims{UserID: env.userID, Email: "ana@example.com"}
	env.auth.On("ValidateToken", mock.Anything, testToken).Return(env.claims, nil).Maybe()

	db, err := database.New(&config.Config{DBDriver: "sqlite", SQLitePath: ":memory:"}, logger.NewNop())
	require.NoError(t, err)

	log := logger.NewNop()
	env.router = gin.New()
	RegisterRoutes(env.router, Handlers{
		Auth:    NewAuthHandler(env.auth, log),
		Profile: NewProfileHandler(env.profiles, log),
		AI:      NewAIHandler(flow.NewService(env.model, flow.WithLogger(log)), env.profiles, log),
		Health:  NewHealthHandler(db, nil),
	}, middleware.AuthMiddleware(env.auth), nil)

	t.Cleanup(func() {
		env.auth.AssertExpectations(t)
		env.profiles.AssertExpectations(t)
	})
	return env
}

func (e *testEnv) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func authHeader(extra ...string) map[string]string {
	h := map[string]string{"Authorization": "Bearer " + testToken}
	for i := 0; i+1 < len(extra); i += 2 {
		h[extra[i]] = extra[i+1]
	}
	return h
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var env types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env.Error
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}
