package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-presence/internal/infrastructure/auth"
	cacheadapter "go-presence/internal/infrastructure/cache/adapter"
	busadapter "go-presence/internal/infrastructure/pubsub/adapter"
	qport "go-presence/internal/infrastructure/queue/port"
	"go-presence/internal/infrastructure/realtime"
	"go-presence/internal/pkg/chat/application/task"
	chatadapter "go-presence/internal/pkg/chat/persistence/repository/adapter"
	chatcontroller "go-presence/internal/pkg/chat/presentation/controller"
	presenceadapter "go-presence/internal/pkg/presence/persistence/repository/adapter"
)

type fakeQueue struct {
	tasks []qport.Task
	opts  []qport.EnqueueOption
}

func (q *fakeQueue) Enqueue(_ context.Context, t qport.Task, opts ...qport.EnqueueOption) (string, error) {
	q.tasks = append(q.tasks, t)
	q.opts = append(q.opts, opts...)
	return "task-1", nil
}

func (q *fakeQueue) Close() error { return nil }

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

type apiEnv struct {
	engine   *gin.Engine
	verifier *auth.Verifier
	online   *presenceadapter.CacheOnlineSet
	queue    *fakeQueue
}

func newAPIEnv(t *testing.T, health map[string]Pinger) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := chatadapter.NewMemoryChatRepository()
	online := presenceadapter.NewCacheOnlineSet(cacheadapter.NewMemoryCache(), "online_users")
	hub := realtime.NewHub(realtime.NewRouter(), busadapter.NewLocalBus(), zap.NewNop())
	require.NoError(t, hub.Start(context.Background()))
	t.Cleanup(func() { _ = hub.Stop() })

	verifier := auth.NewVerifier("router-test-secret")
	queue := &fakeQueue{}
	if health == nil {
		health = map[string]Pinger{"database": repo}
	}

	r := gin.New()
	RegisterRoutes(r, Deps{
		Verifier: verifier,
		Repo:     repo,
		Queue:    queue,
		Online:   online,
		Socket: chatcontroller.NewChatSocketController(chatcontroller.SocketDeps{
			Repo:   repo,
			Online: online,
			Hub:    hub,
			Logger: zap.NewNop(),
		}),
		Health: health,
	})
	return &apiEnv{engine: r, verifier: verifier, online: online, queue: queue}
}

func (e *apiEnv) do(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := e.verifier.Issue(auth.Identity{UserID: userID}, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	env := newAPIEnv(t, nil)
	w := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)

	env = newAPIEnv(t, map[string]Pinger{"cache": downPinger{}})
	w = env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestAPIRequiresToken(t *testing.T) {
	env := newAPIEnv(t, nil)
	w := env.do(t, http.MethodGet, "/api/v1/presence/online", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChatLifecycleOverHTTP(t *testing.T) {
	env := newAPIEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/v1/chat", "alice", map[string]interface{}{
		"tenant_id":       "tenant-1",
		"participant_ids": []string{"bob"},
		"assistant_id":    "tutor-bot",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	w = env.do(t, http.MethodGet, "/api/v1/chat/"+created.ID+"/messages?limit=5", "bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)

	w = env.do(t, http.MethodGet, "/api/v1/chat/"+created.ID+"/messages", "mallory", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/chat/"+created.ID+"/participants", "bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"participant_ids":["alice","bob"]}`, w.Body.String())

	w = env.do(t, http.MethodPut, "/api/v1/chat/"+created.ID+"/participants/alice/mute", "bob", map[string]bool{"muted": true})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/chat/"+created.ID+"/participants/bob/mute", "alice", map[string]bool{"muted": true})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/chat/"+created.ID+"/participants/mallory/mute", "alice", map[string]bool{"muted": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendMessageIsQueued(t *testing.T) {
	env := newAPIEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/v1/chat/conv-1", "alice", map[string]string{"body": "hi"})
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, env.queue.tasks, 1)
	assert.Equal(t, task.SendMessageTaskType, env.queue.tasks[0].Type)
	assert.Equal(t, "chat", env.queue.opts[0].Queue)

	var p task.SendMessageTaskPayload
	require.NoError(t, json.Unmarshal(env.queue.tasks[0].Payload, &p))
	assert.Equal(t, "alice", p.SenderID)
	assert.Equal(t, "conv-1", p.ConversationID)
}

func TestPresenceEndpoints(t *testing.T) {
	env := newAPIEnv(t, nil)
	ctx := context.Background()
	_, err := env.online.Add(ctx, "alice")
	require.NoError(t, err)
	at := time.Date(2026, 9, 30, 18, 0, 0, 0, time.UTC)
	require.NoError(t, env.online.TouchLastSeen(ctx, "bob", at))

	w := env.do(t, http.MethodGet, "/api/v1/presence/online", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var roster struct {
		Users []string `json:"users"`
		Count int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &roster))
	assert.Equal(t, []string{"alice"}, roster.Users)
	assert.Equal(t, 1, roster.Count)

	w = env.do(t, http.MethodGet, "/api/v1/presence/bob", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status struct {
		Online   bool       `json:"online"`
		LastSeen *time.Time `json:"lastSeen"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.Online)
	require.NotNil(t, status.LastSeen)
	assert.True(t, at.Equal(*status.LastSeen))
}
