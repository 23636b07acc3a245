package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-presence/internal/infrastructure/auth"
	cacheadapter "go-presence/internal/infrastructure/cache/adapter"
	busadapter "go-presence/internal/infrastructure/pubsub/adapter"
	"go-presence/internal/infrastructure/realtime"
	repository "go-presence/internal/pkg/chat/persistence/repository/port"
	presenceadapter "go-presence/internal/pkg/presence/persistence/repository/adapter"
)

const testSecret = "socket-test-secret"

type socketEnv struct {
	srv      *httptest.Server
	hub      *realtime.Hub
	ctl      *ChatSocketController
	online   *presenceadapter.CacheOnlineSet
	verifier *auth.Verifier
}

func newSocketEnv(t *testing.T, repo repository.ChatRepository, trackConnections bool) *socketEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := realtime.NewHub(realtime.NewRouter(), busadapter.NewLocalBus(), zap.NewNop())
	require.NoError(t, hub.Start(context.Background()))
	t.Cleanup(func() { _ = hub.Stop() })

	online := presenceadapter.NewCacheOnlineSet(cacheadapter.NewMemoryCache(), "online_users")
	verifier := auth.NewVerifier(testSecret)

	ctl := NewChatSocketController(SocketDeps{
		Repo:             repo,
		Online:           online,
		TrackConnections: trackConnections,
		Hub:              hub,
		Logger:           zap.NewNop(),
		InflightTimeout:  time.Second,
	})

	r := gin.New()
	r.GET("/ws", auth.Middleware(verifier), ctl.Handle())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &socketEnv{srv: srv, hub: hub, ctl: ctl, online: online, verifier: verifier}
}

type wireFrame struct {
	Event string          `json:"event"`
	Ack   string          `json:"ack"`
	Data  json.RawMessage `json:"data"`
}

type testClient struct {
	t         *testing.T
	ws        *websocket.Conn
	userID    string
	sessionID string
}

// connect dials as userID and waits for the connected frame, so presence
// handling for the session has finished when it returns.
func (e *socketEnv) connect(t *testing.T, userID string) *testClient {
	t.Helper()
	token, err := e.verifier.Issue(auth.Identity{UserID: userID, Role: "student"}, time.Hour)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws?token=" + token
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	c := &testClient{t: t, ws: ws, userID: userID}
	f := c.next()
	require.Equal(t, EventConnected, f.Event)
	var p connectedPayload
	require.NoError(t, json.Unmarshal(f.Data, &p))
	require.Equal(t, userID, p.UserID)
	c.sessionID = p.SessionID
	return c
}

func (c *testClient) emit(event, ack string, data interface{}) {
	c.t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(c.t, err)
	b, err := json.Marshal(realtime.InboundFrame{Event: event, Ack: ack, Data: raw})
	require.NoError(c.t, err)
	require.NoError(c.t, c.ws.WriteMessage(websocket.TextMessage, b))
}

func (c *testClient) next() wireFrame {
	c.t.Helper()
	require.NoError(c.t, c.ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := c.ws.ReadMessage()
	require.NoError(c.t, err)
	var f wireFrame
	require.NoError(c.t, json.Unmarshal(data, &f))
	return f
}

func (c *testClient) expect(event string) wireFrame {
	c.t.Helper()
	f := c.next()
	require.Equal(c.t, event, f.Event, "frame data: %s", string(f.Data))
	return f
}

// expectUser reads the next frame and checks it is event about userID.
func (c *testClient) expectUser(event, userID string) {
	c.t.Helper()
	f := c.expect(event)
	var p struct {
		UserID string `json:"userId"`
	}
	require.NoError(c.t, json.Unmarshal(f.Data, &p))
	require.Equal(c.t, userID, p.UserID)
}

// waitOffline consumes frames until user-offline was seen for every id.
func (c *testClient) waitOffline(ids ...string) {
	c.t.Helper()
	pending := make(map[string]bool, len(ids))
	for _, id := range ids {
		pending[id] = true
	}
	for len(pending) > 0 {
		f := c.next()
		if f.Event != "user-offline" {
			continue
		}
		var p struct {
			UserID string `json:"userId"`
		}
		require.NoError(c.t, json.Unmarshal(f.Data, &p))
		delete(pending, p.UserID)
	}
}

func (c *testClient) silent() {
	c.t.Helper()
	require.NoError(c.t, c.ws.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, data, err := c.ws.ReadMessage()
	require.Error(c.t, err, "unexpected frame %s", string(data))
}

func (c *testClient) close() {
	_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	_ = c.ws.Close()
}

type ackReply struct {
	Success bool            `json:"success"`
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
}

// request emits an event and returns its acknowledgement. Presence events
// from other sessions arriving in between are skipped.
func (c *testClient) request(event, ack string, data interface{}) ackReply {
	c.t.Helper()
	c.emit(event, ack, data)
	f := c.next()
	for f.Event == "user-online" || f.Event == "user-offline" {
		f = c.next()
	}
	require.Equal(c.t, realtime.AckEvent, f.Event, "frame data: %s", string(f.Data))
	require.Equal(c.t, ack, f.Ack)
	var r ackReply
	require.NoError(c.t, json.Unmarshal(f.Data, &r))
	return r
}

func websocketDial(url string) (*websocket.Conn, *http.Response, error) {
	return websocket.DefaultDialer.Dial(url, nil)
}
