package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"hangout-service/internal/adapters/database"
	"hangout-service/internal/models"
	"hangout-service/internal/services"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isRedisAvailable() bool {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	_, err := client.Ping(ctx).Result()
	return err == nil
}

// startHub serves /?plan=N on a test server, user 1 for every connection
func startHub(t *testing.T, redisService *services.RedisService) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(redisService, []string{"http://localhost:3000"})
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		planID, _ := strconv.ParseUint(r.URL.Query().Get("plan"), 10, 64)
		if err := hub.ServeWs(w, r, 1, uint(planID)); err != nil {
			t.Logf("upgrade failed: %v", err)
		}
	}))
	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, planID uint) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?plan=" + strconv.FormatUint(uint64(planID), 10)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var hello Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, MessageTypeConnect, hello.Type)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	var msg Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHubDeliversPlanEvents(t *testing.T) {
	hub, srv := startHub(t, nil)

	watcher := dial(t, srv, 7)
	other := dial(t, srv, 8)
	require.Eventually(t, func() bool { return hub.ClientCount(7) == 1 && hub.ClientCount(8) == 1 }, time.Second, 10*time.Millisecond)

	event := models.PlanEvent{ID: "evt-1", Type: models.EventConsensusReached, PlanID: 7, UserID: 2, OccurredAt: time.Now().UTC()}
	require.NoError(t, hub.Dispatch(context.Background(), event))

	msg := readMessage(t, watcher)
	assert.Equal(t, MessageTypePlanEvent, msg.Type)
	require.NotNil(t, msg.Event)
	assert.Equal(t, models.EventConsensusReached, msg.Event.Type)
	assert.Equal(t, uint(7), msg.PlanID)

	t.Run("other plans see nothing", func(t *testing.T) {
		require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
		_, _, err := other.ReadMessage()
		assert.Error(t, err)
	})
}

func TestHubAnswersPing(t *testing.T) {
	_, srv := startHub(t, nil)
	conn := dial(t, srv, 3)

	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypePing}))
	assert.Equal(t, MessageTypePong, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeError, msg.Type)
	assert.NotEmpty(t, msg.Error)
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub, srv := startHub(t, nil)
	conn := dial(t, srv, 5)
	require.Eventually(t, func() bool { return hub.ClientCount(5) == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount(5) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestUpgraderChecksOrigin(t *testing.T) {
	_, srv := startHub(t, nil)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?plan=1"

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "http://localhost:3000")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}

func TestHubRelaysRedisEvents(t *testing.T) {
	if !isRedisAvailable() {
		t.Skip("Redis is not available, skipping test")
	}
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	t.Cleanup(func() { client.Close() })
	redisService := services.NewRedisService(database.NewRedisClient(client))

	// Two hubs stand in for two server instances
	hub1, srv1 := startHub(t, redisService)
	_, srv2 := startHub(t, redisService)
	conn := dial(t, srv2, 11)
	_ = dial(t, srv1, 11)
	require.Eventually(t, func() bool { return hub1.ClientCount(11) == 1 }, time.Second, 10*time.Millisecond)

	// Let both subscriptions settle
	time.Sleep(100 * time.Millisecond)

	event := models.PlanEvent{ID: "evt-r", Type: models.EventVoteCast, PlanID: 11, OccurredAt: time.Now().UTC()}
	require.NoError(t, redisService.PublishPlanEvent(context.Background(), event))

	msg := readMessage(t, conn)
	require.NotNil(t, msg.Event)
	assert.Equal(t, "evt-r", msg.Event.ID)
}
