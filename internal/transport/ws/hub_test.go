package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finhealth/internal/config"
	"finhealth/internal/service"
)

func newFeedServer(t *testing.T) (*Hub, *service.AuthService, *httptest.Server) {
	t.Helper()
	hub := NewHub(nil)
	auth := service.NewAuthService(&config.Config{JWTSecret: "ws-secret", AdminTokenTTL: time.Hour})
	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, auth, nil).AdminScoresWS))
	t.Cleanup(srv.Close)
	return hub, auth, srv
}

func TestAdminFeedReceivesBroadcasts(t *testing.T) {
	hub, auth, srv := newFeedServer(t)

	login, err := auth.Login("admin", "password123")
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + login.Token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.AdminCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastToAdmins(service.EventScoreCalculated, map[string]interface{}{"responseId": "r1", "totalScore": 60})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MsgScoreCalculated, msg.Type)
	assert.JSONEq(t, `{"responseId":"r1","totalScore":60}`, string(msg.Payload))

	conn.Close()
	require.Eventually(t, func() bool { return hub.AdminCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestAdminFeedRejectsBadTokens(t *testing.T) {
	_, auth, srv := newFeedServer(t)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	respondent, err := auth.GenerateRespondentToken("session-1", time.Minute)
	require.NoError(t, err)
	resp, err = http.Get(srv.URL + "?token=" + respondent)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBroadcastWithoutAdminsDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.BroadcastToAdmins(service.EventCatalogChanged, map[string]string{"version": "v"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("BroadcastToAdmins blocked")
	}
}
