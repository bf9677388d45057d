package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/cvelens/internal/adapters/web"
	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

func dial(t *testing.T, m *WSManager) *gorillaws.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(m.HandleWebSocket))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestWSManager_Predict(t *testing.T) {
	svc := new(web.MockPredictionService)
	svc.On("Predict", mock.Anything, []domain.CVERecord{{ID: "CVE-1", Description: "xss"}}).
		Return([]domain.Prediction{{CVEID: "CVE-1", AttackType: domain.AttackXSS, SeverityBand: domain.SeverityMedium}}, nil)

	conn := dial(t, NewWSManager(svc, nil, nil))

	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte(`{"cve_id":"CVE-1","description":"xss"}`)))
	var pred domain.Prediction
	require.NoError(t, conn.ReadJSON(&pred))
	assert.Equal(t, domain.AttackXSS, pred.AttackType)
	assert.Equal(t, domain.SeverityMedium, pred.SeverityBand)

	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte(`not json`)))
	var reply map[string]string
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "invalid JSON", reply["error"])

	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte(`{"description":"x"}`)))
	reply = nil
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "cve_id is required", reply["error"])
}

func TestWSManager_ModelNotLoaded(t *testing.T) {
	svc := new(web.MockPredictionService)
	svc.On("Predict", mock.Anything, mock.Anything).Return(nil, domain.ErrModelNotLoaded)

	conn := dial(t, NewWSManager(svc, nil, nil))
	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte(`{"cve_id":"CVE-1"}`)))

	var reply map[string]string
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "model not loaded", reply["error"])
}

func TestWSManager_RejectsForeignOrigin(t *testing.T) {
	m := NewWSManager(new(web.MockPredictionService), []string{"http://localhost:8000"}, nil)
	srv := httptest.NewServer(http.HandlerFunc(m.HandleWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := gorillaws.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWSManager_NotifyReload(t *testing.T) {
	m := NewWSManager(new(web.MockPredictionService), nil, nil)
	conn := dial(t, m)

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.Clients) == 1
	}, time.Second, 10*time.Millisecond)

	m.NotifyReload(domain.ArtifactInfo{ID: "a2"})

	var msg struct {
		Type    string              `json:"type"`
		Payload domain.ArtifactInfo `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "artifact:reloaded", msg.Type)
	assert.Equal(t, "a2", msg.Payload.ID)
}

func TestWSManager_StartClosesOnCancel(t *testing.T) {
	m := NewWSManager(new(web.MockPredictionService), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	conn := dial(t, m)

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.Clients) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
