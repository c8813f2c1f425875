package bpm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpmlabs/bpmclient/internal/domain"
)

// newStreamServer runs a WebSocket endpoint at /ws/markets that hands each
// connection to handle.
func newStreamServer(t *testing.T, handle func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/markets" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStreamSubscribeAndDispatch(t *testing.T) {
	srv := newStreamServer(t, func(conn *websocket.Conn) {
		// Expect the subscription command first.
		var cmd streamCommand
		require.NoError(t, conn.ReadJSON(&cmd))
		assert.Equal(t, "subscribe", cmd.Type)
		assert.Equal(t, "markets", cmd.Channel)

		m := validAPIMarket()
		m.EndTime = flexTime{time.Now().Add(time.Hour)}
		require.NoError(t, conn.WriteJSON(marketUpdateMessage{
			EventType: "market_update",
			Market:    m,
		}))

		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	stream := NewStream(wsURL(srv))
	updates := make(chan domain.Market, 1)
	stream.OnMarketUpdate(func(m domain.Market) { updates <- m })

	require.NoError(t, stream.Connect(context.Background()))
	defer stream.Close()
	require.NoError(t, stream.Subscribe(context.Background()))

	select {
	case m := <-updates:
		assert.Equal(t, int64(1), m.ID)
		assert.Equal(t, "SSE Composite closes above 3450 today", m.Question)
	case <-time.After(2 * time.Second):
		t.Fatal("no market update received")
	}
}

func TestStreamDropsInvalidFrames(t *testing.T) {
	srv := newStreamServer(t, func(conn *websocket.Conn) {
		// Junk, a wrong event type, an invalid market, then a good update.
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = conn.WriteJSON(map[string]string{"event_type": "heartbeat"})
		bad := validAPIMarket()
		bad.YesOdds = 0.5
		_ = conn.WriteJSON(marketUpdateMessage{EventType: "market_update", Market: bad})
		good := validAPIMarket()
		good.ID = 42
		_ = conn.WriteJSON(marketUpdateMessage{EventType: "market_update", Market: good})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	stream := NewStream(wsURL(srv))
	updates := make(chan domain.Market, 4)
	stream.OnMarketUpdate(func(m domain.Market) { updates <- m })

	require.NoError(t, stream.Connect(context.Background()))
	defer stream.Close()

	select {
	case m := <-updates:
		assert.Equal(t, int64(42), m.ID, "only the valid update should get through")
	case <-time.After(2 * time.Second):
		t.Fatal("no market update received")
	}
	assert.Empty(t, updates, "invalid frames must not reach handlers")
}

func TestStreamSurvivesConnectionDrop(t *testing.T) {
	var conns atomic.Int32
	srv := newStreamServer(t, func(conn *websocket.Conn) {
		n := conns.Add(1)

		// Every connection, including the reconnected one, must re-send the
		// subscription before updates flow.
		var cmd streamCommand
		require.NoError(t, conn.ReadJSON(&cmd))
		assert.Equal(t, "subscribe", cmd.Type)

		m := validAPIMarket()
		m.ID = int64(n)
		_ = conn.WriteJSON(marketUpdateMessage{EventType: "market_update", Market: m})

		if n == 1 {
			// Kill the first connection to force a reconnect.
			conn.Close()
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	stream := NewStream(wsURL(srv))
	stream.reconnectDelay = 10 * time.Millisecond
	updates := make(chan domain.Market, 8)
	stream.OnMarketUpdate(func(m domain.Market) { updates <- m })

	require.NoError(t, stream.Connect(context.Background()))
	defer stream.Close()
	require.NoError(t, stream.Subscribe(context.Background()))

	var got []int64
	for len(got) < 2 {
		select {
		case m := <-updates:
			got = append(got, m.ID)
		case <-time.After(3 * time.Second):
			t.Fatalf("stream stalled after drop, got updates %v", got)
		}
	}
	assert.Equal(t, []int64{1, 2}, got)

	// The replacement connection must stay up: no further dials after it.
	time.Sleep(100 * time.Millisecond)
	assert.EqualValues(t, 2, conns.Load(), "reconnected connection must not be torn down by the old read loop")
}

func TestStreamConnectAfterClose(t *testing.T) {
	stream := NewStream("ws://localhost:0")
	require.NoError(t, stream.Close())

	err := stream.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStreamClosed)
}

func TestStreamSubscribeBeforeConnect(t *testing.T) {
	stream := NewStream("ws://localhost:0")
	assert.Error(t, stream.Subscribe(context.Background()))
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	srv := newStreamServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	stream := NewStream(wsURL(srv))
	require.NoError(t, stream.Connect(context.Background()))
	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())
}

func TestStreamHandleMessage(t *testing.T) {
	stream := NewStream("ws://localhost:0")
	var got []domain.Market
	stream.OnMarketUpdate(func(m domain.Market) { got = append(got, m) })

	m := validAPIMarket()
	payload, err := json.Marshal(marketUpdateMessage{EventType: "market_update", Market: m})
	require.NoError(t, err)

	stream.handleMessage(payload)
	stream.handleMessage([]byte(`{"event_type": "market_update", "market": {"id": -1}}`))
	stream.handleMessage([]byte(`garbage`))

	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}
