package bpm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bpmlabs/bpmclient/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// defaultReconnectDelay is the base delay before attempting to reconnect.
	defaultReconnectDelay = 2 * time.Second

	// defaultMaxReconnectDelay caps the exponential backoff for reconnection.
	defaultMaxReconnectDelay = 60 * time.Second
)

// MarketUpdateHandler is called when the backend pushes a market update.
type MarketUpdateHandler func(domain.Market)

// streamCommand is the subscription envelope sent to the backend stream.
type streamCommand struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

// marketUpdateMessage is a pushed market change.
type marketUpdateMessage struct {
	EventType string    `json:"event_type"`
	Market    APIMarket `json:"market"`
}

// Stream is a WebSocket client for the backend's live market feed. It manages
// the connection lifecycle, keeps the subscription alive across reconnects,
// and dispatches updates to registered handlers.
type Stream struct {
	wsURL string

	reconnectDelay    time.Duration
	maxReconnectDelay time.Duration

	mu         sync.RWMutex
	conn       *websocket.Conn
	closed     bool
	subscribed bool

	handlerMu sync.RWMutex
	handlers  []MarketUpdateHandler

	// done is closed when the stream is shut down.
	done chan struct{}
}

// NewStream creates a market stream client for the given WebSocket base URL,
// e.g. "ws://localhost:8000".
func NewStream(wsURL string) *Stream {
	return &Stream{
		wsURL:             wsURL + "/ws/markets",
		reconnectDelay:    defaultReconnectDelay,
		maxReconnectDelay: defaultMaxReconnectDelay,
		done:              make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and starts the read and ping
// loops. A previous subscription is restored after reconnect. The loops are
// bound to the connection they were started for, so a reconnect never
// disturbs the connection that replaced a dead one.
func (s *Stream) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("bpm/stream: %w", domain.ErrStreamClosed)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return fmt.Errorf("bpm/stream: connect: %w", err)
	}

	s.conn = conn

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go s.readLoop(conn)
	go s.pingLoop(conn)

	if s.subscribed {
		if err := s.sendCommand(streamCommand{Type: "subscribe", Channel: "markets"}); err != nil {
			return fmt.Errorf("bpm/stream: restore subscription: %w", err)
		}
	}

	return nil
}

// Subscribe asks the backend to push market updates.
func (s *Stream) Subscribe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("bpm/stream: not connected")
	}

	if err := s.sendCommand(streamCommand{Type: "subscribe", Channel: "markets"}); err != nil {
		return fmt.Errorf("bpm/stream: subscribe: %w", err)
	}
	s.subscribed = true
	return nil
}

// OnMarketUpdate registers a handler that is called for every pushed market
// update.
func (s *Stream) OnMarketUpdate(handler MarketUpdateHandler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Close shuts down the connection and stops the loops.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.done)

	if s.conn != nil {
		_ = s.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return s.conn.Close()
	}

	return nil
}

// --------------------------------------------------------------------------
// Internal methods
// --------------------------------------------------------------------------

// sendCommand sends a JSON command to the WebSocket. Caller must hold s.mu.
func (s *Stream) sendCommand(cmd streamCommand) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop reads messages from conn and dispatches them to handlers. The loop
// owns conn: it closes conn and nothing else, so the connection established
// by a reconnect is untouched when this loop winds down. On disconnect it
// attempts to reconnect with exponential backoff.
func (s *Stream) readLoop(conn *websocket.Conn) {
	defer conn.Close()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}

			s.reconnect()
			return // the reconnected conn runs its own readLoop
		}

		s.handleMessage(message)
	}
}

// pingLoop sends periodic pings on conn to keep it alive. The loop exits when
// its connection dies; the replacement connection brings its own pingLoop.
func (s *Stream) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage parses a raw frame and routes market updates to handlers.
// Unparseable frames and frames carrying invalid markets are dropped.
func (s *Stream) handleMessage(raw []byte) {
	var msg marketUpdateMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if msg.EventType != "market_update" {
		return
	}
	if err := msg.Market.Validate(); err != nil {
		return
	}

	market := msg.Market.ToDomain()

	s.handlerMu.RLock()
	handlers := s.handlers
	s.handlerMu.RUnlock()

	for _, h := range handlers {
		h(market)
	}
}

// reconnect re-establishes the connection with exponential backoff. It blocks
// until successful or the stream is closed.
func (s *Stream) reconnect() {
	delay := s.reconnectDelay

	for {
		select {
		case <-s.done:
			return
		default:
		}

		time.Sleep(delay)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := s.Connect(ctx)
		cancel()

		if err == nil {
			return
		}

		delay *= 2
		if delay > s.maxReconnectDelay {
			delay = s.maxReconnectDelay
		}
	}
}
