package broker

import (
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clera-dev/clera-gateway/internal/pkg/logger"
)

// TransferEvent is one brokerage transfer status change.
type TransferEvent struct {
	TransferID string    `json:"transfer_id"`
	AccountID  string    `json:"account_id"`
	Status     string    `json:"status_to"`
	Reason     string    `json:"reason"`
	At         time.Time `json:"at"`
}

// EventStream consumes the brokerage transfer-event feed and hands each event
// to the registered handler (the funding ledger reconciler).
type EventStream struct {
	url       string
	apiKey    string
	apiSecret string

	mu      sync.Mutex
	conn    *websocket.Conn
	handler func(TransferEvent)
	done    chan struct{}
}

func NewEventStream(url, key, secret string, handler func(TransferEvent)) *EventStream {
	return &EventStream{
		url:       url,
		apiKey:    key,
		apiSecret: secret,
		handler:   handler,
		done:      make(chan struct{}),
	}
}

func (s *EventStream) Start() {
	go s.connectAndRead()
}

func (s *EventStream) Stop() {
	close(s.done)
	s.mu.Lock()
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.mu.Unlock()
}

func (s *EventStream) connectAndRead() {
	for {
		select {
		case <-s.done:
			return
		default:
		}

		if err := s.readOnce(); err != nil {
			logger.Error("Transfer stream disconnected, retrying", "error", err)
		}

		select {
		case <-s.done:
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (s *EventStream) readOnce() error {
	header := http.Header{}
	creds := base64.StdEncoding.EncodeToString([]byte(s.apiKey + ":" + s.apiSecret))
	header.Set("Authorization", "Basic "+creds)

	conn, _, err := websocket.DefaultDialer.Dial(s.url, header)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer conn.Close()

	for {
		var event TransferEvent
		if err := conn.ReadJSON(&event); err != nil {
			return err
		}
		if event.TransferID == "" {
			continue
		}
		s.handler(event)
	}
}
