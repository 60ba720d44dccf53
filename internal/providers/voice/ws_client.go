package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/intervoxlabs/intervox/internal/models"
)

// WebsocketDialer lets tests inject the connection to the provider.
type WebsocketDialer interface {
	Dial(urlStr string, header http.Header) (*websocket.Conn, *http.Response, error)
}

type WSConfig struct {
	URL    string
	APIKey string
	Dialer WebsocketDialer
}

// NewWSFactory returns a Factory producing websocket-backed clients.
func NewWSFactory(cfg WSConfig) Factory {
	return func(h Handlers) (Client, error) {
		if cfg.URL == "" {
			return nil, errors.New("voice: websocket URL is empty")
		}
		d := cfg.Dialer
		if d == nil {
			d = websocket.DefaultDialer
		}
		return &wsClient{cfg: cfg, dialer: d, handlers: h, done: make(chan struct{})}, nil
	}
}

// wsClient speaks the provider's realtime protocol over one websocket
// connection. Writes are serialized behind writeMu; events are decoded on a
// single read goroutine and dispatched to the registered handlers.
type wsClient struct {
	cfg      WSConfig
	dialer   WebsocketDialer
	handlers Handlers

	mu      sync.Mutex
	conn    *websocket.Conn
	muted   bool
	started bool

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

type wsClientMsg struct {
	Type      string     `json:"type"`
	Assistant *Assistant `json:"assistant,omitempty"`
	Message   string     `json:"message,omitempty"`
	EndCall   bool       `json:"endCallAfterSpoken,omitempty"`
	Muted     *bool      `json:"muted,omitempty"`
}

type wsServerMsg struct {
	Type    string  `json:"type"`
	Role    string  `json:"role,omitempty"`
	Content string  `json:"content,omitempty"`
	Level   float64 `json:"level,omitempty"`
	Message string  `json:"message,omitempty"`
}

func (c *wsClient) Start(ctx context.Context, assistant Assistant) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return errors.New("voice: client already started")
	}
	c.started = true
	c.mu.Unlock()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	conn, resp, err := c.dialer.Dial(c.cfg.URL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("voice: dial %s: status %d: %w", c.cfg.URL, resp.StatusCode, err)
		}
		return fmt.Errorf("voice: dial %s: %w", c.cfg.URL, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if err := c.write(ctx, wsClientMsg{Type: "start", Assistant: &assistant}); err != nil {
		c.Stop()
		return err
	}

	go c.readLoop(conn)
	return nil
}

func (c *wsClient) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				// expected during teardown
			default:
				c.emitError(err)
			}
			return
		}

		var msg wsServerMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			c.emitError(fmt.Errorf("voice: bad server message: %w", err))
			continue
		}

		switch msg.Type {
		case "call-start":
			if c.handlers.OnCallStart != nil {
				c.handlers.OnCallStart()
			}
		case "call-end":
			if c.handlers.OnCallEnd != nil {
				c.handlers.OnCallEnd()
			}
		case "speech-start":
			if c.handlers.OnSpeechStart != nil {
				c.handlers.OnSpeechStart()
			}
		case "speech-end":
			if c.handlers.OnSpeechEnd != nil {
				c.handlers.OnSpeechEnd()
			}
		case "volume-level":
			if c.handlers.OnVolume != nil {
				c.handlers.OnVolume(msg.Level)
			}
		case "transcript":
			if c.handlers.OnTranscript != nil {
				c.handlers.OnTranscript(models.ParseRole(msg.Role), msg.Content)
			}
		case "error":
			c.emitError(errors.New(msg.Message))
		}
	}
}

func (c *wsClient) emitError(err error) {
	if c.handlers.OnError != nil {
		c.handlers.OnError(err)
	}
}

func (c *wsClient) Stop() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.mu.Unlock()

		if conn != nil {
			// best-effort end-call before tearing the socket down
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			_ = c.writeConn(ctx, conn, wsClientMsg{Type: "end-call"})
			cancel()
			err = conn.Close()
		}
	})
	return err
}

func (c *wsClient) Say(ctx context.Context, text string, endCallAfter bool) error {
	return c.write(ctx, wsClientMsg{Type: "say", Message: text, EndCall: endCallAfter})
}

func (c *wsClient) SetMuted(muted bool) error {
	c.mu.Lock()
	c.muted = muted
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.write(ctx, wsClientMsg{Type: "control", Muted: &muted})
}

func (c *wsClient) IsMuted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

func (c *wsClient) write(ctx context.Context, msg wsClientMsg) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return errors.New("voice: not connected")
	}
	return c.writeConn(ctx, conn, msg)
}

func (c *wsClient) writeConn(ctx context.Context, conn *websocket.Conn, msg wsClientMsg) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(10 * time.Second)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	_ = conn.SetWriteDeadline(deadline)
	return conn.WriteJSON(msg)
}
