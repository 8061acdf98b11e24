package livesync

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Conn is the slice of a websocket connection the channel reads.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer opens the push connection. The default wraps gorilla/websocket.
type Dialer func(ctx context.Context, url string) (Conn, error)

func gorillaDialer(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// HashChangeFunc receives the new remote hash. It must only invalidate
// cached state, never apply content.
type HashChangeFunc func(hash string)

// Channel maintains the push-notification connection to the remote store:
// Disconnected -> Connecting -> Connected, Reconnecting on drop, and back
// to Disconnected once the bounded retry budget is spent.
type Channel struct {
	url          string
	dial         Dialer
	onHashChange HashChangeFunc
	maxRetries   int
	baseBackoff  time.Duration
	maxBackoff   time.Duration

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

func NewChannel(url string, maxRetries int, baseBackoff, maxBackoff time.Duration, onHashChange HashChangeFunc) *Channel {
	return &Channel{
		url:          url,
		dial:         gorillaDialer,
		onHashChange: onHashChange,
		maxRetries:   maxRetries,
		baseBackoff:  baseBackoff,
		maxBackoff:   maxBackoff,
		state:        StateDisconnected,
	}
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start launches the connection loop. No-op if already running.
func (c *Channel) Start() {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go c.run(ctx, done)
}

// Stop tears the channel down. Idempotent; effective within one backoff
// interval or read.
func (c *Channel) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Done exposes loop completion for tests.
func (c *Channel) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *Channel) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer c.setState(StateDisconnected)

	attempts := 0
	backoff := c.baseBackoff

	for {
		if ctx.Err() != nil {
			return
		}

		c.setState(StateConnecting)
		conn, err := c.dial(ctx, c.url)
		if err != nil {
			attempts++
			if attempts > c.maxRetries {
				log.Printf("[Livesync] giving up after %d connection attempts: %v", attempts, err)
				return
			}
			log.Printf("[Livesync] connect failed (attempt %d/%d): %v", attempts, c.maxRetries, err)
			c.setState(StateReconnecting)
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, c.maxBackoff)
			continue
		}

		attempts = 0
		backoff = c.baseBackoff
		c.setState(StateConnected)
		log.Printf("[Livesync] connected to %s", c.url)

		connCtx, connCancel := context.WithCancel(ctx)
		err = c.readLoop(connCtx, conn)
		connCancel()
		conn.Close()
		if ctx.Err() != nil {
			return
		}

		log.Printf("[Livesync] connection dropped: %v", err)
		c.setState(StateReconnecting)
		if !sleepCtx(ctx, backoff) {
			return
		}
	}
}

func (c *Channel) readLoop(ctx context.Context, conn Conn) error {
	go func() {
		// Unblock ReadMessage when the context is cancelled.
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[Livesync] dropping malformed message: %v", err)
			continue
		}

		switch msg.Type {
		case TypeDictionaryUpdate:
			var payload DictionaryUpdatePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				log.Printf("[Livesync] dropping malformed update payload: %v", err)
				continue
			}
			c.onHashChange(payload.Hash)

		case TypePing:
			// Keepalive only.
		}
	}
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
