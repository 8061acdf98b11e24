package livesync

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeConn struct {
	mu     sync.Mutex
	frames chan []byte
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan []byte, 8)}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	data, ok := <-c.frames
	if !ok {
		return 0, nil, errors.New("connection closed")
	}
	return 1, data, nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.frames)
	}
	return nil
}

func (c *fakeConn) push(t *testing.T, data []byte) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		t.Fatal("push on closed fake connection")
	}
	c.frames <- data
}

// scriptedDialer hands out connections in order, then fails every dial.
type scriptedDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	dials int
}

func (d *scriptedDialer) dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if len(d.conns) == 0 {
		return nil, errors.New("dial refused")
	}
	conn := d.conns[0]
	d.conns = d.conns[1:]
	return conn, nil
}

type hashRecorder struct {
	mu     sync.Mutex
	hashes []string
	notify chan string
}

func newHashRecorder() *hashRecorder {
	return &hashRecorder{notify: make(chan string, 8)}
}

func (r *hashRecorder) onHash(hash string) {
	r.mu.Lock()
	r.hashes = append(r.hashes, hash)
	r.mu.Unlock()
	r.notify <- hash
}

func (r *hashRecorder) wait(t *testing.T) string {
	t.Helper()
	select {
	case h := <-r.notify:
		return h
	case <-time.After(2 * time.Second):
		t.Fatal("no hash change delivered in time")
		return ""
	}
}

func updateFrame(t *testing.T, siteID, hash string) []byte {
	t.Helper()
	payload, err := json.Marshal(DictionaryUpdatePayload{SiteID: siteID, Hash: hash})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	frame, err := json.Marshal(Message{Type: TypeDictionaryUpdate, Payload: payload})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	return frame
}

func newTestChannel(dialer *scriptedDialer, recorder *hashRecorder, maxRetries int) *Channel {
	c := NewChannel("wss://push.example/ws", maxRetries, time.Millisecond, 10*time.Millisecond, recorder.onHash)
	c.dial = dialer.dial
	return c
}

func TestChannelDeliversHashChanges(t *testing.T) {
	conn := newFakeConn()
	dialer := &scriptedDialer{conns: []*fakeConn{conn}}
	recorder := newHashRecorder()
	c := newTestChannel(dialer, recorder, 3)

	c.Start()
	defer c.Stop()

	conn.push(t, updateFrame(t, "site-1", "h1"))
	if got := recorder.wait(t); got != "h1" {
		t.Errorf("hash = %q, want %q", got, "h1")
	}

	conn.push(t, updateFrame(t, "site-1", "h2"))
	if got := recorder.wait(t); got != "h2" {
		t.Errorf("hash = %q, want %q", got, "h2")
	}
}

func TestChannelSkipsMalformedAndPingFrames(t *testing.T) {
	conn := newFakeConn()
	dialer := &scriptedDialer{conns: []*fakeConn{conn}}
	recorder := newHashRecorder()
	c := newTestChannel(dialer, recorder, 3)

	c.Start()
	defer c.Stop()

	conn.push(t, []byte("{not json"))
	ping, _ := json.Marshal(Message{Type: TypePing})
	conn.push(t, ping)
	conn.push(t, updateFrame(t, "site-1", "h1"))

	if got := recorder.wait(t); got != "h1" {
		t.Errorf("hash = %q, want %q", got, "h1")
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.hashes) != 1 {
		t.Errorf("hash callbacks = %v, want only h1", recorder.hashes)
	}
}

func TestChannelReconnectsAfterDrop(t *testing.T) {
	first := newFakeConn()
	second := newFakeConn()
	dialer := &scriptedDialer{conns: []*fakeConn{first, second}}
	recorder := newHashRecorder()
	c := newTestChannel(dialer, recorder, 3)

	c.Start()
	defer c.Stop()

	first.push(t, updateFrame(t, "site-1", "h1"))
	recorder.wait(t)
	first.Close()

	// The second connection must pick up where the first dropped.
	deadline := time.After(2 * time.Second)
	for c.State() != StateConnected {
		select {
		case <-deadline:
			t.Fatalf("channel did not reconnect, state = %s", c.State())
		case <-time.After(time.Millisecond):
		}
	}

	second.push(t, updateFrame(t, "site-1", "h2"))
	if got := recorder.wait(t); got != "h2" {
		t.Errorf("hash after reconnect = %q, want %q", got, "h2")
	}

	dialer.mu.Lock()
	defer dialer.mu.Unlock()
	if dialer.dials != 2 {
		t.Errorf("dial count = %d, want 2", dialer.dials)
	}
}

func TestChannelGivesUpAfterRetryBudget(t *testing.T) {
	dialer := &scriptedDialer{} // every dial refused
	recorder := newHashRecorder()
	c := newTestChannel(dialer, recorder, 2)

	c.Start()

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not give up in time")
	}

	if got := c.State(); got != StateDisconnected {
		t.Errorf("state = %s, want %s", got, StateDisconnected)
	}
	dialer.mu.Lock()
	defer dialer.mu.Unlock()
	if dialer.dials != 3 {
		t.Errorf("dial count = %d, want 3 (initial attempt plus two retries)", dialer.dials)
	}
}

func TestChannelStopIdempotent(t *testing.T) {
	conn := newFakeConn()
	dialer := &scriptedDialer{conns: []*fakeConn{conn}}
	c := newTestChannel(dialer, newHashRecorder(), 3)

	c.Start()
	c.Start() // no-op while running

	deadline := time.After(2 * time.Second)
	for c.State() != StateConnected {
		select {
		case <-deadline:
			t.Fatalf("channel did not connect, state = %s", c.State())
		case <-time.After(time.Millisecond):
		}
	}

	c.Stop()
	c.Stop()

	if got := c.State(); got != StateDisconnected {
		t.Errorf("state after stop = %s, want %s", got, StateDisconnected)
	}
	dialer.mu.Lock()
	defer dialer.mu.Unlock()
	if dialer.dials != 1 {
		t.Errorf("dial count = %d, want 1", dialer.dials)
	}
}
