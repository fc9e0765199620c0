package infrastructure

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hornsolutions/hornbot/internal/modules/soundboard/application/ports"
)

// fakeVoiceConn is a ready voice connection that exposes its opus frame
// channel for inspection.
type fakeVoiceConn struct {
	send chan []byte

	mu           sync.Mutex
	ready        bool
	disconnects  int
	speakingCall int
}

func newFakeVoiceConn() *fakeVoiceConn {
	return &fakeVoiceConn{send: make(chan []byte), ready: true}
}

func (c *fakeVoiceConn) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

func (c *fakeVoiceConn) Speaking(_ bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speakingCall++
	return nil
}

func (c *fakeVoiceConn) Send() chan<- []byte { return c.send }

func (c *fakeVoiceConn) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = false
	c.disconnects++
	return nil
}

func (c *fakeVoiceConn) disconnectCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects
}

// writeClip writes a DCA file whose frames all carry the given marker byte.
func writeClip(t *testing.T, marker byte, frames int) string {
	t.Helper()
	payloads := make([][]byte, frames)
	for i := range payloads {
		payloads[i] = []byte{marker}
	}
	path := filepath.Join(t.TempDir(), "clip.dca")
	if err := os.WriteFile(path, encodeFrames(payloads...), 0o644); err != nil {
		t.Fatalf("failed to write clip: %v", err)
	}
	return path
}

func awaitTerminal(t *testing.T, states <-chan ports.PlaybackState) ports.PlaybackState {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case state, ok := <-states:
			if !ok {
				t.Fatal("state stream closed without a terminal state")
			}
			if state == ports.StateIdle || state == ports.StateFailed {
				return state
			}
		case <-deadline:
			t.Fatal("no terminal state before deadline")
		}
	}
}

func TestVoiceSession_PlaysClipToIdle(t *testing.T) {
	conn := newFakeVoiceConn()
	s := &voiceSession{vc: conn}

	states, err := s.Play(writeClip(t, 0x01, 3))
	if err != nil {
		t.Fatalf("play: %v", err)
	}

	go func() {
		for range conn.send {
		}
	}()

	if got := awaitTerminal(t, states); got != ports.StateIdle {
		t.Errorf("expected Idle, got %v", got)
	}
}

func TestVoiceSession_NewPlayStopsAbandonedStream(t *testing.T) {
	// A caller that gives up on a slow clip calls Play again for the next
	// one. The session must stop the abandoned stream before starting the
	// new one, so frames from the two clips never interleave.
	conn := newFakeVoiceConn()
	s := &voiceSession{vc: conn}

	first, err := s.Play(writeClip(t, 0x01, 50))
	if err != nil {
		t.Fatalf("play first: %v", err)
	}

	// Consume one frame, then leave the first stream blocked on send.
	frame := <-conn.send
	if frame[0] != 0x01 {
		t.Fatalf("expected first-clip frame, got %v", frame)
	}

	second, err := s.Play(writeClip(t, 0x02, 3))
	if err != nil {
		t.Fatalf("play second: %v", err)
	}

	// Play returned, so the first stream is fully stopped. Everything on
	// the wire from here on belongs to the second clip.
	var got [][]byte
	done := make(chan struct{})
	go func() {
		defer close(done)
		for f := range conn.send {
			got = append(got, f)
		}
	}()

	if state := awaitTerminal(t, second); state != ports.StateIdle {
		t.Fatalf("expected Idle for second clip, got %v", state)
	}
	close(conn.send)
	<-done

	for i, f := range got {
		if f[0] != 0x02 {
			t.Fatalf("frame %d came from the abandoned clip: %v", i, f)
		}
	}

	// The first stream's state channel closes without reaching a terminal
	// state once it is stopped.
	for {
		if _, ok := <-first; !ok {
			break
		}
	}
}

func TestVoiceSession_ReleaseStopsStreamAndDisconnects(t *testing.T) {
	conn := newFakeVoiceConn()
	s := &voiceSession{vc: conn}

	states, err := s.Play(writeClip(t, 0x01, 50))
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	<-conn.send // stream is mid-clip

	if err := s.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if got := conn.disconnectCount(); got != 1 {
		t.Errorf("expected 1 disconnect, got %d", got)
	}

	// Idempotent
	if err := s.Release(); err != nil {
		t.Fatalf("second release: %v", err)
	}
	if got := conn.disconnectCount(); got != 1 {
		t.Errorf("expected release to be idempotent, got %d disconnects", got)
	}

	if _, err := s.Play("./sounds/late.dca"); err != ports.ErrSessionClosed {
		t.Errorf("expected ErrSessionClosed after release, got %v", err)
	}

	for {
		if _, ok := <-states; !ok {
			break
		}
	}
}
