package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/application/ports"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/domain"
)

func mockRequest(guildID, channelID snowflake.ID, clip string) *domain.PlaybackRequest {
	return &domain.PlaybackRequest{
		GuildID:         guildID,
		TargetChannelID: channelID,
		ClipReference:   clip,
		Usage: domain.UsageContext{
			GuildID:   guildID,
			ChannelID: channelID,
			UserID:    snowflake.ID(42),
			SoundID:   7,
		},
		User: domain.UserContext{
			UserID:   snowflake.ID(42),
			Username: "tester",
		},
	}
}

// mockSession is a scripted voice session. Each Play emits Starting and
// Playing, optionally waits on gate, then emits the terminal state chosen
// by outcome (Idle by default).
type mockSession struct {
	mu       sync.Mutex
	played   []string
	released int

	// closeAfter, when positive, makes Play return ErrSessionClosed once
	// that many clips have been accepted.
	closeAfter int

	// outcome selects the terminal state per clip.
	outcome func(clip string) ports.PlaybackState

	// gate, when non-nil, delays the terminal state until a value is
	// received. started signals each accepted Play.
	gate    chan struct{}
	started chan string

	// releasing signals entry into Release; releaseGate, when non-nil,
	// holds Release until a value is received.
	releasing   chan struct{}
	releaseGate chan struct{}
}

func (s *mockSession) Play(clip string) (<-chan ports.PlaybackState, error) {
	s.mu.Lock()
	if s.closeAfter > 0 && len(s.played) >= s.closeAfter {
		s.mu.Unlock()
		return nil, ports.ErrSessionClosed
	}
	s.played = append(s.played, clip)
	s.mu.Unlock()

	if s.started != nil {
		s.started <- clip
	}

	states := make(chan ports.PlaybackState, 4)
	go func() {
		defer close(states)
		states <- ports.StateStarting
		states <- ports.StatePlaying
		if s.gate != nil {
			<-s.gate
		}
		term := ports.StateIdle
		if s.outcome != nil {
			term = s.outcome(clip)
		}
		states <- term
	}()
	return states, nil
}

func (s *mockSession) Release() error {
	if s.releasing != nil {
		s.releasing <- struct{}{}
	}
	if s.releaseGate != nil {
		<-s.releaseGate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released++
	return nil
}

func (s *mockSession) playedClips() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.played...)
}

func (s *mockSession) releaseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// mockProvider hands out sessions per Connect call. connectErrs are
// consumed first, one per call.
type mockProvider struct {
	mu          sync.Mutex
	session     *mockSession
	connectErrs []error
	connects    int
}

func (p *mockProvider) Connect(
	_ context.Context,
	_, _ snowflake.ID,
) (ports.VoiceSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connects++
	if len(p.connectErrs) > 0 {
		err := p.connectErrs[0]
		p.connectErrs = p.connectErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return p.session, nil
}

func (p *mockProvider) connectCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connects
}

// silentSession accepts Play but never produces output.
type silentSession struct {
	mu       sync.Mutex
	released int
}

func (s *silentSession) Play(_ string) (<-chan ports.PlaybackState, error) {
	states := make(chan ports.PlaybackState, 1)
	states <- ports.StateStarting
	return states, nil
}

func (s *silentSession) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released++
	return nil
}

// silentProvider hands out silent sessions.
type silentProvider struct{}

func (p *silentProvider) Connect(
	_ context.Context,
	_, _ snowflake.ID,
) (ports.VoiceSession, error) {
	return &silentSession{}, nil
}

// seqProvider hands out one session per Connect call, in order.
type seqProvider struct {
	mu       sync.Mutex
	sessions []*mockSession
	connects int
}

func (p *seqProvider) Connect(
	_ context.Context,
	_, _ snowflake.ID,
) (ports.VoiceSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connects >= len(p.sessions) {
		p.connects++
		return nil, errors.New("no session scripted for this connect")
	}
	session := p.sessions[p.connects]
	p.connects++
	return session, nil
}

func (p *seqProvider) connectCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connects
}

// guildProvider hands out a distinct session per guild.
type guildProvider struct {
	sessions map[snowflake.ID]*mockSession
}

func (p *guildProvider) Connect(
	_ context.Context,
	guildID, _ snowflake.ID,
) (ports.VoiceSession, error) {
	return p.sessions[guildID], nil
}

// mockSubmitter records submitted jobs.
type mockSubmitter struct {
	mu   sync.Mutex
	jobs []PersistenceJob
}

func (m *mockSubmitter) Submit(job PersistenceJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}

func (m *mockSubmitter) submitted() []PersistenceJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PersistenceJob(nil), m.jobs...)
}

// mockStore records persistence operations in application order.
type mockStore struct {
	mu       sync.Mutex
	ops      []string
	counters map[domain.UsageContext]int64

	repairErr    error
	incrementErr error
	upsertErr    error
}

func newMockStore() *mockStore {
	return &mockStore{counters: make(map[domain.UsageContext]int64)}
}

func (m *mockStore) RepairGuildID(_ context.Context, _, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.repairErr != nil {
		return m.repairErr
	}
	m.ops = append(m.ops, "repair")
	return nil
}

func (m *mockStore) IncrementUsage(_ context.Context, usage domain.UsageContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incrementErr != nil {
		return m.incrementErr
	}
	m.ops = append(m.ops, "increment")
	m.counters[usage]++
	return nil
}

func (m *mockStore) UpsertUser(_ context.Context, _ domain.UserContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.ops = append(m.ops, "upsert")
	return nil
}

func (m *mockStore) operations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ops...)
}

// mockCatalog is an in-memory SoundCatalog.
type mockCatalog struct {
	commands []domain.SoundCommand
	sounds   map[int64][]domain.Sound
	err      error
}

func (m *mockCatalog) ListEnabledSoundCommands(_ context.Context) ([]domain.SoundCommand, error) {
	if m.err != nil {
		return nil, m.err
	}
	var enabled []domain.SoundCommand
	for _, cmd := range m.commands {
		if !cmd.Disabled {
			enabled = append(enabled, cmd)
		}
	}
	return enabled, nil
}

func (m *mockCatalog) GetSoundCommand(_ context.Context, id int64) (domain.SoundCommand, error) {
	if m.err != nil {
		return domain.SoundCommand{}, m.err
	}
	for _, cmd := range m.commands {
		if cmd.ID == id {
			return cmd, nil
		}
	}
	return domain.SoundCommand{}, ErrSoundCommandNotFound
}

func (m *mockCatalog) GetSoundCommandByName(_ context.Context, name string) (domain.SoundCommand, error) {
	if m.err != nil {
		return domain.SoundCommand{}, m.err
	}
	for _, cmd := range m.commands {
		if cmd.Name == name {
			return cmd, nil
		}
	}
	return domain.SoundCommand{}, ErrSoundCommandNotFound
}

func (m *mockCatalog) ListEnabledSounds(_ context.Context, soundCommandID int64) ([]domain.Sound, error) {
	if m.err != nil {
		return nil, m.err
	}
	var enabled []domain.Sound
	for _, snd := range m.sounds[soundCommandID] {
		if !snd.Disabled {
			enabled = append(enabled, snd)
		}
	}
	return enabled, nil
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
