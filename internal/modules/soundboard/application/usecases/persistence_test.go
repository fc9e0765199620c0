package usecases

import (
	"errors"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hornsolutions/hornbot/internal/modules/soundboard/domain"
)

func TestPersistenceQueue_AppliesJobsInSubmissionOrder(t *testing.T) {
	store := newMockStore()
	q := NewPersistenceQueue(store, 16)

	usage := domain.UsageContext{GuildID: 1, ChannelID: 2, UserID: 3, SoundID: 4}
	q.Submit(RepairGuildIDJob{ChannelID: 2, GuildID: 1})
	q.Submit(IncrementUsageJob{Usage: usage})
	q.Submit(UpsertUserJob{User: domain.UserContext{UserID: 3, Username: "tester"}})
	q.Close()

	want := []string{"repair", "increment", "upsert"}
	got := store.operations()
	if len(got) != len(want) {
		t.Fatalf("expected %d operations, got %d", len(want), len(got))
	}
	for i, op := range want {
		if got[i] != op {
			t.Errorf("operation %d: expected %q, got %q", i, op, got[i])
		}
	}
}

func TestPersistenceQueue_FailedJobIsDropped(t *testing.T) {
	store := newMockStore()
	store.incrementErr = errors.New("disk full")
	q := NewPersistenceQueue(store, 16)

	q.Submit(IncrementUsageJob{Usage: domain.UsageContext{GuildID: 1}})
	q.Submit(UpsertUserJob{User: domain.UserContext{UserID: 3}})
	q.Close()

	// The failure does not block later jobs
	got := store.operations()
	if len(got) != 1 || got[0] != "upsert" {
		t.Errorf("expected [upsert], got %v", got)
	}
}

func TestPersistenceQueue_SerializedIncrementsAccumulate(t *testing.T) {
	store := newMockStore()
	q := NewPersistenceQueue(store, 64)

	usage := domain.UsageContext{GuildID: 1, ChannelID: 2, UserID: 3, SoundID: 4}
	for i := 0; i < 10; i++ {
		q.Submit(IncrementUsageJob{Usage: usage})
	}
	q.Close()

	if got := store.counters[usage]; got != 10 {
		t.Errorf("expected counter 10, got %d", got)
	}
}

func TestPersistenceQueue_CloseDrainsOutstandingJobs(t *testing.T) {
	store := newMockStore()
	q := NewPersistenceQueue(store, 64)

	for i := 0; i < 20; i++ {
		q.Submit(IncrementUsageJob{Usage: domain.UsageContext{SoundID: int64(i)}})
	}
	q.Close()

	if got := len(store.operations()); got != 20 {
		t.Errorf("expected all 20 jobs applied before Close returned, got %d", got)
	}
}

func TestPersistenceQueue_SubmitAfterCloseIsDropped(t *testing.T) {
	store := newMockStore()
	q := NewPersistenceQueue(store, 16)
	q.Close()

	// Must not panic or block
	q.Submit(UpsertUserJob{User: domain.UserContext{UserID: snowflake.ID(1)}})

	if got := len(store.operations()); got != 0 {
		t.Errorf("expected no operations, got %d", got)
	}
}

func TestPersistenceQueue_CloseIsIdempotent(t *testing.T) {
	q := NewPersistenceQueue(newMockStore(), 16)
	q.Close()
	q.Close()
}
