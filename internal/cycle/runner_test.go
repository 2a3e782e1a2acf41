package cycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"newsalpha/internal/alpha"
	"newsalpha/internal/config"
	"newsalpha/internal/models"
	"newsalpha/internal/repository"
)

type cycleStore struct {
	repository.Store

	inserted  []*models.CycleRecord
	finalized []*models.CycleRecord
}

func (s *cycleStore) NextCycleNumber(ctx context.Context) (int64, error) {
	return 7, nil
}

func (s *cycleStore) InsertCycleRecord(ctx context.Context, item *models.CycleRecord) error {
	s.inserted = append(s.inserted, item)
	return nil
}

func (s *cycleStore) FinalizeCycleRecord(ctx context.Context, item *models.CycleRecord) error {
	s.finalized = append(s.finalized, item)
	return nil
}

type stubStages struct {
	syncN     int64
	syncErr   error
	ingestN   int64
	ingestErr error
	corrN     int
	corrErr   error
	packages  []alpha.Package
	priorErr  error
	sentN     int
	sendErr   error

	broadcastCalls int
	panicInCorr    bool
}

func (s *stubStages) Sync(ctx context.Context, since time.Time) (int64, error) {
	return s.syncN, s.syncErr
}

func (s *stubStages) Ingest(ctx context.Context, since, until time.Time) (int64, error) {
	return s.ingestN, s.ingestErr
}

func (s *stubStages) Run(ctx context.Context) (int, error) {
	if s.panicInCorr {
		panic("adjudicator blew up")
	}
	return s.corrN, s.corrErr
}

func (s *stubStages) Prioritize(ctx context.Context) ([]alpha.Package, error) {
	return s.packages, s.priorErr
}

func (s *stubStages) Broadcast(ctx context.Context, packages []alpha.Package) (int, error) {
	s.broadcastCalls++
	return s.sentN, s.sendErr
}

func newTestRunner(store *cycleStore, stages *stubStages) *Runner {
	return NewRunner(
		store, stages, stages, stages, stages, stages,
		config.CycleConfig{PollInterval: 2 * time.Hour},
		config.DedupConfig{SimilarityThreshold: 0.95},
		zap.NewNop(),
	)
}

func TestRunOnceRecordsSuccess(t *testing.T) {
	store := &cycleStore{}
	stages := &stubStages{syncN: 120, ingestN: 8, corrN: 3, sentN: 2}
	newTestRunner(store, stages).RunOnce(context.Background())

	if len(store.inserted) != 1 || len(store.finalized) != 1 {
		t.Fatalf("record lifecycle broken: %d inserted, %d finalized", len(store.inserted), len(store.finalized))
	}
	record := store.finalized[0]
	if record.Status != models.CycleStatusSuccess {
		t.Fatalf("status = %s, want SUCCESS", record.Status)
	}
	if record.Number != 7 {
		t.Fatalf("cycle number = %d, want 7", record.Number)
	}
	if record.MarketsFetched != 120 || record.TweetsFetched != 8 || record.CorrelationsFound != 3 || record.PackagesSent != 2 {
		t.Fatalf("counts wrong: %+v", record)
	}
	if record.FinishedAt == nil {
		t.Fatalf("FinishedAt not set")
	}
}

func TestRunOnceStageFailureStillBroadcasts(t *testing.T) {
	store := &cycleStore{}
	stages := &stubStages{syncErr: errors.New("catalogue down"), sentN: 1}
	newTestRunner(store, stages).RunOnce(context.Background())

	record := store.finalized[0]
	if record.Status != models.CycleStatusFailed {
		t.Fatalf("status = %s, want FAILED", record.Status)
	}
	if record.Note == "" {
		t.Fatalf("failure note missing")
	}
	if stages.broadcastCalls != 1 {
		t.Fatalf("broadcast must still run after an upstream failure")
	}
}

func TestRunOncePanicIsRecoveredAndRecorded(t *testing.T) {
	store := &cycleStore{}
	stages := &stubStages{panicInCorr: true}
	newTestRunner(store, stages).RunOnce(context.Background())

	record := store.finalized[0]
	if record.Status != models.CycleStatusFailed {
		t.Fatalf("status = %s, want FAILED after panic", record.Status)
	}
	if record.Note == "" || record.FinishedAt == nil {
		t.Fatalf("panicked cycle must still be finalized: %+v", record)
	}
}

func TestRunOnceSkipsOverlappingTick(t *testing.T) {
	store := &cycleStore{}
	stages := &stubStages{}
	r := newTestRunner(store, stages)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.RunOnce(context.Background())

	if len(store.inserted) != 0 {
		t.Fatalf("overlapping tick must not start a cycle")
	}
}
