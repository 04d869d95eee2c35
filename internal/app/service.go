// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the roster CLI.
package service

import (
	"context"
	"sync"

	repository "github.com/okian/rebound/internal/adapters/repository"
	"github.com/okian/rebound/internal/domain/model"
	"github.com/okian/rebound/internal/domain/scoring"
	"github.com/okian/rebound/internal/sample"
	"github.com/okian/rebound/pkg/logger"
	"github.com/okian/rebound/pkg/metrics"
)

// Defaults used when no option overrides them.
const (
	defaultSampleSize     = 20
	defaultMaxRows        = 5_000
	defaultMaxUploadBytes = 1 << 20
)

// Service owns the scored roster and the progress store. Every method is
// safe for concurrent use.
type Service struct {
	mu sync.RWMutex

	// Core components
	roster    repository.RosterStore
	progress  repository.ProgressStore
	scorer    scoring.Scorer
	generator *sample.Generator

	// Configuration
	sampleSize     int
	sampleSeed     int64
	maxRows        int
	maxUploadBytes int64

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithScorer replaces the rule scorer.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithRosterStore sets the store holding the scored roster.
func WithRosterStore(r repository.RosterStore) Option {
	return func(s *Service) {
		if r != nil {
			s.roster = r
		}
	}
}

// WithProgressStore sets the completed-module store.
func WithProgressStore(p repository.ProgressStore) Option {
	return func(s *Service) {
		if p != nil {
			s.progress = p
		}
	}
}

// WithSampleSize sets how many students the boot roster holds.
func WithSampleSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sampleSize = n
		}
	}
}

// WithSampleSeed makes the sample roster reproducible.
func WithSampleSeed(seed int64) Option {
	return func(s *Service) {
		s.sampleSeed = seed
	}
}

// WithMaxRows caps the number of rows an uploaded table may hold.
func WithMaxRows(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRows = n
		}
	}
}

// WithMaxUploadBytes caps the size of an uploaded table.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		scorer:         scoring.NewRuleScorer(),
		progress:       repository.NewInMemoryProgress(),
		sampleSize:     defaultSampleSize,
		maxRows:        defaultMaxRows,
		maxUploadBytes: defaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.roster == nil {
		s.roster = repository.NewInMemoryRoster(repository.WithMaxRows(s.maxRows))
	}
	s.generator = sample.NewGenerator(
		sample.WithSize(s.sampleSize),
		sample.WithSeed(s.sampleSeed),
	)
	return s
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	l := s.logger
	s.mu.RUnlock()
	if l == nil {
		return logger.Get()
	}
	return l
}

// Start loads the scored sample roster so the service has data to serve
// before the first upload.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.mu.Unlock()

	s.log().Info(ctx, "starting roster service...")

	snap, err := s.LoadSample(ctx, 0)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	s.log().Info(ctx, "roster service started",
		logger.Int("rows", snap.Rows),
		logger.Int("maxRows", s.maxRows),
		logger.Int64("maxUploadBytes", s.maxUploadBytes),
	)
	return nil
}

// Stop marks the service as stopped. State is kept in memory only, so
// nothing needs flushing.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	s.log().Info(context.Background(), "roster service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	ctx := context.Background()

	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	snap := s.roster.Snapshot(ctx)
	levels := countLevels(s.roster.List(ctx))
	tracked := s.progress.Count(ctx)

	byLevel := make(map[string]int, len(levels))
	for _, l := range model.RiskLevels() {
		byLevel[string(l)] = levels[l]
		metrics.UpdateStudentsByLevel(string(l), levels[l])
	}
	metrics.UpdateRosterSize(snap.Rows)
	metrics.UpdateTrackedStudents(tracked)

	return map[string]interface{}{
		"started":         started,
		"rosterRows":      snap.Rows,
		"batchId":         snap.BatchID,
		"source":          snap.Source,
		"loadedAt":        snap.LoadedAt,
		"studentsByLevel": byLevel,
		"trackedStudents": tracked,
		"sampleSize":      s.sampleSize,
		"maxRows":         s.maxRows,
	}
}

func countLevels(students []model.Student) map[model.RiskLevel]int {
	out := make(map[model.RiskLevel]int, len(model.RiskLevels()))
	for _, st := range students {
		out[st.RiskLevel]++
	}
	return out
}
