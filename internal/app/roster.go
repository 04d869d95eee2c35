package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	repository "github.com/okian/rebound/internal/adapters/repository"
	"github.com/okian/rebound/internal/adapters/table"
	"github.com/okian/rebound/internal/domain/model"
	"github.com/okian/rebound/pkg/logger"
	"github.com/okian/rebound/pkg/metrics"
)

// Roster sources recorded in snapshots.
const (
	SourceSample = "sample"
	SourceUpload = "upload"
)

const nanosecondsPerMillisecond = 1e6

// LoadSample replaces the roster with a freshly generated, scored sample.
// size <= 0 uses the configured sample size.
func (s *Service) LoadSample(ctx context.Context, size int) (repository.Snapshot, error) {
	if size > s.maxRows {
		return repository.Snapshot{}, fmt.Errorf("%w: %d exceeds limit %d", ErrInvalidSize, size, s.maxRows)
	}
	students, err := s.generator.Generate(ctx, size)
	if err != nil {
		return repository.Snapshot{}, err
	}
	return s.ingest(ctx, SourceSample, students)
}

// Upload parses src as a roster table, scores it and swaps it in. On any
// error the previous roster stays in place.
func (s *Service) Upload(ctx context.Context, src io.Reader) (repository.Snapshot, error) {
	reader := table.NewReader(table.WithMaxRows(s.maxRows))
	students, err := reader.Read(&cappedReader{r: src, remaining: s.maxUploadBytes + 1})
	if err != nil {
		metrics.RecordUpload(metrics.UploadRejected)
		s.log().Warn(ctx, "roster upload rejected", logger.Error(err))
		if errors.Is(err, ErrUploadTooLarge) {
			return repository.Snapshot{}, fmt.Errorf("%w: limit %d bytes", ErrUploadTooLarge, s.maxUploadBytes)
		}
		return repository.Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidUpload, err)
	}

	snap, err := s.ingest(ctx, SourceUpload, students)
	if err != nil {
		metrics.RecordUpload(metrics.UploadRejected)
		return repository.Snapshot{}, err
	}
	metrics.RecordUpload(metrics.UploadAccepted)
	return snap, nil
}

// MaxUploadBytes reports the largest table Upload accepts.
func (s *Service) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Students returns the current scored roster in load order.
func (s *Service) Students(ctx context.Context) []model.Student {
	return s.roster.List(ctx)
}

// Roster describes the current roster.
func (s *Service) Roster(ctx context.Context) repository.Snapshot {
	return s.roster.Snapshot(ctx)
}

func (s *Service) ingest(ctx context.Context, source string, students []model.Student) (repository.Snapshot, error) {
	start := time.Now()
	scored, err := s.scorer.ScoreBatch(ctx, students)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			metrics.RecordScoringError()
			return repository.Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidUpload, err)
		}
		return repository.Snapshot{}, err
	}
	metrics.RecordScoringLatency(float64(time.Since(start).Nanoseconds()) / nanosecondsPerMillisecond)

	snap, err := s.roster.Replace(ctx, uuid.NewString(), source, scored)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateID) || errors.Is(err, repository.ErrTooManyRows) {
			return repository.Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidUpload, err)
		}
		return repository.Snapshot{}, err
	}

	levels := countLevels(scored)
	for _, l := range model.RiskLevels() {
		metrics.UpdateStudentsByLevel(string(l), levels[l])
	}
	metrics.RecordStudentsScored(len(scored))
	metrics.UpdateRosterSize(snap.Rows)

	s.log().Info(ctx, "roster replaced",
		logger.String("batchId", snap.BatchID),
		logger.String("rosterSource", source),
		logger.Int("rows", snap.Rows),
		logger.Int("high", levels[model.RiskHigh]),
		logger.Int("medium", levels[model.RiskMedium]),
		logger.Int("low", levels[model.RiskLow]),
	)
	return snap, nil
}

// cappedReader fails with ErrUploadTooLarge once more than the allowed
// number of bytes has been consumed.
type cappedReader struct {
	r         io.Reader
	remaining int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining <= 0 {
		return 0, ErrUploadTooLarge
	}
	if int64(len(p)) > c.remaining {
		p = p[:c.remaining]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	return n, err
}
