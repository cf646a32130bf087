package service

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/model"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/remote"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/repository"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/pkg/logger"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/pkg/monitoring"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/pkg/tracing"

	"go.uber.org/zap"
)

// SyncService is the durable FIFO of mutations that could not reach the
// remote service. Every trigger (connectivity restore, periodic timer,
// manual retry) funnels into the same Flush.
type SyncService struct {
	repo   *repository.PendingOperationRepository
	remote remote.Service

	flushing atomic.Bool
}

func NewSyncService(repo *repository.PendingOperationRepository, rs remote.Service) *SyncService {
	return &SyncService{repo: repo, remote: rs}
}

// EnqueueAttempt queues a finalized attempt for later delivery. At most
// one un-synced submission per attempt identity is ever created; the
// remote side upserts on that identity, so duplicates cannot double-count.
func (s *SyncService) EnqueueAttempt(attempt *model.Attempt) error {
	exists, err := s.repo.HasUnsynced(model.OpSubmitAttempt, attempt.ID)
	if err != nil {
		return err
	}
	if exists {
		logger.Log.Info("attempt already queued", zap.String("attempt", attempt.ID))
		return nil
	}

	payload, err := json.Marshal(attempt)
	if err != nil {
		return err
	}

	op := &model.PendingOperation{
		Kind:     model.OpSubmitAttempt,
		TargetID: attempt.ID,
		Payload:  payload,
	}
	if err := s.repo.Enqueue(op); err != nil {
		return err
	}

	logger.Log.Info("attempt queued for sync",
		zap.Uint("operation", op.ID), zap.String("attempt", attempt.ID))
	s.updateGauge()
	return nil
}

func (s *SyncService) EnqueueProgress(record *model.ProgressRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	op := &model.PendingOperation{
		Kind:     model.OpUpdateProgress,
		TargetID: record.StudentID + ":" + record.VideoID,
		Payload:  payload,
	}
	if err := s.repo.Enqueue(op); err != nil {
		return err
	}
	s.updateGauge()
	return nil
}

// Flush delivers queued operations oldest first and stops at the first
// failure so a later operation never overtakes a stuck earlier one. A
// re-entrant call while a pass is running is ignored, not queued.
func (s *SyncService) Flush(ctx context.Context) (int, error) {
	if !s.flushing.CompareAndSwap(false, true) {
		return 0, nil
	}
	defer s.flushing.Store(false)

	ctx, span := tracing.Tracer.Start(ctx, "sync.flush")
	defer span.End()

	// rows acked before a crash but not yet removed
	if err := s.repo.RemoveSynced(); err != nil {
		logger.Log.Warn("failed to clean synced operations", zap.Error(err))
	}

	ops, err := s.repo.ListUnsynced()
	if err != nil {
		return 0, err
	}

	delivered := 0
	for i := range ops {
		op := &ops[i]
		if err := s.deliver(ctx, op); err != nil {
			logger.Log.Info("flush stopped on failed delivery",
				zap.Uint("operation", op.ID), zap.String("kind", string(op.Kind)), zap.Error(err))
			monitoring.FlushResults.WithLabelValues(string(op.Kind), "failure").Inc()
			if uErr := s.repo.IncrementAttempts(op.ID); uErr != nil {
				logger.Log.Warn("failed to record delivery attempt", zap.Error(uErr))
			}
			break
		}

		// mark first, remove second: a crash in between leaves a synced
		// row that the next pass cleans up without re-delivering
		if err := s.repo.MarkSynced(op.ID); err != nil {
			logger.Log.Error("failed to mark operation synced", zap.Uint("operation", op.ID), zap.Error(err))
			break
		}
		if err := s.repo.Remove(op.ID); err != nil {
			logger.Log.Warn("failed to remove synced operation", zap.Uint("operation", op.ID), zap.Error(err))
		}
		monitoring.FlushResults.WithLabelValues(string(op.Kind), "success").Inc()
		delivered++
	}

	if delivered > 0 {
		logger.Log.Info("flush delivered operations", zap.Int("count", delivered))
	}
	s.updateGauge()
	return delivered, nil
}

func (s *SyncService) deliver(ctx context.Context, op *model.PendingOperation) error {
	switch op.Kind {
	case model.OpSubmitAttempt:
		var attempt model.Attempt
		if err := json.Unmarshal(op.Payload, &attempt); err != nil {
			return err
		}
		return s.remote.SubmitAttempt(ctx, &attempt)
	case model.OpUpdateProgress:
		var record model.ProgressRecord
		if err := json.Unmarshal(op.Payload, &record); err != nil {
			return err
		}
		return s.remote.UpdateProgress(ctx, &record)
	default:
		logger.Log.Error("unknown operation kind", zap.String("kind", string(op.Kind)))
		return nil
	}
}

// PendingCount backs the UI sync indicator.
func (s *SyncService) PendingCount() (int64, error) {
	return s.repo.CountUnsynced()
}

func (s *SyncService) updateGauge() {
	if count, err := s.repo.CountUnsynced(); err == nil {
		monitoring.PendingOperations.Set(float64(count))
	}
}
