// Package services contains the engines that mutate remote state and patch
// the shared collection with the results.
package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/ports"
	"github.com/zhangshi0512/FactsHub/application/state"
	"github.com/zhangshi0512/FactsHub/domain/core/entities"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
	apperrors "github.com/zhangshi0512/FactsHub/pkg/errors"
	"github.com/zhangshi0512/FactsHub/pkg/observability"
)

// VoteService increments vote counters. At most one vote per fact is in
// flight; the last writer wins on the remote side.
type VoteService struct {
	remote  ports.RemoteStore
	store   *state.CollectionStore
	logger  *zap.Logger
	metrics *observability.Collector

	mu       sync.Mutex
	inFlight map[valueobjects.ID]struct{}
}

// NewVoteService creates a vote engine patching store.
func NewVoteService(
	remote ports.RemoteStore,
	store *state.CollectionStore,
	logger *zap.Logger,
	metrics *observability.Collector,
) *VoteService {
	return &VoteService{
		remote:   remote,
		store:    store,
		logger:   logger.Named("votes"),
		metrics:  metrics,
		inFlight: make(map[valueobjects.ID]struct{}),
	}
}

// Vote writes fact's counter plus one and upserts the returned row into the
// collection. The count is read from the caller's copy of fact.
func (s *VoteService) Vote(ctx context.Context, fact entities.Fact, field entities.VoteField) (entities.Fact, error) {
	if _, err := entities.ParseVoteField(string(field)); err != nil {
		return fact, apperrors.NewValidation(err.Error())
	}
	if !s.acquire(fact.ID) {
		s.logger.Debug("vote ignored, another is in flight", zap.String("fact_id", fact.ID.String()))
		return fact, apperrors.ErrVoteInFlight
	}
	defer s.release(fact.ID)

	next := field.Count(fact) + 1
	rows, err := s.remote.Update(ctx, ports.TableFacts,
		ports.Row{field.Column(): next},
		ports.Eq(ports.ColumnID, fact.ID.String()),
	)
	s.metrics.RecordVote(string(field), err)
	if err != nil {
		s.logger.Warn("vote failed",
			zap.String("fact_id", fact.ID.String()),
			zap.String("field", string(field)),
			zap.Error(err),
		)
		return fact, apperrors.NewMutation("vote", "failed to record vote", err)
	}

	updated := field.Incremented(fact)
	if len(rows) > 0 {
		if err := ports.DecodeRow(rows[0], &updated); err != nil {
			return fact, apperrors.NewMutation("vote", "store returned an unreadable row", err)
		}
	}

	s.store.UpdateLocal(updated)
	s.logger.Info("vote recorded",
		zap.String("fact_id", fact.ID.String()),
		zap.String("field", string(field)),
		zap.Int("count", field.Count(updated)),
	)
	return updated, nil
}

// Pending reports whether a vote for id is in flight; views disable their
// vote buttons while it is.
func (s *VoteService) Pending(id valueobjects.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[id]
	return ok
}

func (s *VoteService) acquire(id valueobjects.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inFlight[id]; ok {
		return false
	}
	s.inFlight[id] = struct{}{}
	return true
}

func (s *VoteService) release(id valueobjects.ID) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}
