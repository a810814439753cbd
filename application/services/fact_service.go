package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/commands"
	"github.com/zhangshi0512/FactsHub/application/ports"
	"github.com/zhangshi0512/FactsHub/application/state"
	"github.com/zhangshi0512/FactsHub/domain/core/entities"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
	apperrors "github.com/zhangshi0512/FactsHub/pkg/errors"
	"github.com/zhangshi0512/FactsHub/pkg/observability"
	"github.com/zhangshi0512/FactsHub/pkg/validation"
)

var errNoRowReturned = errors.New("store returned no row")

// FactService creates, edits, fetches and deletes facts.
type FactService struct {
	remote    ports.RemoteStore
	store     *state.CollectionStore
	validator *validation.Validator
	logger    *zap.Logger
	metrics   *observability.Collector
}

// NewFactService creates the fact mutation engine.
func NewFactService(
	remote ports.RemoteStore,
	store *state.CollectionStore,
	validator *validation.Validator,
	logger *zap.Logger,
	metrics *observability.Collector,
) *FactService {
	return &FactService{
		remote:    remote,
		store:     store,
		validator: validator,
		logger:    logger.Named("facts"),
		metrics:   metrics,
	}
}

// SubmitCreate validates fields, inserts a fact and upserts the stored row.
// A validation failure makes no remote call.
func (s *FactService) SubmitCreate(ctx context.Context, fields commands.FactFields) (entities.Fact, error) {
	if err := fields.Validate(s.validator); err != nil {
		return entities.Fact{}, err
	}

	rows, err := s.remote.Insert(ctx, ports.TableFacts, []ports.Row{fields.Row()})
	if err == nil && len(rows) == 0 {
		err = errNoRowReturned
	}
	s.metrics.RecordFactMutation("create", err)
	if err != nil {
		s.logger.Warn("create failed", zap.Error(err))
		return entities.Fact{}, apperrors.NewMutation("create fact", "failed to create fact", err)
	}

	var fact entities.Fact
	if err := ports.DecodeRow(rows[0], &fact); err != nil {
		return entities.Fact{}, apperrors.NewMutation("create fact", "store returned an unreadable row", err)
	}

	s.store.UpsertLocal(fact)
	s.logger.Info("fact created", zap.String("fact_id", fact.ID.String()), zap.String("category", fact.Category))
	return fact, nil
}

// SubmitEdit validates fields and updates the fact with the given id.
func (s *FactService) SubmitEdit(ctx context.Context, id valueobjects.ID, fields commands.FactFields) (entities.Fact, error) {
	if err := fields.Validate(s.validator); err != nil {
		return entities.Fact{}, err
	}

	rows, err := s.remote.Update(ctx, ports.TableFacts, fields.Row(), ports.Eq(ports.ColumnID, id.String()))
	s.metrics.RecordFactMutation("edit", err)
	if err != nil {
		s.logger.Warn("edit failed", zap.String("fact_id", id.String()), zap.Error(err))
		return entities.Fact{}, apperrors.NewMutation("edit fact", "failed to update fact", err)
	}
	if len(rows) == 0 {
		return entities.Fact{}, apperrors.NewNotFound("fact no longer exists")
	}

	var fact entities.Fact
	if err := ports.DecodeRow(rows[0], &fact); err != nil {
		return entities.Fact{}, apperrors.NewMutation("edit fact", "store returned an unreadable row", err)
	}

	s.store.UpsertLocal(fact)
	s.logger.Info("fact updated", zap.String("fact_id", id.String()))
	return fact, nil
}

// DeleteFact removes the fact's comments, then the fact. If the comments
// cannot be removed nothing else happens. If the fact cannot be removed after
// its comments were, the fact stays live without comments.
func (s *FactService) DeleteFact(ctx context.Context, id valueobjects.ID) error {
	if err := s.remote.Delete(ctx, ports.TableComments, ports.Eq(ports.ColumnFactID, id.String())); err != nil {
		s.metrics.RecordFactMutation("delete", err)
		s.logger.Warn("delete aborted, comments not removed", zap.String("fact_id", id.String()), zap.Error(err))
		return apperrors.NewMutation("delete comments", "failed to delete fact", err)
	}

	if err := s.remote.Delete(ctx, ports.TableFacts, ports.Eq(ports.ColumnID, id.String())); err != nil {
		s.metrics.RecordFactMutation("delete", err)
		s.logger.Error("fact left without comments after failed delete",
			zap.String("fact_id", id.String()),
			zap.Error(err),
		)
		return apperrors.NewMutation("delete fact", "failed to delete fact", err)
	}

	s.metrics.RecordFactMutation("delete", nil)
	s.store.RemoveLocal(id)
	s.logger.Info("fact deleted", zap.String("fact_id", id.String()))
	return nil
}

// FetchFact loads one fact by id. No matching row is a NotFound error.
func (s *FactService) FetchFact(ctx context.Context, id valueobjects.ID) (entities.Fact, error) {
	rows, err := s.remote.Query(ctx, ports.TableFacts, ports.Query{
		Filter: ports.Eq(ports.ColumnID, id.String()),
		Limit:  1,
	})
	if err != nil {
		return entities.Fact{}, apperrors.NewFetch("fetch fact", err)
	}
	if len(rows) == 0 {
		return entities.Fact{}, apperrors.NewNotFound("fact not found")
	}

	var fact entities.Fact
	if err := ports.DecodeRow(rows[0], &fact); err != nil {
		return entities.Fact{}, apperrors.NewFetch("fetch fact", err)
	}
	return fact, nil
}
