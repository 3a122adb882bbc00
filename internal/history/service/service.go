// Package service reads the change log and compensates logged changes.
// Undo never edits history: each compensation goes through the graph
// engine and is logged as a new entry of its own.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"famtree/internal/history/metrics"
	"famtree/internal/history/models"
	personmodels "famtree/internal/person/models"
	personservice "famtree/internal/person/service"
	"famtree/internal/projection"
	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
	"famtree/pkg/platform/sentinel"
	"famtree/pkg/requestcontext"
)

var tracer = otel.Tracer("famtree.history")

type Store interface {
	Append(ctx context.Context, e models.Entry) error
	List(ctx context.Context, owner id.OwnerRef, filter models.Filter) ([]models.Entry, error)
	Get(ctx context.Context, owner id.OwnerRef, logID id.LogID) (*models.Entry, error)
}

// Graph is the slice of the graph engine undo compensates through.
type Graph interface {
	Collection(ctx context.Context, owner id.OwnerRef) (*personmodels.Collection, error)
	DeletePerson(ctx context.Context, owner id.OwnerRef, personID id.PersonID) (*personservice.DeleteResult, error)
	RestorePerson(ctx context.Context, owner id.OwnerRef, snapshot *personmodels.Person) (*projection.PersonView, error)
	UpdatePerson(ctx context.Context, owner id.OwnerRef, personID id.PersonID, patch personmodels.Patch, photoPath string) (*personservice.UpdateResult, error)
	AddRelation(ctx context.Context, owner id.OwnerRef, personID, relatedID id.PersonID, kind personmodels.RelationType, weddingDate string) (*personservice.RelationResult, error)
	DeleteRelation(ctx context.Context, owner id.OwnerRef, personID, relatedID id.PersonID, hint personmodels.RelationType) (*personservice.RelationRemovalResult, error)
	RestoreRelation(ctx context.Context, owner id.OwnerRef, personID, relatedID id.PersonID, kind personmodels.RelationType, st personmodels.EdgeState) (*personservice.RelationResult, error)
}

type Service struct {
	store   Store
	graph   Graph
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, graph Graph, opts ...Option) *Service {
	s := &Service{store: store, graph: graph}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetHistory lists the owner's entries newest first.
func (s *Service) GetHistory(ctx context.Context, owner id.OwnerRef, filter models.Filter) ([]models.Entry, error) {
	if err := filter.Normalize(); err != nil {
		return nil, err
	}
	entries, err := s.store.List(ctx, owner, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list history")
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	return entries, nil
}

func (s *Service) GetEntry(ctx context.Context, owner id.OwnerRef, logID id.LogID) (*models.Entry, error) {
	e, err := s.store.Get(ctx, owner, logID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "log entry not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load log entry")
	}
	return e, nil
}

// decoded loads an entry and turns it into its typed record.
func (s *Service) decoded(ctx context.Context, owner id.OwnerRef, logID id.LogID) (*models.Entry, models.Record, error) {
	e, err := s.GetEntry(ctx, owner, logID)
	if err != nil {
		return nil, nil, err
	}
	rec, err := models.Decode(*e)
	if err != nil {
		return e, nil, err
	}
	return e, rec, nil
}

func (s *Service) startSpan(ctx context.Context, name string, owner id.OwnerRef, logID id.LogID) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("owner", owner.String()),
		attribute.String("log_id", logID.String()),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}

func (s *Service) logAudit(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append(attrs, "log_type", "audit")
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	s.logger.InfoContext(ctx, event, args...)
}
