// Package service is the relationship graph engine. Every operation loads
// the owner's whole collection, mutates it in memory through the symmetric
// primitives in person/models, saves it back and appends change-log entries
// for what it did. Callers serialize writers per owner; the engine itself
// holds no locks.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	historymodels "famtree/internal/history/models"
	"famtree/internal/person/metrics"
	"famtree/internal/person/models"
	"famtree/internal/projection"
	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
	"famtree/pkg/platform/sentinel"
	"famtree/pkg/platform/tx"
	"famtree/pkg/requestcontext"
)

const (
	defaultStoreTimeout   = 5 * time.Second
	defaultPublishTimeout = 2 * time.Second
)

var tracer = otel.Tracer("famtree.person")

// Store persists one collection document per owner.
type Store interface {
	LoadCollection(ctx context.Context, owner id.OwnerRef) (*models.Collection, error)
	SaveCollection(ctx context.Context, c *models.Collection) error
}

// ChangeRecorder appends a change-log entry for a typed record.
type ChangeRecorder interface {
	Record(ctx context.Context, owner id.OwnerRef, rec historymodels.Record) (historymodels.Entry, error)
}

// ChangePublisher announces the post-mutation state of touched persons.
// Publishing is best effort and never fails a mutation.
type ChangePublisher interface {
	PublishChanges(ctx context.Context, owner id.OwnerRef, changed []projection.PersonView, removed []id.PersonID) error
}

type Service struct {
	store        Store
	recorder     ChangeRecorder
	publisher    ChangePublisher
	txRunner       tx.Runner
	logger         *slog.Logger
	metrics        *metrics.Metrics
	storeTimeout   time.Duration
	publishTimeout time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithRecorder(r ChangeRecorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

func WithPublisher(p ChangePublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithTxRunner makes the collection save and its log entries commit
// atomically. Without it the save happens first, so a failing recorder
// leaves the mutation persisted but unlogged; the call then fails with an
// internal error saying so and the gap is logged at error level.
func WithTxRunner(r tx.Runner) Option {
	return func(s *Service) {
		s.txRunner = r
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPublishTimeout bounds how long a mutation waits on the change feed
// before giving up on the announcement. Non-positive values are ignored.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

// WithStoreTimeout bounds each store call. Non-positive values are ignored.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		txRunner:       tx.NopRunner{},
		storeTimeout:   defaultStoreTimeout,
		publishTimeout: defaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// load fetches the owner's collection under the store deadline.
func (s *Service) load(ctx context.Context, owner id.OwnerRef) (*models.Collection, error) {
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeOwnerNotFound, "owner not found")
	}
	loadCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	c, err := s.store.LoadCollection(loadCtx, owner)
	if err != nil {
		return nil, storeError(err, "failed to load collection")
	}
	return c, nil
}

// commit saves the collection and appends the mutation's log entries. It
// detaches from the caller's cancellation: once a mutation is applied in
// memory it is written out regardless of the client going away.
func (s *Service) commit(ctx context.Context, m *mutation) ([]historymodels.Entry, error) {
	detached := context.WithoutCancel(ctx)
	storeCtx, cancel := context.WithTimeout(detached, s.storeTimeout)
	defer cancel()

	m.c.UpdatedAt = m.now
	var entries []historymodels.Entry
	err := s.txRunner.RunInTx(storeCtx, func(txCtx context.Context) error {
		entries = entries[:0]
		if err := s.store.SaveCollection(txCtx, m.c); err != nil {
			return storeError(err, "failed to save collection")
		}
		if s.recorder == nil {
			return nil
		}
		for _, rec := range m.records {
			entry, err := s.recorder.Record(txCtx, m.c.Owner, rec)
			if err != nil {
				if _, inTx := tx.From(txCtx); !inTx {
					s.reportUnlogged(txCtx, m, rec, err)
					return dErrors.Wrap(err, dErrors.CodeInternal, "change saved but not recorded in history")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record change")
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveCollectionSize(m.c.Len())
	}
	s.publish(detached, m)
	return entries, nil
}

// reportUnlogged flags a change that reached the store without its log
// entry, which only happens outside a transaction.
func (s *Service) reportUnlogged(ctx context.Context, m *mutation, rec historymodels.Record, err error) {
	if s.logger == nil {
		return
	}
	s.logger.ErrorContext(ctx, "change persisted without log entry",
		"owner", m.c.Owner.String(),
		"action", string(rec.Action()),
		"person_id", rec.EntityID().String(),
		"error", err,
	)
}

func (s *Service) publish(ctx context.Context, m *mutation) {
	if s.publisher == nil {
		return
	}
	changed := projection.BuildIDs(m.c, m.changedIDs())
	if len(changed) == 0 && len(m.removed) == 0 {
		return
	}
	// The caller still holds the owner lock here.
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.publisher.PublishChanges(ctx, m.c.Owner, changed, m.removed); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to publish changes",
			"owner", m.c.Owner.String(),
			"error", err,
		)
	}
}

// begin opens a span and returns a finish func that records the outcome in
// the span and the mutation metrics.
func (s *Service) begin(ctx context.Context, op string, owner id.OwnerRef, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	start := time.Now()
	attrs = append(attrs, attribute.String("owner", owner.String()))
	ctx, span := tracer.Start(ctx, "person."+op, trace.WithAttributes(attrs...))
	return ctx, func(errp *error) {
		err := *errp
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveMutation(op, start, err)
		}
	}
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

func storeError(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeOwnerNotFound, "owner not found")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	case errors.As(err, new(*dErrors.Error)):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func personNotFound(personID id.PersonID) error {
	return dErrors.New(dErrors.CodePersonNotFound, "person not found: "+personID.String())
}
