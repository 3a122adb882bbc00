package service

import (
	"context"
	"fmt"

	"famtree/internal/history/metrics"
	"famtree/internal/history/models"
	id "famtree/pkg/domain"
	"famtree/pkg/requestcontext"
)

// Recorder stamps typed records with identity, actor and time and appends
// them to the log. The graph engine calls it inside its save transaction.
type Recorder struct {
	store   Store
	metrics *metrics.Metrics
}

func NewRecorder(store Store, m *metrics.Metrics) *Recorder {
	return &Recorder{store: store, metrics: m}
}

func (r *Recorder) Record(ctx context.Context, owner id.OwnerRef, rec models.Record) (models.Entry, error) {
	e := models.NewEntry(id.NewLogID(), owner, requestcontext.UserID(ctx), requestcontext.Now(ctx), rec)
	if err := r.store.Append(ctx, e); err != nil {
		return models.Entry{}, fmt.Errorf("append %s entry: %w", e.Action, err)
	}
	if r.metrics != nil {
		r.metrics.IncRecorded(string(e.Action))
	}
	return e, nil
}
