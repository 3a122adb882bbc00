// Package handler serves the change log of the owner resolved for the
// request: listing, undo and undo previews.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"famtree/internal/history/models"
	"famtree/internal/history/service"
	"famtree/internal/projection"
	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
	"famtree/pkg/platform/httputil"
	strutil "famtree/pkg/platform/strings"
	"famtree/pkg/requestcontext"
)

type Service interface {
	GetHistory(ctx context.Context, owner id.OwnerRef, filter models.Filter) ([]models.Entry, error)
	GetEntry(ctx context.Context, owner id.OwnerRef, logID id.LogID) (*models.Entry, error)
	Undo(ctx context.Context, owner id.OwnerRef, logID id.LogID) (*service.UndoResult, error)
	SimulateUndo(ctx context.Context, owner id.OwnerRef, logID id.LogID) (*service.Simulation, error)
}

type Handler struct {
	history Service
	logger  *slog.Logger
}

func New(history Service, logger *slog.Logger) *Handler {
	return &Handler{history: history, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/history", h.HandleList)
	r.Get("/history/{logID}", h.HandleGet)
	r.Post("/history/{logID}/undo", h.HandleUndo)
	r.Get("/history/{logID}/undo-preview", h.HandleSimulate)
}

// HandleList accepts entityType, limit and action filters. action may be
// repeated or comma separated.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.history.GetHistory(ctx, owner, filter)
	if err != nil {
		h.fail(ctx, w, "failed to list history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	logID, ok := pathLogID(w, r)
	if !ok {
		return
	}
	entry, err := h.history.GetEntry(ctx, owner, logID)
	if err != nil {
		h.fail(ctx, w, "failed to get log entry", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) HandleUndo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	logID, ok := pathLogID(w, r)
	if !ok {
		return
	}
	res, err := h.history.Undo(ctx, owner, logID)
	if err != nil {
		h.fail(ctx, w, "undo failed", err)
		return
	}
	relinked := make([]string, 0, len(res.Relinked))
	for _, p := range res.Relinked {
		relinked = append(relinked, p.String())
	}
	httputil.WriteJSON(w, http.StatusOK, UndoResponse{
		LogID:    res.LogID.String(),
		Undone:   string(res.Undone),
		EntityID: res.EntityID.String(),
		Person:   res.Person,
		Relinked: relinked,
	})
}

func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	logID, ok := pathLogID(w, r)
	if !ok {
		return
	}
	sim, err := h.history.SimulateUndo(ctx, owner, logID)
	if err != nil {
		h.fail(ctx, w, "undo preview failed", err)
		return
	}
	removed := make([]string, 0, len(sim.Removed))
	for _, p := range sim.Removed {
		removed = append(removed, p.String())
	}
	httputil.WriteJSON(w, http.StatusOK, SimulationResponse{
		LogID:   sim.LogID.String(),
		Undone:  string(sim.Undone),
		Before:  nonNil(sim.Before),
		After:   nonNil(sim.After),
		Removed: removed,
	})
}

type UndoResponse struct {
	LogID    string                 `json:"logId"`
	Undone   string                 `json:"undone"`
	EntityID string                 `json:"entityId"`
	Person   *projection.PersonView `json:"person,omitempty"`
	Relinked []string               `json:"relinked"`
}

type SimulationResponse struct {
	LogID   string                  `json:"logId"`
	Undone  string                  `json:"undone"`
	Before  []projection.PersonView `json:"before"`
	After   []projection.PersonView `json:"after"`
	Removed []string                `json:"removed"`
}

func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	filter := models.Filter{EntityType: q.Get("entityType")}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return models.Filter{}, dErrors.New(dErrors.CodeValidation, "limit must be an integer")
		}
		filter.Limit = limit
	}
	for _, part := range strutil.SplitList(q["action"]...) {
		action, err := models.ParseAction(part)
		if err != nil {
			return models.Filter{}, err
		}
		filter.Actions = append(filter.Actions, action)
	}
	return filter, nil
}

func nonNil(views []projection.PersonView) []projection.PersonView {
	if views == nil {
		return []projection.PersonView{}
	}
	return views
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (id.OwnerRef, bool) {
	owner, ok := requestcontext.Owner(r.Context())
	if !ok || owner.IsNil() {
		h.logger.ErrorContext(r.Context(), "owner missing from context despite owner middleware",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "owner context error"))
		return id.OwnerRef{}, false
	}
	return owner, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	attrs := []any{"request_id", requestcontext.RequestID(ctx), "error", err}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

func pathLogID(w http.ResponseWriter, r *http.Request) (id.LogID, bool) {
	logID, err := id.ParseLogID(chi.URLParam(r, "logID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.LogID{}, false
	}
	return logID, true
}
