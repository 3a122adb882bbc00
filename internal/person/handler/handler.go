// Package handler serves the person graph of the owner resolved for the
// request.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"famtree/internal/person/models"
	"famtree/internal/person/service"
	"famtree/internal/projection"
	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
	"famtree/pkg/platform/httputil"
	"famtree/pkg/requestcontext"
)

// Service defines the graph engine operations exposed over HTTP.
type Service interface {
	GetAllWithRelations(ctx context.Context, owner id.OwnerRef) ([]projection.PersonView, error)
	GetPerson(ctx context.Context, owner id.OwnerRef, personID id.PersonID) (*projection.PersonView, error)
	CreatePerson(ctx context.Context, owner id.OwnerRef, attrs models.Attributes) (*projection.PersonView, error)
	UpdatePerson(ctx context.Context, owner id.OwnerRef, personID id.PersonID, patch models.Patch, photoPath string) (*service.UpdateResult, error)
	DeletePerson(ctx context.Context, owner id.OwnerRef, personID id.PersonID) (*service.DeleteResult, error)
	AddRelation(ctx context.Context, owner id.OwnerRef, personID, relatedID id.PersonID, kind models.RelationType, weddingDate string) (*service.RelationResult, error)
	DeleteRelation(ctx context.Context, owner id.OwnerRef, personID, relatedID id.PersonID, hint models.RelationType) (*service.RelationRemovalResult, error)
	AddPersonWithRelationship(ctx context.Context, owner id.OwnerRef, req models.AddRelativeRequest) (*service.AddRelativeResult, error)
}

type Handler struct {
	persons Service
	logger  *slog.Logger
}

func New(persons Service, logger *slog.Logger) *Handler {
	return &Handler{persons: persons, logger: logger}
}

// Register mounts the person routes relative to an owner-scoped router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/persons", h.HandleList)
	r.Post("/persons", h.HandleCreate)
	r.Get("/persons/{personID}", h.HandleGet)
	r.Patch("/persons/{personID}", h.HandleUpdate)
	r.Delete("/persons/{personID}", h.HandleDelete)
	r.Post("/persons/{personID}/relations", h.HandleAddRelation)
	r.Delete("/persons/{personID}/relations/{relatedID}", h.HandleDeleteRelation)
	r.Post("/persons/{personID}/relatives", h.HandleAddRelative)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	views, err := h.persons.GetAllWithRelations(ctx, owner)
	if err != nil {
		h.fail(ctx, w, "failed to list persons", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	personID, ok := pathPersonID(w, r, "personID")
	if !ok {
		return
	}
	view, err := h.persons.GetPerson(ctx, owner, personID)
	if err != nil {
		h.fail(ctx, w, "failed to get person", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreatePersonRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	view, err := h.persons.CreatePerson(ctx, owner, req.Attributes())
	if err != nil {
		h.fail(ctx, w, "failed to create person", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, view)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	personID, ok := pathPersonID(w, r, "personID")
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdatePersonRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.persons.UpdatePerson(ctx, owner, personID, req.Fields, req.PhotoPath)
	if err != nil {
		h.fail(ctx, w, "failed to update person", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUpdateResponse(res))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	personID, ok := pathPersonID(w, r, "personID")
	if !ok {
		return
	}
	res, err := h.persons.DeletePerson(ctx, owner, personID)
	if err != nil {
		h.fail(ctx, w, "failed to delete person", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDeleteResponse(res))
}

func (h *Handler) HandleAddRelation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	personID, ok := pathPersonID(w, r, "personID")
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddRelationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.persons.AddRelation(ctx, owner, personID, req.parsedRelatedID, req.parsedType, req.WeddingDate)
	if err != nil {
		h.fail(ctx, w, "failed to add relation", err)
		return
	}
	status := http.StatusOK
	if res.Changed {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, RelationResponse{Person: res.Person, Related: res.Related, Changed: res.Changed})
}

// HandleDeleteRelation removes the edge to relatedID. The optional
// relationType query parameter picks the kind when several connect the pair.
func (h *Handler) HandleDeleteRelation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	personID, ok := pathPersonID(w, r, "personID")
	if !ok {
		return
	}
	relatedID, ok := pathPersonID(w, r, "relatedID")
	if !ok {
		return
	}
	var hint models.RelationType
	if raw := r.URL.Query().Get("relationType"); raw != "" {
		kind, err := models.ParseRelationType(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		hint = kind
	}
	res, err := h.persons.DeleteRelation(ctx, owner, personID, relatedID, hint)
	if err != nil {
		h.fail(ctx, w, "failed to delete relation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RelationRemovalResponse{
		Person:         res.Person,
		Relation:       res.Relation,
		RelatedCleared: res.RelatedCleared,
	})
}

func (h *Handler) HandleAddRelative(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	anchorID, ok := pathPersonID(w, r, "personID")
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddRelativeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.persons.AddPersonWithRelationship(ctx, owner, req.Build(anchorID))
	if err != nil {
		h.fail(ctx, w, "failed to add relative", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAddRelativeResponse(res))
}

// owner reads the collection the owner middleware resolved. Its absence is
// a wiring error.
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

func pathPersonID(w http.ResponseWriter, r *http.Request, param string) (id.PersonID, bool) {
	personID, err := id.ParsePersonID(chi.URLParam(r, param))
	if err != nil {
		httputil.WriteError(w, err)
		return id.PersonID{}, false
	}
	return personID, true
}
