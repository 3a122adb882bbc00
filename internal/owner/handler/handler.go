// Package handler exposes owner management over HTTP and resolves which
// person collection a request addresses: the caller's own under /me, or a
// shared tree under /trees/{treeID}.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"famtree/internal/owner/models"
	"famtree/internal/platform/ownerlock"
	id "famtree/pkg/domain"
	"famtree/pkg/platform/httputil"
	"famtree/pkg/requestcontext"
)

// Service defines the owner operations the handler relies on.
type Service interface {
	EnsureUser(ctx context.Context) (*models.Owner, error)
	CreateTree(ctx context.Context, name string) (*models.Owner, error)
	ListTrees(ctx context.Context) ([]*models.Owner, error)
	Authorize(ctx context.Context, ref id.OwnerRef, access models.Access) (*models.Owner, error)
	PutMember(ctx context.Context, treeID id.TreeID, userID id.UserID, role models.Role) (*models.Owner, error)
	RemoveMember(ctx context.Context, treeID id.TreeID, userID id.UserID) (*models.Owner, error)
}

type Handler struct {
	owners Service
	locker ownerlock.Locker
	logger *slog.Logger
}

func New(owners Service, locker ownerlock.Locker, logger *slog.Logger) *Handler {
	return &Handler{
		owners: owners,
		locker: locker,
		logger: logger,
	}
}

// Register mounts /me and /trees. collection registers the per-owner person
// and history routes; it is mounted under both so every collection endpoint
// exists for the caller's own collection and for each shared tree.
func (h *Handler) Register(r chi.Router, collection func(chi.Router)) {
	r.Route("/me", func(r chi.Router) {
		r.Use(h.ResolveMe)
		r.Use(h.LockOwner)
		collection(r)
	})
	r.Route("/trees", func(r chi.Router) {
		r.Post("/", h.HandleCreateTree)
		r.Get("/", h.HandleListTrees)
		r.Route("/{treeID}", func(r chi.Router) {
			r.Use(h.ResolveTree)
			r.Get("/", h.HandleGetTree)
			r.Put("/members/{userID}", h.HandlePutMember)
			r.Delete("/members/{userID}", h.HandleRemoveMember)
			r.Group(func(r chi.Router) {
				r.Use(h.LockOwner)
				collection(r)
			})
		})
	})
}

// ResolveMe registers the caller's private collection on first use and
// routes the request to it.
func (h *Handler) ResolveMe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		o, err := h.owners.EnsureUser(ctx)
		if err != nil {
			h.logger.WarnContext(ctx, "failed to resolve own collection",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(requestcontext.WithOwner(ctx, o.Ref)))
	})
}

// ResolveTree checks the caller's membership of the tree in the path. Safe
// methods need read access, everything else write access.
func (h *Handler) ResolveTree(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		treeID, err := id.ParseTreeID(chi.URLParam(r, "treeID"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		access := models.AccessWrite
		if isSafe(r.Method) {
			access = models.AccessRead
		}
		o, err := h.owners.Authorize(ctx, id.TreeOwner(treeID), access)
		if err != nil {
			h.logger.WarnContext(ctx, "tree access denied",
				"request_id", requestcontext.RequestID(ctx),
				"tree_id", treeID.String(),
				"access", access.String(),
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(requestcontext.WithOwner(ctx, o.Ref)))
	})
}

// LockOwner serializes mutating requests per owner collection. Reads pass
// through unlocked.
func (h *Handler) LockOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		owner, ok := requestcontext.Owner(ctx)
		if isSafe(r.Method) || !ok {
			next.ServeHTTP(w, r)
			return
		}
		err := ownerlock.With(ctx, h.locker, owner, func(context.Context) error {
			next.ServeHTTP(w, r)
			return nil
		})
		if err != nil {
			h.logger.WarnContext(ctx, "failed to acquire owner lock",
				"request_id", requestcontext.RequestID(ctx),
				"owner", owner.String(),
				"error", err,
			)
			httputil.WriteError(w, err)
		}
	})
}

func (h *Handler) HandleCreateTree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateTreeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	tree, err := h.owners.CreateTree(ctx, req.Name)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create tree", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toTreeResponse(tree))
}

func (h *Handler) HandleListTrees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	trees, err := h.owners.ListTrees(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list trees", "request_id", requestcontext.RequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	resp := make([]TreeResponse, 0, len(trees))
	for _, t := range trees {
		resp = append(resp, toTreeResponse(t))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGetTree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := requestcontext.Owner(ctx)
	tree, err := h.owners.Authorize(ctx, owner, models.AccessRead)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTreeResponse(tree))
}

func (h *Handler) HandlePutMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	treeID, userID, err := memberPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[PutMemberRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	tree, err := h.owners.PutMember(ctx, treeID, userID, req.ParsedRole())
	if err != nil {
		h.logger.WarnContext(ctx, "failed to put member",
			"request_id", requestID,
			"tree_id", treeID.String(),
			"member_id", userID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTreeResponse(tree))
}

func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	treeID, userID, err := memberPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tree, err := h.owners.RemoveMember(ctx, treeID, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to remove member",
			"request_id", requestcontext.RequestID(ctx),
			"tree_id", treeID.String(),
			"member_id", userID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTreeResponse(tree))
}

func memberPath(r *http.Request) (id.TreeID, id.UserID, error) {
	treeID, err := id.ParseTreeID(chi.URLParam(r, "treeID"))
	if err != nil {
		return id.TreeID{}, id.UserID{}, err
	}
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		return id.TreeID{}, id.UserID{}, err
	}
	return treeID, userID, nil
}

func isSafe(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}
