// Package service manages owners: each account's private collection and
// shared trees with their membership. It is also the access-control point
// the handlers consult before touching a collection.
package service

import (
	"context"
	"errors"
	"log/slog"

	"famtree/internal/owner/models"
	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
	"famtree/pkg/platform/sentinel"
	"famtree/pkg/requestcontext"
)

type Store interface {
	CreateOwner(ctx context.Context, o *models.Owner) error
	GetOwner(ctx context.Context, ref id.OwnerRef) (*models.Owner, error)
	UpdateOwner(ctx context.Context, o *models.Owner) error
	ListTreesForUser(ctx context.Context, userID id.UserID) ([]*models.Owner, error)
}

type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureUser registers the acting account's private collection on first
// use. Repeated calls are no-ops.
func (s *Service) EnsureUser(ctx context.Context) (*models.Owner, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	ref := id.UserOwner(userID)
	o, err := s.store.GetOwner(ctx, ref)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load owner")
	}

	o = models.NewUserOwner(userID, requestcontext.Now(ctx))
	if err := s.store.CreateOwner(ctx, o); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a race with a concurrent first request.
			return s.store.GetOwner(ctx, ref)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register owner")
	}
	s.logAudit(ctx, "owner_registered", "owner", ref.String())
	return o, nil
}

func (s *Service) CreateTree(ctx context.Context, name string) (*models.Owner, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	tree, err := models.NewTree(id.NewTreeID(), name, userID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateOwner(ctx, tree); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create tree")
	}
	s.logAudit(ctx, "tree_created", "owner", tree.Ref.String(), "user_id", userID.String())
	return tree, nil
}

// ListTrees returns the shared trees the acting user belongs to.
func (s *Service) ListTrees(ctx context.Context) ([]*models.Owner, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	trees, err := s.store.ListTreesForUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list trees")
	}
	return trees, nil
}

// Authorize loads ref and checks the acting user's access. Non-members get
// OwnerNotFound rather than Forbidden so tree ids cannot be probed.
func (s *Service) Authorize(ctx context.Context, ref id.OwnerRef, access models.Access) (*models.Owner, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	o, err := s.store.GetOwner(ctx, ref)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeOwnerNotFound, "owner not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load owner")
	}
	role, ok := o.RoleOf(userID)
	if !ok {
		return nil, dErrors.New(dErrors.CodeOwnerNotFound, "owner not found")
	}
	if !role.Allows(access) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role "+string(role)+" does not allow "+access.String()+" access")
	}
	return o, nil
}

func (s *Service) PutMember(ctx context.Context, treeID id.TreeID, userID id.UserID, role models.Role) (*models.Owner, error) {
	tree, err := s.Authorize(ctx, id.TreeOwner(treeID), models.AccessManage)
	if err != nil {
		return nil, err
	}
	if err := tree.PutMember(userID, role, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.update(ctx, tree); err != nil {
		return nil, err
	}
	s.logAudit(ctx, "member_put", "owner", tree.Ref.String(), "member_id", userID.String(), "role", string(role))
	return tree, nil
}

func (s *Service) RemoveMember(ctx context.Context, treeID id.TreeID, userID id.UserID) (*models.Owner, error) {
	tree, err := s.Authorize(ctx, id.TreeOwner(treeID), models.AccessManage)
	if err != nil {
		return nil, err
	}
	if err := tree.RemoveMember(userID, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.update(ctx, tree); err != nil {
		return nil, err
	}
	s.logAudit(ctx, "member_removed", "owner", tree.Ref.String(), "member_id", userID.String())
	return tree, nil
}

func (s *Service) update(ctx context.Context, o *models.Owner) error {
	if err := s.store.UpdateOwner(ctx, o); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeOwnerNotFound, "owner not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update owner")
	}
	return nil
}

func actor(ctx context.Context) (id.UserID, error) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return userID, nil
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
