package group

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/evalboard/core"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound   = errors.New("group not found")
	ErrNameExists = errors.New("a group with this name already exists")
)

type Repository interface {
	CreateGroup(ctx context.Context, grp Group) (Group, error)
	GetGroup(ctx context.Context, id string) (Group, error)
	// QueryGroups returns the groups ordered by name.
	// QueryFilter.Search does a case-insensitive match on Group.Name.
	QueryGroups(ctx context.Context, filter QueryFilter) ([]Group, error)
	UpdateGroup(ctx context.Context, grp Group) (Group, error)
	DeleteGroupsByID(ctx context.Context, ids ...string) error
	// ReplaceGroups drops every group and stores `groups` instead.
	ReplaceGroups(ctx context.Context, groups []Group) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(ctx context.Context, name string, exclGroups ...Group) error {
	groups, err := svc.repo.QueryGroups(ctx, QueryFilter{})
	if err != nil {
		return err
	}
	for _, grp := range groups {
		if !strings.EqualFold(grp.Name, name) || isExcluded(grp, exclGroups) {
			continue
		}
		return core.NewValidationError(ErrNameExists, core.FieldError{Field: "name", Error: ErrNameExists.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ng NewGroup) (Group, error) {
	now := core.TimestampFrom(nowFunc().UTC())
	grp := Group{
		ID:        uuid.New().String(),
		Name:      ng.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateGroup(ctx, grp)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Group, error) {
	return svc.repo.QueryGroups(ctx, QueryFilter{})
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Group, error) {
	filter.Clean()
	return svc.repo.QueryGroups(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Group, error) {
	return svc.repo.GetGroup(ctx, id)
}

func (svc *Service) Update(ctx context.Context, grp Group, ug UpdateGroup) (Group, error) {
	grp.Name = ug.Name
	grp.UpdatedAt = core.TimestampFrom(nowFunc().UTC())
	return svc.repo.UpdateGroup(ctx, grp)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteGroupsByID(ctx, ids...)
}

func isExcluded(grp Group, excluded []Group) bool {
	for _, g := range excluded {
		if g.ID == grp.ID {
			return true
		}
	}
	return false
}
