package group

import (
	"context"

	"github.com/trezcool/evalboard/core"
)

type Group struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	CreatedAt core.Timestamp `json:"createdAt"`
	UpdatedAt core.Timestamp `json:"updatedAt"`
}

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

func (ng *NewGroup) Validate(ctx context.Context, svc *Service) error {
	ng.Name = core.CleanString(ng.Name)
	if err := core.Validate.Struct(ng); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, ng.Name)
}

// UpdateGroup defines what information may be provided to modify an existing Group.
type UpdateGroup struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

func (ug *UpdateGroup) Validate(ctx context.Context, origGrp Group, svc *Service) error {
	ug.Name = core.CleanString(ug.Name)
	if err := core.Validate.Struct(ug); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, ug.Name, origGrp)
}

type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search, true /* lower */)
}
