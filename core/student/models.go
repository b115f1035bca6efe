package student

import (
	"context"

	"github.com/trezcool/evalboard/core"
)

// Genders accepted on write. Stored data may hold anything.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

type Student struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Roll          string         `json:"roll"`
	Gender        string         `json:"gender"`
	GroupID       string         `json:"groupId"` // empty when unassigned
	AcademicGroup string         `json:"academicGroup"`
	Session       string         `json:"session"`
	Role          string         `json:"role"`
	Contact       string         `json:"contact"`
	CreatedAt     core.Timestamp `json:"createdAt"`
	UpdatedAt     core.Timestamp `json:"updatedAt"`
}

func (s Student) HasGroup() bool {
	return s.GroupID != ""
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	Name          string `json:"name" validate:"required,notblank,max=150"`
	Roll          string `json:"roll" validate:"required,notblank,max=30"`
	Gender        string `json:"gender" validate:"omitempty,oneof=male female other"`
	GroupID       string `json:"groupId" validate:"omitempty,max=64"`
	AcademicGroup string `json:"academicGroup" validate:"omitempty,max=50"`
	Session       string `json:"session" validate:"omitempty,max=20"`
	Role          string `json:"role" validate:"omitempty,max=50"`
	Contact       string `json:"contact" validate:"omitempty,max=100"`
}

func (ns *NewStudent) clean() {
	ns.Name = core.CleanString(ns.Name)
	ns.Roll = core.CleanString(ns.Roll)
	ns.Gender = core.CleanString(ns.Gender, true /* lower */)
	ns.GroupID = core.CleanString(ns.GroupID)
	ns.AcademicGroup = core.CleanString(ns.AcademicGroup)
	ns.Session = core.CleanString(ns.Session)
	ns.Role = core.CleanString(ns.Role)
	ns.Contact = core.CleanString(ns.Contact)
}

func (ns *NewStudent) Validate(ctx context.Context, svc *Service) error {
	ns.clean()
	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, ns.Roll)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Empty fields keep their current value, except GroupID which is only changed when set.
type UpdateStudent struct {
	Name          string  `json:"name" validate:"omitempty,max=150"`
	Roll          string  `json:"roll" validate:"omitempty,max=30"`
	Gender        string  `json:"gender" validate:"omitempty,oneof=male female other"`
	GroupID       *string `json:"groupId" validate:"omitempty,max=64"` // "" unassigns
	AcademicGroup string  `json:"academicGroup" validate:"omitempty,max=50"`
	Session       string  `json:"session" validate:"omitempty,max=20"`
	Role          string  `json:"role" validate:"omitempty,max=50"`
	Contact       string  `json:"contact" validate:"omitempty,max=100"`
}

func (us *UpdateStudent) Validate(ctx context.Context, origStd Student, svc *Service) error {
	us.Name = cleanOr(us.Name, origStd.Name)
	us.Roll = cleanOr(us.Roll, origStd.Roll)
	us.Gender = core.CleanString(us.Gender, true /* lower */)
	us.AcademicGroup = cleanOr(us.AcademicGroup, origStd.AcademicGroup)
	us.Session = cleanOr(us.Session, origStd.Session)
	us.Role = cleanOr(us.Role, origStd.Role)
	us.Contact = cleanOr(us.Contact, origStd.Contact)
	if us.GroupID != nil {
		gid := core.CleanString(*us.GroupID)
		us.GroupID = &gid
	}

	if err := core.Validate.Struct(us); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, us.Roll, origStd)
}

func cleanOr(s, orig string) string {
	if s = core.CleanString(s); s != "" {
		return s
	}
	return orig
}

type QueryFilter struct {
	Search        string `query:"search"` // name or roll
	GroupID       string `query:"group"`
	AcademicGroup string `query:"academic_group"`
	Session       string `query:"session"`
	Unassigned    bool   `query:"unassigned"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.GroupID == "" && qf.AcademicGroup == "" && qf.Session == "" && !qf.Unassigned
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search, true /* lower */)
	qf.GroupID = core.CleanString(qf.GroupID)
	qf.AcademicGroup = core.CleanString(qf.AcademicGroup)
	qf.Session = core.CleanString(qf.Session)
}

// Orderable fields for QueryStudents.
var OrderingFields = []string{"name", "roll", "createdAt"}
