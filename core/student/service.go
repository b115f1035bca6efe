package student

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
	ErrNotFound   = errors.New("student not found")
	ErrRollExists = errors.New("a student with this roll already exists")
)

type Repository interface {
	CreateStudent(ctx context.Context, std Student) (Student, error)
	GetStudent(ctx context.Context, id string) (Student, error)
	// QueryStudents applies AND operation on available QueryFilter fields.
	// QueryFilter.Search does a case-insensitive match on one of Student.Name or Student.Roll.
	// Results are ordered by roll unless `ordering` says otherwise.
	QueryStudents(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Student, error)
	UpdateStudent(ctx context.Context, std Student) (Student, error)
	DeleteStudentsByID(ctx context.Context, ids ...string) error
	// ReplaceStudents drops every student and stores `students` instead.
	ReplaceStudents(ctx context.Context, students []Student) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(ctx context.Context, roll string, exclStudents ...Student) error {
	students, err := svc.repo.QueryStudents(ctx, QueryFilter{Search: strings.ToLower(roll)})
	if err != nil {
		return err
	}
	for _, std := range students {
		if !strings.EqualFold(std.Roll, roll) || isExcluded(std, exclStudents) {
			continue
		}
		return core.NewValidationError(ErrRollExists, core.FieldError{Field: "roll", Error: ErrRollExists.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := core.TimestampFrom(nowFunc().UTC())
	std := Student{
		ID:            uuid.New().String(),
		Name:          ns.Name,
		Roll:          ns.Roll,
		Gender:        ns.Gender,
		GroupID:       ns.GroupID,
		AcademicGroup: ns.AcademicGroup,
		Session:       ns.Session,
		Role:          ns.Role,
		Contact:       ns.Contact,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateStudent(ctx, std)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, QueryFilter{})
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Student, error) {
	filter.Clean()
	return svc.repo.QueryStudents(ctx, filter, ordering...)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *Service) Update(ctx context.Context, std Student, us UpdateStudent) (Student, error) {
	std.Name = us.Name
	std.Roll = us.Roll
	if us.Gender != "" {
		std.Gender = us.Gender
	}
	if us.GroupID != nil {
		std.GroupID = *us.GroupID
	}
	std.AcademicGroup = us.AcademicGroup
	std.Session = us.Session
	std.Role = us.Role
	std.Contact = us.Contact
	std.UpdatedAt = core.TimestampFrom(nowFunc().UTC())
	return svc.repo.UpdateStudent(ctx, std)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}

func isExcluded(std Student, excluded []Student) bool {
	for _, s := range excluded {
		if s.ID == std.ID {
			return true
		}
	}
	return false
}
