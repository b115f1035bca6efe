package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		students = append(students, *s)
	}
	return students
}

func (repo *studentRepository) CreateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if std, ok := repo.db.table[id]; ok {
		return *std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter student.QueryFilter, ordering ...core.DBOrdering) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]student.Student, 0)
	for _, std := range repo.query() {
		if matchStudent(std, filter) {
			students = append(students, std)
		}
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "roll", Ascending: true}}
	}
	sort.SliceStable(students, func(i, j int) bool {
		return lessStudent(students[i], students[j], ordering)
	})
	return students, nil
}

func matchStudent(std student.Student, filter student.QueryFilter) bool {
	if filter.Search != "" &&
		!strings.Contains(strings.ToLower(std.Name), filter.Search) &&
		!strings.Contains(strings.ToLower(std.Roll), filter.Search) {
		return false
	}
	if filter.GroupID != "" && std.GroupID != filter.GroupID {
		return false
	}
	if filter.Unassigned && std.HasGroup() {
		return false
	}
	if filter.AcademicGroup != "" && !strings.EqualFold(std.AcademicGroup, filter.AcademicGroup) {
		return false
	}
	if filter.Session != "" && std.Session != filter.Session {
		return false
	}
	return true
}

func lessStudent(a, b student.Student, ordering []core.DBOrdering) bool {
	for _, ord := range ordering {
		var cmp int
		switch ord.Field {
		case "name":
			cmp = strings.Compare(a.Name, b.Name)
		case "roll":
			cmp = strings.Compare(a.Roll, b.Roll)
		case "createdAt":
			cmp = compareMillis(a.CreatedAt.Millis(), b.CreatedAt.Millis())
		}
		if cmp != 0 {
			return (cmp < 0) == ord.Ascending
		}
	}
	return a.ID < b.ID
}

func (repo *studentRepository) UpdateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[std.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	repo.db.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) DeleteStudentsByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func (repo *studentRepository) ReplaceStudents(_ context.Context, students []student.Student) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table = make(map[string]*student.Student, len(students))
	for i := range students {
		std := students[i]
		repo.db.table[std.ID] = &std
	}
	return nil
}

func compareMillis(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
