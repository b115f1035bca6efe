package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/student"
)

const (
	studentColumns = "id, name, roll, gender, group_id, academic_group, session, role, contact, created_at, updated_at"
	insertStudent  = `INSERT INTO students (` + studentColumns + `)
		VALUES (:id, :name, :roll, :gender, :group_id, :academic_group, :session, :role, :contact, :created_at, :updated_at)`
)

var studentOrderColumns = map[string]string{"name": "name", "roll": "roll", "createdAt": "created_at"}

type studentRow struct {
	ID            string      `db:"id"`
	Name          string      `db:"name"`
	Roll          string      `db:"roll"`
	Gender        null.String `db:"gender"`
	GroupID       null.String `db:"group_id"`
	AcademicGroup null.String `db:"academic_group"`
	Session       null.String `db:"session"`
	Role          null.String `db:"role"`
	Contact       null.String `db:"contact"`
	CreatedAt     null.Time   `db:"created_at"`
	UpdatedAt     null.Time   `db:"updated_at"`
}

func newStudentRow(std student.Student) studentRow {
	return studentRow{
		ID:            std.ID,
		Name:          std.Name,
		Roll:          std.Roll,
		Gender:        nullString(std.Gender),
		GroupID:       nullString(std.GroupID),
		AcademicGroup: nullString(std.AcademicGroup),
		Session:       nullString(std.Session),
		Role:          nullString(std.Role),
		Contact:       nullString(std.Contact),
		CreatedAt:     nullTime(std.CreatedAt),
		UpdatedAt:     nullTime(std.UpdatedAt),
	}
}

func (r studentRow) student() student.Student {
	return student.Student{
		ID:            r.ID,
		Name:          r.Name,
		Roll:          r.Roll,
		Gender:        r.Gender.String,
		GroupID:       r.GroupID.String,
		AcademicGroup: r.AcademicGroup.String,
		Session:       r.Session.String,
		Role:          r.Role.String,
		Contact:       r.Contact.String,
		CreatedAt:     timestamp(r.CreatedAt, false),
		UpdatedAt:     timestamp(r.UpdatedAt, false),
	}
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	if _, err := repo.db.NamedExecContext(ctx, insertStudent, newStudentRow(std)); err != nil {
		return student.Student{}, err
	}
	return std, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	var row studentRow
	q := repo.db.Rebind("SELECT " + studentColumns + " FROM students WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound)
	}
	return row.student(), nil
}

// studentQuery builds the SELECT of QueryStudents, with `?` placeholders.
func studentQuery(filter student.QueryFilter, ordering []core.DBOrdering) (string, []interface{}) {
	var w where
	if filter.Search != "" {
		w.add("(LOWER(name) LIKE ? OR LOWER(roll) LIKE ?)", contains(filter.Search), contains(filter.Search))
	}
	if filter.GroupID != "" {
		w.add("group_id = ?", filter.GroupID)
	}
	if filter.Unassigned {
		w.add("COALESCE(group_id, '') = ''")
	}
	if filter.AcademicGroup != "" {
		w.add("LOWER(academic_group) = LOWER(?)", filter.AcademicGroup)
	}
	if filter.Session != "" {
		w.add("session = ?", filter.Session)
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "roll", Ascending: true}}
	}
	orderBy := ""
	for _, ord := range ordering {
		col, ok := studentOrderColumns[ord.Field]
		if !ok {
			continue
		}
		orderBy += core.DBOrdering{Field: col, Ascending: ord.Ascending}.String() + ", "
	}
	return "SELECT " + studentColumns + " FROM students" + w.String() + " ORDER BY " + orderBy + "id ASC", w.args
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter student.QueryFilter, ordering ...core.DBOrdering) ([]student.Student, error) {
	q, args := studentQuery(filter, ordering)
	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.student())
	}
	return students, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	res, err := repo.db.NamedExecContext(ctx, `UPDATE students SET
		name = :name, roll = :roll, gender = :gender, group_id = :group_id, academic_group = :academic_group,
		session = :session, role = :role, contact = :contact, created_at = :created_at, updated_at = :updated_at
		WHERE id = :id`, newStudentRow(std))
	if err != nil {
		return student.Student{}, err
	}
	if err := checkAffected(res, student.ErrNotFound); err != nil {
		return student.Student{}, err
	}
	return std, nil
}

func (repo *studentRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	return deleteByID(ctx, repo.db, "students", ids)
}

func (repo *studentRepository) ReplaceStudents(ctx context.Context, students []student.Student) error {
	rows := make([]interface{}, 0, len(students))
	for _, std := range students {
		rows = append(rows, newStudentRow(std))
	}
	return replaceAll(ctx, repo.db, "students", insertStudent, rows)
}
