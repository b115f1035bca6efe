package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/evalboard/core/group"
)

const (
	groupColumns = "id, name, created_at, updated_at"
	insertGroup  = `INSERT INTO groups (` + groupColumns + `) VALUES (:id, :name, :created_at, :updated_at)`
)

type groupRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt null.Time `db:"created_at"`
	UpdatedAt null.Time `db:"updated_at"`
}

func newGroupRow(grp group.Group) groupRow {
	return groupRow{ID: grp.ID, Name: grp.Name, CreatedAt: nullTime(grp.CreatedAt), UpdatedAt: nullTime(grp.UpdatedAt)}
}

func (r groupRow) group() group.Group {
	return group.Group{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: timestamp(r.CreatedAt, false),
		UpdatedAt: timestamp(r.UpdatedAt, false),
	}
}

type groupRepository struct {
	db *sqlx.DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *sqlx.DB) *groupRepository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) CreateGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	if _, err := repo.db.NamedExecContext(ctx, insertGroup, newGroupRow(grp)); err != nil {
		return group.Group{}, err
	}
	return grp, nil
}

func (repo *groupRepository) GetGroup(ctx context.Context, id string) (group.Group, error) {
	var row groupRow
	q := repo.db.Rebind("SELECT " + groupColumns + " FROM groups WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return group.Group{}, trapNoRowsErr(err, group.ErrNotFound)
	}
	return row.group(), nil
}

func groupQuery(filter group.QueryFilter) (string, []interface{}) {
	var w where
	if filter.Search != "" {
		w.add("LOWER(name) LIKE ?", contains(filter.Search))
	}
	return "SELECT " + groupColumns + " FROM groups" + w.String() + " ORDER BY name ASC, id ASC", w.args
}

func (repo *groupRepository) QueryGroups(ctx context.Context, filter group.QueryFilter) ([]group.Group, error) {
	q, args := groupQuery(filter)
	var rows []groupRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	groups := make([]group.Group, 0, len(rows))
	for _, r := range rows {
		groups = append(groups, r.group())
	}
	return groups, nil
}

func (repo *groupRepository) UpdateGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	res, err := repo.db.NamedExecContext(ctx,
		"UPDATE groups SET name = :name, created_at = :created_at, updated_at = :updated_at WHERE id = :id",
		newGroupRow(grp))
	if err != nil {
		return group.Group{}, err
	}
	if err := checkAffected(res, group.ErrNotFound); err != nil {
		return group.Group{}, err
	}
	return grp, nil
}

func (repo *groupRepository) DeleteGroupsByID(ctx context.Context, ids ...string) error {
	return deleteByID(ctx, repo.db, "groups", ids)
}

func (repo *groupRepository) ReplaceGroups(ctx context.Context, groups []group.Group) error {
	rows := make([]interface{}, 0, len(groups))
	for _, grp := range groups {
		rows = append(rows, newGroupRow(grp))
	}
	return replaceAll(ctx, repo.db, "groups", insertGroup, rows)
}
