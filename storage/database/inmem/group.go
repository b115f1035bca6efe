package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/evalboard/core/group"
)

type groupRepository struct {
	db *groupTable
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *DB) *groupRepository {
	return &groupRepository{db: db.group}
}

func (repo *groupRepository) CreateGroup(_ context.Context, grp group.Group) (group.Group, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table[grp.ID] = &grp
	return grp, nil
}

func (repo *groupRepository) GetGroup(_ context.Context, id string) (group.Group, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if grp, ok := repo.db.table[id]; ok {
		return *grp, nil
	}
	return group.Group{}, group.ErrNotFound
}

func (repo *groupRepository) QueryGroups(_ context.Context, filter group.QueryFilter) ([]group.Group, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	groups := make([]group.Group, 0, len(repo.db.table))
	for _, grp := range repo.db.table {
		if filter.Search != "" && !strings.Contains(strings.ToLower(grp.Name), filter.Search) {
			continue
		}
		groups = append(groups, *grp)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Name != groups[j].Name {
			return groups[i].Name < groups[j].Name
		}
		return groups[i].ID < groups[j].ID
	})
	return groups, nil
}

func (repo *groupRepository) UpdateGroup(_ context.Context, grp group.Group) (group.Group, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[grp.ID]; !ok {
		return group.Group{}, group.ErrNotFound
	}
	repo.db.table[grp.ID] = &grp
	return grp, nil
}

func (repo *groupRepository) DeleteGroupsByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func (repo *groupRepository) ReplaceGroups(_ context.Context, groups []group.Group) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table = make(map[string]*group.Group, len(groups))
	for i := range groups {
		grp := groups[i]
		repo.db.table[grp.ID] = &grp
	}
	return nil
}
