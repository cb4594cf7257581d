package inmemdb

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chuolink/shule/core/staff"
)

type staffRepository struct {
	db *staffTable
}

func NewStaffRepository(db *DB) staff.Repository {
	return &staffRepository{db: db.staff}
}

func (repo *staffRepository) query() []staff.Staff {
	all := make([]staff.Staff, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		all = append(all, *s)
	}
	return all
}

func (repo *staffRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excluded ...staff.Staff) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, stf := range repo.query() {
		if isExcluded(stf, excluded) {
			continue
		}
		if username != "" && stf.Username == username {
			return staff.ErrUsernameExists
		}
		if email != "" && stf.Email == email {
			return staff.ErrEmailExists
		}
	}
	return nil
}

func isExcluded(stf staff.Staff, excluded []staff.Staff) bool {
	for _, ex := range excluded {
		if ex.ID == stf.ID {
			return true
		}
	}
	return false
}

func (repo *staffRepository) CreateStaff(_ context.Context, stf staff.Staff) (staff.Staff, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stf.ID = primitive.NewObjectID().Hex()
	repo.db.table[stf.ID] = &stf
	return stf, nil
}

func (repo *staffRepository) QueryAllStaff(_ context.Context) ([]staff.Staff, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *staffRepository) GetStaffByID(_ context.Context, id string) (staff.Staff, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if stf, ok := repo.db.table[id]; ok {
		return *stf, nil
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) GetStaffByUsername(_ context.Context, username string) (staff.Staff, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, stf := range repo.query() {
		if stf.Username == username {
			return stf, nil
		}
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) GetStaffByEmail(_ context.Context, email string) (staff.Staff, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, stf := range repo.query() {
		if stf.Email == email {
			return stf, nil
		}
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) GetStaffByUsernameOrEmail(_ context.Context, username string) (staff.Staff, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, stf := range repo.query() {
		if stf.Username == username || stf.Email == username {
			return stf, nil
		}
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) FilterStaff(_ context.Context, filter staff.QueryFilter) ([]staff.Staff, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	filter.Clean()
	matched := make([]staff.Staff, 0)
	for _, stf := range repo.query() {
		if !staffMatches(stf, filter) {
			continue
		}
		matched = append(matched, stf)
	}
	return matched, nil
}

func staffMatches(stf staff.Staff, filter staff.QueryFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(stf.Name), search) &&
			!strings.Contains(strings.ToLower(stf.Username), search) &&
			!strings.Contains(strings.ToLower(stf.Email), search) {
			return false
		}
	}
	if len(filter.Roles) > 0 {
		var any bool
		for _, role := range filter.Roles {
			if stf.RoleStartsWith(role) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	if filter.IsActive != nil && stf.IsActive != *filter.IsActive {
		return false
	}
	if !filter.CreatedFrom.IsZero() && stf.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && stf.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func (repo *staffRepository) UpdateStaff(_ context.Context, stf staff.Staff, isActive *bool) (staff.Staff, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[stf.ID]
	if !ok {
		return staff.Staff{}, staff.ErrNotFound
	}

	if stf.Name != "" {
		orig.Name = stf.Name
	}
	if stf.Username != "" {
		orig.Username = stf.Username
	}
	if stf.Email != "" {
		orig.Email = stf.Email
	}
	if stf.Roles != nil {
		orig.Roles = stf.Roles
	}
	if stf.PasswordHash != nil {
		orig.PasswordHash = stf.PasswordHash
	}
	if !stf.LastLogin.IsZero() {
		orig.LastLogin = stf.LastLogin
	}
	if !stf.UpdatedAt.IsZero() {
		orig.UpdatedAt = stf.UpdatedAt
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	return *orig, nil
}

func (repo *staffRepository) DeleteStaffByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func (repo *staffRepository) CountStaff(_ context.Context) (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return int64(len(repo.db.table)), nil
}

func (repo *staffRepository) CountStaffByRole(_ context.Context) (map[string]int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	counts := make(map[string]int64)
	for _, stf := range repo.db.table {
		for _, role := range stf.Roles {
			counts[role]++
		}
	}
	return counts, nil
}
