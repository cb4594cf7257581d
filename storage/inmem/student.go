package inmemdb

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chuolink/shule/core/student"
)

type studentRepository struct {
	db *studentTable
}

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.students}
}

func (repo *studentRepository) query() []student.Student {
	all := make([]student.Student, 0, len(repo.db.table))
	for _, st := range repo.db.table {
		all = append(all, *st)
	}
	return all
}

func (repo *studentRepository) CreateStudent(_ context.Context, st student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	st.ID = primitive.NewObjectID().Hex()
	repo.db.table[st.ID] = &st
	return st, nil
}

func (repo *studentRepository) QueryAllStudents(_ context.Context) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if st, ok := repo.db.table[id]; ok {
		return *st, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) FilterStudents(_ context.Context, filter student.QueryFilter) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	filter.Clean()
	matched := make([]student.Student, 0)
	for _, st := range repo.query() {
		if !studentMatches(st, filter) {
			continue
		}
		matched = append(matched, st)
	}
	return matched, nil
}

func studentMatches(st student.Student, filter student.QueryFilter) bool {
	if filter.Search != "" && !strings.Contains(strings.ToLower(st.Name), strings.ToLower(filter.Search)) {
		return false
	}
	if filter.Gender != "" && string(st.Gender) != filter.Gender {
		return false
	}
	if filter.Program != "" && st.Program != filter.Program {
		return false
	}
	if filter.Campus != "" && st.Campus != filter.Campus {
		return false
	}
	level := st.EffectiveLevel()
	if filter.MinLevel > 0 && level < filter.MinLevel {
		return false
	}
	if filter.MaxLevel > 0 && level > filter.MaxLevel {
		return false
	}
	if !filter.CreatedFrom.IsZero() && st.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && st.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func (repo *studentRepository) UpdateStudent(_ context.Context, st student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[st.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}

	// demographics only; the ledger and remarks are append-only and
	// untouched by updates
	orig.Name = st.Name
	orig.Gender = st.Gender
	orig.Program = st.Program
	orig.Campus = st.Campus
	orig.Phone = st.Phone
	orig.Email = st.Email
	orig.UpdatedAt = st.UpdatedAt
	return *orig, nil
}

func (repo *studentRepository) DeleteStudentsByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func (repo *studentRepository) AppendLevelEvents(_ context.Context, id string, events []student.LevelEvent, update student.LevelUpdate) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	st, ok := repo.db.table[id]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}

	st.LevelHistory = append(st.LevelHistory, events...)
	st.CurrentLevel = update.CurrentLevel
	if update.AdmittedOn != nil {
		st.Admitted = true
		st.AdmittedOn = *update.AdmittedOn
	}
	return *st, nil
}

func (repo *studentRepository) AppendRemark(_ context.Context, id string, rm student.Remark) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	st, ok := repo.db.table[id]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}

	st.Remarks = append(st.Remarks, rm)
	return *st, nil
}

func (repo *studentRepository) CountStudents(_ context.Context) (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return int64(len(repo.db.table)), nil
}
