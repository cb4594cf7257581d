package inmemdb

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chuolink/shule/core/class"
)

type classRepository struct {
	db *classTable
}

func NewClassRepository(db *DB) class.Repository {
	return &classRepository{db: db.classes}
}

func (repo *classRepository) query() []class.Class {
	all := make([]class.Class, 0, len(repo.db.table))
	for _, cls := range repo.db.table {
		all = append(all, *cls)
	}
	return all
}

func (repo *classRepository) CreateClass(_ context.Context, cls class.Class) (class.Class, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cls.ID = primitive.NewObjectID().Hex()
	repo.db.table[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) QueryAllClasses(_ context.Context) ([]class.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *classRepository) GetClassByID(_ context.Context, id string) (class.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cls, ok := repo.db.table[id]; ok {
		return *cls, nil
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *classRepository) FilterClasses(_ context.Context, filter class.QueryFilter) ([]class.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	filter.Clean()
	matched := make([]class.Class, 0)
	for _, cls := range repo.query() {
		if filter.Search != "" && !strings.Contains(strings.ToLower(cls.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Program != "" && cls.Program != filter.Program {
			continue
		}
		if filter.Campus != "" && cls.Campus != filter.Campus {
			continue
		}
		matched = append(matched, cls)
	}
	return matched, nil
}

func (repo *classRepository) UpdateClass(_ context.Context, cls class.Class) (class.Class, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[cls.ID]
	if !ok {
		return class.Class{}, class.ErrNotFound
	}

	orig.Name = cls.Name
	orig.Program = cls.Program
	orig.Campus = cls.Campus
	orig.Capacity = cls.Capacity
	orig.TeacherLabel = cls.TeacherLabel
	orig.UpdatedAt = cls.UpdatedAt
	return *orig, nil
}

func (repo *classRepository) DeleteClassesByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func (repo *classRepository) AppendSlot(_ context.Context, id string, slot class.Slot) (class.Class, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cls, ok := repo.db.table[id]
	if !ok {
		return class.Class{}, class.ErrNotFound
	}

	cls.Slots = append(cls.Slots, slot)
	return *cls, nil
}

func (repo *classRepository) RemoveSlot(_ context.Context, id, slotID string) (class.Class, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cls, ok := repo.db.table[id]
	if !ok {
		return class.Class{}, class.ErrNotFound
	}

	for i, slot := range cls.Slots {
		if slot.ID == slotID {
			cls.Slots = append(cls.Slots[:i], cls.Slots[i+1:]...)
			return *cls, nil
		}
	}
	return class.Class{}, class.ErrSlotNotFound
}

func (repo *classRepository) CountClasses(_ context.Context) (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return int64(len(repo.db.table)), nil
}
