package class

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/chuolink/shule/core"
)

var (
	// errors
	ErrNotFound     = errors.New("class not found")
	ErrSlotNotFound = errors.New("timetable slot not found")
)

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class) (Class, error)
		QueryAllClasses(ctx context.Context) ([]Class, error)
		GetClassByID(ctx context.Context, id string) (Class, error)
		// FilterClasses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Class.Name.
		FilterClasses(ctx context.Context, filter QueryFilter) ([]Class, error)
		UpdateClass(ctx context.Context, cls Class) (Class, error)
		DeleteClassesByID(ctx context.Context, ids ...string) error
		AppendSlot(ctx context.Context, id string, slot Slot) (Class, error)
		RemoveSlot(ctx context.Context, id, slotID string) (Class, error)
		CountClasses(ctx context.Context) (int64, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewClass) (Class, error) {
	now := time.Now().UTC()
	cls := Class{
		Name:         nc.Name,
		Program:      nc.Program,
		Campus:       nc.Campus,
		Capacity:     nc.Capacity,
		TeacherLabel: nc.TeacherLabel,
		Slots:        []Slot{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Class, error) {
	return svc.repo.QueryAllClasses(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClassByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Class, error) {
	return svc.repo.FilterClasses(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateClass) (Class, error) {
	cls, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return Class{}, err
	}
	cls.Name = uc.Name
	cls.Program = uc.Program
	cls.Campus = uc.Campus
	cls.TeacherLabel = uc.TeacherLabel
	if uc.Capacity != nil {
		cls.Capacity = *uc.Capacity
	}
	cls.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClass(ctx, cls)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteClassesByID(ctx, ids...)
}

// AddSlot appends a timetable slot after checking it does not overlap an
// existing slot on the same day.
func (svc *Service) AddSlot(ctx context.Context, id string, ns NewSlot) (Slot, error) {
	if ns.EndMin <= ns.StartMin {
		return Slot{}, core.NewValidationError(
			errors.New("slot must end after it starts"),
			core.FieldError{Field: "end_min", Error: "must be greater than start_min"},
		)
	}

	cls, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return Slot{}, err
	}

	slot := Slot{
		ID:       uuid.New().String(),
		Day:      time.Weekday(ns.Day),
		StartMin: ns.StartMin,
		EndMin:   ns.EndMin,
		Subject:  ns.Subject,
		Room:     ns.Room,
	}
	for _, existing := range cls.Slots {
		if slot.Overlaps(existing) {
			return Slot{}, core.NewValidationError(
				errors.Errorf("slot overlaps %q on %s", existing.Subject, existing.Day),
				core.FieldError{Field: "start_min", Error: "overlaps an existing slot on this day"},
			)
		}
	}

	if _, err := svc.repo.AppendSlot(ctx, id, slot); err != nil {
		return Slot{}, err
	}
	return slot, nil
}

func (svc *Service) RemoveSlot(ctx context.Context, id, slotID string) error {
	_, err := svc.repo.RemoveSlot(ctx, id, slotID)
	return err
}
