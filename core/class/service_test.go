package class_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/chuolink/shule/core"
	"github.com/chuolink/shule/core/class"
	inmemdb "github.com/chuolink/shule/storage/inmem"
)

func setup(t *testing.T) *class.Service {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("opening inmem db: %v", err)
	}
	return class.NewService(inmemdb.NewClassRepository(db))
}

func TestService_AddSlot(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	cls, err := svc.Create(ctx, class.NewClass{Name: "CS Year 1", Program: "computer science", Campus: "Main", Capacity: 30})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err = svc.AddSlot(ctx, cls.ID, class.NewSlot{Day: 1, StartMin: 540, EndMin: 600, Subject: "Algorithms"}); err != nil {
		t.Fatalf("AddSlot() error = %v", err)
	}

	tests := []struct {
		name    string
		slot    class.NewSlot
		wantErr bool
	}{
		{"end before start", class.NewSlot{Day: 1, StartMin: 600, EndMin: 540, Subject: "Databases"}, true},
		{"zero-length slot", class.NewSlot{Day: 1, StartMin: 600, EndMin: 600, Subject: "Databases"}, true},
		{"overlapping slot", class.NewSlot{Day: 1, StartMin: 570, EndMin: 630, Subject: "Databases"}, true},
		{"adjacent slot", class.NewSlot{Day: 1, StartMin: 600, EndMin: 660, Subject: "Databases"}, false},
		{"same time other day", class.NewSlot{Day: 2, StartMin: 540, EndMin: 600, Subject: "Databases"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddSlot(ctx, cls.ID, tt.slot)
			if (err != nil) != tt.wantErr {
				t.Fatalf("AddSlot() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if _, ok := err.(*core.ValidationError); !ok {
					t.Errorf("AddSlot() error type = %T, want *core.ValidationError", err)
				}
			}
		})
	}

	cls, err = svc.GetByID(ctx, cls.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(cls.Slots) != 3 {
		t.Errorf("class holds %d slots, want 3", len(cls.Slots))
	}
}

func TestService_RemoveSlot(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	cls, err := svc.Create(ctx, class.NewClass{Name: "CS Year 1", Program: "computer science", Campus: "Main"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	slot, err := svc.AddSlot(ctx, cls.ID, class.NewSlot{Day: 1, StartMin: 540, EndMin: 600, Subject: "Algorithms"})
	if err != nil {
		t.Fatalf("AddSlot() error = %v", err)
	}

	if err = svc.RemoveSlot(ctx, cls.ID, "nope"); errors.Cause(err) != class.ErrSlotNotFound {
		t.Errorf("RemoveSlot(unknown) error = %v, want %v", err, class.ErrSlotNotFound)
	}
	if err = svc.RemoveSlot(ctx, cls.ID, slot.ID); err != nil {
		t.Fatalf("RemoveSlot() error = %v", err)
	}

	cls, _ = svc.GetByID(ctx, cls.ID)
	if len(cls.Slots) != 0 {
		t.Errorf("class holds %d slots after removal, want 0", len(cls.Slots))
	}
}
