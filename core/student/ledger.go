package student

import (
	"time"

	"github.com/google/uuid"
)

// BackfillActorLabel marks synthetic events created by ledger backfills.
const BackfillActorLabel = "backfill"

// SyntheticEvents builds the backfill events for levels from..to that are
// not already present in existing, all timestamped achievedOn (typically
// the student's CreatedAt). It returns nil when the ledger already covers
// the range, which is what makes backfills idempotent: re-running one
// finds every level present and appends nothing.
func SyntheticEvents(from, to int, achievedOn time.Time, existing []LevelEvent) []LevelEvent {
	if from < MinLevel {
		from = MinLevel
	}
	if to > MaxLevel {
		to = MaxLevel
	}

	present := make(map[int]bool, len(existing))
	for _, ev := range existing {
		present[ev.Level] = true
	}

	var events []LevelEvent
	for lvl := from; lvl <= to; lvl++ {
		if present[lvl] {
			continue
		}
		events = append(events, LevelEvent{
			ID:         uuid.New().String(),
			Level:      lvl,
			AchievedOn: achievedOn.UTC(),
			Actor:      Actor{Label: BackfillActorLabel},
			Notes:      "backfilled from pre-ledger level tracking",
		})
	}
	return events
}
