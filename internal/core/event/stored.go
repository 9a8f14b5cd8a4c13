package event

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// neighborWindow bounds how many candidate rows a neighbor lookup fetches
// per side. Timestamps have one-second granularity, so ordering within a
// second is resolved locally by row id; accuracy degrades when more than
// neighborWindow events in a group share one second. That bound is accepted
// instead of maintaining a composite (datetime, id) index at this store's
// write volume, and it doubles as a resource-protection limit.
const neighborWindow = 5

// StoredOps is the relational store surface a stored event needs for
// neighbor lookups and persistence.
type StoredOps interface {
	// WindowAfter returns up to limit events of the group with
	// datetime >= at, excluding excludeID, ordered by datetime ascending.
	WindowAfter(ctx context.Context, groupID int64, at time.Time, excludeID int64, limit int) ([]*Event, error)

	// WindowBefore returns up to limit events of the group with
	// datetime <= at, excluding excludeID, ordered by datetime descending.
	WindowBefore(ctx context.Context, groupID int64, at time.Time, excludeID int64, limit int) ([]*Event, error)

	// Insert persists the event row.
	Insert(ctx context.Context, e *Event) error
}

// StoredRow is the relational projection of an event row.
type StoredRow struct {
	ID        int64
	EventID   string
	ProjectID int64
	GroupID   int64
	Message   string
	Platform  string
	Datetime  time.Time
	TimeSpent *int64
}

// NewStored binds a relational row to the event core. The payload stays
// unloaded until a derived field needs it.
func NewStored(row StoredRow, deps Deps, ops StoredOps) *Event {
	return &Event{
		ID:        row.ID,
		EventID:   row.EventID,
		ProjectID: row.ProjectID,
		GroupID:   row.GroupID,
		Message:   row.Message,
		Platform:  row.Platform,
		Datetime:  row.Datetime,
		TimeSpent: row.TimeSpent,
		deps:      deps,
		backing:   &storedBacking{ops: ops},
	}
}

// storedBacking drives an Event from the relational backend plus the blob
// store.
type storedBacking struct {
	ops StoredOps
}

func (b *storedBacking) Variant() string { return "postgres" }

func (b *storedBacking) Ident(e *Event) string {
	return strconv.FormatInt(e.ID, 10)
}

// NextEvent fetches a bounded window ordered by datetime, then resolves the
// precise (datetime, id) comparison locally: the store cannot afford the
// composite ordering, so strictly-after filtering happens here.
func (b *storedBacking) NextEvent(ctx context.Context, e *Event) (*Event, error) {
	if b.ops == nil {
		return nil, nil
	}

	window, err := b.ops.WindowAfter(ctx, e.GroupID, e.Datetime, e.ID, neighborWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch next-event window: %w", err)
	}

	var next *Event
	for _, cand := range window {
		if !orderedAfter(cand, e) {
			continue
		}
		if next == nil || orderedAfter(next, cand) {
			next = cand
		}
	}
	return next, nil
}

// PrevEvent is the mirror of NextEvent.
func (b *storedBacking) PrevEvent(ctx context.Context, e *Event) (*Event, error) {
	if b.ops == nil {
		return nil, nil
	}

	window, err := b.ops.WindowBefore(ctx, e.GroupID, e.Datetime, e.ID, neighborWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prev-event window: %w", err)
	}

	var prev *Event
	for _, cand := range window {
		if !orderedAfter(e, cand) {
			continue
		}
		if prev == nil || orderedAfter(cand, prev) {
			prev = cand
		}
	}
	return prev, nil
}

// orderedAfter reports whether a sorts strictly after b by the composite
// (datetime, id) event ordering. Ids break ties within the one-second
// timestamp granularity.
func orderedAfter(a, b *Event) bool {
	if a.Datetime.After(b.Datetime) {
		return true
	}
	return a.Datetime.Equal(b.Datetime) && a.ID > b.ID
}

// Save writes the payload body to the blob store under the derived node id,
// then inserts the metadata row. An event id is minted when absent.
func (b *storedBacking) Save(ctx context.Context, e *Event) error {
	if b.ops == nil {
		return fmt.Errorf("event store not configured for save")
	}
	if e.ProjectID == 0 {
		return fmt.Errorf("cannot save event without a project")
	}
	if e.EventID == "" {
		e.EventID = strings.ReplaceAll(uuid.New().String(), "-", "")
	}

	if e.cache.payload != nil && e.deps.Nodes != nil {
		nodeID := GenerateNodeID(e.ProjectID, e.EventID)
		if err := e.deps.Nodes.Set(ctx, nodeID, e.cache.payload); err != nil {
			return fmt.Errorf("failed to store payload node: %w", err)
		}
	}

	if err := b.ops.Insert(ctx, e); err != nil {
		return fmt.Errorf("failed to insert event row: %w", err)
	}
	return nil
}
