package event

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// SelectedColumns is the fixed projection requested from the analytical
// store. A snapshot is only constructible from a row carrying exactly this
// column set; anything else signals a broken query elsewhere and fails
// construction outright.
var SelectedColumns = []string{
	"event_id",
	"project_id",
	"message",
	"title",
	"type",
	"location",
	"culprit",
	"timestamp",
	"group_id",
	"platform",

	// required to provide store-side tags
	"tags.key",
	"tags.value",

	// required to synthesize the "user" interface without the payload
	"user_id",
	"username",
	"ip_address",
	"email",
}

// ErrReadOnly is returned when persisting a snapshot-backed event. Snapshots
// are ephemeral per-query views over the analytical store and are never the
// system of record.
var ErrReadOnly = errors.New("snapshot events are read-only")

// NewSnapshot materializes an analytical row into an Event. The denormalized
// columns are authoritative for title, location, culprit, ip address and
// datetime; the payload is never consulted for those fields.
func NewSnapshot(row map[string]interface{}, deps Deps) (*Event, error) {
	if err := checkColumns(row); err != nil {
		return nil, err
	}

	datetime, err := rowTime(row["timestamp"])
	if err != nil {
		return nil, fmt.Errorf("snapshot row has invalid timestamp: %w", err)
	}

	backing := &snapshotBacking{
		title:     rowString(row["title"]),
		location:  rowString(row["location"]),
		culprit:   rowString(row["culprit"]),
		eventType: rowString(row["type"]),
		ipAddress: rowOptString(row["ip_address"]),
		userID:    rowOptString(row["user_id"]),
		username:  rowOptString(row["username"]),
		email:     rowOptString(row["email"]),
		tagKeys:   rowStringSlice(row["tags.key"]),
		tagValues: rowStringSlice(row["tags.value"]),
	}

	return &Event{
		EventID:   rowString(row["event_id"]),
		ProjectID: rowInt(row["project_id"]),
		GroupID:   rowInt(row["group_id"]),
		Message:   rowString(row["message"]),
		Platform:  rowString(row["platform"]),
		Datetime:  datetime,
		deps:      deps,
		backing:   backing,
	}, nil
}

func checkColumns(row map[string]interface{}) error {
	var missing []string
	for _, col := range SelectedColumns {
		if _, ok := row[col]; !ok {
			missing = append(missing, col)
		}
	}

	expected := make(map[string]bool, len(SelectedColumns))
	for _, col := range SelectedColumns {
		expected[col] = true
	}
	var extra []string
	for col := range row {
		if !expected[col] {
			extra = append(extra, col)
		}
	}

	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return fmt.Errorf("snapshot row column set mismatch: missing %v, unexpected %v", missing, extra)
}

// snapshotBacking drives an Event purely from a flat analytical row plus
// lazy payload fetch. It has no row identity and no write path.
type snapshotBacking struct {
	title     string
	location  string
	culprit   string
	eventType string
	ipAddress *string
	userID    *string
	username  *string
	email     *string
	tagKeys   []string
	tagValues []string
}

func (b *snapshotBacking) Variant() string { return "snuba" }

// Ident returns the event id string; a snapshot never has a row id.
func (b *snapshotBacking) Ident(e *Event) string { return e.EventID }

func (b *snapshotBacking) NextEvent(ctx context.Context, e *Event) (*Event, error) {
	return nil, nil
}

func (b *snapshotBacking) PrevEvent(ctx context.Context, e *Event) (*Event, error) {
	return nil, nil
}

func (b *snapshotBacking) Save(ctx context.Context, e *Event) error {
	return ErrReadOnly
}

// ProvideTags reconstructs tags by zipping the two parallel column arrays.
// Missing or length-mismatched arrays yield an empty set; the store remains
// authoritative either way, so there is no payload fallback.
func (b *snapshotBacking) ProvideTags() (Tags, bool) {
	if len(b.tagKeys) == 0 || len(b.tagKeys) != len(b.tagValues) {
		return Tags{}, true
	}

	tags := make(Tags, 0, len(b.tagKeys))
	for i, key := range b.tagKeys {
		tags = append(tags, Tag{Key: key, Value: b.tagValues[i]})
	}
	tags.sort()
	return tags, true
}

// ProvideInterface synthesizes the user interface from the four scalar user
// columns when at least one is set. Every other interface defers to the
// generic payload-parsing path.
func (b *snapshotBacking) ProvideInterface(name string) (map[string]interface{}, bool) {
	if name != "user" {
		return nil, false
	}
	if b.userID == nil && b.username == nil && b.email == nil && b.ipAddress == nil {
		return nil, false
	}

	user := make(map[string]interface{}, 4)
	if b.userID != nil {
		user["id"] = *b.userID
	}
	if b.username != nil {
		user["username"] = *b.username
	}
	if b.email != nil {
		user["email"] = *b.email
	}
	if b.ipAddress != nil {
		user["ip_address"] = *b.ipAddress
	}
	return user, true
}

// Denormalized columns were written at ingestion time and are authoritative;
// the payload is never parsed for these even though it would agree.

func (b *snapshotBacking) TitleColumn() (string, bool)    { return b.title, true }
func (b *snapshotBacking) LocationColumn() (string, bool) { return b.location, true }
func (b *snapshotBacking) CulpritColumn() (string, bool)  { return b.culprit, true }

func (b *snapshotBacking) IPAddressColumn() (string, bool) {
	if b.ipAddress == nil {
		return "", true
	}
	return *b.ipAddress, true
}

func (b *snapshotBacking) TypeColumn() (string, bool) {
	if b.eventType == "" {
		return TypeDefault, true
	}
	return b.eventType, true
}

// Row value coercion. The analytical driver scans into a mix of value and
// pointer types depending on column nullability.

func rowString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case *string:
		if s != nil {
			return *s
		}
	}
	return ""
}

func rowOptString(v interface{}) *string {
	switch s := v.(type) {
	case *string:
		if s == nil || *s == "" {
			return nil
		}
		out := *s
		return &out
	case string:
		if s == "" {
			return nil
		}
		out := s
		return &out
	}
	return nil
}

func rowInt(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case uint64:
		return int64(n)
	case int32:
		return int64(n)
	case uint32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err == nil {
			return parsed
		}
	}
	return 0
}

// rowTime accepts the driver's native time type or the store's string
// encoding. All analytical timestamps are UTC; string forms are forced to
// UTC regardless of offset rendering.
func rowTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable timestamp %q", t)
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
}

func rowStringSlice(v interface{}) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, item := range s {
			out = append(out, rowString(item))
		}
		return out
	}
	return nil
}
