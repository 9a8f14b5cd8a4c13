package snuba

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faultline-hq/faultline/internal/core/event"
	"github.com/faultline-hq/faultline/internal/nodestore"
)

// fakeRows replays pre-built column-keyed rows through the Rows surface.
type fakeRows struct {
	rows []map[string]interface{}
	pos  int
	err  error
}

func (f *fakeRows) Next() bool {
	return f.pos < len(f.rows)
}

func (f *fakeRows) Scan(dests ...interface{}) error {
	row := f.rows[f.pos]
	f.pos++
	for i, col := range event.SelectedColumns {
		switch d := dests[i].(type) {
		case *uint64:
			*d = row[col].(uint64)
		case *time.Time:
			*d = row[col].(time.Time)
		case *[]string:
			*d = row[col].([]string)
		case **string:
			if row[col] == nil {
				*d = nil
			} else {
				s := row[col].(string)
				*d = &s
			}
		case *string:
			*d = row[col].(string)
		default:
			return fmt.Errorf("unexpected scan destination %T for %s", d, col)
		}
	}
	return nil
}

func (f *fakeRows) Close() error { return nil }
func (f *fakeRows) Err() error   { return f.err }

type fakeQuerier struct {
	rows  *fakeRows
	err   error
	query string
	args  []interface{}
}

func (f *fakeQuerier) Query(_ context.Context, query string, args ...interface{}) (Rows, error) {
	f.query = query
	f.args = args
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func snubaTestRow() map[string]interface{} {
	return map[string]interface{}{
		"event_id":   "deadbeefdeadbeefdeadbeefdeadbeef",
		"project_id": uint64(1),
		"message":    "boom",
		"title":      "ValueError: boom",
		"type":       "error",
		"location":   "app/views.py",
		"culprit":    "app.views in index",
		"timestamp":  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		"group_id":   uint64(10),
		"platform":   "python",
		"tags.key":   []string{"browser"},
		"tags.value": []string{"Chrome"},
		"user_id":    "u1",
		"username":   nil,
		"ip_address": "10.0.0.1",
		"email":      nil,
	}
}

func testStore(querier Querier) *Store {
	deps := event.Deps{Nodes: nodestore.NewMemoryStore()}
	return NewStore(querier, deps, 90)
}

func TestGetEvent(t *testing.T) {
	ctx := context.Background()
	querier := &fakeQuerier{rows: &fakeRows{rows: []map[string]interface{}{snubaTestRow()}}}
	store := testStore(querier)

	e, err := store.GetEvent(ctx, 1, "deadbeefdeadbeefdeadbeefdeadbeef")
	require.NoError(t, err)

	assert.Equal(t, "snuba", e.BackingVariant())
	assert.Equal(t, int64(1), e.ProjectID)
	assert.Equal(t, int64(10), e.GroupID)
	assert.Equal(t, "deadbeefdeadbeefdeadbeefdeadbeef", e.Ident())

	title, err := e.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ValueError: boom", title)

	tags, err := e.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, event.Tags{{Key: "browser", Value: "Chrome"}}, tags)
}

func TestGetEventQueryShape(t *testing.T) {
	ctx := context.Background()
	querier := &fakeQuerier{rows: &fakeRows{rows: []map[string]interface{}{snubaTestRow()}}}
	store := testStore(querier)

	_, err := store.GetEvent(ctx, 1, "deadbeefdeadbeefdeadbeefdeadbeef")
	require.NoError(t, err)

	for _, col := range event.SelectedColumns {
		assert.Contains(t, querier.query, quoteColumn(col))
	}
	assert.Contains(t, querier.query, "LIMIT 2")

	require.Len(t, querier.args, 3)
	assert.Equal(t, int64(1), querier.args[0])
	assert.Equal(t, "deadbeefdeadbeefdeadbeefdeadbeef", querier.args[1])

	// Retention clamps the scan window to roughly now minus 90 days.
	since, ok := querier.args[2].(time.Time)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, -90), since, time.Minute)
}

func TestGetEventNoRows(t *testing.T) {
	ctx := context.Background()
	querier := &fakeQuerier{rows: &fakeRows{}}
	store := testStore(querier)

	_, err := store.GetEvent(ctx, 1, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetEventAmbiguousIdentity(t *testing.T) {
	ctx := context.Background()
	querier := &fakeQuerier{rows: &fakeRows{rows: []map[string]interface{}{snubaTestRow(), snubaTestRow()}}}
	store := testStore(querier)

	_, err := store.GetEvent(ctx, 1, "deadbeefdeadbeefdeadbeefdeadbeef")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetEventQueryError(t *testing.T) {
	ctx := context.Background()
	querier := &fakeQuerier{err: fmt.Errorf("connection refused")}
	store := testStore(querier)

	_, err := store.GetEvent(ctx, 1, "deadbeefdeadbeefdeadbeefdeadbeef")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestGetEventNullableUserColumns(t *testing.T) {
	ctx := context.Background()
	querier := &fakeQuerier{rows: &fakeRows{rows: []map[string]interface{}{snubaTestRow()}}}
	store := testStore(querier)

	e, err := store.GetEvent(ctx, 1, "deadbeefdeadbeefdeadbeefdeadbeef")
	require.NoError(t, err)

	user, err := e.GetInterface(ctx, "user")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user["id"])
	assert.Equal(t, "10.0.0.1", user["ip_address"])
	assert.NotContains(t, user, "username")
	assert.NotContains(t, user, "email")
}
