package event

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/faultline-hq/faultline/internal/nodestore"
	"github.com/stretchr/testify/require"
)

var errGroupNotFound = fmt.Errorf("group not found")

type fakeGroups struct {
	groups map[int64]*Group
	calls  int
}

func (f *fakeGroups) GroupByID(_ context.Context, id int64) (*Group, error) {
	f.calls++
	if g, ok := f.groups[id]; ok {
		return g, nil
	}
	return nil, errGroupNotFound
}

type fakeProjects struct {
	projects map[int64]*Project
}

func (f *fakeProjects) ProjectByID(_ context.Context, id int64) (*Project, error) {
	if p, ok := f.projects[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("project not found")
}

type fakeGrouper struct {
	variants []Variant
}

func (f *fakeGrouper) Variants(_ map[string]interface{}, _ string) []Variant {
	return f.variants
}

type fakeOps struct {
	after    []*Event
	before   []*Event
	inserted []*Event
}

func (f *fakeOps) WindowAfter(_ context.Context, _ int64, _ time.Time, _ int64, limit int) ([]*Event, error) {
	if len(f.after) > limit {
		return f.after[:limit], nil
	}
	return f.after, nil
}

func (f *fakeOps) WindowBefore(_ context.Context, _ int64, _ time.Time, _ int64, limit int) ([]*Event, error) {
	if len(f.before) > limit {
		return f.before[:limit], nil
	}
	return f.before, nil
}

func (f *fakeOps) Insert(_ context.Context, e *Event) error {
	f.inserted = append(f.inserted, e)
	return nil
}

// testDeps wires an in-memory blob store plus simple resolvers around one
// group/project pair.
func testDeps(t *testing.T) (Deps, *nodestore.MemoryStore) {
	t.Helper()

	nodes := nodestore.NewMemoryStore()
	deps := Deps{
		Nodes: nodes,
		Groups: &fakeGroups{groups: map[int64]*Group{
			10: {ID: 10, ProjectID: 1, Culprit: "app.views in index", Level: "error", ShortID: "BACKEND-4K"},
		}},
		Projects: &fakeProjects{projects: map[int64]*Project{
			1: {ID: 1, Slug: "backend", Name: "Backend", OrgSlug: "acme", Options: map[string]string{}},
		}},
		Grouper: &fakeGrouper{},
	}
	return deps, nodes
}

// storedEvent builds a relational-backed event over the given payload.
func storedEvent(t *testing.T, deps Deps, payload map[string]interface{}) *Event {
	t.Helper()

	row := StoredRow{
		ID:        101,
		EventID:   "c0ffee00c0ffee00c0ffee00c0ffee00",
		ProjectID: 1,
		GroupID:   10,
		Message:   "legacy message",
		Platform:  "python",
		Datetime:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	e := NewStored(row, deps, &fakeOps{})
	if payload != nil {
		nodeID := GenerateNodeID(row.ProjectID, row.EventID)
		require.NoError(t, deps.Nodes.Set(context.Background(), nodeID, payload))
	}
	return e
}

// snapshotRow returns a row with exactly the selected column set, with
// sensible defaults that individual tests override.
func snapshotRow() map[string]interface{} {
	return map[string]interface{}{
		"event_id":   "deadbeefdeadbeefdeadbeefdeadbeef",
		"project_id": int64(1),
		"message":    "boom",
		"title":      "ValueError: boom",
		"type":       "error",
		"location":   "app/views.py",
		"culprit":    "app.views in index",
		"timestamp":  "2026-03-01T12:00:00+00:00",
		"group_id":   int64(10),
		"platform":   "python",
		"tags.key":   []string{"browser", "server_name"},
		"tags.value": []string{"Chrome", "web-1"},
		"user_id":    "u1",
		"username":   "alice",
		"ip_address": "10.0.0.1",
		"email":      "alice@example.com",
	}
}
