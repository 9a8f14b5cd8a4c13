package event

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataLazyLoadAndCache(t *testing.T) {
	ctx := context.Background()
	deps, nodes := testDeps(t)
	e := storedEvent(t, deps, map[string]interface{}{"message": "boom"})

	data, err := e.Data(ctx)
	require.NoError(t, err)
	assert.Equal(t, "boom", data["message"])

	// Once loaded, the payload is cached for the instance's lifetime even
	// if the blob disappears underneath.
	require.NoError(t, nodes.Delete(ctx, GenerateNodeID(e.ProjectID, e.EventID)))
	again, err := e.Data(ctx)
	require.NoError(t, err)
	assert.Equal(t, "boom", again["message"])
}

func TestDataMissingNodeYieldsEmptyBody(t *testing.T) {
	deps, _ := testDeps(t)
	e := storedEvent(t, deps, nil)

	data, err := e.Data(context.Background())
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestInterfacesCanonicalAndLegacyEquivalent(t *testing.T) {
	ctx := context.Background()
	deps, _ := testDeps(t)

	current := storedEvent(t, deps, map[string]interface{}{
		"user": map[string]interface{}{"id": "u1"},
	})
	got, err := current.GetInterface(ctx, "user")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got["id"])

	deps2, _ := testDeps(t)
	legacy := storedEvent(t, deps2, map[string]interface{}{
		"sentry.interfaces.User": map[string]interface{}{"id": "u1"},
	})
	got, err = legacy.GetInterface(ctx, "user")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got["id"])

	// Legacy names are accepted on lookup as well.
	got, err = legacy.GetInterface(ctx, "sentry.interfaces.User")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestInterfacesSkipsUnknownAndScalarKeys(t *testing.T) {
	deps, _ := testDeps(t)
	e := storedEvent(t, deps, map[string]interface{}{
		"user":        map[string]interface{}{"id": "u1"},
		"custom_blob": map[string]interface{}{"x": 1},
		"message":     "not an interface",
	})

	ifaces, err := e.Interfaces(context.Background())
	require.NoError(t, err)
	assert.Contains(t, ifaces, "user")
	assert.NotContains(t, ifaces, "custom_blob")
	assert.NotContains(t, ifaces, "message")
}

func TestTitleAndLocationByEventType(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		payload      map[string]interface{}
		wantTitle    string
		wantLocation string
	}{
		{
			name: "error event",
			payload: map[string]interface{}{
				"type": "error",
				"metadata": map[string]interface{}{
					"type":     "ValueError",
					"value":    "boom",
					"filename": "app/views.py",
				},
			},
			wantTitle:    "ValueError: boom",
			wantLocation: "app/views.py",
		},
		{
			name: "csp event",
			payload: map[string]interface{}{
				"type": "csp",
				"metadata": map[string]interface{}{
					"directive": "script-src",
					"uri":       "evil.example.com",
				},
			},
			wantTitle:    "Blocked 'script-src' from 'evil.example.com'",
			wantLocation: "evil.example.com",
		},
		{
			name: "default event",
			payload: map[string]interface{}{
				"type":     "default",
				"metadata": map[string]interface{}{"title": "Something happened"},
			},
			wantTitle: "Something happened",
		},
		{
			name:      "unknown type falls back to default strategy",
			payload:   map[string]interface{}{"type": "mystery"},
			wantTitle: "<unlabeled event>",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			deps, _ := testDeps(t)
			e := storedEvent(t, deps, tc.payload)

			title, err := e.Title(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.wantTitle, title)

			location, err := e.Location(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.wantLocation, location)
		})
	}
}

func TestCulpritFallsBackToGroup(t *testing.T) {
	ctx := context.Background()

	deps, _ := testDeps(t)
	withCulprit := storedEvent(t, deps, map[string]interface{}{"culprit": "worker.tasks in run"})
	culprit, err := withCulprit.Culprit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "worker.tasks in run", culprit)

	deps2, _ := testDeps(t)
	without := storedEvent(t, deps2, map[string]interface{}{})
	culprit, err = without.Culprit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "app.views in index", culprit)
}

func TestGroupNotFoundPropagates(t *testing.T) {
	deps, _ := testDeps(t)
	e := storedEvent(t, deps, map[string]interface{}{})
	e.GroupID = 999

	_, err := e.Group(context.Background())
	require.ErrorIs(t, err, errGroupNotFound)
}

func TestGroupMemoized(t *testing.T) {
	ctx := context.Background()
	deps, _ := testDeps(t)
	groups := deps.Groups.(*fakeGroups)
	e := storedEvent(t, deps, map[string]interface{}{})

	_, err := e.Group(ctx)
	require.NoError(t, err)
	_, err = e.Group(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, groups.calls)
}

func TestIPAddressPaths(t *testing.T) {
	ctx := context.Background()

	deps, _ := testDeps(t)
	fromUser := storedEvent(t, deps, map[string]interface{}{
		"user": map[string]interface{}{"ip_address": "10.1.2.3"},
		"request": map[string]interface{}{
			"env": map[string]interface{}{"REMOTE_ADDR": "192.168.0.1"},
		},
	})
	ip, err := fromUser.IPAddress(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10.1.2.3", ip)

	deps2, _ := testDeps(t)
	fromRequest := storedEvent(t, deps2, map[string]interface{}{
		"request": map[string]interface{}{
			"env": map[string]interface{}{"REMOTE_ADDR": "192.168.0.1"},
		},
	})
	ip, err = fromRequest.IPAddress(ctx)
	require.NoError(t, err)
	assert.Equal(t, "192.168.0.1", ip)

	deps3, _ := testDeps(t)
	none := storedEvent(t, deps3, map[string]interface{}{})
	ip, err = none.IPAddress(ctx)
	require.NoError(t, err)
	assert.Empty(t, ip)
}

func TestLegacyAndRealMessage(t *testing.T) {
	ctx := context.Background()

	deps, _ := testDeps(t)
	e := storedEvent(t, deps, map[string]interface{}{
		"logentry": map[string]interface{}{"formatted": "boom at 12:00", "message": "boom at %s"},
	})

	real, err := e.RealMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "boom at 12:00", real)

	deps2, _ := testDeps(t)
	bare := storedEvent(t, deps2, map[string]interface{}{})
	real, err = bare.RealMessage(ctx)
	require.NoError(t, err)
	assert.Empty(t, real)

	legacy, err := bare.LegacyMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "legacy message", legacy)
}
