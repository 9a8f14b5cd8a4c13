// Package nodestore is the content-addressed blob store holding raw event
// payload bodies. Keys are derived deterministically from
// (project_id, event_id), so no secondary index is needed to find a payload.
package nodestore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no payload exists for a node id.
var ErrNotFound = errors.New("node not found")

// Store is the blob store contract.
type Store interface {
	// Get returns the payload stored under id, or ErrNotFound.
	Get(ctx context.Context, id string) (map[string]interface{}, error)

	// GetMulti returns the payloads for the given ids. Missing ids are
	// simply absent from the result; only transport failures error.
	GetMulti(ctx context.Context, ids []string) (map[string]map[string]interface{}, error)

	// Set writes payload under id, replacing any previous value.
	Set(ctx context.Context, id string, payload map[string]interface{}) error

	// Delete removes the payload stored under id. Deleting a missing id is
	// not an error.
	Delete(ctx context.Context, id string) error
}
