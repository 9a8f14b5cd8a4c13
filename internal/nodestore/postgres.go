package nodestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	queryGetNode = `
		SELECT data FROM nodestore WHERE id = $1
	`

	querySetNode = `
		INSERT INTO nodestore (id, data, timestamp)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, timestamp = EXCLUDED.timestamp
	`

	queryDeleteNode = `
		DELETE FROM nodestore WHERE id = $1
	`
)

// getMultiConcurrency bounds the number of in-flight point reads a single
// GetMulti call may issue.
const getMultiConcurrency = 4

// PostgresStore implements Store on a plain key/value table, sharing the
// relational backend's connection pool.
type PostgresStore struct {
	db         *sql.DB
	stmtGet    *sql.Stmt
	stmtSet    *sql.Stmt
	stmtDelete *sql.Stmt
}

// NewPostgresStore prepares statements against db. The nodestore table must
// already exist; schema setup is handled by migrations.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	stmtGet, err := db.Prepare(queryGetNode)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare get statement: %w", err)
	}

	stmtSet, err := db.Prepare(querySetNode)
	if err != nil {
		stmtGet.Close()
		return nil, fmt.Errorf("failed to prepare set statement: %w", err)
	}

	stmtDelete, err := db.Prepare(queryDeleteNode)
	if err != nil {
		stmtGet.Close()
		stmtSet.Close()
		return nil, fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	slog.Info("[Nodestore] Postgres store initialized")

	return &PostgresStore{
		db:         db,
		stmtGet:    stmtGet,
		stmtSet:    stmtSet,
		stmtDelete: stmtDelete,
	}, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (map[string]interface{}, error) {
	var raw []byte
	err := s.stmtGet.QueryRowContext(ctx, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch node %s: %w", id, err)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode node %s: %w", id, err)
	}
	return payload, nil
}

// GetMulti issues bounded concurrent point reads. Missing nodes are skipped;
// the first transport failure cancels the remaining reads.
func (s *PostgresStore) GetMulti(ctx context.Context, ids []string) (map[string]map[string]interface{}, error) {
	out := make(map[string]map[string]interface{}, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(getMultiConcurrency)

	for _, id := range ids {
		g.Go(func() error {
			payload, err := s.Get(gctx, id)
			if err == ErrNotFound {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = payload
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Set(ctx context.Context, id string, payload map[string]interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode node %s: %w", id, err)
	}

	if _, err := s.stmtSet.ExecContext(ctx, id, raw, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to store node %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.stmtDelete.ExecContext(ctx, id); err != nil {
		return fmt.Errorf("failed to delete node %s: %w", id, err)
	}
	return nil
}

// Close releases the prepared statements. The shared *sql.DB is owned by the
// caller and is not closed here.
func (s *PostgresStore) Close() error {
	var firstErr error

	if err := s.stmtGet.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close get statement: %w", err)
	}
	if err := s.stmtSet.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close set statement: %w", err)
	}
	if err := s.stmtDelete.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close delete statement: %w", err)
	}

	return firstErr
}
