package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgDB is the subset of pgxpool.Pool the gateway uses.
type pgDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresGateway stores snapshots in the wizard_snapshots table.
type PostgresGateway struct {
	db pgDB
}

// NewPostgresGateway builds a Postgres-backed gateway.
func NewPostgresGateway(db pgDB) *PostgresGateway {
	if db == nil {
		panic("wizard: pgx pool cannot be nil")
	}
	return &PostgresGateway{db: db}
}

var _ PersistenceGateway = (*PostgresGateway)(nil)

func (g *PostgresGateway) Load(ctx context.Context, key SnapshotKey) (*Snapshot, error) {
	var payload []byte
	err := g.db.QueryRow(ctx, `
		SELECT payload FROM wizard_snapshots WHERE salon_id = $1 AND session_id = $2
	`, key.SalonID, key.SessionID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("wizard: failed to load snapshot: %w", err)
	}
	return decodeSnapshot(payload)
}

func (g *PostgresGateway) Save(ctx context.Context, key SnapshotKey, snap Snapshot) error {
	payload, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	savedAt := time.UnixMilli(snap.Timestamp).UTC()
	if _, err := g.db.Exec(ctx, `
		INSERT INTO wizard_snapshots (salon_id, session_id, payload, saved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (salon_id, session_id) DO UPDATE SET payload = EXCLUDED.payload, saved_at = EXCLUDED.saved_at
	`, key.SalonID, key.SessionID, payload, savedAt); err != nil {
		return fmt.Errorf("wizard: failed to persist snapshot: %w", err)
	}
	return nil
}

func (g *PostgresGateway) Delete(ctx context.Context, key SnapshotKey) error {
	if _, err := g.db.Exec(ctx, `DELETE FROM wizard_snapshots WHERE salon_id = $1 AND session_id = $2`, key.SalonID, key.SessionID); err != nil {
		return fmt.Errorf("wizard: failed to delete snapshot: %w", err)
	}
	return nil
}

// PurgeBefore deletes snapshots saved before cutoff and reports how many
// rows were removed.
func (g *PostgresGateway) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := g.db.Exec(ctx, `DELETE FROM wizard_snapshots WHERE saved_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("wizard: failed to purge snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
