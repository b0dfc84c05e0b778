package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/initiative/internal/snapshot"
)

// ErrSnapshotNotFound is returned when no snapshot exists for an encounter name.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepository keeps encounter documents in the encounter_snapshots table.
type SnapshotRepository struct {
	db *pgxpool.Pool
}

// NewSnapshotRepository creates a SnapshotRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSnapshotRepository(db *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Get returns the document saved under name.
//
// Postcondition: Returns ErrSnapshotNotFound when name has never been saved.
func (r *SnapshotRepository) Get(ctx context.Context, name string) (snapshot.Document, time.Time, error) {
	var (
		data      []byte
		updatedAt time.Time
	)
	err := r.db.QueryRow(ctx,
		`SELECT state, updated_at FROM encounter_snapshots WHERE name = $1`,
		name,
	).Scan(&data, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return snapshot.Document{}, time.Time{}, ErrSnapshotNotFound
		}
		return snapshot.Document{}, time.Time{}, fmt.Errorf("querying snapshot: %w", err)
	}
	doc, err := snapshot.Decode(data)
	if err != nil {
		return snapshot.Document{}, time.Time{}, err
	}
	return doc, updatedAt, nil
}

// Put upserts the document under name.
//
// Precondition: name must be non-empty.
func (r *SnapshotRepository) Put(ctx context.Context, name string, doc snapshot.Document) error {
	if name == "" {
		return fmt.Errorf("snapshot name must not be empty")
	}
	data, err := snapshot.Encode(doc)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO encounter_snapshots (name, state, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (name) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		name, data,
	)
	if err != nil {
		return fmt.Errorf("upserting snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot saved under name. Deleting a missing name is not an error.
func (r *SnapshotRepository) Delete(ctx context.Context, name string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM encounter_snapshots WHERE name = $1`, name); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}

// Names lists saved encounter names, most recently updated first.
func (r *SnapshotRepository) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT name FROM encounter_snapshots ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning snapshot names: %w", err)
	}
	return names, nil
}

// Encounter binds the repository to one encounter name as a snapshot.Store.
func (r *SnapshotRepository) Encounter(name string) snapshot.Store {
	return encounterStore{repo: r, name: name}
}

type encounterStore struct {
	repo *SnapshotRepository
	name string
}

func (e encounterStore) Load(ctx context.Context) (snapshot.Document, error) {
	doc, _, err := e.repo.Get(ctx, e.name)
	if errors.Is(err, ErrSnapshotNotFound) {
		return snapshot.Empty(), nil
	}
	return doc, err
}

func (e encounterStore) Save(ctx context.Context, doc snapshot.Document) error {
	return e.repo.Put(ctx, e.name, doc)
}
