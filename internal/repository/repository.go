package repository

import (
	"context"
	"database/sql"
	"time"

	"wear_relay/internal/models"
)

// Authorization stores paired handheld nodes.
type Authorization interface {
	Create(nodeID, secretHash string) (int, error)
	GetByNodeID(nodeID string) (*models.PairedNode, error)
}

// EventRepo is the append-only relay event log.
type EventRepo interface {
	Append(ctx context.Context, e models.RelayEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.RelayEvent, error)
}

// DataItemRepo keeps the current value per data-sync path.
type DataItemRepo interface {
	Upsert(ctx context.Context, item models.DataItem) error
	Get(ctx context.Context, path string) (models.DataItem, error)
}

type Repository struct {
	EventRepo EventRepo
	DataItems DataItemRepo
	Auth      Authorization
}

// NewRepository wires the SQLite-backed repositories.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		EventRepo: NewEventSQLite(db),
		DataItems: NewDataItemSQLite(db),
		Auth:      NewNodeRepository(db),
	}
}
