package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"wear_relay/internal/models"

	"github.com/google/uuid"
)

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

const (
	insertEventSQL = `
		INSERT INTO relay_events (id, occurred_at, type, path, node_id, message, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	selectEventsSQL = `SELECT id, occurred_at, type, path, node_id, message, meta FROM relay_events`

	sqliteTimestampLayout = "2006-01-02 15:04:05"
)

// Append inserts a new event. If EventID or OccurredAt are empty, they’re set.
func (r *EventSQLite) Append(ctx context.Context, e models.RelayEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}

	var metaPtr *string
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.EventID,
		e.OccurredAt.Format(sqliteTimestampLayout),
		strings.ToUpper(strings.TrimSpace(e.Type)),
		e.Path,
		e.NodeID,
		e.Description,
		metaPtr,
	)
	if err != nil {
		return fmt.Errorf("insert relay event %s: %w", e.Type, err)
	}
	return nil
}

// List returns events filtered by [from, to] (inclusive) and/or type, ordered ASC.
func (r *EventSQLite) List(ctx context.Context, from, to time.Time, typ string) ([]models.RelayEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC())
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}

	q := selectEventsSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query relay events: %w", err)
	}
	defer rows.Close()

	out := make([]models.RelayEvent, 0, 64)
	for rows.Next() {
		var (
			ev      models.RelayEvent
			path    sql.NullString
			nodeID  sql.NullString
			metaStr sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.Type, &path, &nodeID, &ev.Description, &metaStr); err != nil {
			return nil, fmt.Errorf("scan relay event: %w", err)
		}
		ev.OccurredAt = ev.OccurredAt.UTC()
		ev.Path = path.String
		ev.NodeID = nodeID.String

		if metaStr.Valid && metaStr.String != "" {
			var v any
			if err := json.Unmarshal([]byte(metaStr.String), &v); err == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = metaStr.String // keep raw if malformed
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
