package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"wear_relay/internal/models"
)

type NodeRepository struct {
	db *sql.DB
}

func NewNodeRepository(db *sql.DB) *NodeRepository {
	return &NodeRepository{db: db}
}

var _ Authorization = (*NodeRepository)(nil)

const (
	insertNodeSQL         = `INSERT INTO nodes (node_id, secret_hash) VALUES (?, ?)`
	selectNodeByNodeIDSQL = `SELECT id, node_id, secret_hash FROM nodes WHERE node_id = ?`
)

// Create pairs a new node and returns its row ID.
func (r *NodeRepository) Create(nodeID, secretHash string) (int, error) {
	res, err := r.db.Exec(insertNodeSQL, nodeID, secretHash)
	if err != nil {
		return 0, fmt.Errorf("insert node %q: %w", nodeID, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for node %q: %w", nodeID, err)
	}
	return int(lastID), nil
}

// GetByNodeID fetches a paired node. Returns (nil, nil) if not found.
func (r *NodeRepository) GetByNodeID(nodeID string) (*models.PairedNode, error) {
	var n models.PairedNode
	err := r.db.QueryRow(selectNodeByNodeIDSQL, nodeID).Scan(&n.ID, &n.NodeID, &n.SecretHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select node %q: %w", nodeID, err)
	}
	return &n, nil
}
