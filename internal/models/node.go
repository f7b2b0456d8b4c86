package models

// Node is a paired device endpoint that can receive messages.
type Node struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Nearby      bool   `json:"nearby"`
}

// PairedNode is a handheld account allowed to connect to the relay.
type PairedNode struct {
	ID         int    `json:"id"`
	NodeID     string `json:"node_id"`
	SecretHash string `json:"-"` // don’t expose hash
}
