package platform

import (
	"context"

	"wear_relay/internal/models"
)

// NodeClient lists the nodes currently reachable.
type NodeClient interface {
	ConnectedNodes(ctx context.Context) ([]models.Node, error)
}

// MessageListener receives path-addressed messages.
type MessageListener interface {
	OnMessageReceived(ev models.MessageEvent)
}

// MessageClient delivers messages to a node and fans inbound ones out to listeners.
type MessageClient interface {
	SendMessage(ctx context.Context, nodeID, path string, data []byte) error
	AddListener(l MessageListener)
	RemoveListener(l MessageListener)
}

// DataClient upserts data items into the data-sync store.
type DataClient interface {
	PutDataItem(ctx context.Context, path string, payload []byte) error
}
