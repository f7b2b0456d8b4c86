package hub

// Frame types.
const (
	FrameMessage = "message"
	FrameData    = "data"
)

// Envelope is the JSON frame exchanged with a node. Data holds the encoded
// DataMap and travels base64 encoded.
type Envelope struct {
	Type   string         `json:"type"`
	Path   string         `json:"path,omitempty"`
	Data   []byte         `json:"data,omitempty"`
	Values map[string]any `json:"values,omitempty"`
}
