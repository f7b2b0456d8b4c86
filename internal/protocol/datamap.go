package protocol

import (
	"fmt"
	"math"
	"sort"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// DataMap is a small keyed payload. Numbers travel as protobuf Struct values.
type DataMap map[string]any

// PutInt stores an integer under key, replacing any previous value.
func (m DataMap) PutInt(key string, v int) { m[key] = v }

// PutFloat stores a float under key, replacing any previous value.
func (m DataMap) PutFloat(key string, v float32) { m[key] = v }

// GetInt returns the value under key as an int.
func (m DataMap) GetInt(key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		if v == math.Trunc(v) {
			return int(v), true
		}
	case float32:
		if float64(v) == math.Trunc(float64(v)) {
			return int(v), true
		}
	}
	return 0, false
}

// GetFloat returns the value under key as a float32.
func (m DataMap) GetFloat(key string) (float32, bool) {
	switch v := m[key].(type) {
	case float32:
		return v, true
	case float64:
		return float32(v), true
	case int:
		return float32(v), true
	}
	return 0, false
}

// Keys returns the keys in sorted order.
func (m DataMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bytes serializes the map. A nil map yields nil bytes.
func (m DataMap) Bytes() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("build data map struct: %w", err)
	}
	b, err := proto.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal data map: %w", err)
	}
	return b, nil
}

// ParseDataMap decodes bytes produced by Bytes. Empty input yields a nil map.
func ParseDataMap(b []byte) (DataMap, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("unmarshal data map: %w", err)
	}
	return DataMap(s.AsMap()), nil
}
