package postgres

import (
	"encoding/json"
	"fmt"
)

func encodeMetadata(md map[string]any) ([]byte, error) {
	if md == nil {
		md = map[string]any{}
	}
	b, err := json.Marshal(md)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return b, nil
}

func decodeMetadata(b []byte) (map[string]any, error) {
	md := map[string]any{}
	if len(b) == 0 {
		return md, nil
	}
	if err := json.Unmarshal(b, &md); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return md, nil
}
