package fusion

import (
	"encoding/json"
	"fmt"

	"fichas/internal/conform"
	"fichas/internal/ficha"
)

// DecodePartial turns one chunk response into a partial. Fences are stripped
// first; anything other than a JSON object fails with
// conform.ErrDecodeFailure so the caller can exclude the chunk.
func DecodePartial(raw string) (ficha.Partial, error) {
	s := conform.Clean(raw)
	if s == "" {
		return nil, fmt.Errorf("fusion: decode partial: %w: empty response", conform.ErrDecodeFailure)
	}
	var p ficha.Partial
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, fmt.Errorf("fusion: decode partial: %w: %w", conform.ErrDecodeFailure, err)
	}
	if p == nil {
		return nil, fmt.Errorf("fusion: decode partial: %w: null object", conform.ErrDecodeFailure)
	}
	return p, nil
}
