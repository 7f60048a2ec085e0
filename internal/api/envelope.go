package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// The backend wraps list responses inconsistently: some endpoints return
// {"data":[...]}, some {"items":[...]}, some {"results":[...]}, and some a
// bare array. normalizeList folds all four into the inner array and fails
// loudly on anything else instead of guessing.
type listEnvelope struct {
	Data    json.RawMessage `json:"data"`
	Items   json.RawMessage `json:"items"`
	Results json.RawMessage `json:"results"`
}

var errUnknownEnvelope = errors.New("unrecognized list envelope")

func normalizeList(raw []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errUnknownEnvelope
	}

	if trimmed[0] == '[' {
		return trimmed, nil
	}

	var envelope listEnvelope
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decode list envelope: %w", err)
	}

	for _, candidate := range []json.RawMessage{
		envelope.Data,
		envelope.Items,
		envelope.Results,
	} {
		inner := bytes.TrimSpace(candidate)
		if len(inner) > 0 && inner[0] == '[' {
			return inner, nil
		}
	}

	return nil, errUnknownEnvelope
}

func decodeList[T any](raw []byte) ([]T, error) {
	inner, err := normalizeList(raw)
	if err != nil {
		return nil, err
	}

	var out []T
	if err := json.Unmarshal(inner, &out); err != nil {
		return nil, fmt.Errorf("decode list payload: %w", err)
	}

	return out, nil
}
