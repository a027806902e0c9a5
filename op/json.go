package op

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType is returned when decoding meets an operation_type, filter
// type or transform type this package does not know.
var ErrUnknownType = errors.New("op: unknown type")

// wireOperation is the JSON envelope:
//
//	{"id":"…","timestamp":0,"operation":{"operation_type":"Filter","params":{…}}}
type wireOperation struct {
	ID        string     `json:"id"`
	Timestamp int64      `json:"timestamp"`
	Operation wireParams `json:"operation"`
}

type wireParams struct {
	Type   Kind            `json:"operation_type"`
	Params json.RawMessage `json:"params"`
}

// MarshalJSON implements json.Marshaler.
func (o Operation) MarshalJSON() ([]byte, error) {
	if o.Params == nil {
		return nil, fmt.Errorf("op %q: no params", o.ID)
	}
	params, err := json.Marshal(o.Params)
	if err != nil {
		return nil, fmt.Errorf("op %q: %w", o.ID, err)
	}
	return json.Marshal(wireOperation{
		ID:        o.ID,
		Timestamp: o.Timestamp,
		Operation: wireParams{Type: o.Params.Kind(), Params: params},
	})
}

// UnmarshalJSON implements json.Unmarshaler. It rejects unknown kinds and
// unknown filter or transform types; range checks are left to Validate.
// A filter without an intensity decodes with intensity 1.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var w wireOperation
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if len(bytes.TrimSpace(w.Operation.Params)) == 0 {
		return fmt.Errorf("op %q: missing params", w.ID)
	}

	p, err := decodeParams(w.Operation.Type, w.Operation.Params)
	if err != nil {
		return fmt.Errorf("op %q: %w", w.ID, err)
	}

	*o = Operation{ID: w.ID, Timestamp: w.Timestamp, Params: p}
	return nil
}

func decodeParams(kind Kind, raw json.RawMessage) (Params, error) {
	switch kind {
	case KindFilter:
		var f struct {
			Type      FilterType `json:"type"`
			Intensity *float64   `json:"intensity"`
			Radius    float64    `json:"radius"`
		}
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, err
		}
		if !f.Type.valid() {
			return nil, fmt.Errorf("%w: filter %q", ErrUnknownType, f.Type)
		}
		intensity := 1.0
		if f.Intensity != nil {
			intensity = *f.Intensity
		}
		return Filter{Type: f.Type, Intensity: intensity, Radius: f.Radius}, nil

	case KindAdjustment:
		var a Adjustment
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return a, nil

	case KindTransform:
		var t Transform
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		if !t.Type.valid() {
			return nil, fmt.Errorf("%w: transform %q", ErrUnknownType, t.Type)
		}
		return t, nil

	case KindCrop:
		var c Crop
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return c, nil

	default:
		return nil, fmt.Errorf("%w: operation_type %q", ErrUnknownType, kind)
	}
}

// DecodeList decodes a JSON array of operations.
func DecodeList(data []byte) ([]Operation, error) {
	var ops []Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, err
	}
	return ops, nil
}
