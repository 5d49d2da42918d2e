package docstore

import (
	"fmt"
	"slices"

	"github.com/JaimeStill/job-board/pkg/query"
)

// Normalize deep-copies data into the JSON data model.
func Normalize(data map[string]any) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	n, err := query.Normalize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return n.(map[string]any), nil
}

// ApplyUpdate returns a copy of current with patch merged shallowly and ops
// applied in order. Keys in patch are literal field names. An array op on a
// field that is missing or not an array starts from an empty array.
func ApplyUpdate(current, patch map[string]any, ops []ArrayOp) (map[string]any, error) {
	out, err := Normalize(current)
	if err != nil {
		return nil, err
	}
	p, err := Normalize(patch)
	if err != nil {
		return nil, err
	}
	for k, v := range p {
		out[k] = v
	}

	for _, op := range ops {
		value, err := query.Normalize(op.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		arr, _ := out[op.Field].([]any)

		switch op.Kind {
		case ArrayUnion:
			if !slices.ContainsFunc(arr, func(e any) bool { return query.EqualValues(e, value) }) {
				arr = append(slices.Clone(arr), value)
			}
		case ArrayRemove:
			arr = slices.DeleteFunc(slices.Clone(arr), func(e any) bool { return query.EqualValues(e, value) })
		default:
			return nil, fmt.Errorf("%w: array op %q", ErrUnsupported, op.Kind)
		}
		if arr == nil {
			arr = []any{}
		}
		out[op.Field] = arr
	}
	return out, nil
}
