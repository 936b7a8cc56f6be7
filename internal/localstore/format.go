package localstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tonimelisma/lifegoal-go/internal/model"
)

// Format identifies which on-disk layout a stored value uses.
type Format int

const (
	// FormatMissing means no value is stored under the key.
	FormatMissing Format = iota
	// FormatArray is a bare JSON array of entities. Written by older
	// versions for every collection; updatedAt is unknown.
	FormatArray
	// FormatEnvelope is {"updatedAt": <epoch ms>, "<field>": [...]}.
	FormatEnvelope
	// FormatCorrupt is anything that fails to decode as either layout.
	FormatCorrupt
)

func (f Format) String() string {
	switch f {
	case FormatMissing:
		return "missing"
	case FormatArray:
		return "array"
	case FormatEnvelope:
		return "envelope"
	case FormatCorrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

var errNotEnvelope = errors.New("value is neither an array nor an object")

// decode detects the layout of raw and normalizes it into a Collection.
// field names the entity array inside an envelope. Corrupt input yields an
// empty collection alongside FormatCorrupt and the decode error.
func decode[T any](raw []byte, field string) (model.Collection[T], Format, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return model.Collection[T]{}, FormatMissing, nil
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return model.Collection[T]{}, FormatCorrupt, err
		}

		return model.Collection[T]{Items: items}, FormatArray, nil
	case '{':
		var env map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return model.Collection[T]{}, FormatCorrupt, err
		}

		var c model.Collection[T]

		// A missing or non-array entity field decodes as empty, and a
		// missing or non-numeric updatedAt as unknown.
		if rawItems, ok := env[field]; ok {
			if err := json.Unmarshal(rawItems, &c.Items); err != nil {
				c.Items = nil
			}
		}

		if rawAt, ok := env["updatedAt"]; ok {
			var ms int64
			if err := json.Unmarshal(rawAt, &ms); err == nil && ms > 0 {
				c.UpdatedAt = time.UnixMilli(ms)
			}
		}

		return c, FormatEnvelope, nil
	default:
		return model.Collection[T]{}, FormatCorrupt, errNotEnvelope
	}
}

// encodeEnvelope writes items under field together with updatedAt.
func encodeEnvelope[T any](field string, items []T, at time.Time) ([]byte, error) {
	if items == nil {
		items = []T{}
	}

	env := map[string]any{
		"updatedAt": at.UnixMilli(),
		field:       items,
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("localstore: encoding %s: %w", field, err)
	}

	return data, nil
}

// encodeArray writes items as a bare JSON array.
func encodeArray[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("localstore: encoding array: %w", err)
	}

	return data, nil
}
