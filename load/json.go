package load

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/vecport/graph"
)

// JSONLoader parses strict JSON.
//
// Decoding walks the token stream instead of unmarshaling into Go maps:
// map iteration order would destroy the key order the detection
// semantics depend on. Numbers keep their source lexeme.
type JSONLoader struct{}

// Name returns the unique name of the loader ("json").
func (JSONLoader) Name() string { return "json" }

// Load parses data into an object graph.
func (JSONLoader) Load(data []byte) (*graph.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: json: %w", ErrDeserialize, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: json: trailing data after top-level value", ErrDeserialize)
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (*graph.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := graph.Mapping()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected key token %v", keyTok)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key, val)
			}
			// consume '}'
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil

		case '[':
			s := graph.Sequence()
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				s.Append(val)
			}
			// consume ']'
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return s, nil

		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t.String())
		}

	case string:
		return graph.String(t), nil
	case json.Number:
		return graph.Number(t.String()), nil
	case bool:
		return graph.Bool(t), nil
	case nil:
		return graph.Null(), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}
