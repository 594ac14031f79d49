package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fieldwise/fieldwise/internal/record"
)

// marshalFields converts a record's field map to JSON TEXT for storage.
// Values are stored as native JSON types (string/number/bool); unset
// fields are omitted entirely so a cleared field and a never-set field
// serialize identically.
func marshalFields(rec record.Record) (string, error) {
	m := make(map[string]any, len(rec.Fields))
	for name, v := range rec.Fields {
		if !v.IsSet() {
			continue
		}
		m[name] = v.Native()
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	// Encoder adds a trailing newline, remove it.
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalFields parses stored JSON TEXT back into typed values. The
// schema supplies each field's kind; stored fields the schema no longer
// defines are dropped. Numbers decode via json.Number to avoid float64
// precision loss.
func unmarshalFields(schema *record.Schema, id, data string) (record.Record, error) {
	rec := record.New(id)
	if data == "" || data == "{}" {
		return rec, nil
	}

	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return record.Record{}, fmt.Errorf("unmarshal fields: %w", err)
	}

	for name, v := range raw {
		def, ok := schema.Field(name)
		if !ok {
			continue
		}
		val, err := decodeValue(def, v)
		if err != nil {
			return record.Record{}, fmt.Errorf("unmarshal field %q: %w", name, err)
		}
		if val.IsSet() {
			rec.Set(name, val)
		}
	}
	return rec, nil
}

func decodeValue(def record.FieldDef, v any) (record.Value, error) {
	if v == nil {
		return record.Unset(), nil
	}
	switch def.Kind {
	case record.KindText:
		s, ok := v.(string)
		if !ok {
			return record.Value{}, fmt.Errorf("expected string, got %T", v)
		}
		return record.Text(s), nil
	case record.KindLongText:
		s, ok := v.(string)
		if !ok {
			return record.Value{}, fmt.Errorf("expected string, got %T", v)
		}
		return record.LongText(s), nil
	case record.KindEnum:
		s, ok := v.(string)
		if !ok {
			return record.Value{}, fmt.Errorf("expected string, got %T", v)
		}
		return record.Enum(s), nil
	case record.KindDate:
		s, ok := v.(string)
		if !ok {
			return record.Value{}, fmt.Errorf("expected string, got %T", v)
		}
		return record.Date(s), nil
	case record.KindInt:
		n, ok := v.(json.Number)
		if !ok {
			return record.Value{}, fmt.Errorf("expected number, got %T", v)
		}
		i, err := n.Int64()
		if err != nil {
			return record.Value{}, err
		}
		return record.Int(i), nil
	case record.KindBool:
		b, ok := v.(bool)
		if !ok {
			return record.Value{}, fmt.Errorf("expected bool, got %T", v)
		}
		return record.Bool(b), nil
	default:
		return record.Value{}, fmt.Errorf("unknown kind %q", def.Kind)
	}
}
