package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"reflect"

	"github.com/goliatone/go-tracker/internal/hydrate"
)

// ErrUncomparableSubject indicates a decoded subject cannot be used as a map
// key.
var ErrUncomparableSubject = errors.New("subject is not comparable")

// Record is one decoded document entry.
type Record[K comparable, V any] struct {
	Subject K
	States  map[string]V
}

type encodedRecord struct {
	Item  any            `json:"item"`
	State map[string]any `json:"state"`
}

type rawRecord struct {
	Item  json.RawMessage            `json:"item"`
	State map[string]json.RawMessage `json:"state"`
}

// EncodeError reports a subject or payload the codec or encoding/json could
// not serialise.
type EncodeError struct {
	Subject any
	State   string
	Err     error
}

func (e *EncodeError) Error() string {
	if e.State == "" {
		return fmt.Sprintf("storage: encode subject %v: %v", e.Subject, e.Err)
	}
	return fmt.Sprintf("storage: encode payload subject=%v state=%q: %v", e.Subject, e.State, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// DecodeError reports a record that could not be read back.
type DecodeError struct {
	Record int
	State  string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.State == "" {
		return fmt.Sprintf("storage: decode record %d: %v", e.Record, e.Err)
	}
	return fmt.Sprintf("storage: decode record %d state=%q: %v", e.Record, e.State, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeDocument builds the subject-keyed document. Records follow the order
// of subjects; each record lists only the states holding that subject.
func EncodeDocument[K comparable, V any](codec Codec[K, V], subjects []K, partitions map[string]map[K]V, indent string) ([]byte, error) {
	rows := make([]encodedRecord, 0, len(subjects))
	for _, subject := range subjects {
		item, err := codec.EncodeSubject(subject)
		if err != nil {
			return nil, &EncodeError{Subject: subject, Err: err}
		}
		states := map[string]any{}
		for name, partition := range partitions {
			payload, ok := partition[subject]
			if !ok {
				continue
			}
			encoded, err := codec.EncodePayload(payload)
			if err != nil {
				return nil, &EncodeError{Subject: subject, State: name, Err: err}
			}
			states[name] = encoded
		}
		rows = append(rows, encodedRecord{Item: item, State: states})
	}

	var (
		data []byte
		err  error
	)
	if indent != "" {
		data, err = json.MarshalIndent(rows, "", indent)
	} else {
		data, err = json.Marshal(rows)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: marshal document: %w", err)
	}
	return data, nil
}

// DecodeDocument parses a whole document. Records are returned in document
// order. Every record needs an "item" and a "state" object; an empty state
// object is allowed.
func DecodeDocument[K comparable, V any](codec Codec[K, V], data []byte) ([]Record[K, V], error) {
	return decodeDocument(codec, data, "")
}

// decodeDocument names source in decode failures when codec is the default
// codec.
func decodeDocument[K comparable, V any](codec Codec[K, V], data []byte, source string) ([]Record[K, V], error) {
	var rows []rawRecord
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("storage: parse document: %w", err)
	}
	located, _ := codec.(locatedCodec[K, V])

	records := make([]Record[K, V], 0, len(rows))
	for i, row := range rows {
		if row.Item == nil {
			return nil, &DecodeError{Record: i, Err: fmt.Errorf("missing %q field", "item")}
		}
		if row.State == nil {
			return nil, &DecodeError{Record: i, Err: fmt.Errorf("missing %q field", "state")}
		}

		var (
			subject K
			err     error
		)
		if located != nil {
			subject, err = located.decodeSubjectAt(hydrate.Context{Source: source, Record: i, Field: "item"}, row.Item)
		} else {
			subject, err = codec.DecodeSubject(row.Item)
		}
		if err != nil {
			return nil, &DecodeError{Record: i, Err: err}
		}
		if !Comparable(subject) {
			return nil, &DecodeError{Record: i, Err: fmt.Errorf("%w: %T", ErrUncomparableSubject, subject)}
		}

		states := make(map[string]V, len(row.State))
		for name, raw := range row.State {
			var payload V
			if located != nil {
				payload, err = located.decodePayloadAt(hydrate.Context{Source: source, Record: i, Field: name}, raw)
			} else {
				payload, err = codec.DecodePayload(raw)
			}
			if err != nil {
				return nil, &DecodeError{Record: i, State: name, Err: err}
			}
			states[name] = payload
		}
		records = append(records, Record[K, V]{Subject: subject, States: states})
	}
	return records, nil
}

// Comparable reports whether subject can key a map. Subjects typed as an
// interface may hold maps, slices or funcs decoded from JSON, which cannot.
func Comparable(subject any) bool {
	v := reflect.ValueOf(subject)
	return !v.IsValid() || v.Comparable()
}

// Pairs ranges over records as (subject, states) pairs.
func Pairs[K comparable, V any](records []Record[K, V]) iter.Seq2[K, map[string]V] {
	return func(yield func(K, map[string]V) bool) {
		for _, record := range records {
			if !yield(record.Subject, record.States) {
				return
			}
		}
	}
}
