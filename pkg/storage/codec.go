package storage

import (
	"encoding/json"

	"github.com/goliatone/go-tracker/internal/hydrate"
)

// Codec converts subjects and payloads to and from their JSON form. Encode
// results are passed to json.Marshal; Decode receives the raw fragment.
type Codec[K comparable, V any] interface {
	EncodeSubject(subject K) (any, error)
	DecodeSubject(raw json.RawMessage) (K, error)
	EncodePayload(payload V) (any, error)
	DecodePayload(raw json.RawMessage) (V, error)
}

// locatedCodec decodes with the record position attached, so failures name
// the record and state they came from.
type locatedCodec[K comparable, V any] interface {
	decodeSubjectAt(ctx hydrate.Context, raw json.RawMessage) (K, error)
	decodePayloadAt(ctx hydrate.Context, raw json.RawMessage) (V, error)
}

// DefaultCodec marshals values as-is and decodes through encoding/json.
type DefaultCodec[K comparable, V any] struct {
	subjects *hydrate.Decoder[K]
	payloads *hydrate.Decoder[V]
}

// NewDefaultCodec returns the encoding/json codec. useNumber decodes numbers
// inside untyped values as json.Number.
func NewDefaultCodec[K comparable, V any](useNumber bool) DefaultCodec[K, V] {
	return newDefaultCodec(config[K, V]{useNumber: useNumber})
}

func newDefaultCodec[K comparable, V any](cfg config[K, V]) DefaultCodec[K, V] {
	var subjectOpts []hydrate.DecoderOption[K]
	var payloadOpts []hydrate.DecoderOption[V]
	if cfg.useNumber {
		subjectOpts = append(subjectOpts, hydrate.WithUseNumber[K]())
		payloadOpts = append(payloadOpts, hydrate.WithUseNumber[V]())
	}
	if cfg.strictPayloads {
		payloadOpts = append(payloadOpts, hydrate.WithDisallowUnknownFields[V]())
	}
	for _, upgrade := range cfg.payloadUpgrades {
		payloadOpts = append(payloadOpts, hydrate.WithPreHook[V](func(ctx hydrate.Context, raw json.RawMessage) (json.RawMessage, error) {
			return upgrade(ctx.Field, raw)
		}))
	}
	for _, check := range cfg.payloadChecks {
		payloadOpts = append(payloadOpts, hydrate.WithPostHook[V](func(ctx hydrate.Context, payload *V) error {
			return check(ctx.Field, *payload)
		}))
	}
	for _, check := range cfg.subjectChecks {
		subjectOpts = append(subjectOpts, hydrate.WithPostHook[K](func(_ hydrate.Context, subject *K) error {
			return check(*subject)
		}))
	}
	return DefaultCodec[K, V]{
		subjects: hydrate.NewDecoder(subjectOpts...),
		payloads: hydrate.NewDecoder(payloadOpts...),
	}
}

func (c DefaultCodec[K, V]) EncodeSubject(subject K) (any, error) {
	return subject, nil
}

func (c DefaultCodec[K, V]) DecodeSubject(raw json.RawMessage) (K, error) {
	return c.decodeSubjectAt(hydrate.Context{Field: "item"}, raw)
}

func (c DefaultCodec[K, V]) EncodePayload(payload V) (any, error) {
	return payload, nil
}

func (c DefaultCodec[K, V]) DecodePayload(raw json.RawMessage) (V, error) {
	return c.decodePayloadAt(hydrate.Context{Field: "state"}, raw)
}

func (c DefaultCodec[K, V]) decodeSubjectAt(ctx hydrate.Context, raw json.RawMessage) (K, error) {
	if c.subjects == nil {
		return hydrate.NewDecoder[K]().Decode(ctx, raw)
	}
	return c.subjects.Decode(ctx, raw)
}

func (c DefaultCodec[K, V]) decodePayloadAt(ctx hydrate.Context, raw json.RawMessage) (V, error) {
	if c.payloads == nil {
		return hydrate.NewDecoder[V]().Decode(ctx, raw)
	}
	return c.payloads.Decode(ctx, raw)
}

// CodecFuncs overrides individual conversions; nil fields fall back to
// DefaultCodec.
type CodecFuncs[K comparable, V any] struct {
	EncodeSubjectFunc func(K) (any, error)
	DecodeSubjectFunc func(json.RawMessage) (K, error)
	EncodePayloadFunc func(V) (any, error)
	DecodePayloadFunc func(json.RawMessage) (V, error)
}

func (c CodecFuncs[K, V]) EncodeSubject(subject K) (any, error) {
	if c.EncodeSubjectFunc != nil {
		return c.EncodeSubjectFunc(subject)
	}
	return DefaultCodec[K, V]{}.EncodeSubject(subject)
}

func (c CodecFuncs[K, V]) DecodeSubject(raw json.RawMessage) (K, error) {
	if c.DecodeSubjectFunc != nil {
		return c.DecodeSubjectFunc(raw)
	}
	return DefaultCodec[K, V]{}.DecodeSubject(raw)
}

func (c CodecFuncs[K, V]) EncodePayload(payload V) (any, error) {
	if c.EncodePayloadFunc != nil {
		return c.EncodePayloadFunc(payload)
	}
	return DefaultCodec[K, V]{}.EncodePayload(payload)
}

func (c CodecFuncs[K, V]) DecodePayload(raw json.RawMessage) (V, error) {
	if c.DecodePayloadFunc != nil {
		return c.DecodePayloadFunc(raw)
	}
	return DefaultCodec[K, V]{}.DecodePayload(raw)
}
