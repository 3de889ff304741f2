package storage

import (
	"encoding/json"
	"io/fs"
)

// Option configures a storage adapter.
type Option[K comparable, V any] func(*config[K, V])

type config[K comparable, V any] struct {
	codec     Codec[K, V]
	useNumber bool
	indent    string
	atomic    bool
	fileMode  fs.FileMode

	strictPayloads  bool
	payloadUpgrades []func(state string, raw json.RawMessage) (json.RawMessage, error)
	payloadChecks   []func(state string, payload V) error
	subjectChecks   []func(subject K) error
}

func applyOptions[K comparable, V any](opts []Option[K, V]) config[K, V] {
	cfg := config[K, V]{fileMode: 0o644}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.codec == nil {
		cfg.codec = newDefaultCodec(cfg)
	}
	return cfg
}

// WithCodec replaces the encoding/json codec.
func WithCodec[K comparable, V any](codec Codec[K, V]) Option[K, V] {
	return func(cfg *config[K, V]) {
		cfg.codec = codec
	}
}

// WithUseNumber decodes numbers inside untyped values as json.Number. It has
// no effect when WithCodec is used.
func WithUseNumber[K comparable, V any]() Option[K, V] {
	return func(cfg *config[K, V]) {
		cfg.useNumber = true
	}
}

// WithIndent pretty-prints the document with indent.
func WithIndent[K comparable, V any](indent string) Option[K, V] {
	return func(cfg *config[K, V]) {
		cfg.indent = indent
	}
}

// WithAtomicWrite writes to a temporary file in the target directory and
// renames it over the target, so readers never see a partial document.
func WithAtomicWrite[K comparable, V any](atomic bool) Option[K, V] {
	return func(cfg *config[K, V]) {
		cfg.atomic = atomic
	}
}

// WithFileMode sets the permissions of written files. Defaults to 0644.
func WithFileMode[K comparable, V any](mode fs.FileMode) Option[K, V] {
	return func(cfg *config[K, V]) {
		if mode != 0 {
			cfg.fileMode = mode
		}
	}
}

// WithStrictPayloads rejects payload objects carrying fields the payload
// type does not declare. It has no effect when WithCodec is used.
func WithStrictPayloads[K comparable, V any]() Option[K, V] {
	return func(cfg *config[K, V]) {
		cfg.strictPayloads = true
	}
}

// WithPayloadUpgrade rewrites each raw payload before it is decoded, e.g. to
// migrate documents written by an older payload layout. Upgrades run in the
// order given. It has no effect when WithCodec is used.
func WithPayloadUpgrade[K comparable, V any](upgrade func(state string, raw json.RawMessage) (json.RawMessage, error)) Option[K, V] {
	return func(cfg *config[K, V]) {
		if upgrade != nil {
			cfg.payloadUpgrades = append(cfg.payloadUpgrades, upgrade)
		}
	}
}

// WithPayloadCheck validates each decoded payload; an error fails the load.
// It has no effect when WithCodec is used.
func WithPayloadCheck[K comparable, V any](check func(state string, payload V) error) Option[K, V] {
	return func(cfg *config[K, V]) {
		if check != nil {
			cfg.payloadChecks = append(cfg.payloadChecks, check)
		}
	}
}

// WithSubjectCheck validates each decoded subject; an error fails the load.
// It has no effect when WithCodec is used.
func WithSubjectCheck[K comparable, V any](check func(subject K) error) Option[K, V] {
	return func(cfg *config[K, V]) {
		if check != nil {
			cfg.subjectChecks = append(cfg.subjectChecks, check)
		}
	}
}
