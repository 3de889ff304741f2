package storage

import (
	"context"
	"fmt"
	"iter"
	"sync"
)

// Memory keeps the encoded document in memory. It goes through the same
// encode/decode path as JSONFile, so it exercises codecs without touching
// disk. Intended for tests and examples.
type Memory[K comparable, V any] struct {
	mu   sync.RWMutex
	data []byte
	cfg  config[K, V]
}

func NewMemory[K comparable, V any](opts ...Option[K, V]) *Memory[K, V] {
	return &Memory[K, V]{cfg: applyOptions(opts)}
}

func (s *Memory[K, V]) Save(ctx context.Context, subjects []K, partitions map[string]map[K]V) error {
	data, err := EncodeDocument(s.cfg.codec, subjects, partitions, s.cfg.indent)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// Load decodes the last saved document. Loading before any save fails.
func (s *Memory[K, V]) Load(ctx context.Context) (iter.Seq2[K, map[string]V], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data := s.data
	s.mu.RUnlock()
	if data == nil {
		return nil, fmt.Errorf("storage: memory document is empty")
	}
	records, err := decodeDocument(s.cfg.codec, data, "memory")
	if err != nil {
		return nil, err
	}
	return Pairs(records), nil
}

// Bytes returns a copy of the last saved document.
func (s *Memory[K, V]) Bytes() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.data...)
}

// SetBytes replaces the stored document, e.g. with a fixture.
func (s *Memory[K, V]) SetBytes(data []byte) {
	s.mu.Lock()
	s.data = append([]byte(nil), data...)
	s.mu.Unlock()
}
