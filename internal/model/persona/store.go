package persona

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownCharacter is returned when an id is not part of the registry.
var ErrUnknownCharacter = errors.New("unknown character")

// Store exposes character lookup to the router, controller and handlers.
type Store interface {
	List() []Character
	FindByID(id string) (Character, bool)
}

// MemoryStore implements Store with an in-memory slice fixed at construction.
type MemoryStore struct {
	items []Character
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied characters.
func NewMemoryStore(items []Character) *MemoryStore {
	return &MemoryStore{items: append([]Character(nil), items...)}
}

// List returns the registry in display order.
func (s *MemoryStore) List() []Character {
	return append([]Character(nil), s.items...)
}

// FindByID looks up a character by identifier.
func (s *MemoryStore) FindByID(id string) (Character, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Character{}, false
}

// Lookup is FindByID with an error result for callers that propagate errors.
func Lookup(store Store, id string) (Character, error) {
	if store == nil {
		return Character{}, fmt.Errorf("%w: %q", ErrUnknownCharacter, id)
	}
	c, ok := store.FindByID(id)
	if !ok {
		return Character{}, fmt.Errorf("%w: %q", ErrUnknownCharacter, id)
	}
	return c, nil
}

// LoadFile reads a YAML list of characters that replaces the seed registry.
func LoadFile(path string) ([]Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read character file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML character list.
func Parse(data []byte) ([]Character, error) {
	var items []Character
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode character file: %w", err)
	}
	if len(items) == 0 {
		return nil, errors.New("character file is empty")
	}

	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return nil, fmt.Errorf("character #%d has no id", i+1)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate character id %q", id)
		}
		seen[id] = struct{}{}
		items[i].ID = id
		if strings.TrimSpace(item.Name) == "" {
			items[i].Name = id
		}
	}
	return items, nil
}
