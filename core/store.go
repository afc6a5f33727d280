package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

const DefaultSlotKey = "events"

// SlotStore is a durable key-value area. Put replaces the whole value.
type SlotStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

type Store interface {
	Load(ctx context.Context) []Event
	Save(ctx context.Context, events []Event) error
	load(ctx context.Context) ([]Event, error)
}

type EventStore struct {
	slots SlotStore
	key   string
}

func NewEventStore(slots SlotStore, key string) *EventStore {
	if key == "" {
		key = DefaultSlotKey
	}

	return &EventStore{slots: slots, key: key}
}

// Load never fails: an absent, unreadable or corrupt slot yields no events.
func (s *EventStore) Load(ctx context.Context) []Event {
	events, err := s.load(ctx)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("slot", s.key).Msg("unable to read slot, assuming no events")
		return []Event{}
	}

	return events
}

// load is Load for callers that write the slot back. A backend failure is
// returned so the stored events are never overwritten with a blind read.
// An absent or corrupt slot still yields no events.
func (s *EventStore) load(ctx context.Context) ([]Event, error) {
	data, err := s.slots.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return []Event{}, nil
		}

		return nil, fmt.Errorf("failed to read slot %s: %w", s.key, err)
	}

	var events []Event

	err = json.Unmarshal(data, &events)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("slot", s.key).Msg("slot holds invalid data, assuming no events")
		return []Event{}, nil
	}

	if events == nil {
		return []Event{}, nil
	}

	return events, nil
}

func (s *EventStore) Save(ctx context.Context, events []Event) error {
	if events == nil {
		events = []Event{}
	}

	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to serialize events: %w", err)
	}

	err = s.slots.Put(ctx, s.key, data)
	if err != nil {
		return fmt.Errorf("failed to write slot %s: %w", s.key, err)
	}

	return nil
}

type MemorySlots struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewMemorySlots() *MemorySlots {
	return &MemorySlots{slots: make(map[string][]byte)}
}

func (m *MemorySlots) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.slots[key]
	if !ok {
		return nil, ErrSlotNotFound
	}

	return append([]byte(nil), value...), nil
}

func (m *MemorySlots) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots[key] = append([]byte(nil), value...)

	return nil
}
