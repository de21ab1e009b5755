package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gearup/storefront/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrCorruptStorage = errors.New("corrupt cart storage")
	ErrItemNotFound   = errors.New("cart item not found")
)

type EventType int

const (
	EventLoaded EventType = iota
	EventAdded
	EventQuantityUpdated
	EventRemoved
	EventCleared
)

func (t EventType) String() string {
	switch t {
	case EventLoaded:
		return "loaded"
	case EventAdded:
		return "added"
	case EventQuantityUpdated:
		return "quantity_updated"
	case EventRemoved:
		return "removed"
	case EventCleared:
		return "cleared"
	}
	return "unknown"
}

// Event describes one completed mutation. Err is set when the new state could
// not be persisted; the in-memory state has changed regardless.
type Event struct {
	Type   EventType
	ItemID string
	Items  []models.CartItem
	Total  decimal.Decimal
	Err    error
}

type Listener func(Event)

// Store is the session cart. It is not safe for concurrent use.
type Store struct {
	storage   Storage
	items     []models.CartItem
	total     decimal.Decimal
	listeners map[int]Listener
	nextID    int
}

func New(storage Storage) *Store {
	return &Store{
		storage:   storage,
		items:     []models.CartItem{},
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers fn for every subsequent event and returns a function
// that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		delete(s.listeners, id)
	}
}

func (s *Store) Items() []models.CartItem {
	out := make([]models.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Total() decimal.Decimal {
	return s.total
}

// Count is the number of units in the cart, not the number of lines.
func (s *Store) Count() int {
	n := 0
	for _, item := range s.items {
		n += item.Quantity
	}
	return n
}

func (s *Store) IsEmpty() bool {
	return len(s.items) == 0
}

// Load replaces the in-memory cart with what storage holds. Missing storage
// yields an empty cart. Unreadable content also yields an empty cart and an
// error wrapping ErrCorruptStorage; the store stays usable.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.storage.Read(ctx)
	switch {
	case errors.Is(err, ErrNoData):
		s.set([]models.CartItem{})
		err = nil
	case err != nil:
		s.set([]models.CartItem{})
		err = fmt.Errorf("read cart: %w", err)
	default:
		var items []models.CartItem
		if uerr := json.Unmarshal(data, &items); uerr != nil {
			s.set([]models.CartItem{})
			err = fmt.Errorf("%w: %v", ErrCorruptStorage, uerr)
		} else {
			kept := items[:0]
			for _, item := range items {
				if item.Quantity >= 1 {
					kept = append(kept, item)
				}
			}
			s.set(kept)
		}
	}

	s.emit(Event{Type: EventLoaded, Err: err})
	return err
}

// Save writes the whole cart to storage.
func (s *Store) Save(ctx context.Context) error {
	data, err := json.Marshal(s.items)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.storage.Write(ctx, data); err != nil {
		return fmt.Errorf("write cart: %w", err)
	}
	return nil
}

// Add puts quantity units of item in the cart. A line with the same product
// id absorbs the added quantity.
func (s *Store) Add(ctx context.Context, item models.CartItem, quantity int) error {
	if quantity < 1 {
		return models.NewValidationError("quantity must be at least 1", "quantity")
	}
	if item.ID == "" {
		return models.NewValidationError("product id is required", "id")
	}

	next := s.Items()
	merged := false
	for i := range next {
		if next[i].ID == item.ID {
			next[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		item.Quantity = quantity
		next = append(next, item)
	}

	evt := EventAdded
	if merged {
		evt = EventQuantityUpdated
	}
	return s.commit(ctx, next, evt, item.ID)
}

func (s *Store) Remove(ctx context.Context, id string) error {
	next := make([]models.CartItem, 0, len(s.items))
	found := false
	for _, item := range s.items {
		if item.ID == id {
			found = true
			continue
		}
		next = append(next, item)
	}
	if !found {
		return ErrItemNotFound
	}
	return s.commit(ctx, next, EventRemoved, id)
}

// UpdateQuantity sets a line's quantity. Anything below 1 removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return s.Remove(ctx, id)
	}

	next := s.Items()
	for i := range next {
		if next[i].ID == id {
			next[i].Quantity = quantity
			return s.commit(ctx, next, EventQuantityUpdated, id)
		}
	}
	return ErrItemNotFound
}

// Clear empties the cart and deletes its stored copy.
func (s *Store) Clear(ctx context.Context) error {
	s.set([]models.CartItem{})

	var err error
	if derr := s.storage.Delete(ctx); derr != nil {
		err = fmt.Errorf("delete cart: %w", derr)
	}
	s.emit(Event{Type: EventCleared, Err: err})
	return err
}

func (s *Store) commit(ctx context.Context, items []models.CartItem, evt EventType, id string) error {
	s.set(items)
	err := s.Save(ctx)
	s.emit(Event{Type: evt, ItemID: id, Err: err})
	return err
}

func (s *Store) set(items []models.CartItem) {
	s.items = items
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	s.total = total
}

func (s *Store) emit(e Event) {
	e.Items = s.Items()
	e.Total = s.total
	for _, fn := range s.listeners {
		fn(e)
	}
}
