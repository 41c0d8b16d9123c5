package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

// Slot is a stable, versionless storage key.
type Slot string

const (
	SlotUser  Slot = "minimal_user"
	SlotToken Slot = "minimal_token"
	SlotCart  Slot = "minimal_cart"
)

// Persistence maps slots onto a Store. Strings are stored verbatim, anything
// else as JSON; writing nil (or "") removes the slot. Storage failures are
// logged and swallowed: callers always see a usable, possibly empty, state.
type Persistence struct {
	store Store
	log   *slog.Logger
}

func NewPersistence(store Store, log *slog.Logger) *Persistence {
	if store == nil {
		store = NoopStore{}
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Persistence{store: store, log: log.With("component", "persistence")}
}

func (p *Persistence) Write(ctx context.Context, slot Slot, value any) {
	if isNil(value) {
		p.Clear(ctx, slot)
		return
	}

	var raw string
	switch v := value.(type) {
	case string:
		if v == "" {
			p.Clear(ctx, slot)
			return
		}
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			p.log.Error("persist_encode_error", "slot", string(slot), "error", err)
			return
		}
		raw = string(b)
	}

	if err := p.store.Set(ctx, string(slot), raw); err != nil {
		p.log.Warn("persist_write_error", "slot", string(slot), "error", err)
	}
}

func (p *Persistence) Clear(ctx context.Context, slots ...Slot) {
	for _, slot := range slots {
		if err := p.store.Delete(ctx, string(slot)); err != nil {
			p.log.Warn("persist_delete_error", "slot", string(slot), "error", err)
		}
	}
}

func (p *Persistence) ReadString(ctx context.Context, slot Slot) (string, bool) {
	v, ok, err := p.store.Get(ctx, string(slot))
	if err != nil {
		p.log.Warn("persist_read_error", "slot", string(slot), "error", err)
		return "", false
	}
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// ReadJSON decodes the slot into dest, which must be a non-nil pointer.
// It returns false, leaving dest untouched, when the slot is absent or
// does not decode.
func (p *Persistence) ReadJSON(ctx context.Context, slot Slot, dest any) bool {
	v, ok := p.ReadString(ctx, slot)
	if !ok {
		return false
	}

	// decode into a fresh value so a half-decoded payload never leaks into dest
	fresh := reflect.New(reflect.TypeOf(dest).Elem())
	if err := json.Unmarshal([]byte(v), fresh.Interface()); err != nil {
		p.log.Warn("persist_corrupt_slot", "slot", string(slot), "error", err)
		return false
	}
	reflect.ValueOf(dest).Elem().Set(fresh.Elem())
	return true
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
