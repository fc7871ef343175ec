package txdispatch

import "fmt"

// Handler is the validate/process contract every operation implements
// (spec §4.1, §7). Validate is a pure read over state; Process may
// mutate and must roll back its own partial work on failure.
type Handler interface {
	Validate(data map[string]any, sender string) bool
	Process(data map[string]any, sender, txID string, timestamp int64) bool
}

// Registry is the static type->handler table the dispatcher looks up
// (REDESIGN FLAG: a compile-time table, not the teacher/source's
// filesystem-discovered handler set).
type Registry struct {
	handlers map[TransactionType]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[TransactionType]Handler)}
}

// Register binds a handler to a TransactionType. Registering the same
// type twice is a programmer error, not a runtime condition: it panics
// at startup wiring time rather than silently overwriting.
func (r *Registry) Register(t TransactionType, h Handler) {
	if _, exists := r.handlers[t]; exists {
		panic(fmt.Sprintf("txdispatch: handler for %s already registered", t))
	}
	r.handlers[t] = h
}

func (r *Registry) Lookup(t TransactionType) (Handler, bool) {
	h, ok := r.handlers[t]
	return h, ok
}
