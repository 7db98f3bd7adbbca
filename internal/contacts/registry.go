// Package contacts keeps the kiosk's emergency contacts for the lifetime of the process.
package contacts

import (
	"sync"

	"checkup-kiosk/internal/model"

	"github.com/google/uuid"
)

// Registry is an ordered list of contacts. Every operation is total: unknown ids are ignored.
type Registry struct {
	mu       sync.RWMutex
	contacts []model.Contact
}

func NewRegistry(seed ...model.Contact) *Registry {
	r := &Registry{}
	for _, c := range seed {
		r.Add(c)
	}
	return r
}

// Seed returns the contacts the kiosk ships with.
func Seed() []model.Contact {
	return []model.Contact{
		{Name: "大儿子", Phone: "13811112222", Relation: "长子", Priority: model.PriorityHigh},
		{Name: "小女儿", Phone: "13933334444", Relation: "次女", Priority: model.PriorityMedium},
	}
}

// Add assigns a fresh id, appends the record and returns it as stored.
// Any id on the incoming record is discarded.
func (r *Registry) Add(c model.Contact) model.Contact {
	c.ID = uuid.NewString()
	c.Priority = normalize(c.Priority)

	r.mu.Lock()
	r.contacts = append(r.contacts, c)
	r.mu.Unlock()
	return c
}

// Update replaces the entry with the same id in place. It reports whether one matched.
func (r *Registry) Update(c model.Contact) bool {
	c.Priority = normalize(c.Priority)

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.contacts {
		if r.contacts[i].ID == c.ID {
			r.contacts[i] = c
			return true
		}
	}
	return false
}

// Remove deletes the entry with the given id. It reports whether one matched.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.contacts {
		if r.contacts[i].ID == id {
			r.contacts = append(r.contacts[:i], r.contacts[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Registry) Get(id string) (model.Contact, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.contacts {
		if c.ID == id {
			return c, true
		}
	}
	return model.Contact{}, false
}

// List returns a copy in insertion order.
func (r *Registry) List() []model.Contact {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Contact, len(r.contacts))
	copy(out, r.contacts)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contacts)
}

// normalize maps anything outside 1..3 onto the form's default level.
func normalize(p model.Priority) model.Priority {
	if p.Valid() {
		return p
	}
	return model.PriorityLow
}
