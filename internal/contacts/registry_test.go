package contacts

import (
	"fmt"
	"math/rand"
	"testing"

	"checkup-kiosk/internal/model"
)

func TestSeed(t *testing.T) {
	r := NewRegistry(Seed()...)
	list := r.List()
	if len(list) != 2 {
		t.Fatalf("len(List()) = %d, want 2", len(list))
	}
	if list[0].Name != "大儿子" || list[1].Name != "小女儿" {
		t.Errorf("seed order = %s, %s", list[0].Name, list[1].Name)
	}
	if list[0].ID == "" || list[0].ID == list[1].ID {
		t.Errorf("seed ids not unique: %q %q", list[0].ID, list[1].ID)
	}
}

func TestAddAssignsFreshID(t *testing.T) {
	r := NewRegistry()
	a := r.Add(model.Contact{ID: "client-chosen", Name: "a", Priority: model.PriorityMedium})
	b := r.Add(model.Contact{ID: "client-chosen", Name: "b"})
	if a.ID == "client-chosen" || b.ID == "client-chosen" {
		t.Error("Add kept a caller supplied id")
	}
	if a.ID == b.ID {
		t.Errorf("Add produced duplicate id %q", a.ID)
	}
	if b.Priority != model.PriorityLow {
		t.Errorf("missing priority normalised to %d, want %d", b.Priority, model.PriorityLow)
	}
	if got := r.List(); got[0].Name != "a" || got[1].Name != "b" {
		t.Errorf("insertion order lost: %+v", got)
	}
}

func TestUpdate(t *testing.T) {
	r := NewRegistry()
	a := r.Add(model.Contact{Name: "a", Phone: "1"})
	r.Add(model.Contact{Name: "b"})

	a.Phone = "2"
	a.Priority = 9
	if !r.Update(a) {
		t.Fatal("Update() = false for existing id")
	}
	got, ok := r.Get(a.ID)
	if !ok || got.Phone != "2" {
		t.Errorf("Get() after update = %+v, %v", got, ok)
	}
	if got.Priority != model.PriorityLow {
		t.Errorf("priority = %d, want normalised %d", got.Priority, model.PriorityLow)
	}
	if r.List()[0].ID != a.ID {
		t.Error("Update moved the entry")
	}

	if r.Update(model.Contact{ID: "missing", Name: "x"}) {
		t.Error("Update() = true for unknown id")
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d after no-op update, want 2", r.Len())
	}
}

func TestRemove(t *testing.T) {
	r := NewRegistry()
	a := r.Add(model.Contact{Name: "a"})
	b := r.Add(model.Contact{Name: "b"})
	c := r.Add(model.Contact{Name: "c"})

	if !r.Remove(b.ID) {
		t.Fatal("Remove() = false for existing id")
	}
	if r.Remove(b.ID) {
		t.Error("second Remove() = true")
	}
	list := r.List()
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != c.ID {
		t.Errorf("List() = %+v", list)
	}
}

func TestIDsStayUniqueUnderRandomOps(t *testing.T) {
	r := NewRegistry(Seed()...)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		list := r.List()
		switch op := rng.Intn(3); {
		case op == 0 || len(list) == 0:
			r.Add(model.Contact{Name: fmt.Sprintf("c%d", i)})
		case op == 1:
			c := list[rng.Intn(len(list))]
			c.Name += "'"
			r.Update(c)
		default:
			r.Remove(list[rng.Intn(len(list))].ID)
		}

		seen := make(map[string]bool)
		for _, c := range r.List() {
			if seen[c.ID] {
				t.Fatalf("step %d: duplicate id %q", i, c.ID)
			}
			seen[c.ID] = true
		}
	}
}
