package items

import (
	"sort"
	"sync"
)

// MemoryRepository is the authoritative runtime item store. A change hook
// lets a durable index (sqlite) trail ownership updates off the hot path.
type MemoryRepository struct {
	mu    sync.Mutex
	items map[string]Item

	onChange func(Item)
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: map[string]Item{}}
}

// OnChange registers a hook called after every Put/Transfer with the new row.
func (r *MemoryRepository) OnChange(fn func(Item)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

func (r *MemoryRepository) Put(it Item) {
	r.mu.Lock()
	r.items[it.ID] = it
	fn := r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn(it)
	}
}

func (r *MemoryRepository) ResolveOwnedTemplate(itemID, owner string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[itemID]
	if !ok || it.Owner != owner {
		return "", false
	}
	return it.TemplateID, true
}

func (r *MemoryRepository) Transfer(itemID, newOwner string) bool {
	r.mu.Lock()
	it, ok := r.items[itemID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	it.Owner = newOwner
	r.items[itemID] = it
	fn := r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn(it)
	}
	return true
}

// OwnerOf returns the current owner of an item.
func (r *MemoryRepository) OwnerOf(itemID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[itemID]
	if !ok {
		return "", false
	}
	return it.Owner, true
}

// ItemsOf lists the owner's hand, ordered by item id.
func (r *MemoryRepository) ItemsOf(owner string) []Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Item
	for _, it := range r.items {
		if it.Owner == owner {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// All lists every item, ordered by item id. Used by snapshotting.
func (r *MemoryRepository) All() []Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
