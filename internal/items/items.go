package items

// Item is one owned furni instance. Instances are unique; ownership moves
// whole, never split.
type Item struct {
	ID         string
	TemplateID string
	Owner      string
}

// Repository resolves and moves item ownership. Ownership is always
// re-checked at call time; callers must not cache results across commands.
type Repository interface {
	// ResolveOwnedTemplate returns the item's template id iff the item exists
	// and is currently owned by owner.
	ResolveOwnedTemplate(itemID, owner string) (string, bool)
	// Transfer reassigns the item to newOwner. It reports false when the item
	// does not exist.
	Transfer(itemID, newOwner string) bool
}
