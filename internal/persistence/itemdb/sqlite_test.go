package itemdb

import (
	"path/filepath"
	"testing"

	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/catalog"
	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/items"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "hotel.db"), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertAndList(t *testing.T) {
	s := openTest(t)

	s.UpsertItem(items.Item{ID: "F2", TemplateID: "TABLE_SMALL", Owner: "U2"})
	s.UpsertItem(items.Item{ID: "F1", TemplateID: "CHAIR_WOOD", Owner: "U1"})
	s.Sync()

	all, err := s.Items()
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(all) != 2 || all[0].ID != "F1" || all[1].ID != "F2" {
		t.Fatalf("items: got %v", all)
	}

	// Re-owning updates in place.
	s.UpsertItem(items.Item{ID: "F1", TemplateID: "CHAIR_WOOD", Owner: "U2"})
	s.Sync()

	mine, err := s.ItemsOf("U2")
	if err != nil {
		t.Fatalf("items of: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("U2 items: got %v", mine)
	}
	other, err := s.ItemsOf("U1")
	if err != nil {
		t.Fatalf("items of: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("U1 items: got %v", other)
	}
}

func TestSeedTemplates(t *testing.T) {
	s := openTest(t)
	defs := map[string]catalog.FurniDef{
		"CHAIR_WOOD":  {ID: "CHAIR_WOOD", Name: "Wooden Chair", Kind: "FLOOR", Tradable: true},
		"STICKY_NOTE": {ID: "STICKY_NOTE", Name: "Sticky Note", Kind: "WALL", Tradable: false},
	}
	if err := s.SeedTemplates(defs); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Seeding twice is idempotent.
	if err := s.SeedTemplates(defs); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM furni_templates`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("templates: got %d want 2", n)
	}
	var tradable int
	if err := s.db.QueryRow(`SELECT tradable FROM furni_templates WHERE id = ?`, "STICKY_NOTE").Scan(&tradable); err != nil {
		t.Fatalf("tradable: %v", err)
	}
	if tradable != 0 {
		t.Fatalf("STICKY_NOTE tradable: got %d want 0", tradable)
	}
}

// A repository restored from a snapshot carries ownership the index never saw.
// With the change hook wired before the restore loads, every restored item
// lands in sqlite too.
func TestChangeHookReconcilesRestore(t *testing.T) {
	s := openTest(t)

	repo := items.NewMemoryRepository()
	repo.OnChange(func(it items.Item) { s.UpsertItem(it) })
	repo.Put(items.Item{ID: "F1", TemplateID: "CHAIR_WOOD", Owner: "U1"})
	repo.Put(items.Item{ID: "F2", TemplateID: "TABLE_SMALL", Owner: "U2"})
	s.Sync()

	all, err := s.Items()
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(all) != 2 || all[0].Owner != "U1" || all[1].Owner != "U2" {
		t.Fatalf("items after restore: got %v", all)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "hotel.db")

	s, err := Open(p, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.UpsertItem(items.Item{ID: "F1", TemplateID: "CHAIR_WOOD", Owner: "U1"})
	s.Sync()
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := Open(p, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	all, err := s2.Items()
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(all) != 1 || all[0].Owner != "U1" {
		t.Fatalf("items after reopen: got %v", all)
	}
}
