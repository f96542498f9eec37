package itemdb

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/catalog"
	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/items"
)

// Store is the durable ownership index. The in-memory repository stays
// authoritative at runtime; ownership changes trail into sqlite through a
// single writer goroutine so settlements never wait on disk.
type Store struct {
	db  *sql.DB
	log *log.Logger

	ch     chan req
	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool
}

type req struct {
	item items.Item
	done chan struct{} // non-nil for sync barriers
}

func Open(path string, logger *log.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db:  db,
		log: logger,
		ch:  make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS furni_templates (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			tradable INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			template_id TEXT NOT NULL,
			owner TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// SeedTemplates mirrors the furni catalog into sqlite.
func (s *Store) SeedTemplates(defs map[string]catalog.FurniDef) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, d := range defs {
		tradable := 0
		if d.Tradable {
			tradable = 1
		}
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO furni_templates(id,name,kind,tradable) VALUES(?,?,?,?)`,
			d.ID, d.Name, d.Kind, tradable,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// UpsertItem records a new or re-owned item. Dropped if the writer falls
// behind; snapshots remain the recovery source of truth.
func (s *Store) UpsertItem(it items.Item) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{item: it}:
	default:
	}
}

// Sync blocks until every previously queued write has been applied.
func (s *Store) Sync() {
	if s == nil || s.closed.Load() {
		return
	}
	done := make(chan struct{})
	s.ch <- req{done: done}
	<-done
}

// Items lists every stored item ordered by id.
func (s *Store) Items() ([]items.Item, error) {
	rows, err := s.db.Query(`SELECT id, template_id, owner FROM items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []items.Item
	for rows.Next() {
		var it items.Item
		if err := rows.Scan(&it.ID, &it.TemplateID, &it.Owner); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ItemsOf lists one owner's items ordered by id.
func (s *Store) ItemsOf(owner string) ([]items.Item, error) {
	rows, err := s.db.Query(`SELECT id, template_id, owner FROM items WHERE owner = ? ORDER BY id`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []items.Item
	for rows.Next() {
		var it items.Item
		if err := rows.Scan(&it.ID, &it.TemplateID, &it.Owner); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) loop() {
	upsert, err := s.db.Prepare(`INSERT OR REPLACE INTO items(id,template_id,owner) VALUES(?,?,?)`)
	if err != nil {
		if s.log != nil {
			s.log.Printf("itemdb: prepare upsert: %v", err)
		}
		for r := range s.ch {
			if r.done != nil {
				close(r.done)
			}
		}
		return
	}
	defer upsert.Close()

	for r := range s.ch {
		if r.done != nil {
			close(r.done)
			continue
		}
		if _, err := upsert.Exec(r.item.ID, r.item.TemplateID, r.item.Owner); err != nil && s.log != nil {
			s.log.Printf("itemdb: upsert %s: %v", r.item.ID, err)
		}
	}
}
