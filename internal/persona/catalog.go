package persona

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrExists is returned by Register when a persona with the same id is
// already present in durable storage.
var ErrExists = errors.New("persona already exists")

// Catalog merges the builtin seed set with the personalities table into an
// in-memory lookup. Construct one at startup, Seed then Reload, and pass it
// by reference to whoever needs lookups. Reload is safe to re-run at any
// time; readers never observe a partially updated view.
type Catalog struct {
	db *sql.DB

	mu       sync.RWMutex
	personas map[string]Persona
	order    []string
}

// NewCatalog creates a catalog backed by the given database.
func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{
		db:       db,
		personas: make(map[string]Persona),
	}
}

// Seed idempotently ensures every builtin persona exists in durable storage.
// Existing rows are never overwritten, so manual edits to builtins survive
// restarts.
func (c *Catalog) Seed(ctx context.Context) error {
	for _, p := range Builtins() {
		_, err := c.db.ExecContext(ctx,
			`INSERT INTO personalities (key, title, system, created_by) VALUES (?, ?, ?, NULL)
			 ON CONFLICT(key) DO NOTHING`,
			p.ID, p.Title, p.System,
		)
		if err != nil {
			return fmt.Errorf("seed persona %s: %w", p.ID, err)
		}
	}
	return nil
}

// Reload rebuilds the in-memory view: builtins merged with all durable
// entries, durable entries winning on id collision. The menu order is the
// builtin order followed by any extra durable personas sorted by id.
func (c *Catalog) Reload(ctx context.Context) error {
	builtins := Builtins()

	merged := make(map[string]Persona, len(builtins))
	for _, p := range builtins {
		merged[p.ID] = p
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT key, title, system, created_by, created_at FROM personalities`)
	if err != nil {
		return fmt.Errorf("load personalities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return fmt.Errorf("scan personality: %w", err)
		}
		merged[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load personalities: %w", err)
	}

	order := make([]string, 0, len(merged))
	seen := make(map[string]bool, len(merged))
	for _, p := range builtins {
		order = append(order, p.ID)
		seen[p.ID] = true
	}
	var extra []string
	for id := range merged {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	c.mu.Lock()
	c.personas = merged
	c.order = order
	c.mu.Unlock()
	return nil
}

// Get returns the persona with the given id, if present.
func (c *Catalog) Get(id string) (Persona, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.personas[id]
	return p, ok
}

// All returns every known persona in stable menu order.
func (c *Catalog) All() []Persona {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Persona, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.personas[id])
	}
	return out
}

// Len returns the number of known personas.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.personas)
}

// Register inserts a new persona into durable storage and refreshes the
// in-memory view. Returns ErrExists when the id is already taken: existing
// personas are never overwritten through this path.
func (c *Catalog) Register(ctx context.Context, p Persona) error {
	res, err := c.db.ExecContext(ctx,
		`INSERT INTO personalities (key, title, system, created_by) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO NOTHING`,
		p.ID, p.Title, p.System, nullableID(p.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("register persona %s: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("register persona %s: %w", p.ID, err)
	}
	if n == 0 {
		return ErrExists
	}
	return c.Reload(ctx)
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
