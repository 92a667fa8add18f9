// Package persona holds the persona catalog: the builtin seed set plus any
// personas registered at runtime, merged into one in-memory lookup table
// backed by the personalities table.
package persona

import (
	"database/sql"
	"time"

	_ "embed"

	"gopkg.in/yaml.v3"
)

// Persona is a named system prompt defining a role-play character.
// CreatedBy and CreatedAt are set only for durably registered personas;
// builtins leave them empty and JSON omits them.
type Persona struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	System    string     `json:"system" yaml:"system"`
	CreatedBy int64      `json:"created_by,omitempty" yaml:"-"`
	CreatedAt *time.Time `json:"created_at,omitempty" yaml:"-"`
}

//go:embed builtins.yaml
var builtinsYAML []byte

// Builtins returns the compile-time seed set. The embedded YAML is the
// authoritative copy; rows in the personalities table with the same id
// take precedence once seeded.
func Builtins() []Persona {
	var list []Persona
	if err := yaml.Unmarshal(builtinsYAML, &list); err != nil {
		// The file is embedded at build time; a parse failure is a
		// programming error, not a runtime condition.
		panic("persona: malformed builtins.yaml: " + err.Error())
	}
	return list
}

func scanPersona(rows *sql.Rows) (Persona, error) {
	var p Persona
	var createdBy sql.NullInt64
	var createdAt sql.NullTime
	if err := rows.Scan(&p.ID, &p.Title, &p.System, &createdBy, &createdAt); err != nil {
		return Persona{}, err
	}
	if createdBy.Valid {
		p.CreatedBy = createdBy.Int64
	}
	if createdAt.Valid {
		t := createdAt.Time
		p.CreatedAt = &t
	}
	return p, nil
}
