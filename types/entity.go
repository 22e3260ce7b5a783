// Package types provides common types used across Ectoplasma.
package types

import "time"

// Entity is the base type for persisted records with timestamps.
type Entity struct {
	CreatedAt time.Time `json:"created_at" bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `json:"updated_at" bun:"updated_at,notnull,default:current_timestamp"`
}

// NewEntity creates a new Entity stamped with t (UTC).
func NewEntity(t time.Time) Entity {
	t = t.UTC()
	return Entity{
		CreatedAt: t,
		UpdatedAt: t,
	}
}

// Touch sets UpdatedAt to t (UTC).
func (e *Entity) Touch(t time.Time) {
	e.UpdatedAt = t.UTC()
}
