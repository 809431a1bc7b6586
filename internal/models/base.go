// Package models defines GORM database models for camerad entities.
package models

import "time"

// BoolPtr returns a pointer to a bool value.
// Useful for constructing optional *bool patch fields.
func BoolPtr(b bool) *bool {
	return &b
}

// BoolVal returns the value of a bool pointer, defaulting to true if nil.
func BoolVal(b *bool) bool {
	return b == nil || *b
}

// BoolValDefault returns the value of a bool pointer with a custom default.
func BoolValDefault(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// BaseModel provides the common fields for cameras, recordings, and
// schedules: an auto-assigned integer primary key and UTC timestamps.
// Rows are hard-deleted (no DeletedAt) — none of the aggregates this
// system persists are soft-delete candidates.
type BaseModel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetID returns the integer identifier.
func (b *BaseModel) GetID() uint {
	return b.ID
}

// Time is an alias for time.Time used in models.
type Time = time.Time

// Now returns the current UTC time.
func Now() Time {
	return time.Now().UTC()
}
