package models

import "time"

// Certificate records a generated round-completion artifact. At most one
// exists per (school, round); progression checks this before rendering.
type Certificate struct {
	ID          string    `db:"id" json:"id"`
	SchoolID    string    `db:"school_id" json:"school_id"`
	Round       int       `db:"round" json:"round"`
	FilePath    string    `db:"file_path" json:"file_path"`
	GeneratedAt time.Time `db:"generated_at" json:"generated_at"`
}
