package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TranslationsMap stores per-locale requirement text as jsonb.
type TranslationsMap map[string]string

// Value implements driver.Valuer.
func (t TranslationsMap) Value() (driver.Value, error) {
	if t == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner.
func (t *TranslationsMap) Scan(src interface{}) error {
	if src == nil {
		*t = TranslationsMap{}
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("translations: unsupported scan type %T", src)
	}
	return json.Unmarshal(raw, t)
}

// EvidenceRequirement is a named unit of required evidence tied to a stage.
type EvidenceRequirement struct {
	ID           string          `db:"id" json:"id"`
	Title        string          `db:"title" json:"title"`
	Description  string          `db:"description" json:"description"`
	Stage        Stage           `db:"stage" json:"stage"`
	OrderIndex   int             `db:"order_index" json:"order_index"`
	Translations TranslationsMap `db:"translations" json:"translations"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
