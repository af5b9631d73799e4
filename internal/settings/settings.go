package settings

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Setting is a single-row-per-key configuration record maintained via
// upsert; Value is opaque JSON.
type Setting struct {
	Key         string          `json:"key" db:"key"`
	Value       json.RawMessage `json:"value" db:"value"`
	Description string          `json:"description,omitempty" db:"description"`
	UpdatedBy   *uuid.UUID      `json:"updated_by,omitempty" db:"updated_by"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

type SetSettingRequest struct {
	Key         string          `json:"key" validate:"required"`
	Value       json.RawMessage `json:"value" validate:"required"`
	Description string          `json:"description,omitempty"`
}
