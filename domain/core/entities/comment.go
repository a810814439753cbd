package entities

import (
	"time"

	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
)

// Comment belongs to exactly one fact through FactID.
type Comment struct {
	ID        valueobjects.ID `json:"id,omitempty"`
	FactID    valueobjects.ID `json:"facts_id"`
	Content   string          `json:"content"`
	UserID    string          `json:"user_id"`
	CreatedAt time.Time       `json:"created_at"`
}

// ShortUserID returns the first six characters of the author id.
func (c Comment) ShortUserID() string {
	return shortID(c.UserID)
}
