package models

import "time"

// DenylistEntry represents a token mint address permanently excluded
// from scoring regardless of its computed score (known rug/scam mint,
// manually flagged by an operator).
type DenylistEntry struct {
	ID        int       `json:"id" db:"id"`
	Address   string    `json:"address" db:"address"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
