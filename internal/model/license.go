package model

import "time"

// License is a single issued key. Hwid stays NULL until the first
// successful verification binds the key to a device; after that it only
// changes through an admin reset.
type License struct {
	Key       string    `json:"key" gorm:"primaryKey"`
	Hwid      *string   `json:"hwid"`
	ExpiresAt string    `json:"expires_at" gorm:"not null"` // YYYY-MM-DD, compared date-only
	Plan      string    `json:"plan" gorm:"default:'basic'"`
	CreatedAt time.Time `json:"created_at"`
}

// Bound reports whether the license has a device bound to it.
func (l *License) Bound() bool {
	return l.Hwid != nil
}
