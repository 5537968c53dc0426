package models

import "time"

// Resident is an external portal audience member. The portal token is
// ephemeral and regenerable; it is owned by this row and never part of
// the audit-grade record.
type Resident struct {
	ID           string     `db:"id" json:"id"`
	TenantID     string     `db:"tenant_id" json:"tenant_id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	Unit         string     `db:"unit" json:"unit"`
	PortalToken  *string    `db:"portal_token" json:"-"`
	TokenExpires *time.Time `db:"portal_token_expires_at" json:"-"`
	LastActiveAt *time.Time `db:"portal_last_active_at" json:"last_active_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
