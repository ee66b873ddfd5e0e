package models

import "time"

// User is a staff account. PasswordHash empty means open-access mode: the
// username alone signs in (how the shops actually run day to day).
// BoutiqueBranch pins a boutique worker to one branch.
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Username       string     `gorm:"size:50;uniqueIndex;not null" json:"username"`
	PasswordHash   string     `gorm:"size:100" json:"-"`
	Role           Role       `gorm:"size:20;not null" json:"role"`
	BoutiqueBranch string     `gorm:"size:10" json:"boutique_branch,omitempty"`
	IsActive       bool       `gorm:"default:true" json:"is_active"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// AuditLog is append-only. Nothing updates or deletes these rows.
type AuditLog struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Username  string      `gorm:"size:50;not null" json:"username"`
	Section   string      `gorm:"size:50;not null;index" json:"section"`
	Action    AuditAction `gorm:"size:50;not null" json:"action"`
	Entity    string      `gorm:"size:50;not null;index" json:"entity"`
	EntityID  *uint       `json:"entity_id,omitempty"`
	Details   string      `gorm:"type:text" json:"details,omitempty"`
	IPAddress string      `gorm:"size:45" json:"ip_address,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
