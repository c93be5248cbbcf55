package model

import (
	"database/sql"
	"time"
)

// PromoCode represents one row of the promo-code ledger.
// A row with AssignedTo unset is free; assignment happens at most once.
type PromoCode struct {
	ID         int64          `db:"id" json:"id"`
	Code       string         `db:"code" json:"code"`
	Discount   sql.NullString `db:"discount" json:"discount"`
	ExpiresAt  sql.NullTime   `db:"expires_at" json:"expires_at"`
	AssignedTo sql.NullString `db:"assigned_to" json:"assigned_to"`
	AssignedAt sql.NullTime   `db:"assigned_at" json:"assigned_at"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// FreeCode is the projection used when picking a code to hand out.
type FreeCode struct {
	ID   int64  `db:"id"`
	Code string `db:"code"`
}
