package models

import "github.com/golang-jwt/jwt/v5"

// Pagination describes page metadata on list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Principal is the already-authenticated identity attached by the
// upstream gateway. This service consumes it; it never issues tokens.
type Principal struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	TenantID string `json:"tenant_id"`
	Admin    bool   `json:"admin"`
	jwt.RegisteredClaims
}
