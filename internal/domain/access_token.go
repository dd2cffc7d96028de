package domain

import "time"

type AccessToken struct {
	ID        int64
	TokenHash string
	AgentID   int64
	Abilities string
	ExpiresAt *time.Time
}
