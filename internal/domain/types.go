package domain

import "time"

type UserID string

// DefaultUserID is used when a chat request carries no user id.
const DefaultUserID UserID = "default_user"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Timestamp = time.Time
