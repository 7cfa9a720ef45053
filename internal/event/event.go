package event

import "time"

type Type string

const (
	TypeRegister       Type = "auth.register"
	TypeLogin          Type = "auth.login"
	TypeRefresh        Type = "auth.refresh"
	TypeTokenReuse     Type = "auth.token_reuse"
	TypeLogout         Type = "auth.logout"
	TypePasswordChange Type = "auth.password_change"
)

const (
	StatusSuccess = "success"
	StatusDenied  = "denied"
)

type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	ActorID   string    `json:"actor_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
