// Package queue defines the auth events exchanged over RabbitMQ and the
// consumer that writes them to the audit log.
package queue

import (
	"time"

	"github.com/iliyamo/store-rating-api/internal/model"
)

// AuthEventsQueue is the durable queue auth events are published to.
const AuthEventsQueue = "auth.events"

// Event types.
const (
	EventRegistered = "user.registered"
	EventLoggedIn   = "user.logged_in"
	EventLoggedOut  = "user.logged_out"
)

// AuthEvent describes an authentication-related action.  It carries enough
// for an audit trail without querying the database.
type AuthEvent struct {
	Type   string     `json:"type"`
	UserID uint64     `json:"user_id"`
	Email  string     `json:"email,omitempty"`
	Role   model.Role `json:"role"`
	IP     string     `json:"ip,omitempty"`
	At     time.Time  `json:"at"`
}

// NewAuthEvent stamps an event for u with the current UTC time.
func NewAuthEvent(typ string, u model.User, ip string) AuthEvent {
	return AuthEvent{
		Type:   typ,
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		IP:     ip,
		At:     time.Now().UTC(),
	}
}
