// Package queue defines the audit payloads exchanged over the message
// broker and the background consumer that records them.
package queue

// Event kinds published on the audit queue.
const (
	KindUserRegistered = "user.registered"
	KindRoleGranted    = "role.granted"
	KindRoleRevoked    = "role.revoked"
	KindCarSold        = "car.sold"
)

// AuditEvent is the envelope for every message on the dealer.audit queue.
// Downstream consumers can log or alert on these without querying the
// primary database.
type AuditEvent struct {
	Kind       string `json:"kind"`
	UserID     uint64 `json:"user_id,omitempty"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role,omitempty"`
	CarID      uint64 `json:"car_id,omitempty"`
	RegNumber  string `json:"reg_number,omitempty"`
	BuyerName  string `json:"buyer_name,omitempty"`
	Actor      string `json:"actor,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
