package models

// Role identifies what an authenticated user is allowed to do.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Actor is the authenticated caller of a service operation. It is passed
// explicitly into every call that needs identity; nothing reads it from
// ambient state.
type Actor struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// IsAdmin reports whether the actor may perform admin-only operations.
func (a Actor) IsAdmin() bool {
	return a.UserID != "" && a.Role == RoleAdmin
}

// Owns reports whether the actor is the owner identified by userID.
func (a Actor) Owns(userID string) bool {
	return a.UserID != "" && a.UserID == userID
}
