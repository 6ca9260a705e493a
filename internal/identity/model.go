package identity

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no user matches.
var ErrNotFound = errors.New("user not found")

// User is a portal account. Credentials live with the identity provider; the
// portal only keeps the role and the token version used to revoke sessions.
type User struct {
	ID           string
	Email        string
	Role         string
	TokenVersion int
	CreatedAt    time.Time
}
