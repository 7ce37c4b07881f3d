package domain

import "time"

// User is the registered account exercises are logged against. Usernames are
// unique and immutable after creation; users are never deleted.
type User struct {
	ID        string
	Username  string
	CreatedAt time.Time
}
