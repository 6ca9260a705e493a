package identity

import "time"

// Fixed accounts seeded into the in-memory backends in development.
var (
	DemoAdmin      = User{ID: "7b0c4a53-3f5e-4b1a-9a53-6c1f0c2f0a01", Email: "admin@brandbridge.example", Role: "admin"}
	DemoInfluencer = User{ID: "7b0c4a53-3f5e-4b1a-9a53-6c1f0c2f0a02", Email: "creator@brandbridge.example", Role: "influencer"}
	DemoBrand      = User{ID: "7b0c4a53-3f5e-4b1a-9a53-6c1f0c2f0a03", Email: "brand@brandbridge.example", Role: "brand"}
)

// DemoUsers returns the development accounts stamped with createdAt.
func DemoUsers(createdAt time.Time) []User {
	users := []User{DemoAdmin, DemoInfluencer, DemoBrand}
	for i := range users {
		users[i].CreatedAt = createdAt.UTC()
	}
	return users
}

// DemoUserFor returns the development account holding role.
func DemoUserFor(role string) (User, bool) {
	for _, u := range []User{DemoAdmin, DemoInfluencer, DemoBrand} {
		if u.Role == role {
			return u, true
		}
	}
	return User{}, false
}
