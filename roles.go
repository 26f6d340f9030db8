package auth

// Canonical role names. Roles are plain records in the roles table; these
// two are seeded by default and referenced by route requirements.
const (
	// RoleAdmin grants access to administrative routes
	RoleAdmin = "ADMIN"
	// RoleUser is the baseline role every registered account holds
	RoleUser = "USER"
)

// RoleValidator defines the checks the role guard runs against a request's
// decoded identity.
type RoleValidator interface {
	// HasRole checks if the identity holds a specific role
	HasRole(role string) bool

	// HasAnyRole checks if the identity holds at least one of the given
	// roles. Route requirements are satisfied by ANY match, not all.
	HasAnyRole(roles ...string) bool
}

// HasAnyRole reports whether held and required intersect. Both sides are
// compared literally; role names are case sensitive.
func HasAnyRole(held []string, required ...string) bool {
	if len(required) == 0 {
		return true
	}
	for _, want := range required {
		for _, have := range held {
			if have == want {
				return true
			}
		}
	}
	return false
}
