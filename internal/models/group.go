package models

// Group represents a set of users who share expenses. A group is also a
// debt scope: balances recorded against it never mix with other groups or
// with the global scope.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates").
	Name string

	// Members is the list of member user ids.
	Members []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether the user is a member of the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
