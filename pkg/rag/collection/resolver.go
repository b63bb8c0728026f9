// Package collection maps a user's group memberships to the document
// collections they may query.
package collection

// reserved groups carry no document collection of their own
var reservedGroups = map[string]bool{
	"default":   true,
	"pod_admin": true,
}

// Resolve filters reserved groups out of the user's memberships,
// preserving order. The result may be empty.
func Resolve(groups []string) []string {
	collections := make([]string, 0, len(groups))
	for _, g := range groups {
		if reservedGroups[g] {
			continue
		}
		collections = append(collections, g)
	}
	return collections
}

// InitialIndex returns the position of primaryGroup within collections,
// or 0 when the primary group is absent or collections is empty.
func InitialIndex(collections []string, primaryGroup string) int {
	for i, c := range collections {
		if c == primaryGroup {
			return i
		}
	}
	return 0
}
