package hierarchy

import "strings"

// Resolver links free-text reporting names to entity ids. Tree assembly
// only ever sees ids, so a stable-key join can replace name matching by
// swapping the Resolver.
type Resolver interface {
	// Register makes e resolvable.
	Register(e *Entity)
	// Resolve finds the entity of role called name.
	Resolve(role Role, name string) (id string, ok bool)
}

// NameResolver matches names case-insensitively after trimming. No fuzzy
// matching: a typo upstream leaves the link unresolved. The first entity
// registered under a name wins.
type NameResolver struct {
	byRole map[Role]map[string]string
}

// NewNameResolver returns an empty NameResolver.
func NewNameResolver() *NameResolver {
	return &NameResolver{byRole: map[Role]map[string]string{}}
}

func matchKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *NameResolver) Register(e *Entity) {
	names, ok := r.byRole[e.Role]
	if !ok {
		names = map[string]string{}
		r.byRole[e.Role] = names
	}
	key := matchKey(e.Name)
	if _, taken := names[key]; !taken {
		names[key] = e.ID
	}
}

func (r *NameResolver) Resolve(role Role, name string) (string, bool) {
	key := matchKey(name)
	if key == "" {
		return "", false
	}
	id, ok := r.byRole[role][key]
	return id, ok
}
