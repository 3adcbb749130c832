package roles

import (
	"context"
	"strings"
)

// Membership is the configured role assignment for one context. The "*"
// context key applies to every context that has no entry of its own.
type Membership struct {
	Owners []string `yaml:"owners" mapstructure:"owners"`
	Admins []string `yaml:"admins" mapstructure:"admins"`
}

// StaticResolver resolves roles from a fixed membership map, typically
// loaded from the config file. Anyone not listed is a Member.
type StaticResolver struct {
	contexts map[string]Membership
}

func NewStaticResolver(contexts map[string]Membership) *StaticResolver {
	normalized := make(map[string]Membership, len(contexts))
	for k, v := range contexts {
		normalized[strings.TrimSpace(k)] = Membership{
			Owners: normalizeIDs(v.Owners),
			Admins: normalizeIDs(v.Admins),
		}
	}
	return &StaticResolver{contexts: normalized}
}

func (r *StaticResolver) Resolve(_ context.Context, actorID, contextID string) (Role, error) {
	if r == nil {
		return RoleMember, nil
	}
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return RoleMember, nil
	}

	m, ok := r.contexts[strings.TrimSpace(contextID)]
	if !ok {
		m, ok = r.contexts["*"]
	}
	if !ok {
		return RoleMember, nil
	}
	if containsID(m.Owners, actorID) {
		return RoleOwner, nil
	}
	if containsID(m.Admins, actorID) {
		return RoleAdmin, nil
	}
	return RoleMember, nil
}

func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
