package roles

import (
	"context"
	"strings"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleNone   Role = "none"
)

// Privileged are the roles allowed to request or confirm an external action.
var Privileged = []Role{RoleOwner, RoleAdmin}

// Resolver looks up the role an actor holds within a context (a
// conversation/channel scope). Implementations are pure lookups against
// membership data; they must not mutate state.
type Resolver interface {
	Resolve(ctx context.Context, actorID, contextID string) (Role, error)
}

// Authorize reports whether the actor currently holds one of the required
// roles within the context. It is the single authorization checkpoint used
// at both request time and decision time, so a role change between proposal
// and confirmation is always observed.
//
// A lookup failure or missing membership data degrades to Member: the
// privileged action is denied, the flow is not errored.
func Authorize(ctx context.Context, r Resolver, actorID, contextID string, required ...Role) bool {
	if len(required) == 0 {
		required = Privileged
	}
	role := RoleMember
	if r != nil {
		got, err := r.Resolve(ctx, actorID, contextID)
		if err == nil && got != "" {
			role = got
		}
	}
	for _, want := range required {
		if role == want {
			return true
		}
	}
	return false
}

func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "owner":
		return RoleOwner
	case "admin":
		return RoleAdmin
	case "member":
		return RoleMember
	default:
		return RoleNone
	}
}
