package policy

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CanPerform decides whether p may perform a on r. It never mutates state and
// returns the same decision for the same inputs.
//
// Evaluation order: missing principal, missing resource, scope mismatch, the
// owner-continuity invariant, then role rules.
func CanPerform(p *Principal, a Action, r Resource) Decision {
	if p == nil || p.UserID == uuid.Nil {
		return Deny(ReasonUnauthorized)
	}
	if r == nil || !r.found() {
		return Deny(ReasonNotFound)
	}
	if a.Scope() == ScopeNone || a.Scope() != r.scope() {
		return Deny(ReasonForbidden)
	}

	switch res := r.(type) {
	case OrgResource:
		return evalOrg(p, a, res)
	case TeamResource:
		return evalTeam(p, a, res)
	case ProjectResource:
		return evalProject(p, a, res)
	case AttachmentResource:
		return evalAttachment(p, res)
	default:
		return Deny(ReasonForbidden)
	}
}

func evalOrg(p *Principal, a Action, r OrgResource) Decision {
	required, ok := orgRequirements[a]
	if !ok {
		return Deny(ReasonForbidden)
	}

	m := r.Membership
	if m != nil && m.UserID != p.UserID {
		m = nil
	}
	if !p.IsAdmin() && (m == nil || !m.Role.AtLeast(required)) {
		return Deny(ReasonForbidden)
	}

	// The admin key is checked on top of role authorization, even for
	// global admins.
	if a == DeleteOrg && !adminKeyMatches(r.Org.AdminKeyHash, r.PresentedKey) {
		return Deny(ReasonMissingCredential)
	}
	return Allow()
}

func adminKeyMatches(hash []byte, presented string) bool {
	if presented == "" || len(hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(presented)) == nil
}

func evalTeam(p *Principal, a Action, r TeamResource) Decision {
	required, ok := teamRequirements[a]
	if !ok {
		return Deny(ReasonForbidden)
	}

	if a == UpdateTeamMembership || a == RemoveTeamMember {
		if r.Target == nil || r.Target.TeamID != r.Team.ID {
			return Deny(ReasonNotFound)
		}
		// The owner membership can be neither removed nor re-roled, whoever asks.
		if r.Target.Role == TeamOwner {
			return Deny(ReasonCannotRemoveOwner)
		}
	}

	if p.IsAdmin() {
		return Allow()
	}

	m := r.Membership
	if m != nil && (m.UserID != p.UserID || m.TeamID != r.Team.ID) {
		m = nil
	}

	if r.Team.OwnerID == p.UserID {
		return Allow()
	}
	if m.Active() && m.Role.AtLeast(required) {
		return Allow()
	}
	return Deny(ReasonForbidden)
}

func evalProject(p *Principal, a Action, r ProjectResource) Decision {
	hasAccess := r.DirectMember || r.TeamMember || p.Role.AtLeast(GlobalManager)
	if !hasAccess {
		return Deny(ReasonForbidden)
	}
	if required, ok := projectRequirements[a]; ok && !p.Role.AtLeast(required) {
		return Deny(ReasonForbidden)
	}
	return Allow()
}

func evalAttachment(p *Principal, r AttachmentResource) Decision {
	if p.Role.AtLeast(GlobalManager) || r.Task.involves(p.UserID) {
		return Allow()
	}
	return Deny(ReasonForbidden)
}
