package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func principal(role GlobalRole) *Principal {
	return &Principal{UserID: uuid.New(), Role: role, Email: "someone@example.com"}
}

func orgWithKey(t *testing.T, key string) *Org {
	t.Helper()
	hash, err := HashAdminKey(key, bcrypt.MinCost)
	require.NoError(t, err)
	return &Org{ID: uuid.New(), Name: "Acme", AdminKeyHash: hash}
}

func TestCanPerformRequiresPrincipal(t *testing.T) {
	t.Parallel()

	// Unauthorized wins even over a missing resource.
	d := CanPerform(nil, ViewOrg, OrgResource{})
	require.Equal(t, Deny(ReasonUnauthorized), d)
	require.ErrorIs(t, d.Err(), ErrUnauthorized)

	d = CanPerform(&Principal{Role: GlobalAdmin}, ViewProject, ProjectResource{Project: &Project{ID: uuid.New()}})
	require.Equal(t, Deny(ReasonUnauthorized), d)
}

func TestCanPerformNotFoundBeforePermissions(t *testing.T) {
	t.Parallel()

	member := principal(GlobalMember)
	admin := principal(GlobalAdmin)

	cases := []struct {
		name string
		p    *Principal
		a    Action
		r    Resource
	}{
		{"org", member, UpdateOrg, OrgResource{}},
		{"team", admin, ViewTeam, TeamResource{}},
		{"project", admin, DeleteProject, ProjectResource{}},
		{"attachment without task", admin, ViewAttachment, AttachmentResource{Attachment: &Attachment{ID: uuid.New()}}},
		{"nil resource", admin, ViewOrg, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := CanPerform(tc.p, tc.a, tc.r)
			require.Equal(t, Deny(ReasonNotFound), d)
			require.Equal(t, 404, d.Reason.Status())
		})
	}
}

func TestCanPerformScopeMismatch(t *testing.T) {
	t.Parallel()

	d := CanPerform(principal(GlobalAdmin), DeleteProject, OrgResource{Org: &Org{ID: uuid.New()}})
	require.Equal(t, Deny(ReasonForbidden), d)

	d = CanPerform(principal(GlobalAdmin), Action(999), OrgResource{Org: &Org{ID: uuid.New()}})
	require.Equal(t, Deny(ReasonForbidden), d)
}

func TestOrgActions(t *testing.T) {
	t.Parallel()

	org := orgWithKey(t, "secret-key")

	t.Run("non-member MEMBER cannot update", func(t *testing.T) {
		for range 5 {
			p := principal(GlobalMember)
			require.Equal(t, Deny(ReasonForbidden), CanPerform(p, UpdateOrg, OrgResource{Org: org}))
		}
	})

	t.Run("membership must belong to the caller", func(t *testing.T) {
		p := principal(GlobalMember)
		foreign := &OrgMembership{UserID: uuid.New(), Role: OrgOwner}
		require.Equal(t, Deny(ReasonForbidden), CanPerform(p, UpdateOrg, OrgResource{Org: org, Membership: foreign}))
	})

	roleCases := []struct {
		role   OrgRole
		view   bool
		update bool
		invite bool
	}{
		{OrgOwner, true, true, true},
		{OrgAdmin, true, true, true},
		{OrgManager, true, false, false},
		{OrgMember, true, false, false},
	}
	for _, tc := range roleCases {
		t.Run(string(tc.role), func(t *testing.T) {
			p := principal(GlobalMember)
			res := OrgResource{Org: org, Membership: &OrgMembership{UserID: p.UserID, Role: tc.role}}
			require.Equal(t, tc.view, CanPerform(p, ViewOrg, res).Allowed)
			require.Equal(t, tc.update, CanPerform(p, UpdateOrg, res).Allowed)
			require.Equal(t, tc.invite, CanPerform(p, InviteOrgMember, res).Allowed)
		})
	}

	t.Run("global admin bypasses membership", func(t *testing.T) {
		p := principal(GlobalAdmin)
		require.True(t, CanPerform(p, UpdateOrg, OrgResource{Org: org}).Allowed)
		require.True(t, CanPerform(p, InviteOrgMember, OrgResource{Org: org}).Allowed)
	})

	t.Run("global manager is not an org admin", func(t *testing.T) {
		p := principal(GlobalManager)
		require.Equal(t, Deny(ReasonForbidden), CanPerform(p, UpdateOrg, OrgResource{Org: org}))
	})
}

func TestDeleteOrgNeedsRoleAndAdminKey(t *testing.T) {
	t.Parallel()

	org := orgWithKey(t, "correct-key")
	owner := principal(GlobalMember)
	ownerRow := &OrgMembership{UserID: owner.UserID, Role: OrgOwner}

	t.Run("right role right key", func(t *testing.T) {
		d := CanPerform(owner, DeleteOrg, OrgResource{Org: org, Membership: ownerRow, PresentedKey: "correct-key"})
		require.Equal(t, Allow(), d)
		require.NoError(t, d.Err())
	})

	t.Run("right role wrong key", func(t *testing.T) {
		d := CanPerform(owner, DeleteOrg, OrgResource{Org: org, Membership: ownerRow, PresentedKey: "wrong"})
		require.Equal(t, Deny(ReasonMissingCredential), d)
		require.Equal(t, 400, d.Reason.Status())
	})

	t.Run("right role no key", func(t *testing.T) {
		d := CanPerform(owner, DeleteOrg, OrgResource{Org: org, Membership: ownerRow})
		require.Equal(t, Deny(ReasonMissingCredential), d)
	})

	t.Run("global admin still needs the key", func(t *testing.T) {
		admin := principal(GlobalAdmin)
		require.Equal(t, Deny(ReasonMissingCredential),
			CanPerform(admin, DeleteOrg, OrgResource{Org: org, PresentedKey: "nope"}))
		require.Equal(t, Allow(),
			CanPerform(admin, DeleteOrg, OrgResource{Org: org, PresentedKey: "correct-key"}))
	})

	t.Run("key without role is still forbidden", func(t *testing.T) {
		p := principal(GlobalMember)
		member := &OrgMembership{UserID: p.UserID, Role: OrgMember}
		require.Equal(t, Deny(ReasonForbidden),
			CanPerform(p, DeleteOrg, OrgResource{Org: org, Membership: member, PresentedKey: "correct-key"}))
	})

	t.Run("org without stored key cannot be deleted", func(t *testing.T) {
		bare := &Org{ID: uuid.New()}
		require.Equal(t, Deny(ReasonMissingCredential),
			CanPerform(principal(GlobalAdmin), DeleteOrg, OrgResource{Org: bare, PresentedKey: "anything"}))
	})
}

type teamFixture struct {
	team                *Team
	u1, u2, u3          *Principal
	owner, admin, plain *TeamMembership
}

func newTeamFixture() teamFixture {
	f := teamFixture{
		u1: principal(GlobalMember),
		u2: principal(GlobalMember),
		u3: principal(GlobalMember),
	}
	f.team = &Team{ID: uuid.New(), Name: "Platform", OwnerID: f.u1.UserID}
	row := func(p *Principal, role TeamRole) *TeamMembership {
		return &TeamMembership{ID: uuid.New(), TeamID: f.team.ID, UserID: p.UserID, Role: role, Status: StatusActive}
	}
	f.owner = row(f.u1, TeamOwner)
	f.admin = row(f.u2, TeamAdmin)
	f.plain = row(f.u3, TeamMember)
	return f
}

func TestRemoveTeamMember(t *testing.T) {
	t.Parallel()

	f := newTeamFixture()

	t.Run("member cannot remove admin", func(t *testing.T) {
		d := CanPerform(f.u3, RemoveTeamMember, TeamResource{Team: f.team, Membership: f.plain, Target: f.admin})
		require.Equal(t, Deny(ReasonForbidden), d)
	})

	t.Run("admin can remove member", func(t *testing.T) {
		d := CanPerform(f.u2, RemoveTeamMember, TeamResource{Team: f.team, Membership: f.admin, Target: f.plain})
		require.Equal(t, Allow(), d)
	})

	t.Run("owner by ownerId without membership row", func(t *testing.T) {
		d := CanPerform(f.u1, RemoveTeamMember, TeamResource{Team: f.team, Target: f.plain})
		require.Equal(t, Allow(), d)
	})

	t.Run("owner membership is never removable", func(t *testing.T) {
		callers := []struct {
			p *Principal
			m *TeamMembership
		}{
			{f.u1, f.owner},
			{f.u2, f.admin},
			{f.u3, f.plain},
			{principal(GlobalAdmin), nil},
		}
		for _, c := range callers {
			d := CanPerform(c.p, RemoveTeamMember, TeamResource{Team: f.team, Membership: c.m, Target: f.owner})
			require.Equal(t, Deny(ReasonCannotRemoveOwner), d)
			require.ErrorIs(t, d.Err(), ErrCannotRemoveOwner)
		}
	})

	t.Run("owner membership cannot be re-roled", func(t *testing.T) {
		for _, p := range []*Principal{f.u1, f.u2, principal(GlobalAdmin)} {
			d := CanPerform(p, UpdateTeamMembership, TeamResource{Team: f.team, Membership: f.admin, Target: f.owner})
			require.Equal(t, Deny(ReasonCannotRemoveOwner), d)
			require.Equal(t, 403, d.Reason.Status())
		}
	})

	t.Run("missing target is not found", func(t *testing.T) {
		d := CanPerform(f.u2, RemoveTeamMember, TeamResource{Team: f.team, Membership: f.admin})
		require.Equal(t, Deny(ReasonNotFound), d)
	})

	t.Run("target from another team is not found", func(t *testing.T) {
		other := &TeamMembership{ID: uuid.New(), TeamID: uuid.New(), UserID: uuid.New(), Role: TeamMember, Status: StatusActive}
		d := CanPerform(f.u2, RemoveTeamMember, TeamResource{Team: f.team, Membership: f.admin, Target: other})
		require.Equal(t, Deny(ReasonNotFound), d)
	})

	t.Run("pending admin cannot act", func(t *testing.T) {
		pending := *f.admin
		pending.Status = StatusPending
		d := CanPerform(f.u2, RemoveTeamMember, TeamResource{Team: f.team, Membership: &pending, Target: f.plain})
		require.Equal(t, Deny(ReasonForbidden), d)
	})
}

func TestTeamActions(t *testing.T) {
	t.Parallel()

	f := newTeamFixture()
	mutating := []Action{UpdateTeam, InviteTeamMember, CreateMeeting, CancelMeeting}

	for _, a := range mutating {
		t.Run(a.String(), func(t *testing.T) {
			require.True(t, CanPerform(f.u1, a, TeamResource{Team: f.team, Membership: f.owner}).Allowed)
			require.True(t, CanPerform(f.u2, a, TeamResource{Team: f.team, Membership: f.admin}).Allowed)
			require.False(t, CanPerform(f.u3, a, TeamResource{Team: f.team, Membership: f.plain}).Allowed)
			require.True(t, CanPerform(principal(GlobalAdmin), a, TeamResource{Team: f.team}).Allowed)
			require.False(t, CanPerform(principal(GlobalManager), a, TeamResource{Team: f.team}).Allowed)
		})
	}

	t.Run("view needs active membership", func(t *testing.T) {
		require.True(t, CanPerform(f.u3, ViewTeam, TeamResource{Team: f.team, Membership: f.plain}).Allowed)
		require.False(t, CanPerform(principal(GlobalMember), ViewTeam, TeamResource{Team: f.team}).Allowed)

		pending := *f.plain
		pending.Status = StatusPending
		require.False(t, CanPerform(f.u3, ViewTeam, TeamResource{Team: f.team, Membership: &pending}).Allowed)
		require.True(t, CanPerform(principal(GlobalAdmin), ViewTeam, TeamResource{Team: f.team}).Allowed)
	})

	t.Run("update membership", func(t *testing.T) {
		require.True(t, CanPerform(f.u2, UpdateTeamMembership, TeamResource{Team: f.team, Membership: f.admin, Target: f.plain}).Allowed)
		require.Equal(t, Deny(ReasonForbidden),
			CanPerform(f.u3, UpdateTeamMembership, TeamResource{Team: f.team, Membership: f.plain, Target: f.admin}))
	})
}

func TestProjectActions(t *testing.T) {
	t.Parallel()

	project := &Project{ID: uuid.New(), Key: "OPS", Name: "Ops"}

	cases := []struct {
		name   string
		role   GlobalRole
		direct bool
		team   bool
		view   bool
		add    bool
		delete bool
	}{
		{"outsider member", GlobalMember, false, false, false, false, false},
		{"direct member", GlobalMember, true, false, true, false, false},
		{"team member", GlobalMember, false, true, true, false, false},
		{"agent direct member", GlobalAgent, true, false, true, false, false},
		{"manager outsider", GlobalManager, false, false, true, true, false},
		{"admin outsider", GlobalAdmin, false, false, true, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := principal(tc.role)
			res := ProjectResource{Project: project, DirectMember: tc.direct, TeamMember: tc.team}
			require.Equal(t, tc.view, CanPerform(p, ViewProject, res).Allowed)
			require.Equal(t, tc.view, CanPerform(p, CommentOnTask, res).Allowed)
			require.Equal(t, tc.view, CanPerform(p, CreateTask, res).Allowed)
			require.Equal(t, tc.add, CanPerform(p, AddProjectMember, res).Allowed)
			require.Equal(t, tc.delete, CanPerform(p, DeleteProject, res).Allowed)
		})
	}
}

func TestViewAttachment(t *testing.T) {
	t.Parallel()

	creator := principal(GlobalMember)
	assignee := principal(GlobalMember)
	att := &Attachment{ID: uuid.New(), TaskID: uuid.New(), UploaderID: creator.UserID}
	res := AttachmentResource{
		Attachment: att,
		Task:       &TaskAccess{CreatorID: creator.UserID, AssigneeIDs: []uuid.UUID{assignee.UserID}},
	}

	require.True(t, CanPerform(creator, ViewAttachment, res).Allowed)
	require.True(t, CanPerform(assignee, ViewAttachment, res).Allowed)
	require.True(t, CanPerform(principal(GlobalManager), ViewAttachment, res).Allowed)
	require.True(t, CanPerform(principal(GlobalAdmin), ViewAttachment, res).Allowed)
	require.Equal(t, Deny(ReasonForbidden), CanPerform(principal(GlobalMember), ViewAttachment, res))
}

func TestCanPerformIsDeterministic(t *testing.T) {
	t.Parallel()

	f := newTeamFixture()
	org := orgWithKey(t, "k")
	inputs := []struct {
		p *Principal
		a Action
		r Resource
	}{
		{f.u2, RemoveTeamMember, TeamResource{Team: f.team, Membership: f.admin, Target: f.plain}},
		{f.u3, RemoveTeamMember, TeamResource{Team: f.team, Membership: f.plain, Target: f.admin}},
		{f.u1, DeleteOrg, OrgResource{Org: org, Membership: &OrgMembership{UserID: f.u1.UserID, Role: OrgOwner}, PresentedKey: "k"}},
		{nil, ViewTeam, TeamResource{Team: f.team}},
	}
	for _, in := range inputs {
		first := CanPerform(in.p, in.a, in.r)
		second := CanPerform(in.p, in.a, in.r)
		require.Equal(t, first, second)
	}
}

func TestReasonStatus(t *testing.T) {
	t.Parallel()

	require.Equal(t, 401, ReasonUnauthorized.Status())
	require.Equal(t, 403, ReasonForbidden.Status())
	require.Equal(t, 404, ReasonNotFound.Status())
	require.Equal(t, 400, ReasonMissingCredential.Status())
	require.Equal(t, 403, ReasonCannotRemoveOwner.Status())
	require.ErrorIs(t, Deny(ReasonNone).Err(), ErrForbidden)
}

func TestNewAdminKey(t *testing.T) {
	t.Parallel()

	plain, hash, err := NewAdminKey()
	require.NoError(t, err)
	require.NotEmpty(t, plain)
	require.True(t, adminKeyMatches(hash, plain))
	require.False(t, adminKeyMatches(hash, plain+"x"))
}
