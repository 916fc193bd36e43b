package policy

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func byRecipient(ds []Draft) map[uuid.UUID][]Draft {
	out := make(map[uuid.UUID][]Draft)
	for _, d := range ds {
		out[d.RecipientID] = append(out[d.RecipientID], d)
	}
	return out
}

func countType(ds []Draft, typ NotificationType) int {
	n := 0
	for _, d := range ds {
		if d.Type == typ {
			n++
		}
	}
	return n
}

func TestFanoutNil(t *testing.T) {
	t.Parallel()
	require.Nil(t, Fanout(nil))
}

func TestCommentAddedMentionReplacesGenericNotice(t *testing.T) {
	t.Parallel()

	actor, alice := uuid.New(), uuid.New()
	task := TaskContext{
		TaskRef:     TaskRef{ID: uuid.New(), Title: "Ship it", ProjectID: uuid.New()},
		CreatorID:   actor,
		AssigneeIDs: []uuid.UUID{alice},
	}
	ds := Fanout(CommentAdded{
		Task:      task,
		CommentID: uuid.New(),
		Content:   "@Alice@Example.com please review",
		ActorID:   actor,
		ActorName: "Bob",
		Directory: map[string]uuid.UUID{"alice@example.com": alice},
	})

	got := byRecipient(ds)
	require.Len(t, got, 1)
	require.Len(t, got[alice], 1)
	require.Equal(t, TypeMention, got[alice][0].Type)
	require.Equal(t, 0, countType(ds, TypeCommentAdded))
	require.Equal(t, task.ID.String(), got[alice][0].Metadata["taskId"])
}

func TestCommentAddedExcludesActor(t *testing.T) {
	t.Parallel()

	actor := uuid.New()
	watcher, prior := uuid.New(), uuid.New()
	task := TaskContext{
		TaskRef:      TaskRef{ID: uuid.New(), Title: "Fix login"},
		CreatorID:    actor,
		AssigneeIDs:  []uuid.UUID{actor},
		WatcherIDs:   []uuid.UUID{watcher, actor},
		CommenterIDs: []uuid.UUID{prior, watcher, actor},
	}
	ds := Fanout(CommentAdded{Task: task, CommentID: uuid.New(), Content: "done", ActorID: actor})

	got := byRecipient(ds)
	require.NotContains(t, got, actor)
	require.Len(t, got, 2)
	require.Len(t, got[watcher], 1)
	require.Len(t, got[prior], 1)
	require.Equal(t, TypeCommentAdded, got[prior][0].Type)
	require.Contains(t, got[prior][0].Message, "Someone")
}

func TestCommentAddedDropsUnresolvableAndSelfMentions(t *testing.T) {
	t.Parallel()

	actor, creator, carol := uuid.New(), uuid.New(), uuid.New()
	ds := Fanout(CommentAdded{
		Task: TaskContext{
			TaskRef:   TaskRef{ID: uuid.New(), Title: "Docs"},
			CreatorID: creator,
		},
		CommentID: uuid.New(),
		Content:   "@me@example.com @ghost@example.com @carol@example.com @CAROL@example.com",
		ActorID:   actor,
		Directory: map[string]uuid.UUID{
			"me@example.com":    actor,
			"carol@example.com": carol,
		},
	})

	got := byRecipient(ds)
	require.NotContains(t, got, actor)
	require.Len(t, got[carol], 1)
	require.Equal(t, TypeMention, got[carol][0].Type)
	require.Len(t, got[creator], 1)
	require.Equal(t, TypeCommentAdded, got[creator][0].Type)
	require.Len(t, ds, 2)
}

func TestMentionDetected(t *testing.T) {
	t.Parallel()

	actor := uuid.New()
	require.Empty(t, Fanout(MentionDetected{MentionedUserID: actor, ActorID: actor}))
	require.Empty(t, Fanout(MentionDetected{ActorID: actor}))

	target := uuid.New()
	ds := Fanout(MentionDetected{Task: TaskRef{Title: "x"}, MentionedUserID: target, ActorID: actor, ActorName: "Dana"})
	require.Len(t, ds, 1)
	require.Equal(t, target, ds[0].RecipientID)
	require.Contains(t, ds[0].Message, "Dana")
}

func TestTeamInvitations(t *testing.T) {
	t.Parallel()

	owner, admin, member, joiner := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	team := TeamRef{ID: uuid.New(), Name: "Core", OwnerID: owner}

	t.Run("invited", func(t *testing.T) {
		ds := Fanout(TeamInvited{Team: team, MembershipID: uuid.New(), InvitedUserID: joiner, InviterName: "Ann"})
		require.Len(t, ds, 1)
		require.Equal(t, joiner, ds[0].RecipientID)
		require.Equal(t, TypeTeamInvitation, ds[0].Type)
	})

	t.Run("accepted", func(t *testing.T) {
		members := []TeamMembership{
			{UserID: owner, TeamID: team.ID, Role: TeamOwner, Status: StatusActive},
			{UserID: admin, TeamID: team.ID, Role: TeamAdmin, Status: StatusActive},
			{UserID: member, TeamID: team.ID, Role: TeamMember, Status: StatusActive},
			{UserID: uuid.New(), TeamID: team.ID, Role: TeamAdmin, Status: StatusPending},
			{UserID: joiner, TeamID: team.ID, Role: TeamAdmin, Status: StatusActive},
		}
		ds := Fanout(TeamInviteAccepted{Team: team, Members: members, AcceptingUserID: joiner, AcceptingName: "Joe"})

		got := byRecipient(ds)
		require.Len(t, got, 3)
		require.Len(t, got[owner], 1)
		require.Equal(t, TypeTeamInvitation, got[owner][0].Type)
		require.Len(t, got[admin], 1)
		require.NotContains(t, got, member)
		require.Len(t, got[joiner], 1)
		require.Equal(t, TypeSystem, got[joiner][0].Type)
	})
}

func TestMeetingNotifications(t *testing.T) {
	t.Parallel()

	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()
	team := TeamRef{ID: uuid.New(), Name: "Core", OwnerID: u1}
	meeting := MeetingRef{
		ID:        uuid.New(),
		Title:     "Standup",
		StartTime: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC),
		MeetLink:  "https://meet.example.com/abc",
	}
	members := []uuid.UUID{u1, u2, u3}

	scheduled := Fanout(MeetingScheduled{Team: team, Meeting: meeting, MemberIDs: members, ActorID: u1})
	require.Len(t, scheduled, 2)
	got := byRecipient(scheduled)
	require.NotContains(t, got, u1)
	require.Contains(t, got, u2)
	require.Contains(t, got, u3)
	require.Equal(t, 2, countType(scheduled, TypeMeetingInvite))
	require.Equal(t, "https://meet.example.com/abc", scheduled[0].Metadata["meetLink"])

	cancelled := Fanout(MeetingCancelled{Team: team, Meeting: meeting, MemberIDs: members})
	require.Len(t, cancelled, 3)
	require.Len(t, byRecipient(cancelled), 3)
	require.Equal(t, 3, countType(cancelled, TypeSystem))
}

func TestMemberAdded(t *testing.T) {
	t.Parallel()

	user := uuid.New()

	ds := Fanout(MemberAdded{Scope: ScopeProject, ResourceID: uuid.New(), ResourceName: "Apollo", NewMemberID: user})
	require.Len(t, ds, 1)
	require.Equal(t, TypeProjectInvite, ds[0].Type)

	ds = Fanout(MemberAdded{Scope: ScopeOrg, ResourceID: uuid.New(), ResourceName: "Acme", NewMemberID: user})
	require.Len(t, ds, 1)
	require.Equal(t, TypeSystem, ds[0].Type)
	require.Equal(t, user, ds[0].RecipientID)

	require.Empty(t, Fanout(MemberAdded{Scope: ScopeTeam, NewMemberID: user}))
}

func TestTaskAssigned(t *testing.T) {
	t.Parallel()

	actor, a, b := uuid.New(), uuid.New(), uuid.New()
	ds := Fanout(TaskAssigned{Task: TaskRef{ID: uuid.New(), Title: "x"}, AssigneeIDs: []uuid.UUID{a, actor, b, a}, ActorID: actor})
	require.Len(t, ds, 2)
	require.Equal(t, 2, countType(ds, TypeTaskAssigned))
	require.NotContains(t, byRecipient(ds), actor)
}

func TestTaskStatusChanged(t *testing.T) {
	t.Parallel()

	actor, creator, watcher := uuid.New(), uuid.New(), uuid.New()
	task := TaskContext{
		TaskRef:     TaskRef{ID: uuid.New(), Title: "Release"},
		CreatorID:   creator,
		AssigneeIDs: []uuid.UUID{actor},
		WatcherIDs:  []uuid.UUID{watcher},
	}

	require.Empty(t, Fanout(TaskStatusChanged{Task: task, From: TaskTodo, To: TaskTodo, ActorID: actor}))

	ds := Fanout(TaskStatusChanged{Task: task, From: TaskTodo, To: TaskInProgress, ActorID: actor})
	require.Len(t, ds, 2)
	require.Equal(t, 2, countType(ds, TypeTaskUpdated))
	require.Equal(t, "IN_PROGRESS", ds[0].Metadata["status"])

	ds = Fanout(TaskStatusChanged{Task: task, From: TaskInReview, To: TaskDone, ActorID: actor})
	require.Equal(t, 2, countType(ds, TypeTaskCompleted))
}
