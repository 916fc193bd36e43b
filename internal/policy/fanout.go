package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies a notification for the recipient's inbox.
type NotificationType string

const (
	TypeTaskAssigned   NotificationType = "TASK_ASSIGNED"
	TypeTaskUpdated    NotificationType = "TASK_UPDATED"
	TypeTaskCompleted  NotificationType = "TASK_COMPLETED"
	TypeCommentAdded   NotificationType = "COMMENT_ADDED"
	TypeMention        NotificationType = "MENTION"
	TypeTeamInvitation NotificationType = "TEAM_INVITATION"
	TypeMeetingInvite  NotificationType = "MEETING_INVITE"
	TypeSystem         NotificationType = "SYSTEM"
	TypeProjectInvite  NotificationType = "PROJECT_INVITE"
)

// Draft is a notification waiting to be persisted for one recipient.
type Draft struct {
	RecipientID uuid.UUID
	Title       string
	Message     string
	Type        NotificationType
	Metadata    map[string]any
}

// Event is a domain event that notifies users. The set of events is closed.
type Event interface {
	drafts() []Draft
}

// Fanout computes the drafts for one event. Recipients are deduplicated
// within the event only; drafts carry no ordering guarantee.
func Fanout(e Event) []Draft {
	if e == nil {
		return nil
	}
	return e.drafts()
}

// recipients is an insertion-ordered set of user ids with exclusions.
type recipients struct {
	ids      []uuid.UUID
	seen     map[uuid.UUID]struct{}
	excluded map[uuid.UUID]struct{}
}

func newRecipients(exclude ...uuid.UUID) *recipients {
	r := &recipients{
		seen:     make(map[uuid.UUID]struct{}),
		excluded: make(map[uuid.UUID]struct{}),
	}
	for _, id := range exclude {
		r.excluded[id] = struct{}{}
	}
	return r
}

func (r *recipients) exclude(id uuid.UUID) {
	r.excluded[id] = struct{}{}
}

func (r *recipients) add(ids ...uuid.UUID) {
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := r.seen[id]; ok {
			continue
		}
		r.seen[id] = struct{}{}
		r.ids = append(r.ids, id)
	}
}

func (r *recipients) list() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(r.ids))
	for _, id := range r.ids {
		if _, ok := r.excluded[id]; ok {
			continue
		}
		out = append(out, id)
	}
	return out
}

// TaskRef identifies a task in notification text and metadata.
type TaskRef struct {
	ID        uuid.UUID
	Title     string
	ProjectID uuid.UUID
}

func (t TaskRef) metadata() map[string]any {
	return map[string]any{
		"taskId":    t.ID.String(),
		"projectId": t.ProjectID.String(),
	}
}

// TaskContext is everything the fanout needs to know about a task's audience.
type TaskContext struct {
	TaskRef
	CreatorID    uuid.UUID
	AssigneeIDs  []uuid.UUID
	WatcherIDs   []uuid.UUID
	CommenterIDs []uuid.UUID
}

type TeamRef struct {
	ID      uuid.UUID
	Name    string
	OwnerID uuid.UUID
}

type MeetingRef struct {
	ID        uuid.UUID
	Title     string
	StartTime time.Time
	EndTime   time.Time
	MeetLink  string
}

func (m MeetingRef) metadata(teamID uuid.UUID) map[string]any {
	md := map[string]any{
		"meetingId": m.ID.String(),
		"teamId":    teamID.String(),
		"startTime": m.StartTime.UTC().Format(time.RFC3339),
	}
	if m.MeetLink != "" {
		md["meetLink"] = m.MeetLink
	}
	return md
}

// CommentAdded fans a new comment out to the task's audience. Directory maps
// lower-cased email addresses to user ids for the mentions in Content.
type CommentAdded struct {
	Task      TaskContext
	CommentID uuid.UUID
	Content   string
	ActorID   uuid.UUID
	ActorName string
	Directory map[string]uuid.UUID
}

func (e CommentAdded) drafts() []Draft {
	var out []Draft

	mentioned := make(map[uuid.UUID]struct{})
	for email := range ExtractMentions(e.Content) {
		id, ok := e.Directory[strings.ToLower(email)]
		if !ok {
			continue
		}
		if _, dup := mentioned[id]; dup {
			continue
		}
		ds := MentionDetected{
			Task:            e.Task.TaskRef,
			CommentID:       e.CommentID,
			MentionedUserID: id,
			ActorID:         e.ActorID,
			ActorName:       e.ActorName,
		}.drafts()
		if len(ds) == 0 {
			continue
		}
		mentioned[id] = struct{}{}
		out = append(out, ds...)
	}

	// Mentioned users already get the more specific notification.
	audience := newRecipients(e.ActorID)
	for id := range mentioned {
		audience.exclude(id)
	}
	audience.add(e.Task.AssigneeIDs...)
	audience.add(e.Task.CreatorID)
	audience.add(e.Task.WatcherIDs...)
	audience.add(e.Task.CommenterIDs...)

	for _, id := range audience.list() {
		md := e.Task.metadata()
		md["commentId"] = e.CommentID.String()
		out = append(out, Draft{
			RecipientID: id,
			Title:       "New comment",
			Message:     fmt.Sprintf("%s commented on %q", actorOr(e.ActorName), e.Task.Title),
			Type:        TypeCommentAdded,
			Metadata:    md,
		})
	}
	return out
}

// MentionDetected notifies one user mentioned in a comment. Self-mentions
// produce nothing.
type MentionDetected struct {
	Task            TaskRef
	CommentID       uuid.UUID
	MentionedUserID uuid.UUID
	ActorID         uuid.UUID
	ActorName       string
}

func (e MentionDetected) drafts() []Draft {
	if e.MentionedUserID == uuid.Nil || e.MentionedUserID == e.ActorID {
		return nil
	}
	md := e.Task.metadata()
	md["commentId"] = e.CommentID.String()
	return []Draft{{
		RecipientID: e.MentionedUserID,
		Title:       "You were mentioned",
		Message:     fmt.Sprintf("%s mentioned you in a comment on %q", actorOr(e.ActorName), e.Task.Title),
		Type:        TypeMention,
		Metadata:    md,
	}}
}

// TeamInvited notifies the invited user.
type TeamInvited struct {
	Team          TeamRef
	MembershipID  uuid.UUID
	InvitedUserID uuid.UUID
	InviterName   string
}

func (e TeamInvited) drafts() []Draft {
	if e.InvitedUserID == uuid.Nil {
		return nil
	}
	return []Draft{{
		RecipientID: e.InvitedUserID,
		Title:       "Team invitation",
		Message:     fmt.Sprintf("%s invited you to join %s", actorOr(e.InviterName), e.Team.Name),
		Type:        TypeTeamInvitation,
		Metadata: map[string]any{
			"teamId":       e.Team.ID.String(),
			"membershipId": e.MembershipID.String(),
		},
	}}
}

// TeamInviteAccepted notifies the team's owners and admins, and confirms to
// the accepting user.
type TeamInviteAccepted struct {
	Team            TeamRef
	Members         []TeamMembership
	AcceptingUserID uuid.UUID
	AcceptingName   string
}

func (e TeamInviteAccepted) drafts() []Draft {
	md := func() map[string]any {
		return map[string]any{"teamId": e.Team.ID.String(), "userId": e.AcceptingUserID.String()}
	}

	managers := newRecipients(e.AcceptingUserID)
	managers.add(e.Team.OwnerID)
	for _, m := range e.Members {
		if m.Active() && m.Role.AtLeast(TeamAdmin) {
			managers.add(m.UserID)
		}
	}

	var out []Draft
	for _, id := range managers.list() {
		out = append(out, Draft{
			RecipientID: id,
			Title:       "Invitation accepted",
			Message:     fmt.Sprintf("%s joined %s", actorOr(e.AcceptingName), e.Team.Name),
			Type:        TypeTeamInvitation,
			Metadata:    md(),
		})
	}
	if e.AcceptingUserID != uuid.Nil {
		out = append(out, Draft{
			RecipientID: e.AcceptingUserID,
			Title:       "Welcome to the team",
			Message:     fmt.Sprintf("You are now a member of %s", e.Team.Name),
			Type:        TypeSystem,
			Metadata:    md(),
		})
	}
	return out
}

// MeetingScheduled notifies every team member except the scheduler.
type MeetingScheduled struct {
	Team      TeamRef
	Meeting   MeetingRef
	MemberIDs []uuid.UUID
	ActorID   uuid.UUID
	ActorName string
}

func (e MeetingScheduled) drafts() []Draft {
	audience := newRecipients(e.ActorID)
	audience.add(e.MemberIDs...)

	var out []Draft
	for _, id := range audience.list() {
		out = append(out, Draft{
			RecipientID: id,
			Title:       "Meeting scheduled",
			Message: fmt.Sprintf("%s scheduled %q for %s",
				actorOr(e.ActorName), e.Meeting.Title, e.Meeting.StartTime.UTC().Format("Jan 2, 2006 15:04 MST")),
			Type:     TypeMeetingInvite,
			Metadata: e.Meeting.metadata(e.Team.ID),
		})
	}
	return out
}

// MeetingCancelled notifies every team member, the canceller included.
type MeetingCancelled struct {
	Team      TeamRef
	Meeting   MeetingRef
	MemberIDs []uuid.UUID
}

func (e MeetingCancelled) drafts() []Draft {
	audience := newRecipients()
	audience.add(e.MemberIDs...)

	var out []Draft
	for _, id := range audience.list() {
		out = append(out, Draft{
			RecipientID: id,
			Title:       "Meeting cancelled",
			Message:     fmt.Sprintf("%q in %s has been cancelled", e.Meeting.Title, e.Team.Name),
			Type:        TypeSystem,
			Metadata:    e.Meeting.metadata(e.Team.ID),
		})
	}
	return out
}

// MemberAdded notifies a user added to an organization or project.
type MemberAdded struct {
	Scope        Scope
	ResourceID   uuid.UUID
	ResourceName string
	NewMemberID  uuid.UUID
	ActorName    string
}

func (e MemberAdded) drafts() []Draft {
	if e.NewMemberID == uuid.Nil {
		return nil
	}
	d := Draft{RecipientID: e.NewMemberID}
	switch e.Scope {
	case ScopeProject:
		d.Type = TypeProjectInvite
		d.Title = "Added to project"
		d.Metadata = map[string]any{"projectId": e.ResourceID.String()}
	case ScopeOrg:
		d.Type = TypeSystem
		d.Title = "Added to organization"
		d.Metadata = map[string]any{"organizationId": e.ResourceID.String()}
	default:
		return nil
	}
	d.Message = fmt.Sprintf("%s added you to %s", actorOr(e.ActorName), e.ResourceName)
	return []Draft{d}
}

// TaskAssigned notifies newly assigned users, never the assigner.
type TaskAssigned struct {
	Task        TaskRef
	AssigneeIDs []uuid.UUID
	ActorID     uuid.UUID
	ActorName   string
}

func (e TaskAssigned) drafts() []Draft {
	audience := newRecipients(e.ActorID)
	audience.add(e.AssigneeIDs...)

	var out []Draft
	for _, id := range audience.list() {
		out = append(out, Draft{
			RecipientID: id,
			Title:       "Task assigned",
			Message:     fmt.Sprintf("%s assigned you to %q", actorOr(e.ActorName), e.Task.Title),
			Type:        TypeTaskAssigned,
			Metadata:    e.Task.metadata(),
		})
	}
	return out
}

// TaskStatusChanged notifies the creator, assignees and watchers of a status
// change. Moving to DONE is reported as a completion.
type TaskStatusChanged struct {
	Task      TaskContext
	From      TaskStatus
	To        TaskStatus
	ActorID   uuid.UUID
	ActorName string
}

func (e TaskStatusChanged) drafts() []Draft {
	if e.From == e.To {
		return nil
	}
	audience := newRecipients(e.ActorID)
	audience.add(e.Task.CreatorID)
	audience.add(e.Task.AssigneeIDs...)
	audience.add(e.Task.WatcherIDs...)

	typ, title := TypeTaskUpdated, "Task updated"
	msg := fmt.Sprintf("%s moved %q from %s to %s", actorOr(e.ActorName), e.Task.Title, e.From, e.To)
	if e.To == TaskDone {
		typ, title = TypeTaskCompleted, "Task completed"
		msg = fmt.Sprintf("%s completed %q", actorOr(e.ActorName), e.Task.Title)
	}

	var out []Draft
	for _, id := range audience.list() {
		md := e.Task.metadata()
		md["status"] = string(e.To)
		out = append(out, Draft{
			RecipientID: id,
			Title:       title,
			Message:     msg,
			Type:        typ,
			Metadata:    md,
		})
	}
	return out
}

func actorOr(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Someone"
	}
	return name
}
