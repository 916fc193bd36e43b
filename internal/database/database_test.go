package database

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"taskflex/internal/models"
	"taskflex/internal/policy"
)

var testService Service

// mustStartPostgresContainer starts a postgres container and returns a teardown function,
// a connection string, and an error.
func mustStartPostgresContainer() (func(context.Context, ...testcontainers.TerminateOption) error, string, error) {
	var (
		dbName = "taskflex_test"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, "", fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := dbContainer.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, "", fmt.Errorf("failed to get container mapped port: %w", err)
	}

	connStr := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPwd, host, port.Port(), dbName)

	return dbContainer.Terminate, connStr, nil
}

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	teardown, dsn, err := mustStartPostgresContainer()
	if err != nil {
		log.Fatalf("could not start postgres container for tests: %v", err)
	}

	testService, err = New(dsn, models.Options{}, zerolog.Nop())
	if err != nil {
		log.Fatalf("could not connect to test database: %v", err)
	}
	if err := testService.Migrate(); err != nil {
		log.Fatalf("could not migrate test database: %v", err)
	}

	exitCode := m.Run()

	if err := testService.Close(); err != nil {
		log.Printf("warning: failed to close test database: %v", err)
	}
	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}
	os.Exit(exitCode)
}

func requireDB(t *testing.T) Service {
	t.Helper()
	if testService == nil {
		t.Skip("postgres integration tests skipped")
	}
	return testService
}

func newUser(t *testing.T, svc Service, name string) *models.User {
	t.Helper()
	id := uuid.NewString()
	u := &models.User{
		Provider:   "github",
		ProviderID: id,
		Email:      fmt.Sprintf("%s.%s@example.com", name, id[:8]),
		Name:       name,
	}
	require.NoError(t, svc.UpsertOAuthUser(context.Background(), u))
	require.NotEqual(t, uuid.Nil, u.ID)
	return u
}

func TestHealth(t *testing.T) {
	svc := requireDB(t)

	stats := svc.Health(context.Background())
	require.Equal(t, "up", stats["status"], stats["error"])
	require.NotContains(t, stats, "error")
}

func TestMigrateIsIdempotent(t *testing.T) {
	svc := requireDB(t)
	require.NoError(t, svc.Migrate())
}

func TestUpsertOAuthUserKeepsIdentity(t *testing.T) {
	svc := requireDB(t)
	ctx := context.Background()

	u := newUser(t, svc, "upsert")
	again := &models.User{Provider: u.Provider, ProviderID: u.ProviderID, Email: u.Email, Name: "Renamed"}
	require.NoError(t, svc.UpsertOAuthUser(ctx, again))
	require.Equal(t, u.ID, again.ID)
	require.Equal(t, "Renamed", again.Name)
	require.Equal(t, policy.GlobalMember, again.Role)

	byEmail, err := svc.GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	_, err = svc.GetUser(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoadOrgWithCallerMembership(t *testing.T) {
	svc := requireDB(t)
	ctx := context.Background()

	owner := newUser(t, svc, "orgowner")
	stranger := newUser(t, svc, "stranger")

	_, hash, err := policy.NewAdminKey()
	require.NoError(t, err)
	org := &models.Organization{Name: "Acme", AdminKeyHash: hash}
	require.NoError(t, svc.CreateOrganization(ctx, org, owner.ID))

	oc, err := svc.LoadOrgWithCallerMembership(ctx, org.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, oc.Org)
	require.NotNil(t, oc.Membership)
	require.Equal(t, policy.OrgOwner, oc.Membership.Role)
	require.True(t, policy.CanPerform(owner.Principal(), policy.UpdateOrg, oc.Resource("")).Allowed)

	oc, err = svc.LoadOrgWithCallerMembership(ctx, org.ID, stranger.ID)
	require.NoError(t, err)
	require.Nil(t, oc.Membership)
	require.Equal(t, policy.Deny(policy.ReasonForbidden),
		policy.CanPerform(stranger.Principal(), policy.UpdateOrg, oc.Resource("")))

	oc, err = svc.LoadOrgWithCallerMembership(ctx, uuid.New(), owner.ID)
	require.NoError(t, err)
	require.Nil(t, oc.Org)
	require.Equal(t, policy.Deny(policy.ReasonNotFound),
		policy.CanPerform(owner.Principal(), policy.ViewOrg, oc.Resource("")))

	_, err = svc.AddOrganizationMember(ctx, org.ID, stranger.ID, policy.OrgMember)
	require.NoError(t, err)
	_, err = svc.AddOrganizationMember(ctx, org.ID, stranger.ID, policy.OrgMember)
	require.ErrorIs(t, err, ErrConflict)
	_, err = svc.AddOrganizationMember(ctx, org.ID, newUser(t, svc, "x").ID, policy.OrgOwner)
	require.ErrorIs(t, err, ErrValidation)
}

func TestTeamMemberRemovalFlow(t *testing.T) {
	svc := requireDB(t)
	ctx := context.Background()

	u1 := newUser(t, svc, "owner")
	u2 := newUser(t, svc, "admin")
	u3 := newUser(t, svc, "member")

	team := &models.Team{Name: "Platform", OwnerID: u1.ID}
	require.NoError(t, svc.CreateTeam(ctx, team))

	join := func(u *models.User, role policy.TeamRole) *models.TeamMembership {
		inv, err := svc.InviteTeamMember(ctx, team.ID, u.ID, u1.ID, role)
		require.NoError(t, err)
		require.Equal(t, policy.StatusPending, inv.Status)
		require.NotNil(t, inv.Token)
		accepted, err := svc.AcceptTeamInvitation(ctx, *inv.Token, u.ID)
		require.NoError(t, err)
		require.Equal(t, policy.StatusActive, accepted.Status)
		require.Nil(t, accepted.Token)
		return accepted
	}
	m2 := join(u2, policy.TeamAdmin)
	m3 := join(u3, policy.TeamMember)

	decide := func(caller *models.User, targetID uuid.UUID) policy.Decision {
		tc, err := svc.LoadTeamWithCallerMembership(ctx, team.ID, caller.ID)
		require.NoError(t, err)
		target, err := svc.LoadTeamMembershipTarget(ctx, targetID)
		require.NoError(t, err)
		return policy.CanPerform(caller.Principal(), policy.RemoveTeamMember, tc.Resource(target))
	}

	require.Equal(t, policy.Deny(policy.ReasonForbidden), decide(u3, m2.ID))
	require.Equal(t, policy.Allow(), decide(u2, m3.ID))
	require.NoError(t, svc.RemoveTeamMember(ctx, m3.ID))

	gone, err := svc.LoadTeamMembershipTarget(ctx, m3.ID)
	require.NoError(t, err)
	require.Nil(t, gone)
	require.Equal(t, policy.Deny(policy.ReasonNotFound), decide(u2, m3.ID))

	ownerRow, err := svc.LoadTeamWithCallerMembership(ctx, team.ID, u1.ID)
	require.NoError(t, err)
	require.Equal(t, policy.Deny(policy.ReasonCannotRemoveOwner), decide(u2, ownerRow.Membership.ID))
	require.ErrorIs(t, svc.RemoveTeamMember(ctx, ownerRow.Membership.ID), policy.ErrCannotRemoveOwner)
	require.ErrorIs(t, svc.UpdateTeamMemberRole(ctx, ownerRow.Membership.ID, policy.TeamMember), policy.ErrCannotRemoveOwner)

	require.NoError(t, svc.UpdateTeamMemberRole(ctx, m2.ID, policy.TeamMember))
	require.Equal(t, policy.Deny(policy.ReasonForbidden), decide(u2, m2.ID))

	ids, err := svc.ActiveTeamMemberIDs(ctx, team.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{u1.ID, u2.ID}, ids)
}

func TestAcceptInvitationOnlyByInvitee(t *testing.T) {
	svc := requireDB(t)
	ctx := context.Background()

	owner := newUser(t, svc, "inviter")
	invitee := newUser(t, svc, "invitee")
	other := newUser(t, svc, "other")

	team := &models.Team{Name: "Docs", OwnerID: owner.ID}
	require.NoError(t, svc.CreateTeam(ctx, team))

	inv, err := svc.InviteTeamMember(ctx, team.ID, invitee.ID, owner.ID, policy.TeamMember)
	require.NoError(t, err)

	_, err = svc.InviteTeamMember(ctx, team.ID, invitee.ID, owner.ID, policy.TeamMember)
	require.ErrorIs(t, err, ErrConflict)

	_, err = svc.InviteTeamMember(ctx, team.ID, other.ID, owner.ID, policy.TeamOwner)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.AcceptTeamInvitation(ctx, *inv.Token, other.ID)
	require.ErrorIs(t, err, policy.ErrForbidden)

	_, err = svc.AcceptTeamInvitation(ctx, *inv.Token, invitee.ID)
	require.NoError(t, err)

	_, err = svc.AcceptTeamInvitation(ctx, *inv.Token, invitee.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoadProjectWithAccessContext(t *testing.T) {
	svc := requireDB(t)
	ctx := context.Background()

	creator := newUser(t, svc, "pcreator")
	teammate := newUser(t, svc, "teammate")
	outsider := newUser(t, svc, "outsider")

	team := &models.Team{Name: "Ops", OwnerID: teammate.ID}
	require.NoError(t, svc.CreateTeam(ctx, team))

	key := "P" + uuid.NewString()[:6]
	project := &models.Project{Key: key, Name: "Pipeline", TeamID: &team.ID, CreatedByID: creator.ID}
	require.NoError(t, svc.CreateProject(ctx, project))

	dup := &models.Project{Key: key, Name: "Again", CreatedByID: creator.ID}
	require.ErrorIs(t, svc.CreateProject(ctx, dup), ErrConflict)

	cases := []struct {
		user   *models.User
		direct bool
		team   bool
	}{
		{creator, true, false},
		{teammate, false, true},
		{outsider, false, false},
	}
	for _, tc := range cases {
		pc, err := svc.LoadProjectWithAccessContext(ctx, project.ID, tc.user.ID)
		require.NoError(t, err)
		require.Equal(t, tc.direct, pc.DirectMember, tc.user.Name)
		require.Equal(t, tc.team, pc.TeamMember, tc.user.Name)
	}

	pc, err := svc.LoadProjectWithAccessContext(ctx, uuid.New(), creator.ID)
	require.NoError(t, err)
	require.Nil(t, pc.Project)
}

func TestLoadTaskNotificationContext(t *testing.T) {
	svc := requireDB(t)
	ctx := context.Background()

	creator := newUser(t, svc, "tcreator")
	assignee := newUser(t, svc, "tassignee")
	watcher := newUser(t, svc, "twatcher")
	commenter := newUser(t, svc, "tcommenter")

	project := &models.Project{Key: "T" + uuid.NewString()[:6], Name: "Tasks", CreatedByID: creator.ID}
	require.NoError(t, svc.CreateProject(ctx, project))

	task := &models.Task{ProjectID: project.ID, Title: "Write docs", CreatorID: creator.ID, AssigneeIDs: []uuid.UUID{assignee.ID}}
	require.NoError(t, svc.CreateTask(ctx, task))
	require.NoError(t, svc.WatchTask(ctx, task.ID, watcher.ID))
	require.NoError(t, svc.WatchTask(ctx, task.ID, watcher.ID))

	for range 2 {
		require.NoError(t, svc.CreateComment(ctx, &models.Comment{TaskID: task.ID, AuthorID: commenter.ID, Content: "hi"}))
	}

	tc, err := svc.LoadTaskNotificationContext(ctx, task.ID)
	require.NoError(t, err)
	ev := tc.Event()
	require.Equal(t, creator.ID, ev.CreatorID)
	require.Equal(t, []uuid.UUID{assignee.ID}, ev.AssigneeIDs)
	require.Equal(t, []uuid.UUID{watcher.ID}, ev.WatcherIDs)
	require.Equal(t, []uuid.UUID{commenter.ID}, ev.CommenterIDs)

	task.Status = policy.TaskDone
	require.NoError(t, svc.UpdateTask(ctx, task, []uuid.UUID{watcher.ID}))
	tc, err = svc.LoadTaskNotificationContext(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, policy.TaskDone, tc.Task.Status)
	require.Equal(t, []uuid.UUID{watcher.ID}, tc.Task.AssigneeIDs)

	tc, err = svc.LoadTaskNotificationContext(ctx, uuid.New())
	require.NoError(t, err)
	require.Nil(t, tc.Task)
}

func TestNotificationLifecycle(t *testing.T) {
	svc := requireDB(t)
	ctx := context.Background()

	owner := newUser(t, svc, "inbox")
	other := newUser(t, svc, "nosy")

	for i := range 3 {
		require.NoError(t, svc.CreateNotification(ctx, policy.Draft{
			RecipientID: owner.ID,
			Title:       fmt.Sprintf("n%d", i),
			Message:     "hello",
			Type:        policy.TypeSystem,
			Metadata:    map[string]any{"i": i},
		}))
	}
	err := svc.CreateNotification(ctx, policy.Draft{RecipientID: uuid.New(), Title: "x", Message: "y", Type: policy.TypeSystem})
	require.ErrorIs(t, err, ErrValidation)

	items, unread, err := svc.ListNotifications(ctx, owner.ID, models.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.EqualValues(t, 3, unread)

	require.ErrorIs(t, svc.MarkNotificationRead(ctx, other.ID, items[0].ID), ErrNotFound)
	require.NoError(t, svc.MarkNotificationRead(ctx, owner.ID, items[0].ID))

	items, unread, err = svc.ListNotifications(ctx, owner.ID, models.NotificationFilter{UnreadOnly: true, Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.EqualValues(t, 2, unread)

	n, err := svc.MarkAllNotificationsRead(ctx, owner.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	require.ErrorIs(t, svc.DeleteNotification(ctx, other.ID, items[0].ID), ErrNotFound)
	require.NoError(t, svc.DeleteNotification(ctx, owner.ID, items[0].ID))
}

func TestCreateTagConflict(t *testing.T) {
	svc := requireDB(t)
	ctx := context.Background()

	name := "tag-" + uuid.NewString()[:8]
	require.NoError(t, svc.CreateTag(ctx, &models.Tag{Name: name}))
	require.ErrorIs(t, svc.CreateTag(ctx, &models.Tag{Name: name}), ErrConflict)
	require.ErrorIs(t, svc.CreateTag(ctx, &models.Tag{Name: "  "}), ErrValidation)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, tags)
}
