package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"taskflex/internal/models"
	"taskflex/internal/policy"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrValidation = errors.New("invalid input")
)

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health(ctx context.Context) map[string]string

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error

	// Migrate applies the embedded schema migrations.
	Migrate() error

	// Data access contract for the access evaluator and the fanout engine.
	// A missing entity is reported through a nil field, not an error.
	LoadOrgWithCallerMembership(ctx context.Context, orgID, userID uuid.UUID) (*OrgContext, error)
	LoadTeamWithCallerMembership(ctx context.Context, teamID, userID uuid.UUID) (*TeamContext, error)
	LoadTeamMembershipTarget(ctx context.Context, membershipID uuid.UUID) (*models.TeamMembership, error)
	LoadProjectWithAccessContext(ctx context.Context, projectID, userID uuid.UUID) (*ProjectContext, error)
	LoadTaskNotificationContext(ctx context.Context, taskID uuid.UUID) (*TaskContext, error)
	LoadAttachmentWithTask(ctx context.Context, attachmentID uuid.UUID) (*AttachmentContext, error)

	// Users
	UpsertOAuthUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ResolveEmails(ctx context.Context, emails []string) (map[string]uuid.UUID, error)
	UserNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)

	// Organizations
	CreateOrganization(ctx context.Context, org *models.Organization, ownerID uuid.UUID) error
	ListOrganizations(ctx context.Context, userID uuid.UUID) ([]models.Organization, error)
	OrganizationMembers(ctx context.Context, orgID uuid.UUID) ([]models.OrganizationMember, error)
	UpdateOrganization(ctx context.Context, org *models.Organization) error
	SetOrganizationAdminKey(ctx context.Context, orgID uuid.UUID, hash []byte) error
	DeleteOrganization(ctx context.Context, orgID uuid.UUID) error
	AddOrganizationMember(ctx context.Context, orgID, userID uuid.UUID, role policy.OrgRole) (*models.OrganizationMember, error)

	// Teams and meetings
	CreateTeam(ctx context.Context, team *models.Team) error
	ListTeams(ctx context.Context, userID uuid.UUID) ([]models.Team, error)
	TeamMembers(ctx context.Context, teamID uuid.UUID) ([]models.TeamMembership, error)
	ActiveTeamMemberIDs(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error)
	UpdateTeam(ctx context.Context, team *models.Team) error
	InviteTeamMember(ctx context.Context, teamID, userID, inviterID uuid.UUID, role policy.TeamRole) (*models.TeamMembership, error)
	AcceptTeamInvitation(ctx context.Context, token string, userID uuid.UUID) (*models.TeamMembership, error)
	UpdateTeamMemberRole(ctx context.Context, membershipID uuid.UUID, role policy.TeamRole) error
	RemoveTeamMember(ctx context.Context, membershipID uuid.UUID) error
	ListMeetings(ctx context.Context, teamID uuid.UUID) ([]models.Meeting, error)
	CreateMeeting(ctx context.Context, meeting *models.Meeting) error
	GetMeeting(ctx context.Context, teamID, meetingID uuid.UUID) (*models.Meeting, error)
	DeleteMeeting(ctx context.Context, meetingID uuid.UUID) error

	// Projects and tasks
	CreateProject(ctx context.Context, project *models.Project) error
	ListProjects(ctx context.Context, p *policy.Principal) ([]models.Project, error)
	ProjectTasks(ctx context.Context, projectID uuid.UUID) ([]models.Task, error)
	AddProjectMember(ctx context.Context, projectID, userID uuid.UUID) error
	DeleteProject(ctx context.Context, projectID uuid.UUID) error
	CreateTask(ctx context.Context, task *models.Task) error
	GetTaskDetail(ctx context.Context, taskID uuid.UUID) (*models.TaskDetail, error)
	UpdateTask(ctx context.Context, task *models.Task, assigneeIDs []uuid.UUID) error
	WatchTask(ctx context.Context, taskID, userID uuid.UUID) error
	ListComments(ctx context.Context, taskID uuid.UUID) ([]models.Comment, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	CreateAttachment(ctx context.Context, attachment *models.Attachment) error

	// Notifications
	CreateNotification(ctx context.Context, d policy.Draft) error
	ListNotifications(ctx context.Context, userID uuid.UUID, f models.NotificationFilter) ([]models.Notification, int64, error)
	MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteNotification(ctx context.Context, userID, id uuid.UUID) error

	// Tags
	ListTags(ctx context.Context) ([]models.Tag, error)
	CreateTag(ctx context.Context, tag *models.Tag) error
}

type service struct {
	db  *models.DB
	log zerolog.Logger
}

// New opens the database described by dsn.
func New(dsn string, opts models.Options, log zerolog.Logger) (Service, error) {
	db, err := models.NewDB(dsn, opts)
	if err != nil {
		return nil, err
	}
	return &service{db: db, log: log.With().Str("component", "database").Logger()}, nil
}

// NewWithDB wraps an already opened connection.
func NewWithDB(db *models.DB, log zerolog.Logger) Service {
	return &service{db: db, log: log.With().Str("component", "database").Logger()}
}

func (s *service) with(ctx context.Context) *models.DB {
	return s.db.WithContext(ctx)
}

// Health checks the health of the database connection by pinging the database.
// It returns a map with keys indicating various health statistics.
func (s *service) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	stats := make(map[string]string)

	sqlDB, err := s.db.SQL()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		s.log.Error().Err(err).Msg("database health check failed")
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := sqlDB.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()
	stats["max_idle_closed"] = strconv.FormatInt(dbStats.MaxIdleClosed, 10)
	stats["max_lifetime_closed"] = strconv.FormatInt(dbStats.MaxLifetimeClosed, 10)

	// Evaluate stats to provide a health message
	if dbStats.OpenConnections > 40 {
		stats["message"] = "The database is experiencing heavy load."
	}
	if dbStats.WaitCount > 1000 {
		stats["message"] = "The database has a high number of wait events, indicating potential bottlenecks."
	}
	if dbStats.MaxIdleClosed > int64(dbStats.OpenConnections)/2 {
		stats["message"] = "Many idle connections are being closed, consider revising the connection pool settings."
	}
	if dbStats.MaxLifetimeClosed > int64(dbStats.OpenConnections)/2 {
		stats["message"] = "Many connections are being closed due to max lifetime, consider increasing max lifetime or revising the connection usage pattern."
	}

	return stats
}

// Close closes the database connection.
func (s *service) Close() error {
	s.log.Info().Msg("disconnected from database")
	return s.db.Close()
}

func (s *service) Migrate() error {
	m, err := models.NewMigrator(s.db)
	if err != nil {
		return err
	}
	return m.Up()
}

// translate maps driver and ORM errors onto the package sentinels so callers
// can use errors.Is.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	case errors.Is(err, gorm.ErrForeignKeyViolated), errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%s: %w", op, ErrValidation)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w (%s)", op, ErrConflict, pgErr.ConstraintName)
		case "23503", "23514", "22P02", "23502":
			return fmt.Errorf("%s: %w (%s)", op, ErrValidation, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// optional turns a not-found lookup into a nil result.
func optional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return v, err
}
