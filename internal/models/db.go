package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection and all model managers
type DB struct {
	*gorm.DB
	Users               *UserManager
	Organizations       *OrganizationManager
	OrganizationMembers *OrganizationMemberManager
	Teams               *TeamManager
	TeamMemberships     *TeamMembershipManager
	Meetings            *MeetingManager
	Projects            *ProjectManager
	Tasks               *TaskManager
	Comments            *CommentManager
	Attachments         *AttachmentManager
	Notifications       *NotificationManager
	Tags                *TagManager
}

// Options tunes the connection pool and the GORM logger.
type Options struct {
	LogLevel        logger.LogLevel
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewDB opens dsn through the pgx stdlib driver and hands the pool to GORM.
func NewDB(dsn string, opts Options) (*DB, error) {
	if dsn == "" {
		return nil, errors.New("database dsn is empty")
	}

	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return wrap(gormDB), nil
}

func wrap(gdb *gorm.DB) *DB {
	return &DB{
		DB:                  gdb,
		Users:               NewUserManager(gdb),
		Organizations:       NewOrganizationManager(gdb),
		OrganizationMembers: NewOrganizationMemberManager(gdb),
		Teams:               NewTeamManager(gdb),
		TeamMemberships:     NewTeamMembershipManager(gdb),
		Meetings:            NewMeetingManager(gdb),
		Projects:            NewProjectManager(gdb),
		Tasks:               NewTaskManager(gdb),
		Comments:            NewCommentManager(gdb),
		Attachments:         NewAttachmentManager(gdb),
		Notifications:       NewNotificationManager(gdb),
		Tags:                NewTagManager(gdb),
	}
}

// WithContext returns a DB whose managers all run under ctx.
func (db *DB) WithContext(ctx context.Context) *DB {
	return wrap(db.DB.WithContext(ctx))
}

// Transaction runs a function within a database transaction
func (db *DB) Transaction(ctx context.Context, fn func(*DB) error) error {
	return db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(wrap(tx))
	})
}

// SQL returns the underlying pool.
func (db *DB) SQL() (*sql.DB, error) {
	return db.DB.DB()
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Exists checks if a record exists (similar to Django's exists())
func Exists[T any](db *gorm.DB, query any, args ...any) (bool, error) {
	var count int64
	err := db.Model(new(T)).Where(query, args...).Limit(1).Count(&count).Error
	return count > 0, err
}

// First retrieves one record or gorm.ErrRecordNotFound.
func First[T any](db *gorm.DB, query any, args ...any) (*T, error) {
	var obj T
	if err := db.Where(query, args...).First(&obj).Error; err != nil {
		return nil, err
	}
	return &obj, nil
}
