package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskflex/internal/policy"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID         `gorm:"type:uuid;not null" json:"projectId"`
	Title       string            `gorm:"column:title;not null" json:"title"`
	Description string            `gorm:"column:description" json:"description"`
	Status      policy.TaskStatus `gorm:"column:status;not null;default:TODO" json:"status"`
	Priority    TaskPriority      `gorm:"column:priority;not null;default:MEDIUM" json:"priority"`
	CreatorID   uuid.UUID         `gorm:"type:uuid;column:creator_id;not null" json:"creatorId"`
	DueDate     *time.Time        `gorm:"column:due_date" json:"dueDate,omitempty"`
	Timestamps

	AssigneeIDs []uuid.UUID `gorm:"-" json:"assigneeIds"`
	WatcherIDs  []uuid.UUID `gorm:"-" json:"watcherIds"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	newID(&t.ID)
	if t.Status == "" {
		t.Status = policy.TaskTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	return nil
}

func (t *Task) Ref() policy.TaskRef {
	return policy.TaskRef{ID: t.ID, Title: t.Title, ProjectID: t.ProjectID}
}

type TaskAssignee struct {
	TaskID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (TaskAssignee) TableName() string { return "task_assignees" }

type TaskWatcher struct {
	TaskID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (TaskWatcher) TableName() string { return "task_watchers" }

type TaskManager struct {
	db *gorm.DB
}

func NewTaskManager(db *gorm.DB) *TaskManager {
	return &TaskManager{db: db}
}

// Create inserts the task and its assignee rows.
func (m *TaskManager) Create(task *Task) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		return NewTaskManager(tx).AddAssignees(task.ID, task.AssigneeIDs)
	})
}

// Get loads the task with its assignee and watcher ids.
func (m *TaskManager) Get(id uuid.UUID) (*Task, error) {
	task, err := First[Task](m.db, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if task.AssigneeIDs, err = m.AssigneeIDs(id); err != nil {
		return nil, err
	}
	if task.WatcherIDs, err = m.WatcherIDs(id); err != nil {
		return nil, err
	}
	return task, nil
}

func (m *TaskManager) ForProject(projectID uuid.UUID) ([]Task, error) {
	var tasks []Task
	err := m.db.Where("project_id = ?", projectID).Order("created_at ASC").Find(&tasks).Error
	return tasks, err
}

// Update writes the mutable columns.
func (m *TaskManager) Update(task *Task) error {
	return m.db.Model(task).
		Select("title", "description", "status", "priority", "due_date", "updated_at").
		Updates(task).Error
}

func (m *TaskManager) AssigneeIDs(taskID uuid.UUID) ([]uuid.UUID, error) {
	return idsOf(m.db, &TaskAssignee{}, "user_id", "task_id = ?", taskID)
}

func (m *TaskManager) WatcherIDs(taskID uuid.UUID) ([]uuid.UUID, error) {
	return idsOf(m.db, &TaskWatcher{}, "user_id", "task_id = ?", taskID)
}

// AddAssignees ignores users who are already assigned.
func (m *TaskManager) AddAssignees(taskID uuid.UUID, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]TaskAssignee, 0, len(userIDs))
	for _, id := range userIDs {
		rows = append(rows, TaskAssignee{TaskID: taskID, UserID: id})
	}
	return m.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// ReplaceAssignees sets the assignee list to exactly userIDs.
func (m *TaskManager) ReplaceAssignees(taskID uuid.UUID, userIDs []uuid.UUID) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		q := tx.Where("task_id = ?", taskID)
		if len(userIDs) > 0 {
			q = q.Where("user_id NOT IN ?", userIDs)
		}
		if err := q.Delete(&TaskAssignee{}).Error; err != nil {
			return err
		}
		return NewTaskManager(tx).AddAssignees(taskID, userIDs)
	})
}

// Watch adds userID as a watcher; watching twice is a no-op.
func (m *TaskManager) Watch(taskID, userID uuid.UUID) error {
	return m.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&TaskWatcher{TaskID: taskID, UserID: userID}).Error
}
