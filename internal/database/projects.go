package database

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"taskflex/internal/models"
	"taskflex/internal/policy"
)

func (s *service) CreateProject(ctx context.Context, project *models.Project) error {
	if strings.TrimSpace(project.Key) == "" || strings.TrimSpace(project.Name) == "" {
		return translate("create project", ErrValidation)
	}
	return translate("create project", s.with(ctx).Projects.CreateWithMember(project))
}

// ListProjects returns every project to MANAGER and above, and the
// reachable ones to everybody else.
func (s *service) ListProjects(ctx context.Context, p *policy.Principal) ([]models.Project, error) {
	db := s.with(ctx)
	var (
		projects []models.Project
		err      error
	)
	if p.Role.AtLeast(policy.GlobalManager) {
		projects, err = db.Projects.All()
	} else {
		projects, err = db.Projects.Accessible(p.UserID)
	}
	return projects, translate("list projects", err)
}

func (s *service) ProjectTasks(ctx context.Context, projectID uuid.UUID) ([]models.Task, error) {
	tasks, err := s.with(ctx).Tasks.ForProject(projectID)
	return tasks, translate("list project tasks", err)
}

func (s *service) AddProjectMember(ctx context.Context, projectID, userID uuid.UUID) error {
	return translate("add project member", s.with(ctx).Projects.AddMember(projectID, userID))
}

func (s *service) DeleteProject(ctx context.Context, projectID uuid.UUID) error {
	return translate("delete project", s.with(ctx).Projects.Delete(projectID))
}

func (s *service) CreateTask(ctx context.Context, task *models.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return translate("create task", ErrValidation)
	}
	if task.Status != "" && !task.Status.Valid() {
		return translate("create task", ErrValidation)
	}
	if task.Priority != "" && !task.Priority.Valid() {
		return translate("create task", ErrValidation)
	}
	return translate("create task", s.with(ctx).Tasks.Create(task))
}

func (s *service) GetTaskDetail(ctx context.Context, taskID uuid.UUID) (*models.TaskDetail, error) {
	db := s.with(ctx)
	task, err := db.Tasks.Get(taskID)
	if err != nil {
		return nil, translate("get task", err)
	}
	detail := &models.TaskDetail{Task: *task}
	if detail.Comments, err = db.Comments.ForTask(taskID); err != nil {
		return nil, translate("get task comments", err)
	}
	if detail.Attachments, err = db.Attachments.ForTask(taskID); err != nil {
		return nil, translate("get task attachments", err)
	}
	return detail, nil
}

// UpdateTask writes the task columns and, when assigneeIDs is non-nil,
// replaces the assignee list in the same transaction.
func (s *service) UpdateTask(ctx context.Context, task *models.Task, assigneeIDs []uuid.UUID) error {
	if strings.TrimSpace(task.Title) == "" || !task.Status.Valid() || !task.Priority.Valid() {
		return translate("update task", ErrValidation)
	}
	err := s.db.Transaction(ctx, func(tx *models.DB) error {
		if err := tx.Tasks.Update(task); err != nil {
			return err
		}
		if assigneeIDs == nil {
			return nil
		}
		if err := tx.Tasks.ReplaceAssignees(task.ID, assigneeIDs); err != nil {
			return err
		}
		task.AssigneeIDs = assigneeIDs
		return nil
	})
	return translate("update task", err)
}

func (s *service) WatchTask(ctx context.Context, taskID, userID uuid.UUID) error {
	return translate("watch task", s.with(ctx).Tasks.Watch(taskID, userID))
}

func (s *service) ListComments(ctx context.Context, taskID uuid.UUID) ([]models.Comment, error) {
	comments, err := s.with(ctx).Comments.ForTask(taskID)
	return comments, translate("list comments", err)
}

func (s *service) CreateComment(ctx context.Context, comment *models.Comment) error {
	if strings.TrimSpace(comment.Content) == "" {
		return translate("create comment", ErrValidation)
	}
	return translate("create comment", s.with(ctx).Comments.Create(comment))
}

func (s *service) CreateAttachment(ctx context.Context, attachment *models.Attachment) error {
	return translate("create attachment", s.with(ctx).Attachments.Create(attachment))
}
