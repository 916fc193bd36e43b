package routes

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"taskflex/internal/database"
	"taskflex/internal/models"
	"taskflex/internal/policy"
)

type TaskRoutes struct {
	handler
}

func NewTaskRoutes(server ServerInterface) *TaskRoutes {
	return &TaskRoutes{handler{server: server}}
}

func (tr *TaskRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(tr.server)

	g := r.Group("/tasks", middleware.AuthMiddleware())
	g.GET("/:taskID", tr.getTaskHandler)
	g.PATCH("/:taskID", tr.updateTaskHandler)
	g.POST("/:taskID/watchers", tr.watchTaskHandler)
	g.GET("/:taskID/comments", tr.listCommentsHandler)
	g.POST("/:taskID/comments", tr.createCommentHandler)
	g.POST("/:taskID/attachments", tr.uploadAttachmentHandler)
}

// loadTask resolves the task in the path together with everyone its
// notifications may address, and checks a against the owning project.
func (h handler) loadTask(c *gin.Context, a policy.Action) (*database.TaskContext, bool) {
	taskID, ok := uuidParam(c, "taskID")
	if !ok {
		return nil, false
	}
	tc, err := h.db().LoadTaskNotificationContext(c.Request.Context(), taskID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if tc.Task == nil {
		authorize(c, a, policy.ProjectResource{})
		return nil, false
	}
	if _, ok := h.loadProject(c, tc.Task.ProjectID, a); !ok {
		return nil, false
	}
	return tc, true
}

func (pr *ProjectRoutes) createTaskHandler(c *gin.Context) {
	pc, ok := pr.projectFromPath(c, policy.CreateTask)
	if !ok {
		return
	}

	var req struct {
		Title       string              `json:"title" binding:"required"`
		Description string              `json:"description"`
		Status      policy.TaskStatus   `json:"status"`
		Priority    models.TaskPriority `json:"priority"`
		DueDate     *time.Time          `json:"dueDate"`
		AssigneeIDs []uuid.UUID         `json:"assigneeIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p := principal(c)
	task := &models.Task{
		ProjectID:   pc.Project.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		CreatorID:   p.UserID,
		DueDate:     req.DueDate,
		AssigneeIDs: req.AssigneeIDs,
	}
	if err := pr.db().CreateTask(c.Request.Context(), task); err != nil {
		respondError(c, err)
		return
	}

	if len(task.AssigneeIDs) > 0 {
		pr.publish(c, policy.TaskAssigned{
			Task:        task.Ref(),
			AssigneeIDs: task.AssigneeIDs,
			ActorID:     p.UserID,
			ActorName:   p.Name,
		})
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

func (tr *TaskRoutes) getTaskHandler(c *gin.Context) {
	tc, ok := tr.loadTask(c, policy.ViewTask)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	detail, err := tr.db().GetTaskDetail(ctx, tc.Task.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	people, err := tr.db().UserNames(ctx, append([]uuid.UUID{detail.CreatorID}, detail.AssigneeIDs...))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": detail, "people": people})
}

// updateTaskHandler applies a partial update. Newly added assignees get a
// TaskAssigned notification; a status change notifies the task audience.
func (tr *TaskRoutes) updateTaskHandler(c *gin.Context) {
	tc, ok := tr.loadTask(c, policy.UpdateTask)
	if !ok {
		return
	}

	var req struct {
		Title       *string              `json:"title"`
		Description *string              `json:"description"`
		Status      *policy.TaskStatus   `json:"status"`
		Priority    *models.TaskPriority `json:"priority"`
		DueDate     *time.Time           `json:"dueDate"`
		AssigneeIDs *[]uuid.UUID         `json:"assigneeIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	task := tc.Task
	before := task.Status
	previous := slices.Clone(task.AssigneeIDs)

	if req.Title != nil {
		task.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	var assignees []uuid.UUID
	if req.AssigneeIDs != nil {
		assignees = *req.AssigneeIDs
		if assignees == nil {
			assignees = []uuid.UUID{}
		}
	}

	if err := tr.db().UpdateTask(c.Request.Context(), task, assignees); err != nil {
		respondError(c, err)
		return
	}

	p := principal(c)
	if added := newIDs(previous, task.AssigneeIDs); len(added) > 0 {
		tr.publish(c, policy.TaskAssigned{
			Task:        task.Ref(),
			AssigneeIDs: added,
			ActorID:     p.UserID,
			ActorName:   p.Name,
		})
	}
	if task.Status != before {
		tr.publish(c, policy.TaskStatusChanged{
			Task:      tc.Event(),
			From:      before,
			To:        task.Status,
			ActorID:   p.UserID,
			ActorName: p.Name,
		})
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// newIDs returns the ids in next that are not in prev.
func newIDs(prev, next []uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	for _, id := range next {
		if !slices.Contains(prev, id) && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func (tr *TaskRoutes) watchTaskHandler(c *gin.Context) {
	tc, ok := tr.loadTask(c, policy.ViewTask)
	if !ok {
		return
	}
	if err := tr.db().WatchTask(c.Request.Context(), tc.Task.ID, principal(c).UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Watching task"})
}

func (tr *TaskRoutes) listCommentsHandler(c *gin.Context) {
	tc, ok := tr.loadTask(c, policy.ViewTask)
	if !ok {
		return
	}
	comments, err := tr.db().ListComments(c.Request.Context(), tc.Task.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// createCommentHandler stores the comment, then resolves @mentions to users
// and fans the comment out to the task audience.
func (tr *TaskRoutes) createCommentHandler(c *gin.Context) {
	tc, ok := tr.loadTask(c, policy.CommentOnTask)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p := principal(c)
	ctx := c.Request.Context()
	comment := &models.Comment{TaskID: tc.Task.ID, AuthorID: p.UserID, Content: req.Content}
	if err := tr.db().CreateComment(ctx, comment); err != nil {
		respondError(c, err)
		return
	}

	// The comment is already stored; an unresolved directory only drops the
	// mention notifications.
	directory, err := tr.db().ResolveEmails(ctx, policy.Mentions(req.Content))
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Stringer("comment_id", comment.ID).Msg("mention lookup failed")
	}
	tr.publish(c, policy.CommentAdded{
		Task:      tc.Event(),
		CommentID: comment.ID,
		Content:   comment.Content,
		ActorID:   p.UserID,
		ActorName: p.Name,
		Directory: directory,
	})
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}
