package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// Handlers binds the mutation services and cached views to routes.
type Handlers struct {
	Views         Views
	Tasks         TaskMutations
	Projects      ProjectMutations
	Invites       InviteMutations
	Notifications NotificationMutations
	Goals         GoalMutations
	Auth          Authenticator
	Logger        *log.Logger
}

// Register wires all routes onto e.
func (h *Handlers) Register(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	g := e.Group("/api", h.observe)

	g.GET("/projects", h.listProjects)
	g.POST("/projects", h.createProject)
	g.GET("/projects/:id", h.getProject)
	g.PATCH("/projects/:id", h.updateProject)
	g.DELETE("/projects/:id", h.deleteProject)
	g.POST("/projects/:id/sections", h.createSection)

	g.PATCH("/sections/:id", h.renameSection)
	g.POST("/sections/:id/reorder", h.reorderSection)
	g.DELETE("/sections/:id", h.deleteSection)

	g.POST("/tasks", h.createTask)
	g.PATCH("/tasks/:id", h.updateTask)
	g.POST("/tasks/:id/move", h.moveTask)
	g.DELETE("/tasks/:id", h.deleteTask)

	g.POST("/tasks/:id/comments", h.addComment)
	g.DELETE("/comments/:id", h.deleteComment)
	g.POST("/tasks/:id/subtasks", h.addSubtask)
	g.POST("/subtasks/:id/toggle", h.toggleSubtask)
	g.DELETE("/subtasks/:id", h.deleteSubtask)

	g.GET("/teams", h.listTeams)
	g.POST("/invites", h.createInvite)
	g.POST("/invites/accept", h.acceptInvite)

	g.GET("/notifications/unread", h.unreadCount)
	g.POST("/notifications/:id/read", h.markRead)
	g.POST("/notifications/read-all", h.markAllRead)

	g.GET("/goals", h.listGoals)
	g.POST("/goals", h.createGoal)
	g.PATCH("/goals/:id/progress", h.updateGoalProgress)
	g.GET("/portfolios", h.listPortfolios)
	g.POST("/portfolios", h.createPortfolio)
	g.POST("/portfolios/:id/projects", h.addPortfolioProject)
}

func (h *Handlers) userID(c echo.Context) (string, bool) {
	id, err := h.Auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return "", false
	}
	return id, true
}

// Cached views.

func (h *Handlers) getProject(c echo.Context) error {
	if _, ok := h.userID(c); !ok {
		return respondAuthErr(c)
	}
	detail, err := h.Views.FetchProjectDetail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handlers) listProjects(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	projects, err := h.Views.FetchProjectList(c.Request().Context(), userID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, projects)
}

func (h *Handlers) listTeams(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	teams, err := h.Views.FetchTeamList(c.Request().Context(), userID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, teams)
}

func (h *Handlers) unreadCount(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	count, err := h.Views.FetchUnreadCount(c.Request().Context(), userID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"unread": count})
}

// Task mutations.

func (h *Handlers) createTask(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	var req createTaskRequest
	if err := decodeBody(c, &req); err != nil {
		return respondErr(c, err)
	}
	task, err := h.Tasks.CreateTask(c.Request().Context(), userID, req.input())
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, task)
}

func (h *Handlers) updateTask(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	var req updateTaskRequest
	if err := decodeBody(c, &req); err != nil {
		return respondErr(c, err)
	}
	task, err := h.Tasks.UpdateTask(c.Request().Context(), userID, c.Param("id"), req.patch())
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handlers) moveTask(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	var req moveTaskRequest
	if err := decodeBody(c, &req); err != nil {
		return respondErr(c, err)
	}
	task, err := h.Tasks.MoveTask(c.Request().Context(), userID, c.Param("id"), req.SectionID, req.Position)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handlers) deleteTask(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	if err := h.Tasks.DeleteTask(c.Request().Context(), userID, c.Param("id")); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) addComment(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	var req commentRequest
	if err := decodeBody(c, &req); err != nil {
		return respondErr(c, err)
	}
	comment, err := h.Tasks.AddComment(c.Request().Context(), userID, c.Param("id"), req.Body)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, comment)
}

func (h *Handlers) deleteComment(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	if err := h.Tasks.DeleteComment(c.Request().Context(), userID, c.Param("id")); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) addSubtask(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	var req subtaskRequest
	if err := decodeBody(c, &req); err != nil {
		return respondErr(c, err)
	}
	subtask, err := h.Tasks.AddSubtask(c.Request().Context(), userID, c.Param("id"), req.Title)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, subtask)
}

func (h *Handlers) toggleSubtask(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	subtask, err := h.Tasks.ToggleSubtask(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, subtask)
}

func (h *Handlers) deleteSubtask(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	if err := h.Tasks.DeleteSubtask(c.Request().Context(), userID, c.Param("id")); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Project and section mutations.

func (h *Handlers) createProject(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	var req createProjectRequest
	if err := decodeBody(c, &req); err != nil {
		return respondErr(c, err)
	}
	project, err := h.Projects.CreateProject(c.Request().Context(), userID, req.TeamID, req.Name, req.Description, req.Color)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, project)
}

func (h *Handlers) updateProject(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	var req updateProjectRequest
	if err := decodeBody(c, &req); err != nil {
		return respondErr(c, err)
	}
	project, err := h.Projects.UpdateProject(c.Request().Context(), userID, c.Param("id"), req.patch())
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, project)
}

func (h *Handlers) deleteProject(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	if err := h.Projects.DeleteProject(c.Request().Context(), userID, c.Param("id")); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) createSection(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	var req createSectionRequest
	if err := decodeBody(c, &req); err != nil {
		return respondErr(c, err)
	}
	section, err := h.Projects.CreateSection(c.Request().Context(), userID, c.Param("id"), req.Name)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, section)
}

func (h *Handlers) renameSection(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	var req renameSectionRequest
	if err := decodeBody(c, &req); err != nil {
		return respondErr(c, err)
	}
	section, err := h.Projects.RenameSection(c.Request().Context(), userID, c.Param("id"), req.Name)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, section)
}

func (h *Handlers) reorderSection(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	var req reorderSectionRequest
	if err := decodeBody(c, &req); err != nil {
		return respondErr(c, err)
	}
	section, err := h.Projects.ReorderSection(c.Request().Context(), userID, c.Param("id"), req.Position)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, section)
}

func (h *Handlers) deleteSection(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	if err := h.Projects.DeleteSection(c.Request().Context(), userID, c.Param("id")); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Invites.

func (h *Handlers) createInvite(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	var req createInviteRequest
	if err := decodeBody(c, &req); err != nil {
		return respondErr(c, err)
	}
	invite, err := h.Invites.CreateInvite(c.Request().Context(), userID, req.TeamID, req.Email)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, invite)
}

func (h *Handlers) acceptInvite(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	var req acceptInviteRequest
	if err := decodeBody(c, &req); err != nil {
		return respondErr(c, err)
	}
	invite, err := h.Invites.AcceptInvite(c.Request().Context(), userID, req.Token)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, invite)
}

// Notifications.

func (h *Handlers) markRead(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	if err := h.Notifications.MarkRead(c.Request().Context(), userID, c.Param("id")); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) markAllRead(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	if err := h.Notifications.MarkAllRead(c.Request().Context(), userID); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Goals and portfolios.

func (h *Handlers) listGoals(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	goals, err := h.Goals.ListGoals(c.Request().Context(), userID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, goals)
}

func (h *Handlers) createGoal(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	var req createGoalRequest
	if err := decodeBody(c, &req); err != nil {
		return respondErr(c, err)
	}
	goal, err := h.Goals.CreateGoal(c.Request().Context(), userID, req.TeamID, req.Title, req.DueDate)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, goal)
}

func (h *Handlers) updateGoalProgress(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	var req goalProgressRequest
	if err := decodeBody(c, &req); err != nil {
		return respondErr(c, err)
	}
	if err := h.Goals.UpdateProgress(c.Request().Context(), userID, c.Param("id"), req.Progress); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) listPortfolios(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	portfolios, err := h.Goals.ListPortfolios(c.Request().Context(), userID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, portfolios)
}

func (h *Handlers) createPortfolio(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	var req createPortfolioRequest
	if err := decodeBody(c, &req); err != nil {
		return respondErr(c, err)
	}
	portfolio, err := h.Goals.CreatePortfolio(c.Request().Context(), userID, req.Name, req.Color)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, portfolio)
}

func (h *Handlers) addPortfolioProject(c echo.Context) error {
	userID, ok := h.userID(c)
	if !ok {
		return respondAuthErr(c)
	}
	var req portfolioProjectRequest
	if err := decodeBody(c, &req); err != nil {
		return respondErr(c, err)
	}
	if err := h.Goals.AddProjectToPortfolio(c.Request().Context(), userID, c.Param("id"), req.ProjectID); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
