package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/leeovery/termtodo/internal/export"
	"github.com/leeovery/termtodo/internal/importer"
	"github.com/leeovery/termtodo/internal/query"
	"github.com/leeovery/termtodo/internal/settings"
	"github.com/leeovery/termtodo/internal/task"
)

// patchRequest is the PATCH /tasks/:id body. Absent fields are unchanged;
// Clear names optional fields to remove.
type patchRequest struct {
	Title           *string           `json:"title"`
	Description     *string           `json:"description"`
	Category        *task.Category    `json:"category"`
	Priority        *task.Priority    `json:"priority"`
	Status          *task.Status      `json:"status"`
	Tags            *[]string         `json:"tags"`
	DueDate         *time.Time        `json:"dueDate"`
	Reminder        *time.Time        `json:"reminder"`
	ReminderEnabled *bool             `json:"reminderEnabled"`
	NotificationID  *string           `json:"notificationId"`
	EstimatedTime   *int              `json:"estimatedTime"`
	ActualTime      *int              `json:"actualTime"`
	Subtasks        *[]task.Subtask   `json:"subtasks"`
	CodeSnippet     *task.CodeSnippet `json:"codeSnippet"`
	Dependencies    *[]string         `json:"dependencies"`
	PomodoroCount   *int              `json:"pomodoroCount"`
	TotalFocusTime  *int              `json:"totalFocusTime"`
	Clear           []string          `json:"clear"`
}

func (r patchRequest) patch() (task.Patch, error) {
	p := task.Patch{
		Title:           r.Title,
		Description:     r.Description,
		Category:        r.Category,
		Priority:        r.Priority,
		Status:          r.Status,
		Tags:            r.Tags,
		DueDate:         r.DueDate,
		Reminder:        r.Reminder,
		ReminderEnabled: r.ReminderEnabled,
		NotificationID:  r.NotificationID,
		EstimatedTime:   r.EstimatedTime,
		ActualTime:      r.ActualTime,
		Subtasks:        r.Subtasks,
		CodeSnippet:     r.CodeSnippet,
		Dependencies:    r.Dependencies,
		PomodoroCount:   r.PomodoroCount,
		TotalFocusTime:  r.TotalFocusTime,
	}
	if p.Tags != nil {
		tags := task.DeduplicateTags(*p.Tags)
		p.Tags = &tags
	}
	if p.Dependencies != nil {
		deps := task.DeduplicateDependencies(*p.Dependencies)
		p.Dependencies = &deps
	}
	for _, field := range r.Clear {
		switch field {
		case "dueDate":
			p.ClearDueDate = true
		case "reminder":
			p.ClearReminder = true
		case "estimatedTime":
			p.ClearEstimate = true
		case "actualTime":
			p.ClearActual = true
		case "codeSnippet":
			p.ClearCode = true
		default:
			return task.Patch{}, fmt.Errorf("cannot clear %q", field)
		}
	}
	return p, nil
}

func (s *Server) listTasks(c *gin.Context) {
	opts, err := queryOptions(c)
	if err != nil {
		invalid(c, err)
		return
	}
	tasks, err := s.store.GetTasks()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(query.Process(tasks, opts)))
}

// queryOptions reads q, regex, category, priority, status, tag, dueFrom,
// dueTo, sort and dir. List parameters may repeat or be comma-separated.
func queryOptions(c *gin.Context) (query.Options, error) {
	filters, err := query.ParseFilters(list(c, "category"), list(c, "priority"), list(c, "status"), list(c, "tag"))
	if err != nil {
		return query.Options{}, err
	}
	if from, to := c.Query("dueFrom"), c.Query("dueTo"); from != "" || to != "" {
		var r query.DateRange
		if from != "" {
			t, err := parseTime(from)
			if err != nil {
				return query.Options{}, err
			}
			r.Start = &t
		}
		if to != "" {
			t, err := parseTime(to)
			if err != nil {
				return query.Options{}, err
			}
			if len(to) == len(task.DateFormat) {
				t = t.Add(24*time.Hour - time.Millisecond)
			}
			r.End = &t
		}
		filters.DueRange = &r
	}
	key, err := query.ParseSortKey(c.Query("sort"))
	if err != nil {
		return query.Options{}, err
	}
	dir, err := query.ParseDirection(c.Query("dir"))
	if err != nil {
		return query.Options{}, err
	}
	return query.Options{
		Query:     c.Query("q"),
		UseRegex:  c.Query("regex") == "true",
		Filters:   filters,
		SortBy:    key,
		Direction: dir,
	}, nil
}

func (s *Server) createTask(c *gin.Context) {
	var draft task.Task
	if err := c.ShouldBindJSON(&draft); err != nil {
		invalid(c, err)
		return
	}

	prefs, err := s.store.GetSettings()
	if err != nil {
		s.fail(c, err)
		return
	}
	if draft.Category == "" {
		draft.Category = prefs.DefaultCategory
	}
	if draft.Priority == "" {
		draft.Priority = prefs.DefaultPriority
	}
	task.ApplyDefaults(&draft)
	draft.Tags = task.DeduplicateTags(draft.Tags)
	draft.Dependencies = task.DeduplicateDependencies(draft.Dependencies)
	if err := task.Validate(draft); err != nil {
		invalid(c, err)
		return
	}

	if len(draft.Dependencies) > 0 {
		tasks, err := s.store.GetTasks()
		if err != nil {
			s.fail(c, err)
			return
		}
		if err := task.ValidateDependencies(tasks, "", draft.Dependencies); err != nil {
			invalid(c, err)
			return
		}
	}

	created, err := s.store.AddTask(draft)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) getTask(c *gin.Context) {
	t, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) updateTask(c *gin.Context) {
	var req patchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}
	p, err := req.patch()
	if err != nil {
		invalid(c, err)
		return
	}

	current, ok := s.lookup(c)
	if !ok {
		return
	}
	if _, err := task.Apply(&current, p, s.now()); err != nil {
		invalid(c, err)
		return
	}
	if p.Dependencies != nil {
		tasks, err := s.store.GetTasks()
		if err != nil {
			s.fail(c, err)
			return
		}
		if err := task.ValidateDependencies(tasks, current.ID, *p.Dependencies); err != nil {
			invalid(c, err)
			return
		}
	}

	updated, err := s.store.UpdateTask(current.ID, p)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteTask(c *gin.Context) {
	if err := s.store.DeleteTask(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) toggleTask(c *gin.Context) {
	updated, err := s.store.ToggleTaskComplete(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) addSubtask(c *gin.Context) {
	var body struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		invalid(c, err)
		return
	}
	if _, err := task.ValidateTitle(body.Title); err != nil {
		invalid(c, err)
		return
	}
	updated, err := s.store.AddSubtask(c.Param("id"), body.Title)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, updated)
}

func (s *Server) toggleSubtask(c *gin.Context) {
	updated, err := s.store.ToggleSubtask(c.Param("id"), c.Param("sid"))
	if errors.Is(err, task.ErrSubtaskNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": errorBody{Code: "SUBTASK_NOT_FOUND", Message: err.Error()}})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) listTags(c *gin.Context) {
	tasks, err := s.store.GetTasks()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, query.AllTags(tasks))
}

type statsResponse struct {
	export.Stats
	Overdue        int `json:"overdue"`
	TotalCompleted int `json:"totalCompleted"`
}

func (s *Server) stats(c *gin.Context) {
	tasks, err := s.store.GetTasks()
	if err != nil {
		s.fail(c, err)
		return
	}
	total, err := s.store.TotalCompleted()
	if err != nil {
		s.fail(c, err)
		return
	}
	resp := statsResponse{Stats: export.GetStats(tasks), TotalCompleted: total}
	now := s.now()
	for _, t := range tasks {
		if t.DueDate != nil && t.DueDate.Before(now) && t.Status != task.StatusCompleted && t.Status != task.StatusArchived {
			resp.Overdue++
		}
	}
	c.JSON(http.StatusOK, resp)
}

var contentTypes = map[export.Format]string{
	export.FormatJSON:     "application/json; charset=utf-8",
	export.FormatMarkdown: "text/markdown; charset=utf-8",
	export.FormatText:     "text/plain; charset=utf-8",
	export.FormatGitHub:   "text/markdown; charset=utf-8",
}

func (s *Server) exportTasks(c *gin.Context) {
	f, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatJSON)))
	if err != nil {
		invalid(c, err)
		return
	}
	filters, err := query.ParseFilters(list(c, "category"), nil, nil, nil)
	if err != nil {
		invalid(c, err)
		return
	}
	opts := export.Options{
		Format:           f,
		IncludeCompleted: c.Query("includeCompleted") == "true",
		IncludeArchived:  c.Query("includeArchived") == "true",
		Categories:       filters.Categories,
	}

	tasks, err := s.store.GetTasks()
	if err != nil {
		s.fail(c, err)
		return
	}
	out, err := export.New(export.WithClock(s.now)).Export(tasks, opts)
	if err != nil {
		invalid(c, err)
		return
	}
	name, _ := export.Filename(f, s.now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentTypes[f], []byte(out))
}

func (s *Server) importTasks(c *gin.Context) {
	f, err := importer.ParseFormat(c.Query("format"))
	if err != nil {
		invalid(c, err)
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		invalid(c, err)
		return
	}

	existing, err := s.store.GetTasks()
	if err != nil {
		s.fail(c, err)
		return
	}
	res, err := importer.New(importer.WithClock(s.now)).Import(string(body), f, existing)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errorBody{Code: "IMPORT_INVALID_FORMAT", Message: err.Error()}})
		return
	}
	if c.Query("force") == "true" {
		res = importer.IncludeDuplicates(res)
	}

	var sink importer.Sink = s.store
	if c.Query("dryRun") == "true" {
		sink = importer.DryRun{}
	}
	stored, err := importer.Commit(sink, res)
	if err != nil {
		s.fail(c, err)
		return
	}
	res.Tasks = stored
	c.JSON(http.StatusOK, res)
}

func (s *Server) backup(c *gin.Context) {
	data, err := s.store.ExportJSON()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (s *Server) restore(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		invalid(c, err)
		return
	}
	if err := s.store.ImportData(body); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getSettings(c *gin.Context) {
	prefs, err := s.store.GetSettings()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (s *Server) updateSettings(c *gin.Context) {
	var p settings.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		invalid(c, err)
		return
	}
	current, err := s.store.GetSettings()
	if err != nil {
		s.fail(c, err)
		return
	}
	if _, err := settings.Merge(current, p); err != nil {
		invalid(c, err)
		return
	}
	prefs, err := s.store.SetSettings(p)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// lookup loads the task named by the :id parameter, writing a 404 or store
// error when it cannot.
func (s *Server) lookup(c *gin.Context) (task.Task, bool) {
	id := c.Param("id")
	t, err := s.store.GetTaskByID(id)
	if err != nil {
		s.fail(c, err)
		return task.Task{}, false
	}
	if t == nil {
		notFound(c, id)
		return task.Task{}, false
	}
	return *t, true
}

func list(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(task.DateFormat, s, time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func nonNil(tasks []task.Task) []task.Task {
	if tasks == nil {
		return []task.Task{}
	}
	return tasks
}
