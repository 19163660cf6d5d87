package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/Tomlord1122/taskboard/internal/domain"
)

const (
	noticeCreated  = "Task was successfully created."
	noticeUpdated  = "Task was successfully updated."
	noticeDeleted  = "Task was successfully deleted."
	noticeComplete = "Task marked as completed ✅"
	noticeReopened = "Task reopened 🔄"
)

var errMissingTaskParams = errors.New("param is missing or the value is empty: task")

func (s *Server) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.taskService.GetAllTasks(r.Context())
	if err != nil {
		s.serverError(w, r, "list", err)
		return
	}
	s.render(w, r, http.StatusOK, "index", pageData{Title: "Tasks", Tasks: tasks})
}

func (s *Server) showTaskHandler(w http.ResponseWriter, r *http.Request) {
	task, ok := s.lookupTask(w, r, "show")
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "show", pageData{Title: task.Title, Task: task})
}

func (s *Server) newTaskHandler(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "new", pageData{Title: "New task", Task: s.taskService.NewTask()})
}

func (s *Server) editTaskHandler(w http.ResponseWriter, r *http.Request) {
	task, ok := s.lookupTask(w, r, "edit")
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "edit", pageData{Title: "Editing task", Task: task})
}

func (s *Server) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	params, err := taskParamsFromRequest(r)
	if err != nil {
		s.badRequest(w, r, "create", err)
		return
	}

	task, err := s.taskService.CreateTask(r.Context(), params)
	var verrs domain.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		s.metrics.taskOperation("create", "invalid")
		s.render(w, r, http.StatusUnprocessableEntity, "new", pageData{Title: "New task", Task: task})
	case err != nil:
		s.serverError(w, r, "create", err)
	default:
		s.metrics.taskOperation("create", "ok")
		redirectWithNotice(w, r, taskPath(task.ID), noticeCreated, http.StatusFound)
	}
}

func (s *Server) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r, "update")
	if !ok {
		return
	}
	params, err := taskParamsFromRequest(r)
	if err != nil {
		s.badRequest(w, r, "update", err)
		return
	}

	task, err := s.taskService.UpdateTask(r.Context(), id, params)
	var verrs domain.ValidationErrors
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		s.notFound(w, r, "update")
	case errors.As(err, &verrs):
		s.metrics.taskOperation("update", "invalid")
		s.render(w, r, http.StatusUnprocessableEntity, "edit", pageData{Title: "Editing task", Task: task})
	case err != nil:
		s.serverError(w, r, "update", err)
	default:
		s.metrics.taskOperation("update", "ok")
		redirectWithNotice(w, r, taskPath(task.ID), noticeUpdated, http.StatusFound)
	}
}

func (s *Server) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r, "delete")
	if !ok {
		return
	}

	err := s.taskService.DeleteTask(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		s.notFound(w, r, "delete")
	case err != nil:
		s.serverError(w, r, "delete", err)
	default:
		s.metrics.taskOperation("delete", "ok")
		redirectWithNotice(w, r, "/tasks", noticeDeleted, http.StatusSeeOther)
	}
}

// toggleTaskCompletedHandler ignores any submitted body.
func (s *Server) toggleTaskCompletedHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r, "toggle")
	if !ok {
		return
	}

	task, err := s.taskService.ToggleTaskCompleted(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		s.notFound(w, r, "toggle")
	case err != nil:
		s.serverError(w, r, "toggle", err)
	default:
		s.metrics.taskOperation("toggle", "ok")
		redirectWithNotice(w, r, "/tasks", toggleNotice(task.Completed), http.StatusSeeOther)
	}
}

func toggleNotice(completed bool) string {
	if completed {
		return noticeComplete
	}
	return noticeReopened
}

// lookupTask resolves the {id} URL parameter, answering 404 itself on failure.
func (s *Server) lookupTask(w http.ResponseWriter, r *http.Request, op string) (*domain.Task, bool) {
	id, ok := s.taskID(w, r, op)
	if !ok {
		return nil, false
	}

	task, err := s.taskService.GetTaskByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			s.notFound(w, r, op)
		} else {
			s.serverError(w, r, op, err)
		}
		return nil, false
	}
	return task, true
}

// taskID parses {id}. Anything that is not a positive integer cannot name a
// task, so it is answered like an unknown id.
func (s *Server) taskID(w http.ResponseWriter, r *http.Request, op string) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 0)
	if err != nil || id == 0 {
		s.notFound(w, r, op)
		return 0, false
	}
	return uint(id), true
}

// taskParamsFromRequest reads the task[...] form fields. Only title, details
// and completed are copied; every other submitted key is dropped here.
func taskParamsFromRequest(r *http.Request) (domain.TaskParams, error) {
	var params domain.TaskParams
	if err := r.ParseForm(); err != nil {
		return params, fmt.Errorf("parse form: %w", err)
	}

	present := false
	for key := range r.PostForm {
		if strings.HasPrefix(key, "task[") {
			present = true
			break
		}
	}
	if !present {
		return params, errMissingTaskParams
	}

	if v, ok := lastValue(r, "task[title]"); ok {
		params.Title = &v
	}
	if v, ok := lastValue(r, "task[details]"); ok {
		params.Details = &v
	}
	if v, ok := lastValue(r, "task[completed]"); ok {
		completed := castBool(v)
		params.Completed = &completed
	}
	return params, nil
}

// lastValue returns the last submitted value so a checkbox overrides its
// hidden "0" companion.
func lastValue(r *http.Request, key string) (string, bool) {
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[len(values)-1], true
}

func castBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "f", "false", "off":
		return false
	default:
		return true
	}
}

func taskPath(id uint) string {
	return "/tasks/" + strconv.FormatUint(uint64(id), 10)
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "not_found", pageData{Title: "Not Found"})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request, op string) {
	s.metrics.taskOperation(op, "not_found")
	s.notFoundHandler(w, r)
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.metrics.taskOperation(op, "bad_request")
	log.WithError(err).WithField("operation", op).Info("rejected task form")
	s.render(w, r, http.StatusBadRequest, "bad_request", pageData{Title: "Bad Request"})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.metrics.taskOperation(op, "error")
	log.WithError(err).WithField("operation", op).Error("task operation failed")
	s.render(w, r, http.StatusInternalServerError, "error", pageData{Title: "Error"})
}
