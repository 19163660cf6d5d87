package service

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Tomlord1122/taskboard/internal/domain"
	"github.com/Tomlord1122/taskboard/internal/repository"
)

// --- Service Interface ---

// TaskService defines the lifecycle operations for tasks.
//
// Lookups return domain.ErrTaskNotFound for unknown ids before any write is
// attempted. Create and update return the task together with a
// domain.ValidationErrors when the submitted attributes are invalid; the
// returned task then carries the attempted values and the same errors so the
// caller can re-display the form.
type TaskService interface {
	// GetAllTasks lists every task.
	GetAllTasks(ctx context.Context) ([]domain.Task, error)

	// GetTaskByID retrieves a single task. Used by both show and edit.
	GetTaskByID(ctx context.Context, id uint) (*domain.Task, error)

	// NewTask returns a blank, unsaved task for populating a form.
	NewTask() *domain.Task

	// CreateTask builds a task from the allow-listed params and stores it.
	CreateTask(ctx context.Context, params domain.TaskParams) (*domain.Task, error)

	// UpdateTask applies the allow-listed params to an existing task.
	UpdateTask(ctx context.Context, id uint, params domain.TaskParams) (*domain.Task, error)

	// DeleteTask permanently removes a task.
	DeleteTask(ctx context.Context, id uint) error

	// ToggleTaskCompleted flips the completed flag of a task.
	ToggleTaskCompleted(ctx context.Context, id uint) (*domain.Task, error)
}

// --- Service Implementation ---

type taskService struct {
	repo   repository.TaskRepository
	source repository.TaskRepository // bypasses any read cache; used before writes
}

// NewTaskService creates a TaskService backed by repo.
func NewTaskService(repo repository.TaskRepository) TaskService {
	return &taskService{repo: repo, source: repository.Uncached(repo)}
}

func (s *taskService) GetAllTasks(ctx context.Context) ([]domain.Task, error) {
	tasks, err := s.repo.GetAll(ctx)
	if err != nil {
		log.WithError(err).Error("fetching all tasks")
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *taskService) GetTaskByID(ctx context.Context, id uint) (*domain.Task, error) {
	return s.find(ctx, s.repo, id)
}

// findForWrite loads the current stored state of a task about to be changed.
func (s *taskService) findForWrite(ctx context.Context, id uint) (*domain.Task, error) {
	return s.find(ctx, s.source, id)
}

func (s *taskService) find(ctx context.Context, repo repository.TaskRepository, id uint) (*domain.Task, error) {
	task, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, fmt.Errorf("task %d: %w", id, domain.ErrTaskNotFound)
		}
		log.WithError(err).WithField("task_id", id).Error("fetching task")
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return task, nil
}

func (s *taskService) NewTask() *domain.Task {
	return &domain.Task{}
}

func (s *taskService) CreateTask(ctx context.Context, params domain.TaskParams) (*domain.Task, error) {
	task := s.NewTask()
	task.Apply(params)

	if err := s.validate(task); err != nil {
		return task, err
	}

	if err := s.repo.Create(ctx, task); err != nil {
		log.WithError(err).Error("creating task")
		return task, fmt.Errorf("create task: %w", err)
	}

	log.WithField("task_id", task.ID).Info("task created")
	return task, nil
}

func (s *taskService) UpdateTask(ctx context.Context, id uint, params domain.TaskParams) (*domain.Task, error) {
	task, err := s.findForWrite(ctx, id)
	if err != nil {
		return nil, err
	}

	task.Apply(params)
	if err := s.validate(task); err != nil {
		return task, err
	}

	if err := s.save(ctx, task); err != nil {
		return task, err
	}

	log.WithField("task_id", task.ID).Info("task updated")
	return task, nil
}

func (s *taskService) DeleteTask(ctx context.Context, id uint) error {
	if _, err := s.findForWrite(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return fmt.Errorf("task %d: %w", id, domain.ErrTaskNotFound)
		}
		log.WithError(err).WithField("task_id", id).Error("deleting task")
		return fmt.Errorf("delete task %d: %w", id, err)
	}

	log.WithField("task_id", id).Info("task deleted")
	return nil
}

func (s *taskService) ToggleTaskCompleted(ctx context.Context, id uint) (*domain.Task, error) {
	task, err := s.findForWrite(ctx, id)
	if err != nil {
		return nil, err
	}

	task.Completed = !task.Completed
	if err := s.save(ctx, task); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"task_id": task.ID, "completed": task.Completed}).Info("task toggled")
	return task, nil
}

// validate attaches any validation failures to the task and returns them.
func (s *taskService) validate(task *domain.Task) error {
	err := task.Validate()
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		task.Errors = verrs
	}
	return err
}

func (s *taskService) save(ctx context.Context, task *domain.Task) error {
	if err := s.repo.Update(ctx, task); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return fmt.Errorf("task %d: %w", task.ID, domain.ErrTaskNotFound)
		}
		log.WithError(err).WithField("task_id", task.ID).Error("saving task")
		return fmt.Errorf("save task %d: %w", task.ID, err)
	}
	return nil
}
