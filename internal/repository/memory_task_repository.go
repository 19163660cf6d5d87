package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Tomlord1122/taskboard/internal/domain"
)

// memoryTaskRepository keeps tasks in a map. Ids are never reused.
type memoryTaskRepository struct {
	mu     sync.RWMutex
	tasks  map[uint]domain.Task
	nextID uint
	now    func() time.Time
}

// NewMemoryTaskRepository creates an in-process task repository
func NewMemoryTaskRepository() TaskRepository {
	return &memoryTaskRepository{
		tasks:  make(map[uint]domain.Task),
		nextID: 1,
		now:    time.Now,
	}
}

func (r *memoryTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	task.ID = r.nextID
	task.CreatedAt = now
	task.UpdatedAt = now
	r.nextID++

	r.tasks[task.ID] = stored(task)
	return nil
}

func (r *memoryTaskRepository) FindByID(ctx context.Context, id uint) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &task, nil
}

func (r *memoryTaskRepository) GetAll(ctx context.Context) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]domain.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (r *memoryTaskRepository) Update(ctx context.Context, task *domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.tasks[task.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = r.now()
	r.tasks[task.ID] = stored(task)
	return nil
}

func (r *memoryTaskRepository) Delete(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

// stored returns a copy without transient form state.
func stored(task *domain.Task) domain.Task {
	cp := *task
	cp.Errors = nil
	return cp
}
