package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"taskhub/internal/common"
	"taskhub/internal/models"
	"taskhub/internal/policy"
	"taskhub/internal/repositories/tasks"
)

const maxTitleLength = 255

// EventPublisher receives task events after a successful mutation.
type EventPublisher interface {
	Publish(ownerID string, ev models.TaskEvent)
}

// TaskInput is the writable part of a task. Nil fields are absent from the
// request.
type TaskInput struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	DueDate     models.OptionalDate `json:"due_date"`
	Status      *models.TaskStatus  `json:"status"`
}

// TaskService manages tasks on behalf of their owner.
type TaskService struct {
	tasks  tasks.Repository
	events EventPublisher
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewTaskService(repo tasks.Repository, events EventPublisher, log logrus.FieldLogger) *TaskService {
	return &TaskService{
		tasks:  repo,
		events: events,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new task owned by the caller.
func (s *TaskService) Create(ctx context.Context, caller *policy.Caller, in TaskInput) (*models.Task, error) {
	if err := policy.Allow(policy.CreateTask, caller); err != nil {
		return nil, err
	}
	owner := caller.UserID
	t := &models.Task{
		ID:      uuid.NewString(),
		Status:  models.StatusPending,
		OwnerID: &owner,
	}
	if err := s.apply(t, in, true); err != nil {
		return nil, err
	}
	created, err := s.tasks.Create(ctx, t)
	if err != nil {
		return nil, err
	}
	s.publish(owner, models.TaskCreated, created)
	return created, nil
}

// List returns one page of the caller's tasks, most recently updated first.
func (s *TaskService) List(ctx context.Context, caller *policy.Caller, f tasks.Filter, page models.PageRequest) (models.Page[models.Task], error) {
	if err := policy.Allow(policy.ListTasks, caller); err != nil {
		return models.Page[models.Task]{}, err
	}
	page = page.Normalize()
	list, total, err := s.tasks.ListByOwner(ctx, caller.UserID, f, page)
	if err != nil {
		return models.Page[models.Task]{}, err
	}
	return models.NewPage(list, total, page), nil
}

// Get returns a task of the caller. Tasks of other users are reported as
// missing.
func (s *TaskService) Get(ctx context.Context, caller *policy.Caller, id string) (*models.Task, error) {
	if err := policy.Allow(policy.RetrieveTask, caller); err != nil {
		return nil, err
	}
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.OwnedBy(caller.UserID) {
		return nil, common.ErrNotFound
	}
	return t, nil
}

// Update replaces every writable field. Absent optional fields are reset to
// their defaults.
func (s *TaskService) Update(ctx context.Context, caller *policy.Caller, id string, in TaskInput) (*models.Task, error) {
	return s.modify(ctx, caller, id, in, true)
}

// PartialUpdate changes only the supplied fields.
func (s *TaskService) PartialUpdate(ctx context.Context, caller *policy.Caller, id string, in TaskInput) (*models.Task, error) {
	return s.modify(ctx, caller, id, in, false)
}

func (s *TaskService) modify(ctx context.Context, caller *policy.Caller, id string, in TaskInput, full bool) (*models.Task, error) {
	if err := policy.Allow(policy.UpdateTask, caller); err != nil {
		return nil, err
	}
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanModifyTask(caller, t); err != nil {
		return nil, err
	}
	if full {
		t.Description = ""
		t.DueDate = nil
		t.Status = models.StatusPending
	}
	if err := s.apply(t, in, full); err != nil {
		return nil, err
	}
	updated, err := s.tasks.Update(ctx, t)
	if err != nil {
		return nil, err
	}
	s.publish(caller.UserID, models.TaskUpdated, updated)
	return updated, nil
}

// Delete removes a task of the caller.
func (s *TaskService) Delete(ctx context.Context, caller *policy.Caller, id string) error {
	if err := policy.Allow(policy.DestroyTask, caller); err != nil {
		return err
	}
	t, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.CanModifyTask(caller, t); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	s.events.Publish(caller.UserID, models.TaskEvent{Type: models.TaskDeleted, TaskID: id})
	return nil
}

// Dashboard counts the caller's tasks per status.
func (s *TaskService) Dashboard(ctx context.Context, caller *policy.Caller) (*models.Dashboard, error) {
	if err := policy.Allow(policy.TaskDashboard, caller); err != nil {
		return nil, err
	}
	counts, err := s.tasks.CountByStatus(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []models.StatusCount{}
	}
	d := &models.Dashboard{StatusDistribution: counts}
	for _, c := range counts {
		d.TotalTasks += c.Count
	}
	return d, nil
}

func (s *TaskService) find(ctx context.Context, id string) (*models.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}
	return s.tasks.GetByID(ctx, id)
}

// apply validates in and copies it onto t. With requireTitle the title must be
// present.
func (s *TaskService) apply(t *models.Task, in TaskInput, requireTitle bool) error {
	v := common.NewValidationError()

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		switch {
		case title == "":
			v.Add("title", msgBlank)
		case utf8.RuneCountInString(title) > maxTitleLength:
			v.Add("title", fmt.Sprintf("Ensure this field has no more than %d characters.", maxTitleLength))
		}
		t.Title = title
	} else if requireTitle {
		v.Add("title", msgRequired)
	}

	if in.Description != nil {
		t.Description = *in.Description
	}

	if in.Status != nil {
		if !in.Status.Valid() {
			v.Add("status", fmt.Sprintf("%q is not a valid choice.", string(*in.Status)))
		}
		t.Status = *in.Status
	}

	if in.DueDate.Set {
		today := models.DateOf(s.now())
		if in.DueDate.Date != nil && in.DueDate.Date.Before(today.Time) {
			v.Add("due_date", "The due date can't be in the past")
		}
		t.DueDate = in.DueDate.Date
	}

	return v.OrNil()
}

func (s *TaskService) publish(ownerID, kind string, t *models.Task) {
	s.events.Publish(ownerID, models.TaskEvent{Type: kind, TaskID: t.ID, Task: t})
	s.log.WithFields(logrus.Fields{"task_id": t.ID, "event": kind}).Debug("task event")
}
