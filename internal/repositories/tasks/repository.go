package tasks

import (
	"context"

	"taskhub/internal/models"
)

// Filter narrows an owner's task listing.
type Filter struct {
	// Status is an exact match when not empty.
	Status models.TaskStatus
	// Title is a case-insensitive substring match when not empty.
	Title string
}

type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) (*models.Task, error)
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string, f Filter, page models.PageRequest) ([]models.Task, int, error)
	CountByStatus(ctx context.Context, ownerID string) ([]models.StatusCount, error)
}
