package users

import (
	"context"
	"time"

	"taskhub/internal/models"
)

// Filter narrows an admin user listing.
type Filter struct {
	// Search matches first name, last name or email, case-insensitively.
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	// OrderBy is one of first_name, last_name, email, date_joined, optionally
	// prefixed with "-" for descending order.
	OrderBy string
}

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f Filter, page models.PageRequest) ([]models.User, int, error)
}
