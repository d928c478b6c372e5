package users

import (
	"context"

	"github.com/dmitrijs2005/vars/internal/server/models"
)

// Repository is the persistence contract for user accounts. Lookups return
// common.ErrorNotFound when no live row matches and writes that collide on
// name or email return common.ErrorConflict.
type Repository interface {
	FindByNameOrEmail(ctx context.Context, name, email string) (*models.User, error)
	FindByID(ctx context.Context, id int32) (*models.User, error)
	Create(ctx context.Context, user *models.NewUser) (*models.User, error)
	Update(ctx context.Context, id int32, upd *models.UserUpdate) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.PublicUser, error)
	Count(ctx context.Context) (int64, error)
}
