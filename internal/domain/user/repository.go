package user

import "context"

type Repository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
}
