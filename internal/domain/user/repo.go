package user

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	FindExternalByPhone(ctx context.Context, phoneNumber string) (*User, error)
	Update(ctx context.Context, u *User) error
	SetSendbirdID(ctx context.Context, id uuid.UUID, sendbirdID string) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	ListStaff(ctx context.Context) ([]*User, error)
	ListDirectory(ctx context.Context) ([]*User, error)
	Stats(ctx context.Context) (*DashboardStats, error)
}
