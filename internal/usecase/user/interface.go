package user

import "context"

// Usecase is the user directory as transports see it. Stored password
// hashes never leave it.
type Usecase interface {
	// CreateUser validates a complete record and stores it with a hashed password.
	CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error)
	// UpdateUser applies a partial update once in.Credentials prove ownership of in.ID.
	UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error)
	// GetUser returns the user with the password redacted.
	GetUser(ctx context.Context, in GetUserRequest) (*GetUserResponse, error)
}
