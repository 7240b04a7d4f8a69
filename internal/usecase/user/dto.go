package user

import domain "user-directory-service/internal/domain/user"

// CreateUserRequest represents the request payload for creating a new user.
// Body is the decoded JSON object as sent by the client; field rules are
// applied by the usecase.
type CreateUserRequest struct {
	Body map[string]any
}

// CreateUserResponse represents the response payload after creating a user.
type CreateUserResponse struct {
	ID int64
}

// Credentials is the owner's current email and plaintext password.
type Credentials struct {
	Email    string
	Password string
}

// UpdateUserRequest represents the request payload for a partial update.
type UpdateUserRequest struct {
	ID          int64
	Credentials Credentials
	Body        map[string]any
}

// UpdateUserResponse represents the response payload after updating a user.
type UpdateUserResponse struct {
	Updated int64
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID int64
}

// GetUserResponse represents the response payload for user details.
type GetUserResponse struct {
	User User
}

// User represents a user DTO (Data Transfer Object) for API responses.
// Password always holds the redaction marker.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Redact converts a stored user into its response form.
func Redact(u domain.User) User {
	return User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Password:  domain.RedactedPassword,
	}
}
