package dto

import "go-fleetdata/internal/schema"

// UserListOutput represents a collection with users
type UserListOutput struct {
	Body *schema.UsersPayload `json:"body"`
}

// UserOutput represents a user within one collection with its fleet
type UserOutput struct {
	Body *schema.UserDetail `json:"body"`
}

// UserHistoryOutput represents the history of a user
type UserHistoryOutput struct {
	Body []schema.UserDetail `json:"body"`
}
