package dto

import "go-fleetdata/internal/history"

// ListUsersInput represents the input for listing the users of a collection
type ListUsersInput struct {
	CollectionID int64 `path:"collectionId" minimum:"1" doc:"Collection ID" example:"42"`
}

// TopUsersInput represents the input for the trophy ranking of a collection
type TopUsersInput struct {
	CollectionID int64 `path:"collectionId" minimum:"1" doc:"Collection ID" example:"42"`
	history.PageParams
}

// GetUserInput represents the input for getting one user of a collection
type GetUserInput struct {
	CollectionID int64 `path:"collectionId" minimum:"1" doc:"Collection ID" example:"42"`
	UserID       int64 `path:"userId" minimum:"1" doc:"User ID" example:"1234567"`
}

// UserHistoryInput represents the input for the history of a user
type UserHistoryInput struct {
	UserID int64 `path:"userId" minimum:"1" doc:"User ID" example:"1234567"`
	history.RawParams
}
