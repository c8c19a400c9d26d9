package dto

import (
	"go-fleetdata/internal/history"

	"github.com/danielgtaylor/huma/v2"
)

// ListCollectionsInput represents the input for listing collection metadata
type ListCollectionsInput struct {
	history.RawParams
}

// CreateCollectionInput represents the input for creating a collection from
// a payload in the latest schema version
type CreateCollectionInput struct {
	Authorization string `header:"Authorization" doc:"Root API key"`
	RawBody       []byte `contentType:"application/json" doc:"Collection payload in the latest schema version"`
}

// UploadForm is the multipart form of an upload
type UploadForm struct {
	File huma.FormFile `form:"file" required:"true" doc:"Collection JSON in any supported schema version"`
}

// UploadCollectionInput represents the input for uploading a collection file
type UploadCollectionInput struct {
	Authorization string `header:"Authorization" doc:"Root API key"`
	SchemaVersion int    `query:"schemaVersion" doc:"Decode as this schema version instead of detecting it" example:"9"`
	RawBody       huma.MultipartFormFiles[UploadForm]
}

// ReplaceCollectionInput represents the input for replacing a collection by ID
type ReplaceCollectionInput struct {
	Authorization string `header:"Authorization" doc:"Root API key"`
	CollectionID  int64  `path:"collectionId" minimum:"1" doc:"ID of the collection to replace" example:"42"`
	SchemaVersion int    `query:"schemaVersion" doc:"Decode as this schema version instead of detecting it" example:"9"`
	RawBody       huma.MultipartFormFiles[UploadForm]
}

// DeleteCollectionInput represents the input for deleting a collection
type DeleteCollectionInput struct {
	Authorization string `header:"Authorization" doc:"Root API key"`
	CollectionID  int64  `path:"collectionId" minimum:"1" doc:"ID of the collection to delete" example:"42"`
}

// GetCollectionInput represents the input for getting a full collection
type GetCollectionInput struct {
	CollectionID int64 `path:"collectionId" minimum:"1" doc:"Collection ID" example:"42"`
}
