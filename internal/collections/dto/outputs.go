package dto

import "go-fleetdata/internal/schema"

// CollectionListOutput represents the metadata of the selected collections
type CollectionListOutput struct {
	Body []schema.Metadata `json:"body"`
}

// CollectionMetadataOutput represents the metadata of a stored collection
type CollectionMetadataOutput struct {
	Body schema.Metadata `json:"body"`
}

// CollectionOutput represents a full collection in the latest schema version
type CollectionOutput struct {
	Cache string                    `header:"X-Cache" doc:"HIT when served from the cache"`
	Body  *schema.CollectionPayload `json:"body"`
}
