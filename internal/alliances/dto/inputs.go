package dto

import "go-fleetdata/internal/history"

// ListAlliancesInput represents the input for listing the fleets of a collection
type ListAlliancesInput struct {
	CollectionID     int64  `path:"collectionId" minimum:"1" doc:"Collection ID" example:"42"`
	DivisionDesignID string `query:"divisionDesignId" doc:"Only include fleets of this division" example:"1"`
}

// GetAllianceInput represents the input for getting one fleet of a collection
type GetAllianceInput struct {
	CollectionID int64 `path:"collectionId" minimum:"1" doc:"Collection ID" example:"42"`
	AllianceID   int64 `path:"allianceId" minimum:"1" doc:"Fleet ID" example:"9343"`
}

// AllianceHistoryInput represents the input for the history of a fleet
type AllianceHistoryInput struct {
	AllianceID int64 `path:"allianceId" minimum:"1" doc:"Fleet ID" example:"9343"`
	history.RawParams
}
