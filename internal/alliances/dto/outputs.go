package dto

import "go-fleetdata/internal/schema"

// AllianceListOutput represents a collection with its fleets
type AllianceListOutput struct {
	Body *schema.FleetsPayload `json:"body"`
}

// AllianceOutput represents a fleet within one collection with its members
type AllianceOutput struct {
	Body *schema.AllianceDetail `json:"body"`
}

// AllianceHistoryOutput represents the history of a fleet
type AllianceHistoryOutput struct {
	Body []schema.AllianceDetail `json:"body"`
}
