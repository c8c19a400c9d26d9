package services

import (
	"context"
	"strconv"
	"strings"

	"go-fleetdata/internal/fleeterr"
	"go-fleetdata/internal/history"
	"go-fleetdata/internal/schema"
)

// Service handles fleet queries
type Service struct {
	engine *history.Engine
}

// NewService creates a new alliance service
func NewService(engine *history.Engine) *Service {
	return &Service{engine: engine}
}

// ListAlliances returns the fleets of a collection. A non-empty division
// restricts them to that division design ID.
func (s *Service) ListAlliances(ctx context.Context, collectionID int64, division string) (*schema.FleetsPayload, error) {
	divisionID, err := parseDivision(division)
	if err != nil {
		return nil, err
	}
	c, alliances, err := s.engine.CollectionAlliances(ctx, collectionID, divisionID)
	if err != nil {
		return nil, err
	}
	return schema.EncodeFleets(c, alliances), nil
}

// GetAlliance returns one fleet of a collection with its members.
func (s *Service) GetAlliance(ctx context.Context, collectionID, allianceID int64) (*schema.AllianceDetail, error) {
	entry, err := s.engine.AllianceInCollection(ctx, collectionID, allianceID)
	if err != nil {
		return nil, err
	}
	return encodeEntry(entry)
}

// GetAllianceHistory returns the fleet in every collection selected by raw.
func (s *Service) GetAllianceHistory(ctx context.Context, allianceID int64, raw history.RawParams) ([]schema.AllianceDetail, error) {
	p, err := history.ParseParams(raw)
	if err != nil {
		return nil, err
	}
	entries, err := s.engine.AllianceHistory(ctx, allianceID, p)
	if err != nil {
		return nil, err
	}

	out := make([]schema.AllianceDetail, 0, len(entries))
	for i := range entries {
		d, err := encodeEntry(&entries[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

func encodeEntry(entry *history.AllianceEntry) (*schema.AllianceDetail, error) {
	d, err := schema.EncodeAllianceDetail(&entry.Collection, &entry.Alliance, entry.Members)
	if err != nil {
		return nil, fleeterr.Internal(err, "encoding alliance %d of collection %d", entry.Alliance.AllianceID, entry.Collection.CollectionID)
	}
	return d, nil
}

func parseDivision(value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(value)
	if err != nil || id < 0 {
		return nil, fleeterr.Validation(fleeterr.CodeInvalidParameter, "divisionDesignId must be a non-negative integer, got %q", value)
	}
	return &id, nil
}
