package services

import (
	"context"

	"go-fleetdata/internal/fleeterr"
	"go-fleetdata/internal/history"
	"go-fleetdata/internal/models"
	"go-fleetdata/internal/schema"
)

// Service handles user queries
type Service struct {
	engine *history.Engine
}

// NewService creates a new user service
func NewService(engine *history.Engine) *Service {
	return &Service{engine: engine}
}

// ListUsers returns every user of a collection.
func (s *Service) ListUsers(ctx context.Context, collectionID int64) (*schema.UsersPayload, error) {
	c, users, err := s.engine.CollectionUsers(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	return encodeList(c, users)
}

// TopUsers returns a page of the users of a collection ordered by trophy.
func (s *Service) TopUsers(ctx context.Context, collectionID int64, page history.PageParams) (*schema.UsersPayload, error) {
	skip, take, err := history.ParsePage(page)
	if err != nil {
		return nil, err
	}
	c, users, err := s.engine.TopUsers(ctx, collectionID, skip, take)
	if err != nil {
		return nil, err
	}
	return encodeList(c, users)
}

// GetUser returns one user of a collection with its fleet.
func (s *Service) GetUser(ctx context.Context, collectionID, userID int64) (*schema.UserDetail, error) {
	entry, err := s.engine.UserInCollection(ctx, collectionID, userID)
	if err != nil {
		return nil, err
	}
	return encodeEntry(entry)
}

// GetUserHistory returns the user in every collection selected by raw.
func (s *Service) GetUserHistory(ctx context.Context, userID int64, raw history.RawParams) ([]schema.UserDetail, error) {
	p, err := history.ParseParams(raw)
	if err != nil {
		return nil, err
	}
	entries, err := s.engine.UserHistory(ctx, userID, p)
	if err != nil {
		return nil, err
	}

	out := make([]schema.UserDetail, 0, len(entries))
	for i := range entries {
		d, err := encodeEntry(&entries[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

func encodeList(c *models.Collection, users []models.User) (*schema.UsersPayload, error) {
	payload, err := schema.EncodeUserList(c, users)
	if err != nil {
		return nil, fleeterr.Internal(err, "encoding users of collection %d", c.CollectionID)
	}
	return payload, nil
}

func encodeEntry(entry *history.UserEntry) (*schema.UserDetail, error) {
	d, err := schema.EncodeUserDetail(&entry.Collection, &entry.User, entry.Alliance)
	if err != nil {
		return nil, fleeterr.Internal(err, "encoding user %d of collection %d", entry.User.UserID, entry.Collection.CollectionID)
	}
	return d, nil
}
