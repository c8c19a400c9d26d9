package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"go-fleetdata/internal/fleeterr"
	"go-fleetdata/internal/history"
	"go-fleetdata/internal/models"
	"go-fleetdata/internal/pss"
	"go-fleetdata/internal/schema"
	"go-fleetdata/internal/storage"
	"go-fleetdata/pkg/database"
	"go-fleetdata/pkg/metrics"
)

// Cache stores encoded collections. *database.Redis implements it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Service handles collection business logic
type Service struct {
	gateway storage.Gateway
	engine  *history.Engine
	cache   Cache
	ttl     time.Duration
}

// NewService creates a new collection service. cache may be nil.
func NewService(gateway storage.Gateway, cache Cache, ttl time.Duration) *Service {
	return &Service{
		gateway: gateway,
		engine:  history.NewEngine(gateway),
		cache:   cache,
		ttl:     ttl,
	}
}

// ListCollections returns the metadata of the collections selected by raw.
func (s *Service) ListCollections(ctx context.Context, raw history.RawParams) ([]schema.Metadata, error) {
	p, err := history.ParseParams(raw)
	if err != nil {
		return nil, err
	}
	collections, err := s.engine.Collections(ctx, p)
	if err != nil {
		return nil, err
	}
	return schema.EncodeMeta(collections), nil
}

// CreateCollection stores a payload in the latest schema version.
func (s *Service) CreateCollection(ctx context.Context, body []byte) (*schema.Metadata, error) {
	c, version, err := s.decode(ctx, body, pss.LatestSchemaVersion)
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, c, version)
}

// UploadCollection stores a payload in any supported schema version. A
// forced version of 0 detects the version from the payload.
func (s *Service) UploadCollection(ctx context.Context, data []byte, forced int) (*schema.Metadata, error) {
	c, version, err := s.decode(ctx, data, forced)
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, c, version)
}

// ReplaceCollection swaps the content of collection id for the uploaded
// payload. The timestamp must not change.
func (s *Service) ReplaceCollection(ctx context.Context, id int64, data []byte, forced int) (*schema.Metadata, error) {
	c, version, err := s.decode(ctx, data, forced)
	if err != nil {
		return nil, err
	}

	stored, err := s.gateway.Replace(ctx, id, c)
	if err != nil {
		metrics.CountUpload(version, outcome(err))
		return nil, err
	}
	metrics.CountUpload(version, "replaced")
	s.invalidate(ctx, id)

	slog.InfoContext(ctx, "Collection replaced",
		slog.Int64("collection_id", id),
		slog.Int("schema_version", version),
		slog.Int("fleets", len(stored.Alliances)),
		slog.Int("users", len(stored.Users)))

	meta := schema.EncodeMetadata(stored)
	return &meta, nil
}

// DeleteCollection removes collection id with all of its children.
func (s *Service) DeleteCollection(ctx context.Context, id int64) error {
	deleted, err := s.gateway.Delete(ctx, id)
	if err != nil {
		return fleeterr.Internal(err, "deleting collection %d", id)
	}
	if !deleted {
		return fleeterr.CollectionNotFound(id)
	}
	s.invalidate(ctx, id)

	slog.InfoContext(ctx, "Collection deleted", slog.Int64("collection_id", id))
	return nil
}

// GetCollection returns collection id with all of its children. The second
// result reports whether it was served from the cache.
func (s *Service) GetCollection(ctx context.Context, id int64) (*schema.CollectionPayload, bool, error) {
	if s.cache != nil {
		var cached schema.CollectionPayload
		err := s.cache.GetJSON(ctx, cacheKey(id), &cached)
		switch {
		case err == nil:
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			return &cached, true, nil
		case errors.Is(err, database.ErrCacheMiss):
			metrics.CacheRequests.WithLabelValues("miss").Inc()
		default:
			metrics.CacheRequests.WithLabelValues("error").Inc()
			slog.WarnContext(ctx, "Collection cache read failed", slog.Int64("collection_id", id), "error", err)
		}
	}

	c, err := s.gateway.GetByID(ctx, id, storage.WithChildren)
	if err != nil {
		return nil, false, fleeterr.Internal(err, "loading collection %d", id)
	}
	if c == nil {
		return nil, false, fleeterr.CollectionNotFound(id)
	}

	payload, err := schema.EncodeCollection(c)
	if err != nil {
		return nil, false, fleeterr.Internal(err, "encoding collection %d", id)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey(id), payload, s.ttl); err != nil {
			slog.WarnContext(ctx, "Collection cache write failed", slog.Int64("collection_id", id), "error", err)
		}
	}
	return payload, false, nil
}

// decode parses data as the forced schema version, or the detected one when
// forced is 0, and records the decode metrics.
func (s *Service) decode(ctx context.Context, data []byte, forced int) (*models.Collection, int, error) {
	started := time.Now()

	var (
		c       *models.Collection
		version = forced
		err     error
	)
	if forced == 0 {
		c, version, err = schema.Decode(data)
	} else {
		c, err = schema.DecodeAs(data, forced)
	}
	if err != nil {
		metrics.CountUpload(version, "rejected")
		slog.InfoContext(ctx, "Collection payload rejected", slog.Int("schema_version", version), "error", err)
		return nil, version, err
	}

	metrics.ObserveDecode(version, started)
	return c, version, nil
}

func (s *Service) insert(ctx context.Context, c *models.Collection, version int) (*schema.Metadata, error) {
	stored, err := s.gateway.Insert(ctx, c)
	if err != nil {
		metrics.CountUpload(version, outcome(err))
		return nil, err
	}
	metrics.CountUpload(version, "stored")

	slog.InfoContext(ctx, "Collection stored",
		slog.Int64("collection_id", stored.CollectionID),
		slog.Time("collected_at", stored.CollectedAt),
		slog.Int("schema_version", version),
		slog.Int("fleets", len(stored.Alliances)),
		slog.Int("users", len(stored.Users)))

	meta := schema.EncodeMetadata(stored)
	return &meta, nil
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		slog.WarnContext(ctx, "Collection cache invalidation failed", slog.Int64("collection_id", id), "error", err)
	}
}

func cacheKey(id int64) string {
	return "fleetdata:collection:" + strconv.FormatInt(id, 10)
}

func outcome(err error) string {
	switch fleeterr.KindOf(err) {
	case fleeterr.KindConflict:
		return "conflict"
	case fleeterr.KindNotFound:
		return "not_found"
	case fleeterr.KindInternal:
		return "error"
	default:
		return "rejected"
	}
}
