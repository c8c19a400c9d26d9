package routes

import (
	"context"
	"io"
	"net/http"

	"go-fleetdata/internal/collections/dto"
	"go-fleetdata/internal/collections/services"
	"go-fleetdata/internal/fleeterr"
	"go-fleetdata/pkg/middleware"

	"github.com/danielgtaylor/huma/v2"
)

// MaxUploadSize bounds the size of an uploaded collection file.
const MaxUploadSize = 64 << 20

// Module handles Huma-based collection routes
type Module struct {
	service *services.Service
	auth    *middleware.APIKeyAuth
}

// NewModule creates a new Huma collection routes module
func NewModule(service *services.Service, auth *middleware.APIKeyAuth) *Module {
	return &Module{
		service: service,
		auth:    auth,
	}
}

// RegisterUnifiedRoutes registers all collection routes with the provided API
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	huma.Register(api, huma.Operation{
		OperationID: "collections-list",
		Method:      http.MethodGet,
		Path:        basePath,
		Summary:     "List collections",
		Description: "Returns the metadata of the collections in the selected time range, sampled by interval",
		Tags:        []string{"Collections"},
	}, func(ctx context.Context, input *dto.ListCollectionsInput) (*dto.CollectionListOutput, error) {
		return m.listCollections(ctx, input)
	})

	huma.Register(api, huma.Operation{
		OperationID:      "collections-create",
		Method:           http.MethodPost,
		Path:             basePath,
		Summary:          "Create collection",
		Description:      "Stores a collection given in the latest schema version",
		Tags:             []string{"Collections"},
		DefaultStatus:    http.StatusCreated,
		SkipValidateBody: true,
	}, func(ctx context.Context, input *dto.CreateCollectionInput) (*dto.CollectionMetadataOutput, error) {
		return m.createCollection(ctx, input)
	})

	huma.Register(api, huma.Operation{
		OperationID:   "collections-upload",
		Method:        http.MethodPost,
		Path:          basePath + "/upload",
		Summary:       "Upload collection file",
		Description:   "Stores a collection file in any supported schema version. The version is detected from the metadata unless schemaVersion is given.",
		Tags:          []string{"Collections"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *dto.UploadCollectionInput) (*dto.CollectionMetadataOutput, error) {
		return m.uploadCollection(ctx, input)
	})

	huma.Register(api, huma.Operation{
		OperationID: "collections-replace",
		Method:      http.MethodPut,
		Path:        basePath + "/upload/{collectionId}",
		Summary:     "Replace collection",
		Description: "Replaces the fleets and users of a collection with the uploaded file. The timestamp of the file must match the stored collection.",
		Tags:        []string{"Collections"},
	}, func(ctx context.Context, input *dto.ReplaceCollectionInput) (*dto.CollectionMetadataOutput, error) {
		return m.replaceCollection(ctx, input)
	})

	huma.Register(api, huma.Operation{
		OperationID:   "collections-delete",
		Method:        http.MethodDelete,
		Path:          basePath + "/{collectionId}",
		Summary:       "Delete collection",
		Description:   "Deletes a collection with all of its fleets and users",
		Tags:          []string{"Collections"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *dto.DeleteCollectionInput) (*struct{}, error) {
		return m.deleteCollection(ctx, input)
	})

	huma.Register(api, huma.Operation{
		OperationID: "collections-get",
		Method:      http.MethodGet,
		Path:        basePath + "/{collectionId}",
		Summary:     "Get collection",
		Description: "Returns a collection with all fleets and users in the latest schema version",
		Tags:        []string{"Collections"},
	}, func(ctx context.Context, input *dto.GetCollectionInput) (*dto.CollectionOutput, error) {
		return m.getCollection(ctx, input)
	})
}

// listCollections handles the collection listing request
func (m *Module) listCollections(ctx context.Context, input *dto.ListCollectionsInput) (*dto.CollectionListOutput, error) {
	collections, err := m.service.ListCollections(ctx, input.RawParams)
	if err != nil {
		return nil, fleeterr.Response(ctx, err)
	}
	return &dto.CollectionListOutput{Body: collections}, nil
}

// createCollection handles the creation of a collection from a JSON body
func (m *Module) createCollection(ctx context.Context, input *dto.CreateCollectionInput) (*dto.CollectionMetadataOutput, error) {
	if err := m.auth.Authorize(input.Authorization); err != nil {
		return nil, fleeterr.Response(ctx, err)
	}
	meta, err := m.service.CreateCollection(ctx, input.RawBody)
	if err != nil {
		return nil, fleeterr.Response(ctx, err)
	}
	return &dto.CollectionMetadataOutput{Body: *meta}, nil
}

// uploadCollection handles multipart collection uploads
func (m *Module) uploadCollection(ctx context.Context, input *dto.UploadCollectionInput) (*dto.CollectionMetadataOutput, error) {
	if err := m.auth.Authorize(input.Authorization); err != nil {
		return nil, fleeterr.Response(ctx, err)
	}
	data, err := readUpload(input.RawBody.Data())
	if err != nil {
		return nil, fleeterr.Response(ctx, err)
	}
	meta, err := m.service.UploadCollection(ctx, data, input.SchemaVersion)
	if err != nil {
		return nil, fleeterr.Response(ctx, err)
	}
	return &dto.CollectionMetadataOutput{Body: *meta}, nil
}

// replaceCollection handles replace-by-ID uploads
func (m *Module) replaceCollection(ctx context.Context, input *dto.ReplaceCollectionInput) (*dto.CollectionMetadataOutput, error) {
	if err := m.auth.Authorize(input.Authorization); err != nil {
		return nil, fleeterr.Response(ctx, err)
	}
	data, err := readUpload(input.RawBody.Data())
	if err != nil {
		return nil, fleeterr.Response(ctx, err)
	}
	meta, err := m.service.ReplaceCollection(ctx, input.CollectionID, data, input.SchemaVersion)
	if err != nil {
		return nil, fleeterr.Response(ctx, err)
	}
	return &dto.CollectionMetadataOutput{Body: *meta}, nil
}

// deleteCollection handles collection deletion
func (m *Module) deleteCollection(ctx context.Context, input *dto.DeleteCollectionInput) (*struct{}, error) {
	if err := m.auth.Authorize(input.Authorization); err != nil {
		return nil, fleeterr.Response(ctx, err)
	}
	if err := m.service.DeleteCollection(ctx, input.CollectionID); err != nil {
		return nil, fleeterr.Response(ctx, err)
	}
	return nil, nil
}

// getCollection handles the full collection request
func (m *Module) getCollection(ctx context.Context, input *dto.GetCollectionInput) (*dto.CollectionOutput, error) {
	payload, hit, err := m.service.GetCollection(ctx, input.CollectionID)
	if err != nil {
		return nil, fleeterr.Response(ctx, err)
	}
	out := &dto.CollectionOutput{Body: payload, Cache: "MISS"}
	if hit {
		out.Cache = "HIT"
	}
	return out, nil
}

func readUpload(form *dto.UploadForm) ([]byte, error) {
	if form == nil || !form.File.IsSet {
		return nil, fleeterr.Validation(fleeterr.CodeInvalidParameter, "the multipart form has no file field").
			WithSuggestion("Send the collection as the form field named file.")
	}
	defer form.File.Close()

	data, err := io.ReadAll(io.LimitReader(form.File, MaxUploadSize+1))
	if err != nil {
		return nil, fleeterr.Internal(err, "reading uploaded file %q", form.File.Filename)
	}
	if len(data) > MaxUploadSize {
		return nil, fleeterr.Validation(fleeterr.CodeInvalidParameter, "the uploaded file is larger than %d bytes", MaxUploadSize)
	}
	return data, nil
}
