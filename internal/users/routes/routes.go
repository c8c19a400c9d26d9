package routes

import (
	"context"
	"net/http"

	"go-fleetdata/internal/fleeterr"
	"go-fleetdata/internal/users/dto"
	"go-fleetdata/internal/users/services"

	"github.com/danielgtaylor/huma/v2"
)

// Module handles Huma-based user routes
type Module struct {
	service *services.Service
}

// NewModule creates a new Huma user routes module
func NewModule(service *services.Service) *Module {
	return &Module{service: service}
}

// RegisterUnifiedRoutes registers all user routes with the provided API
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	huma.Register(api, huma.Operation{
		OperationID: "users-list-in-collection",
		Method:      http.MethodGet,
		Path:        basePath + "/collections/{collectionId}/users",
		Summary:     "List users of a collection",
		Description: "Returns the collection metadata with all users captured in it",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *dto.ListUsersInput) (*dto.UserListOutput, error) {
		return m.listUsers(ctx, input)
	})

	huma.Register(api, huma.Operation{
		OperationID: "users-top-in-collection",
		Method:      http.MethodGet,
		Path:        basePath + "/collections/{collectionId}/top100Users",
		Summary:     "Get top users of a collection",
		Description: "Returns the users of a collection ordered by trophy count, highest first",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *dto.TopUsersInput) (*dto.UserListOutput, error) {
		return m.topUsers(ctx, input)
	})

	huma.Register(api, huma.Operation{
		OperationID: "users-get-in-collection",
		Method:      http.MethodGet,
		Path:        basePath + "/collections/{collectionId}/users/{userId}",
		Summary:     "Get user of a collection",
		Description: "Returns one user as captured in a collection, with its fleet at that time",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *dto.GetUserInput) (*dto.UserOutput, error) {
		return m.getUser(ctx, input)
	})

	huma.Register(api, huma.Operation{
		OperationID: "users-history",
		Method:      http.MethodGet,
		Path:        basePath + "/userHistory/{userId}",
		Summary:     "Get user history",
		Description: "Returns the user with its fleet in every collection of the selected time range, sampled by interval",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *dto.UserHistoryInput) (*dto.UserHistoryOutput, error) {
		return m.getUserHistory(ctx, input)
	})
}

// listUsers handles the users-of-collection request
func (m *Module) listUsers(ctx context.Context, input *dto.ListUsersInput) (*dto.UserListOutput, error) {
	payload, err := m.service.ListUsers(ctx, input.CollectionID)
	if err != nil {
		return nil, fleeterr.Response(ctx, err)
	}
	return &dto.UserListOutput{Body: payload}, nil
}

// topUsers handles the trophy ranking request
func (m *Module) topUsers(ctx context.Context, input *dto.TopUsersInput) (*dto.UserListOutput, error) {
	payload, err := m.service.TopUsers(ctx, input.CollectionID, input.PageParams)
	if err != nil {
		return nil, fleeterr.Response(ctx, err)
	}
	return &dto.UserListOutput{Body: payload}, nil
}

// getUser handles the single user request
func (m *Module) getUser(ctx context.Context, input *dto.GetUserInput) (*dto.UserOutput, error) {
	detail, err := m.service.GetUser(ctx, input.CollectionID, input.UserID)
	if err != nil {
		return nil, fleeterr.Response(ctx, err)
	}
	return &dto.UserOutput{Body: detail}, nil
}

// getUserHistory handles the user history request
func (m *Module) getUserHistory(ctx context.Context, input *dto.UserHistoryInput) (*dto.UserHistoryOutput, error) {
	entries, err := m.service.GetUserHistory(ctx, input.UserID, input.RawParams)
	if err != nil {
		return nil, fleeterr.Response(ctx, err)
	}
	return &dto.UserHistoryOutput{Body: entries}, nil
}
