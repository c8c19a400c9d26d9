package routes

import (
	"context"
	"net/http"

	"go-fleetdata/internal/alliances/dto"
	"go-fleetdata/internal/alliances/services"
	"go-fleetdata/internal/fleeterr"

	"github.com/danielgtaylor/huma/v2"
)

// Module handles Huma-based fleet routes
type Module struct {
	service *services.Service
}

// NewModule creates a new Huma alliance routes module
func NewModule(service *services.Service) *Module {
	return &Module{service: service}
}

// RegisterUnifiedRoutes registers all fleet routes with the provided API
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	huma.Register(api, huma.Operation{
		OperationID: "alliances-list-in-collection",
		Method:      http.MethodGet,
		Path:        basePath + "/collections/{collectionId}/alliances",
		Summary:     "List fleets of a collection",
		Description: "Returns the collection metadata with all fleets captured in it",
		Tags:        []string{"Alliances"},
	}, func(ctx context.Context, input *dto.ListAlliancesInput) (*dto.AllianceListOutput, error) {
		return m.listAlliances(ctx, input)
	})

	huma.Register(api, huma.Operation{
		OperationID: "alliances-get-in-collection",
		Method:      http.MethodGet,
		Path:        basePath + "/collections/{collectionId}/alliances/{allianceId}",
		Summary:     "Get fleet of a collection",
		Description: "Returns one fleet as captured in a collection, with its members at that time",
		Tags:        []string{"Alliances"},
	}, func(ctx context.Context, input *dto.GetAllianceInput) (*dto.AllianceOutput, error) {
		return m.getAlliance(ctx, input)
	})

	huma.Register(api, huma.Operation{
		OperationID: "alliances-history",
		Method:      http.MethodGet,
		Path:        basePath + "/allianceHistory/{allianceId}",
		Summary:     "Get fleet history",
		Description: "Returns the fleet with its members in every collection of the selected time range, sampled by interval",
		Tags:        []string{"Alliances"},
	}, func(ctx context.Context, input *dto.AllianceHistoryInput) (*dto.AllianceHistoryOutput, error) {
		return m.getAllianceHistory(ctx, input)
	})
}

// listAlliances handles the fleets-of-collection request
func (m *Module) listAlliances(ctx context.Context, input *dto.ListAlliancesInput) (*dto.AllianceListOutput, error) {
	payload, err := m.service.ListAlliances(ctx, input.CollectionID, input.DivisionDesignID)
	if err != nil {
		return nil, fleeterr.Response(ctx, err)
	}
	return &dto.AllianceListOutput{Body: payload}, nil
}

// getAlliance handles the single fleet request
func (m *Module) getAlliance(ctx context.Context, input *dto.GetAllianceInput) (*dto.AllianceOutput, error) {
	detail, err := m.service.GetAlliance(ctx, input.CollectionID, input.AllianceID)
	if err != nil {
		return nil, fleeterr.Response(ctx, err)
	}
	return &dto.AllianceOutput{Body: detail}, nil
}

// getAllianceHistory handles the fleet history request
func (m *Module) getAllianceHistory(ctx context.Context, input *dto.AllianceHistoryInput) (*dto.AllianceHistoryOutput, error) {
	entries, err := m.service.GetAllianceHistory(ctx, input.AllianceID, input.RawParams)
	if err != nil {
		return nil, fleeterr.Response(ctx, err)
	}
	return &dto.AllianceHistoryOutput{Body: entries}, nil
}
