package service

import (
	"context"
	"encoding/json"
	"strings"

	"carvest-backend/internal/model"
	"carvest-backend/pkg/logger"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrEmptyQuery = errors.New("query is required")

const carSearchInstruction = "You help investors find vehicles in a fractional luxury car marketplace. " +
	"Only recommend vehicles from the catalog below, using their exact names. " +
	"Rank them by how well they fit the investor's query."

type CarService struct {
	llm model.ChatCompleter
}

func NewCarService(llm model.ChatCompleter) *CarService {
	return &CarService{llm: llm}
}

func (s *CarService) Vehicles() []model.Vehicle {
	return Catalog()
}

// Search asks the upstream model to rank catalog vehicles against a free
// text query. Matches naming a catalog vehicle get its imageUrl.
func (s *CarService) Search(ctx context.Context, query string) (map[string]any, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	catalog, err := json.MarshalIndent(vehicleCatalog, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal catalog")
	}

	schema := &model.ResponseSchema{
		Name:        "car_search",
		Description: "Catalog vehicles ranked against a search query",
		Schema:      carSearchSchema,
	}
	raw, err := s.llm.Complete(ctx, model.CompletionRequest{
		Messages: []model.ChatMessage{
			{Role: model.RoleSystem, Content: carSearchInstruction + "\n\nCatalog:\n" + string(catalog) + "\n\n" + jsonInstruction},
			{Role: model.RoleUser, Content: query},
		},
		Schema: schema,
	})
	if err != nil {
		return nil, errors.Wrap(err, "upstream car search")
	}

	result, err := parseStructured(raw, &schema.Schema, logger.WithFields(logrus.Fields{"query": query}))
	if err != nil {
		return nil, err
	}
	enrichVehicleImages(result, "matches")
	return result, nil
}
