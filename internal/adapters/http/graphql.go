package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/streetpool/internal/core/domain"
	"github.com/samirrijal/streetpool/internal/pkg/geospatial"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"lat":            &graphql.Field{Type: graphql.Float},
			"lon":            &graphql.Field{Type: graphql.Float},
			"heading":        &graphql.Field{Type: graphql.Int},
			"region":         &graphql.Field{Type: graphql.String},
			"classification": &graphql.Field{Type: graphql.String},
		},
	})

	dailyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DailySelection",
		Fields: graphql.Fields{
			"date":     &graphql.Field{Type: graphql.String},
			"entries":  &graphql.Field{Type: graphql.NewList(locationType)},
			"fallback": &graphql.Field{Type: graphql.Boolean},
		},
	})

	countType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Count",
		Fields: graphql.Fields{
			"key":   &graphql.Field{Type: graphql.String},
			"count": &graphql.Field{Type: graphql.Int},
		},
	})

	statsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CorpusStats",
		Fields: graphql.Fields{
			"total":            &graphql.Field{Type: graphql.Int},
			"byRegion":         &graphql.Field{Type: graphql.NewList(countType)},
			"byClassification": &graphql.Field{Type: graphql.NewList(countType)},
		},
	})

	scoreType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RoundResult",
		Fields: graphql.Fields{
			"distance_km": &graphql.Field{Type: graphql.Float},
			"distance_mi": &graphql.Field{Type: graphql.Float},
			"round_score": &graphql.Field{Type: graphql.Int},
			"tier":        &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"daily": &graphql.Field{
				Type:        dailyType,
				Description: "Daily selection for a date (today in UTC when omitted)",
				Args: graphql.FieldConfigArgument{
					"date": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					date, _ := p.Args["date"].(string)
					resp, err := dailyFor(p.Context, deps, date, false)
					if err != nil {
						return nil, err
					}
					return map[string]any{
						"date":     resp.Date,
						"entries":  locationMaps(resp.Entries),
						"fallback": resp.Fallback,
					}, nil
				},
			},
			"corpusStats": &graphql.Field{
				Type:        statsType,
				Description: "Region and classification counts of the current corpus",
				Resolve: func(p graphql.ResolveParams) (any, error) {
					s := deps.Corpus.Stats()
					byRegion := make([]map[string]any, 0, len(domain.Regions))
					for _, r := range domain.Regions {
						byRegion = append(byRegion, map[string]any{"key": string(r), "count": s.ByRegion[r]})
					}
					byClass := make([]map[string]any, 0, 2)
					for _, cls := range []domain.Classification{domain.ClassificationOutdoor, domain.ClassificationUnknown} {
						byClass = append(byClass, map[string]any{"key": string(cls), "count": s.ByClassification[cls]})
					}
					return map[string]any{
						"total":            s.Total,
						"byRegion":         byRegion,
						"byClassification": byClass,
					}, nil
				},
			},
			"score": &graphql.Field{
				Type:        scoreType,
				Description: "Score a guess against the actual location",
				Args: graphql.FieldConfigArgument{
					"actualLat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"actualLon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"guessLat":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"guessLon":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					actual := domain.GeoPoint{Lat: p.Args["actualLat"].(float64), Lon: p.Args["actualLon"].(float64)}
					guess := domain.GeoPoint{Lat: p.Args["guessLat"].(float64), Lon: p.Args["guessLon"].(float64)}
					if !actual.Valid() || !guess.Valid() {
						return nil, errors.New("coordinates out of range")
					}
					r := geospatial.ScoreGuess(actual.Lat, actual.Lon, guess.Lat, guess.Lon)
					return map[string]any{
						"distance_km": r.DistanceKm,
						"distance_mi": r.DistanceMi,
						"round_score": r.Score,
						"tier":        string(r.Tier),
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func locationMaps(locs []domain.Location) []map[string]any {
	out := make([]map[string]any, 0, len(locs))
	for _, l := range locs {
		out = append(out, map[string]any{
			"lat":            l.Lat,
			"lon":            l.Lon,
			"heading":        l.Heading,
			"region":         string(l.Region),
			"classification": string(l.Classification),
		})
	}
	return out
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string         `json:"query"`
		OperationName string         `json:"operationName"`
		Variables     map[string]any `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil || req.Query == "" {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		c.Set(fiber.HeaderCacheControl, "private, max-age=0")
		return c.JSON(result)
	}
}
