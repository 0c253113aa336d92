// Package search mirrors nanny profiles into Elasticsearch for free-text lookup.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
)

type NannyIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewNannyIndex(es *elasticsearch.Client, index string) *NannyIndex {
	return &NannyIndex{es: es, index: index}
}

// document is the indexed projection of a profile.
type document struct {
	ProfileID       string   `json:"profile_id"`
	UserID          string   `json:"user_id"`
	FullName        string   `json:"full_name"`
	Headline        string   `json:"headline"`
	Bio             string   `json:"bio"`
	City            string   `json:"city"`
	Languages       []string `json:"languages"`
	Skills          []string `json:"skills"`
	HourlyRateNis   int      `json:"hourly_rate_nis"`
	YearsExperience int      `json:"years_experience"`
	Rating          float64  `json:"rating"`
	ReviewsCount    int      `json:"reviews_count"`
	IsAvailable     bool     `json:"is_available"`
	AvatarURL       string   `json:"avatar_url,omitempty"`
}

func (x *NannyIndex) IndexProfile(ctx context.Context, p *entity.NannyProfile) error {
	doc := document{
		ProfileID:       p.ID,
		UserID:          p.UserID,
		FullName:        p.FullName,
		Headline:        p.Headline,
		Bio:             p.Bio,
		City:            p.City,
		Languages:       p.Languages,
		Skills:          p.Skills,
		HourlyRateNis:   p.HourlyRateNis,
		YearsExperience: p.YearsExperience,
		Rating:          p.Rating,
		ReviewsCount:    p.ReviewsCount,
		IsAvailable:     p.IsAvailable,
		AvatarURL:       p.AvatarURL,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      x.index,
		DocumentID: p.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index error: %s", res.String())
	}
	return nil
}

// SearchProfiles runs a multi_match query over the profile text fields and
// returns the stored documents best match first.
func (x *NannyIndex) SearchProfiles(ctx context.Context, q string, size int) ([]map[string]any, error) {
	query := map[string]any{
		"size": size,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"full_name^3", "headline^2", "bio", "city^2", "skills", "languages"},
				"fuzziness": "AUTO",
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}
	res, err := x.es.Search(
		x.es.Search.WithContext(ctx),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search error: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Score  float64        `json:"_score"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		h.Source["score"] = h.Score
		out = append(out, h.Source)
	}
	return out, nil
}
