package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supernanny-backend/internal/domain/apperror"
	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	repo "github.com/oksasatya/supernanny-backend/internal/domain/repository"
	"github.com/oksasatya/supernanny-backend/pkg/geo"
)

const (
	searchPageSize      = 20
	defaultSearchMax    = 50
	latestReviewsOnCard = 10
	maxHeadlineLength   = 200
	maxBioLength        = 2000
)

type NannyService struct {
	Nannies   repo.NannyRepository
	Reviews   repo.ReviewRepository
	Indexer   ProfileIndexer
	Photos    PhotoStore
	Logger    *logrus.Logger
	SearchMax int
}

func NewNannyService(nannies repo.NannyRepository, reviews repo.ReviewRepository, logger *logrus.Logger, searchMax int) *NannyService {
	if searchMax <= 0 || searchMax > defaultSearchMax {
		searchMax = defaultSearchMax
	}
	return &NannyService{Nannies: nannies, Reviews: reviews, Logger: logger, SearchMax: searchMax}
}

// SearchInput holds optional discovery filters; nil or empty values are ignored.
type SearchInput struct {
	City      string
	MinRate   *int
	MaxRate   *int
	MinYears  *int
	Language  string
	Skill     string
	MinRating *float64
	Lat       *float64
	Lng       *float64
	RadiusKm  *float64
	Sort      string
	Page      int
	Limit     int
}

// Criteria converts the input into storage filters.
func (in SearchInput) Criteria() []repo.NannyFilter {
	var fs []repo.NannyFilter
	if c := strings.TrimSpace(in.City); c != "" {
		fs = append(fs, repo.CityContains{City: c})
	}
	if in.MinRate != nil || in.MaxRate != nil {
		fs = append(fs, repo.RateRange{Min: in.MinRate, Max: in.MaxRate})
	}
	if in.MinYears != nil {
		fs = append(fs, repo.MinYears{Years: *in.MinYears})
	}
	if in.Language != "" {
		fs = append(fs, repo.HasLanguage{Language: in.Language})
	}
	if in.Skill != "" {
		fs = append(fs, repo.HasSkill{Skill: in.Skill})
	}
	if in.MinRating != nil {
		fs = append(fs, repo.MinRating{Rating: *in.MinRating})
	}
	return fs
}

// NannyResult is a profile annotated with its distance from the search origin.
type NannyResult struct {
	entity.NannyProfile
	DistanceKm *float64 `json:"distance_km"`
}

type SearchResult struct {
	Nannies    []NannyResult `json:"nannies"`
	Pagination Pagination    `json:"pagination"`
}

// Search filters, sorts and pages profiles. The radius filter runs on the
// fetched page, so a page may hold fewer than Limit results; Total counts
// matches before the radius filter.
func (s *NannyService) Search(ctx context.Context, in SearchInput) (*SearchResult, error) {
	q := repo.NannySearch{
		Filters: in.Criteria(),
		Sort:    repo.ParseNannySort(in.Sort),
		Page:    repo.NewPage(in.Page, in.Limit, searchPageSize, s.SearchMax),
	}
	profiles, total, err := s.Nannies.Search(ctx, q)
	if err != nil {
		return nil, apperror.Internal("failed to search nannies", err)
	}

	origin := in.Lat != nil && in.Lng != nil
	results := make([]NannyResult, 0, len(profiles))
	for _, p := range profiles {
		r := NannyResult{NannyProfile: p}
		if origin && p.HasCoordinates() {
			d := geo.RoundKm(geo.HaversineKm(*in.Lat, *in.Lng, *p.Latitude, *p.Longitude))
			r.DistanceKm = &d
		}
		if origin && in.RadiusKm != nil && (r.DistanceKm == nil || *r.DistanceKm > *in.RadiusKm) {
			continue
		}
		results = append(results, r)
	}
	return &SearchResult{Nannies: results, Pagination: newPagination(total, q.Page.Number, q.Page.Size)}, nil
}

func (s *NannyService) GetMine(ctx context.Context, userID string) (*entity.NannyProfile, error) {
	p, err := s.Nannies.GetByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperror.NotFound("nanny profile not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load profile", err)
	}
	return p, nil
}

type NannyDetail struct {
	Profile *entity.NannyProfile `json:"profile"`
	Reviews []entity.Review      `json:"reviews"`
}

// GetByID returns the profile with its latest reviews.
func (s *NannyService) GetByID(ctx context.Context, id string) (*NannyDetail, error) {
	p, err := s.Nannies.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperror.NotFound("nanny not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load nanny", err)
	}
	reviews, _, err := s.Reviews.ListByReviewee(ctx, p.UserID, repo.Page{Number: 1, Size: latestReviewsOnCard})
	if err != nil {
		return nil, apperror.Internal("failed to load reviews", err)
	}
	if reviews == nil {
		reviews = []entity.Review{}
	}
	return &NannyDetail{Profile: p, Reviews: reviews}, nil
}

type UpdateProfileInput struct {
	entity.ProfileUpdate
	Availability []entity.AvailabilitySlot
}

func (in UpdateProfileInput) validate() error {
	if in.Headline != nil && len([]rune(*in.Headline)) > maxHeadlineLength {
		return apperror.Validation("headline must be at most 200 characters")
	}
	if in.Bio != nil && len([]rune(*in.Bio)) > maxBioLength {
		return apperror.Validation("bio must be at most 2000 characters")
	}
	if in.HourlyRateNis != nil && (*in.HourlyRateNis < 20 || *in.HourlyRateNis > 500) {
		return apperror.Validation("hourly rate must be between 20 and 500")
	}
	if in.YearsExperience != nil && (*in.YearsExperience < 0 || *in.YearsExperience > 50) {
		return apperror.Validation("years of experience must be between 0 and 50")
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
		return apperror.Validation("latitude out of range")
	}
	if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
		return apperror.Validation("longitude out of range")
	}
	for _, sl := range in.Availability {
		if sl.DayOfWeek < 0 || sl.DayOfWeek > 6 {
			return apperror.Validation("day of week must be between 0 and 6")
		}
		if !entity.ValidTimeOfDay(sl.FromTime) || !entity.ValidTimeOfDay(sl.ToTime) {
			return apperror.Validation("availability times must be HH:MM")
		}
	}
	return nil
}

// UpdateMine applies profile changes and upserts the weekly availability slots.
func (s *NannyService) UpdateMine(ctx context.Context, userID string, in UpdateProfileInput) (*entity.NannyProfile, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := s.Nannies.Update(ctx, userID, in.ProfileUpdate)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperror.NotFound("nanny profile not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to update profile", err)
	}
	if len(in.Availability) > 0 {
		if err := s.Nannies.UpsertAvailability(ctx, p.ID, in.Availability); err != nil {
			return nil, apperror.Internal("failed to update availability", err)
		}
		if p, err = s.Nannies.GetByUserID(ctx, userID); err != nil {
			return nil, apperror.Internal("failed to load profile", err)
		}
	}
	s.index(ctx, p)
	return p, nil
}

// UploadPhoto stores the image and points the profile avatar at it.
func (s *NannyService) UploadPhoto(ctx context.Context, userID, filename, contentType string, r io.Reader) (*entity.NannyProfile, error) {
	if s.Photos == nil {
		return nil, apperror.Validation("photo uploads are not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperror.Validation("photo must be an image")
	}
	if _, err := s.GetMine(ctx, userID); err != nil {
		return nil, err
	}
	object := fmt.Sprintf("nannies/%s/%d-%s%s", userID, time.Now().Unix(), uuid.NewString()[:8], strings.ToLower(path.Ext(filename)))
	url, err := s.Photos.Upload(ctx, object, contentType, r)
	if err != nil {
		return nil, apperror.Internal("failed to upload photo", err)
	}
	p, err := s.Nannies.Update(ctx, userID, entity.ProfileUpdate{AvatarURL: &url})
	if err != nil {
		return nil, apperror.Internal("failed to update profile", err)
	}
	s.index(ctx, p)
	return p, nil
}

// TextSearch queries the full-text profile index.
func (s *NannyService) TextSearch(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.Indexer == nil {
		return nil, apperror.Validation("text search is not configured")
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.Validation("query is required")
	}
	if size <= 0 || size > s.SearchMax {
		size = searchPageSize
	}
	hits, err := s.Indexer.SearchProfiles(ctx, q, size)
	if err != nil {
		return nil, apperror.Internal("failed to search profiles", err)
	}
	return hits, nil
}

func (s *NannyService) index(ctx context.Context, p *entity.NannyProfile) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.IndexProfile(ctx, p); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("nanny_id", p.ID).Warn("index nanny profile failed")
	}
}
