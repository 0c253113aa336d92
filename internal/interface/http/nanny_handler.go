package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supernanny-backend/internal/application"
	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/internal/interface/middleware"
	"github.com/oksasatya/supernanny-backend/pkg/response"
)

const maxPhotoBytes = 5 << 20

var photoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type NannyHandler struct {
	Svc    *application.NannyService
	Logger *logrus.Logger
}

func NewNannyHandler(svc *application.NannyService, logger *logrus.Logger) *NannyHandler {
	return &NannyHandler{Svc: svc, Logger: logger}
}

type searchQuery struct {
	City      string   `form:"city"`
	MinRate   *int     `form:"min_rate" binding:"omitempty,min=0"`
	MaxRate   *int     `form:"max_rate" binding:"omitempty,min=0"`
	MinYears  *int     `form:"min_years" binding:"omitempty,min=0"`
	Language  string   `form:"language"`
	Skill     string   `form:"skill"`
	MinRating *float64 `form:"min_rating" binding:"omitempty,min=0,max=5"`
	Lat       *float64 `form:"lat" binding:"omitempty,latitude"`
	Lng       *float64 `form:"lng" binding:"omitempty,longitude"`
	RadiusKm  *float64 `form:"radius_km" binding:"omitempty,gt=0"`
	Sort      string   `form:"sort"`
	Page      int      `form:"page"`
	Limit     int      `form:"limit"`
}

type availabilityRequest struct {
	DayOfWeek   *int   `json:"day_of_week" binding:"required,weekday"`
	FromTime    string `json:"from_time" binding:"required,hhmm"`
	ToTime      string `json:"to_time" binding:"required,hhmm"`
	IsAvailable *bool  `json:"is_available"`
}

type updateProfileRequest struct {
	Headline        *string               `json:"headline" binding:"omitempty,max=200"`
	Bio             *string               `json:"bio" binding:"omitempty,max=2000"`
	HourlyRateNis   *int                  `json:"hourly_rate_nis" binding:"omitempty,min=20,max=500"`
	YearsExperience *int                  `json:"years_experience" binding:"omitempty,min=0,max=50"`
	Languages       []string              `json:"languages" binding:"omitempty,max=20,dive,min=1,max=40"`
	Skills          []string              `json:"skills" binding:"omitempty,max=30,dive,min=1,max=60"`
	City            *string               `json:"city" binding:"omitempty,max=100"`
	Address         *string               `json:"address" binding:"omitempty,max=300"`
	Latitude        *float64              `json:"latitude" binding:"omitempty,latitude"`
	Longitude       *float64              `json:"longitude" binding:"omitempty,longitude"`
	IsAvailable     *bool                 `json:"is_available"`
	Availability    []availabilityRequest `json:"availability" binding:"omitempty,max=7,dive"`
}

func (r updateProfileRequest) input() application.UpdateProfileInput {
	in := application.UpdateProfileInput{
		ProfileUpdate: entity.ProfileUpdate{
			Headline:        r.Headline,
			Bio:             r.Bio,
			HourlyRateNis:   r.HourlyRateNis,
			YearsExperience: r.YearsExperience,
			Languages:       r.Languages,
			Skills:          r.Skills,
			City:            r.City,
			Address:         r.Address,
			Latitude:        r.Latitude,
			Longitude:       r.Longitude,
			IsAvailable:     r.IsAvailable,
		},
	}
	for _, a := range r.Availability {
		slot := entity.AvailabilitySlot{DayOfWeek: *a.DayOfWeek, FromTime: a.FromTime, ToTime: a.ToTime, IsAvailable: true}
		if a.IsAvailable != nil {
			slot.IsAvailable = *a.IsAvailable
		}
		in.Availability = append(in.Availability, slot)
	}
	return in
}

func (h *NannyHandler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.Svc.Search(c.Request.Context(), application.SearchInput{
		City:      q.City,
		MinRate:   q.MinRate,
		MaxRate:   q.MaxRate,
		MinYears:  q.MinYears,
		Language:  q.Language,
		Skill:     q.Skill,
		MinRating: q.MinRating,
		Lat:       q.Lat,
		Lng:       q.Lng,
		RadiusKm:  q.RadiusKm,
		Sort:      q.Sort,
		Page:      q.Page,
		Limit:     q.Limit,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, res, "nannies")
}

func (h *NannyHandler) TextSearch(c *gin.Context) {
	hits, err := h.Svc.TextSearch(c.Request.Context(), c.Query("q"), queryInt(c, "size"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, hits, "nannies")
}

func (h *NannyHandler) GetMine(c *gin.Context) {
	p, err := h.Svc.GetMine(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, p, "nanny profile")
}

func (h *NannyHandler) UpdateMine(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	p, err := h.Svc.UpdateMine(c.Request.Context(), middleware.UserID(c), req.input())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, p, "profile updated")
}

func (h *NannyHandler) UploadPhoto(c *gin.Context) {
	fh, err := c.FormFile("photo")
	if err != nil {
		response.Abort(c, http.StatusBadRequest, "photo file is required", nil)
		return
	}
	if fh.Size > maxPhotoBytes {
		response.Abort(c, http.StatusBadRequest, "photo must be at most 5MB", nil)
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if !photoTypes[contentType] {
		response.Abort(c, http.StatusBadRequest, "photo must be jpeg, png or webp", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Abort(c, http.StatusBadRequest, "unreadable photo", nil)
		return
	}
	defer f.Close()

	name := strings.ToLower(filepath.Base(fh.Filename))
	p, err := h.Svc.UploadPhoto(c.Request.Context(), middleware.UserID(c), name, contentType, f)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, p, "photo uploaded")
}

func (h *NannyHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "id", "nanny")
	if !ok {
		return
	}
	d, err := h.Svc.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, d, "nanny")
}
