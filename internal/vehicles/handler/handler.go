package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"advenrent_backend/internal/vehicles/service"
	"advenrent_backend/internal/vehicles/transport"
	"advenrent_backend/platform/httpkit"
	"advenrent_backend/platform/validator"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Search returns a page of listings as a flat JSON array.
// GET /api/v1/vehicles
func (h *Handler) Search(c *gin.Context) {
	var req transport.SearchVehiclesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	input := service.SearchInput{
		Query:    req.Query,
		Type:     req.Type,
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		Page:     req.Page,
		Limit:    req.Limit,
	}
	if req.StartDate != "" {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid startDate", nil)
			return
		}
		input.StartDate = &start
	}
	if req.EndDate != "" {
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid endDate", nil)
			return
		}
		input.EndDate = &end
	}
	// Geo filtering needs the full triple; anything less is ignored.
	if req.Latitude != nil && req.Longitude != nil && req.RadiusKm != nil {
		input.Latitude = req.Latitude
		input.Longitude = req.Longitude
		input.RadiusKm = req.RadiusKm
	}

	results, err := h.svc.Search(c.Request.Context(), input)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, results)
}

// Get returns a single listing.
// GET /api/v1/vehicles/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid vehicle id", nil)
		return
	}

	vehicle, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, vehicle)
}

// Create publishes a new listing owned by the caller.
// POST /api/v1/vehicles
func (h *Handler) Create(c *gin.Context) {
	userID, ok := httpkit.MustGetUserID(c)
	if !ok {
		return
	}

	var req transport.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	vehicle, err := h.svc.Create(c.Request.Context(), userID, createInput(req))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, vehicle)
}

// Update applies a partial update to a listing the caller owns.
// PUT /api/v1/vehicles/:id
func (h *Handler) Update(c *gin.Context) {
	userID, ok := httpkit.MustGetUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid vehicle id", nil)
		return
	}

	var req transport.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	vehicle, err := h.svc.Update(c.Request.Context(), userID, id, updateInput(req))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, vehicle)
}

// ReplaceImages swaps the full image set of a listing the caller owns.
// PUT /api/v1/vehicles/:id/images
func (h *Handler) ReplaceImages(c *gin.Context) {
	userID, ok := httpkit.MustGetUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid vehicle id", nil)
		return
	}

	var req transport.ReplaceImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	vehicle, err := h.svc.ReplaceImages(c.Request.Context(), userID, id, imageInputs(req.Images), req.PrimaryIndex)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, vehicle)
}

func createInput(req transport.CreateVehicleRequest) service.CreateInput {
	input := service.CreateInput{
		Title:        req.Title,
		Type:         req.Type,
		Price:        req.Price,
		Description:  req.Description,
		Features:     req.Features,
		Images:       imageInputs(req.Images),
		PrimaryIndex: req.PrimaryIndex,
	}
	if req.Location != nil {
		input.Latitude = &req.Location.Latitude
		input.Longitude = &req.Location.Longitude
	}
	return input
}

func updateInput(req transport.UpdateVehicleRequest) service.UpdateInput {
	input := service.UpdateInput{
		Title:        req.Title,
		Type:         req.Type,
		Price:        req.Price,
		Description:  req.Description,
		Features:     req.Features,
		PrimaryIndex: req.PrimaryIndex,
	}
	if req.Location != nil {
		input.Latitude = &req.Location.Latitude
		input.Longitude = &req.Location.Longitude
	}
	if req.Images != nil {
		input.Images = imageInputs(req.Images)
	}
	return input
}

func imageInputs(payloads []transport.ImagePayload) []service.ImageInput {
	if payloads == nil {
		return nil
	}
	images := make([]service.ImageInput, 0, len(payloads))
	for _, p := range payloads {
		images = append(images, service.ImageInput{Data: p.Data, ContentType: p.ContentType})
	}
	return images
}
