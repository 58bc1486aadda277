package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fix-it/marketplace/internal/api/dto"
	"github.com/fix-it/marketplace/internal/repository"
	"github.com/fix-it/marketplace/internal/service"
	apperrors "github.com/fix-it/marketplace/pkg/util"
)

// HandymenHandler serves handyman discovery endpoints.
type HandymenHandler struct {
	catalog *service.CatalogService
}

func NewHandymenHandler(catalog *service.CatalogService) *HandymenHandler {
	return &HandymenHandler{catalog: catalog}
}

// List handles GET /handymen with search filters.
func (h *HandymenHandler) List(c *fiber.Ctx) error {
	filter := repository.HandymanFilter{
		ServiceID:     queryStringPtr(c, "service_id"),
		City:          queryStringPtr(c, "city"),
		MinRating:     queryFloatPtr(c, "min_rating"),
		AvailableOnly: c.Query("available") == "true",
		Limit:         queryInt(c, "limit"),
		Offset:        queryInt(c, "offset"),
	}

	profiles, err := h.catalog.ListHandymen(c.Context(), filter)
	if err != nil {
		return err
	}

	out := make([]dto.HandymanSummary, 0, len(profiles))
	for i := range profiles {
		out = append(out, dto.NewHandymanSummary(&profiles[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Get handles GET /handymen/:id with services and recent ratings.
func (h *HandymenHandler) Get(c *fiber.Ctx) error {
	profileID := c.Params("id")
	if profileID == "" {
		return apperrors.NewValidationError("handyman id required", nil)
	}

	detail, err := h.catalog.GetHandyman(c.Context(), profileID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHandymanDetailResponse(detail)})
}
