package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/fix-it/marketplace/internal/api/dto"
	"github.com/fix-it/marketplace/internal/repository"
	"github.com/fix-it/marketplace/internal/service"
)

// CatalogHandler serves the public category and service browse endpoints.
type CatalogHandler struct {
	catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListCategories handles GET /catalog/categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.ListCategories(c.Context())
	if err != nil {
		return err
	}

	out := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, dto.NewCategoryResponse(&categories[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// ListServices handles GET /catalog/services.
func (h *CatalogHandler) ListServices(c *fiber.Ctx) error {
	filter := repository.ServiceFilter{
		CategoryID: queryStringPtr(c, "category_id"),
		Search:     queryStringPtr(c, "search"),
		Limit:      queryInt(c, "limit"),
		Offset:     queryInt(c, "offset"),
	}

	services, err := h.catalog.ListServices(c.Context(), filter)
	if err != nil {
		return err
	}

	out := make([]dto.ServiceResponse, 0, len(services))
	for i := range services {
		out = append(out, dto.NewServiceResponse(&services[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

func queryStringPtr(c *fiber.Ctx, key string) *string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	return &raw
}

func queryInt(c *fiber.Ctx, key string) int {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func queryFloatPtr(c *fiber.Ctx, key string) *float64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}
