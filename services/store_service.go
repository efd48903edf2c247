package services

import (
	"errors"
	"log"
	"strings"

	"casa-rewards-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// StoreService serves the power-ups catalog. Members browse published
// items; creation and publishing come in through the gateway-admin path.
type StoreService struct {
	DB *gorm.DB
}

func NewStoreService(db *gorm.DB) *StoreService {
	return &StoreService{DB: db}
}

var titleCaser = cases.Title(language.Spanish)

// ListPublishedItems returns the browsable catalog, cheapest first.
func (s *StoreService) ListPublishedItems(c *fiber.Ctx) error {
	var items []models.StoreItem
	if err := s.DB.
		Where("status = ?", models.StoreItemStatusPublished).
		Order("price_palomas ASC").
		Find(&items).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load store items"})
	}
	return c.JSON(fiber.Map{"items": items})
}

// GetItemBySlug returns a single published item.
func (s *StoreService) GetItemBySlug(c *fiber.Ctx) error {
	var item models.StoreItem
	err := s.DB.
		Where("slug = ? AND status = ?", c.Params("slug"), models.StoreItemStatusPublished).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "item not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load item"})
	}
	return c.JSON(item)
}

// CreateItem creates a power-up (gateway-admin only). Names are titled and
// slugged server-side so the catalog stays consistent however admins type.
func (s *StoreService) CreateItem(c *fiber.Ctx) error {
	var req struct {
		Name         string `json:"name"`
		Emoji        string `json:"emoji"`
		Description  string `json:"description"`
		PricePalomas int64  `json:"price_palomas"`
		Publish      bool   `json:"publish"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}
	if req.PricePalomas <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "price_palomas must be positive"})
	}

	item := models.StoreItem{
		Name:         titleCaser.String(name),
		Slug:         slug.Make(name),
		Emoji:        req.Emoji,
		Description:  req.Description,
		PricePalomas: req.PricePalomas,
		Status:       models.StoreItemStatusDraft,
	}
	if req.Publish {
		item.Status = models.StoreItemStatusPublished
	}

	if err := s.DB.Create(&item).Error; err != nil {
		log.Printf("❌ [STORE] failed to create item %q: %v", item.Slug, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create item"})
	}

	return c.Status(fiber.StatusCreated).JSON(item)
}
