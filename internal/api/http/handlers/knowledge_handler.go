package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/skilllink-support/internal/api/dto"
	"github.com/spec-kit/skilllink-support/internal/service"
)

// KnowledgeHandler serves FAQs and the knowledge base.
type KnowledgeHandler struct {
	service *service.KnowledgeService
}

// NewKnowledgeHandler constructs handler.
func NewKnowledgeHandler(knowledgeService *service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{service: knowledgeService}
}

// FAQs GET /api/faqs.
func (h *KnowledgeHandler) FAQs(c *fiber.Ctx) error {
	faqs, err := h.service.FAQs(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "faqs": dto.NewFAQResponses(faqs)})
}

// Categories GET /api/knowledge-base/categories.
func (h *KnowledgeHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.service.Categories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "categories": dto.NewCategoryResponses(categories)})
}

// ArticlesByCategory GET /api/knowledge-base/category/:category.
func (h *KnowledgeHandler) ArticlesByCategory(c *fiber.Ctx) error {
	articles, err := h.service.ArticlesByCategory(c.UserContext(), c.Params("category"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "articles": dto.NewArticleResponses(articles)})
}

// Search GET /api/knowledge-base/search?query=.
func (h *KnowledgeHandler) Search(c *fiber.Ctx) error {
	results, err := h.service.Search(c.UserContext(), c.Query("query"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"results": dto.NewSearchResultResponses(results),
		"count":   len(results),
	})
}
