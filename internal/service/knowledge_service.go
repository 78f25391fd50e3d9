package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/skilllink-support/internal/domain"
	"github.com/spec-kit/skilllink-support/internal/repository"
	apperrors "github.com/spec-kit/skilllink-support/pkg/errorutil"
)

const viewUpdateTimeout = 5 * time.Second

// KnowledgeService serves FAQs and the knowledge base.
type KnowledgeService struct {
	repo   repository.KnowledgeRepository
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewKnowledgeService constructs the service.
func NewKnowledgeService(repo repository.KnowledgeRepository, logger *zap.Logger) *KnowledgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KnowledgeService{repo: repo, logger: logger}
}

// FAQs lists active FAQs.
func (s *KnowledgeService) FAQs(ctx context.Context) ([]domain.FAQ, error) {
	faqs, err := s.repo.ListActiveFAQs(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("list faqs: %w", err))
	}
	return faqs, nil
}

// Categories lists published article counts per category.
func (s *KnowledgeService) Categories(ctx context.Context) ([]domain.CategorySummary, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("list categories: %w", err))
	}
	return categories, nil
}

// ArticlesByCategory returns a category's articles and bumps their view
// counters in the background. The returned views are the pre-read values.
func (s *KnowledgeService) ArticlesByCategory(ctx context.Context, category string) ([]domain.Article, error) {
	articles, err := s.repo.ListArticlesByCategory(ctx, category)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("list articles: %w", err))
	}
	if len(articles) == 0 {
		return articles, nil
	}

	ids := make([]int64, 0, len(articles))
	for _, a := range articles {
		ids = append(ids, a.ID)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), viewUpdateTimeout)
		defer cancel()
		if err := s.repo.IncrementViews(bgCtx, ids); err != nil {
			s.logger.Warn("article view update failed", zap.String("category", category), zap.Error(err))
		}
	}()
	return articles, nil
}

// Search finds published articles whose title or content contains query.
func (s *KnowledgeService) Search(ctx context.Context, query string) ([]domain.Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("Search query required", nil)
	}
	results, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("search articles: %w", err))
	}
	return results, nil
}

// Wait blocks until background view updates finish.
func (s *KnowledgeService) Wait() {
	s.wg.Wait()
}
