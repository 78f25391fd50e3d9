package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/spec-kit/skilllink-support/internal/domain"
	"github.com/spec-kit/skilllink-support/internal/persistence"
)

// KnowledgeRepository serves FAQs and knowledge base articles.
type KnowledgeRepository interface {
	ListActiveFAQs(ctx context.Context) ([]domain.FAQ, error)
	ListCategories(ctx context.Context) ([]domain.CategorySummary, error)
	ListArticlesByCategory(ctx context.Context, category string) ([]domain.Article, error)
	IncrementViews(ctx context.Context, articleIDs []int64) error
	Search(ctx context.Context, term string) ([]domain.Article, error)
}

type knowledgeRepository struct {
	db *sqlx.DB
}

// NewKnowledgeRepository instantiates repository.
func NewKnowledgeRepository(db *sqlx.DB) KnowledgeRepository {
	return &knowledgeRepository{db: db}
}

type articleRow struct {
	ID        int64  `db:"id"`
	Title     string `db:"title"`
	Content   string `db:"content"`
	Category  string `db:"category"`
	Views     int64  `db:"views"`
	CreatedAt string `db:"created_at"`
}

func (r articleRow) toDomain() (domain.Article, error) {
	createdAt, err := persistence.ParseTime(r.CreatedAt)
	if err != nil {
		return domain.Article{}, err
	}
	return domain.Article{
		ID:          r.ID,
		Title:       r.Title,
		Content:     r.Content,
		Category:    r.Category,
		Views:       r.Views,
		IsPublished: true,
		CreatedAt:   createdAt,
	}, nil
}

func (r *knowledgeRepository) ListActiveFAQs(ctx context.Context) ([]domain.FAQ, error) {
	var rows []struct {
		ID       int64  `db:"id"`
		Question string `db:"question"`
		Answer   string `db:"answer"`
		Category string `db:"category"`
	}
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT id, question, answer, category FROM faqs WHERE is_active = 1 ORDER BY id`); err != nil {
		return nil, err
	}
	faqs := make([]domain.FAQ, 0, len(rows))
	for _, row := range rows {
		faqs = append(faqs, domain.FAQ{
			ID:       row.ID,
			Question: row.Question,
			Answer:   row.Answer,
			Category: row.Category,
			IsActive: true,
		})
	}
	return faqs, nil
}

func (r *knowledgeRepository) ListCategories(ctx context.Context) ([]domain.CategorySummary, error) {
	var rows []struct {
		Category     string `db:"category"`
		ArticleCount int64  `db:"article_count"`
	}
	if err := r.db.SelectContext(ctx, &rows, `
        SELECT category, COUNT(*) AS article_count
        FROM knowledge_base
        WHERE is_published = 1
        GROUP BY category
        ORDER BY category`); err != nil {
		return nil, err
	}
	result := make([]domain.CategorySummary, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.CategorySummary{Category: row.Category, ArticleCount: row.ArticleCount})
	}
	return result, nil
}

func (r *knowledgeRepository) ListArticlesByCategory(ctx context.Context, category string) ([]domain.Article, error) {
	var rows []articleRow
	if err := r.db.SelectContext(ctx, &rows, `
        SELECT id, title, content, category, views, created_at
        FROM knowledge_base
        WHERE category = ? AND is_published = 1
        ORDER BY created_at DESC, id DESC`, category); err != nil {
		return nil, err
	}
	return articlesFromRows(rows)
}

func (r *knowledgeRepository) IncrementViews(ctx context.Context, articleIDs []int64) error {
	if len(articleIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE knowledge_base SET views = views + 1 WHERE id IN (?)`, articleIDs)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	return err
}

// Search ranks title matches ahead of content-only matches.
func (r *knowledgeRepository) Search(ctx context.Context, term string) ([]domain.Article, error) {
	const query = `
        SELECT id, title, content, category, views, created_at
        FROM knowledge_base
        WHERE is_published = 1
          AND (title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')
        ORDER BY CASE WHEN title LIKE ? ESCAPE '\' THEN 1 ELSE 2 END, title ASC`

	pattern := "%" + escapeLike(term) + "%"
	var rows []articleRow
	if err := r.db.SelectContext(ctx, &rows, query, pattern, pattern, pattern); err != nil {
		return nil, err
	}
	return articlesFromRows(rows)
}

func articlesFromRows(rows []articleRow) ([]domain.Article, error) {
	result := make([]domain.Article, 0, len(rows))
	for _, row := range rows {
		article, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, article)
	}
	return result, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
