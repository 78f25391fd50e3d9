package dto

import "github.com/spec-kit/skilllink-support/internal/domain"

// FAQResponse is a question and its answer.
type FAQResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CategoryResponse counts published articles in a category.
type CategoryResponse struct {
	Category     string `json:"category"`
	ArticleCount int64  `json:"article_count"`
}

// ArticleResponse is a knowledge base article listed under a category.
type ArticleResponse struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Views   int64  `json:"views"`
}

// SearchResultResponse is one search hit.
type SearchResultResponse struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Content  string `json:"content"`
}

func NewFAQResponses(faqs []domain.FAQ) []FAQResponse {
	resp := make([]FAQResponse, 0, len(faqs))
	for _, f := range faqs {
		resp = append(resp, FAQResponse{Question: f.Question, Answer: f.Answer})
	}
	return resp
}

func NewCategoryResponses(categories []domain.CategorySummary) []CategoryResponse {
	resp := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, CategoryResponse{Category: c.Category, ArticleCount: c.ArticleCount})
	}
	return resp
}

func NewArticleResponses(articles []domain.Article) []ArticleResponse {
	resp := make([]ArticleResponse, 0, len(articles))
	for _, a := range articles {
		resp = append(resp, ArticleResponse{ID: a.ID, Title: a.Title, Content: a.Content, Views: a.Views})
	}
	return resp
}

func NewSearchResultResponses(articles []domain.Article) []SearchResultResponse {
	resp := make([]SearchResultResponse, 0, len(articles))
	for _, a := range articles {
		resp = append(resp, SearchResultResponse{ID: a.ID, Title: a.Title, Category: a.Category, Content: a.Content})
	}
	return resp
}
