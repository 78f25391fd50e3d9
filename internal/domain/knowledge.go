package domain

import "time"

// FAQ is a frequently asked question shown on the help page.
type FAQ struct {
	ID       int64
	Question string
	Answer   string
	Category string
	IsActive bool
}

// Article is a knowledge base entry.
type Article struct {
	ID          int64
	Title       string
	Content     string
	Category    string
	Views       int64
	IsPublished bool
	CreatedAt   time.Time
}

// CategorySummary counts published articles in a category.
type CategorySummary struct {
	Category     string
	ArticleCount int64
}
