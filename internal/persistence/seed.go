package persistence

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// SeedContent is the help-center content installed on first start.
type SeedContent struct {
	FAQs     []SeedFAQ     `yaml:"faqs"`
	Articles []SeedArticle `yaml:"articles"`
}

// SeedFAQ is one FAQ entry.
type SeedFAQ struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
	Category string `yaml:"category"`
}

// SeedArticle is one knowledge base article.
type SeedArticle struct {
	Title    string `yaml:"title"`
	Category string `yaml:"category"`
	Content  string `yaml:"content"`
}

// LoadSeedContent parses the embedded seed file.
func LoadSeedContent() (*SeedContent, error) {
	var content SeedContent
	if err := yaml.Unmarshal(seedYAML, &content); err != nil {
		return nil, fmt.Errorf("parse seed content: %w", err)
	}
	return &content, nil
}

// SeedSupportContent inserts the embedded FAQs and articles. Rows are keyed by
// question/title, so re-running it never duplicates content.
func SeedSupportContent(ctx context.Context, db *SupportDB, logger *zap.Logger) error {
	content, err := LoadSeedContent()
	if err != nil {
		return err
	}

	tx, err := db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	now := FormatTime(time.Now())
	var inserted int64
	for _, faq := range content.FAQs {
		category := faq.Category
		if category == "" {
			category = "General"
		}
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO faqs (question, answer, category, created_at) VALUES (?, ?, ?, ?)`,
			faq.Question, faq.Answer, category, now)
		if err != nil {
			return fmt.Errorf("seed faq %q: %w", faq.Question, err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}
	for _, article := range content.Articles {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO knowledge_base (title, content, category, created_at) VALUES (?, ?, ?, ?)`,
			article.Title, article.Content, article.Category, now)
		if err != nil {
			return fmt.Errorf("seed article %q: %w", article.Title, err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logger.Info("support content seeded", zap.Int64("inserted", inserted))
	return nil
}
