package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a requested article does not exist.
var ErrNotFound = errors.New("article not found")

// ArticleRow is the input for inserting an article.
type ArticleRow struct {
	OwnerID    string
	Title      string
	SourceLink string
	Content    string
}

// Article is the article representation for API responses.
type Article struct {
	ID         int64     `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Title      string    `json:"title"`
	SourceLink string    `json:"source_link"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// maxTitleLen matches the VARCHAR(300) column, which counts characters.
const maxTitleLen = 300

// truncateTitle caps a title at max characters. Slicing runes rather than
// bytes keeps multibyte titles valid UTF-8.
func truncateTitle(title string, max int) string {
	r := []rune(title)
	if len(r) <= max {
		return title
	}
	return string(r[:max])
}

// InsertArticle persists a completed article and returns its id.
// Titles longer than 300 characters are truncated to fit the column.
func (db *DB) InsertArticle(ctx context.Context, row *ArticleRow) (int64, error) {
	title := truncateTitle(row.Title, maxTitleLen)

	var id int64
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO articles (owner_id, title, source_link, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, row.OwnerID, title, row.SourceLink, row.Content).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert article: %w", err)
	}
	return id, nil
}

// ListArticlesByOwner returns the owner's articles, newest first.
func (db *DB) ListArticlesByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Article, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, owner_id, title, source_link, content, created_at
		FROM articles
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Title, &a.SourceLink, &a.Content, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// GetArticle fetches a single article by id. Returns ErrNotFound if absent.
func (db *DB) GetArticle(ctx context.Context, id int64) (*Article, error) {
	var a Article
	err := db.Pool.QueryRow(ctx, `
		SELECT id, owner_id, title, source_link, content, created_at
		FROM articles
		WHERE id = $1
	`, id).Scan(&a.ID, &a.OwnerID, &a.Title, &a.SourceLink, &a.Content, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	return &a, nil
}
