package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/snarg/blogsmith/internal/database"
	"github.com/snarg/blogsmith/internal/pipeline"
)

// Runner executes one generation pipeline run.
type Runner interface {
	Run(ctx context.Context, link, ownerID string) pipeline.Result
}

// ArticleReader serves persisted articles.
type ArticleReader interface {
	ListArticlesByOwner(ctx context.Context, ownerID string, limit, offset int) ([]database.Article, error)
	GetArticle(ctx context.Context, id int64) (*database.Article, error)
}

type ArticlesHandler struct {
	runner Runner
	store  ArticleReader
}

func NewArticlesHandler(runner Runner, store ArticleReader) *ArticlesHandler {
	return &ArticlesHandler{runner: runner, store: store}
}

type generateRequest struct {
	Link string `json:"link"`
}

// generateResponse is the success body; on a persistence failure the error
// body additionally carries the content so the caller can retry the save
// without re-running the pipeline.
type generateResponse struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type generateFailure struct {
	Error   string `json:"error"`
	Stage   string `json:"stage"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

// Generate handles POST /api/v1/articles/generate.
func (h *ArticlesHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := DecodeJSON(r, &req); err != nil || req.Link == "" {
		WriteError(w, http.StatusBadRequest, "invalid request body: expected {\"link\": \"<url>\"}")
		return
	}

	res := h.runner.Run(r.Context(), req.Link, OwnerFromContext(r.Context()))
	if res.OK() {
		WriteJSON(w, http.StatusOK, generateResponse{
			ID:      res.ArticleID,
			Title:   res.Title,
			Content: res.Content,
		})
		return
	}

	body := generateFailure{
		Error: res.Err.Detail(),
		Stage: string(res.Err.Stage),
	}
	if res.Err.Kind == pipeline.KindPersistenceFailed {
		// Generation succeeded; only the save failed.
		body.Title = res.Title
		body.Content = res.Content
	}
	WriteJSON(w, statusForKind(res.Err.Kind), body)
}

// List handles GET /api/v1/articles.
func (h *ArticlesHandler) List(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)
	owner := OwnerFromContext(r.Context())

	articles, err := h.store.ListArticlesByOwner(r.Context(), owner, p.Limit, p.Offset)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list articles")
		return
	}
	if articles == nil {
		articles = []database.Article{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"articles": articles})
}

// Get handles GET /api/v1/articles/{id}.
func (h *ArticlesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt64(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid article id")
		return
	}

	article, err := h.store.GetArticle(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "article not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to load article")
		return
	}

	// A foreign owner's article reads as absent rather than forbidden, so
	// ids don't leak existence.
	if article.OwnerID != OwnerFromContext(r.Context()) {
		WriteError(w, http.StatusNotFound, "article not found")
		return
	}

	WriteJSON(w, http.StatusOK, article)
}

// statusForKind maps a failure kind to its HTTP status class: client errors
// for bad input, gateway errors for upstream capabilities, plain server
// errors for persistence.
func statusForKind(kind pipeline.Kind) int {
	switch kind {
	case pipeline.KindInvalidInput:
		return http.StatusBadRequest
	case pipeline.KindTimeout:
		return http.StatusGatewayTimeout
	case pipeline.KindUnavailable, pipeline.KindNoAudioStream,
		pipeline.KindNetworkFailure, pipeline.KindEmptyTranscript,
		pipeline.KindEmptyContent:
		return http.StatusBadGateway
	case pipeline.KindCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
