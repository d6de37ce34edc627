package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"finbot/internal/app"
	"finbot/internal/cache"
	"finbot/internal/httputil"
	"finbot/internal/queue"
	"finbot/internal/store"
)

type submitRequest struct {
	URL   string `json:"url" validate:"omitempty,url,max=2048"`
	Title string `json:"title" validate:"omitempty,max=500"`
	Text  string `json:"text" validate:"omitempty,min=100"`
}

type fetchTaskPayload struct {
	ArticleID string `json:"article_id"`
	URL       string `json:"url"`
}

type analyzeTaskPayload struct {
	ArticleID string `json:"article_id"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	r := httputil.NewRouter(deps.Log)

	r.Post("/api/articles", submitHandler(deps))
	r.Post("/api/articles/upload", uploadHandler(deps))
	r.Get("/api/articles/{id}", statusHandler(deps))
	r.Get("/api/articles/{id}/report", reportHandler(deps))
	r.Get("/api/digest/latest", digestHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps))

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("gateway listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func submitHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		if req.URL == "" && req.Text == "" {
			httputil.Fail(deps.Log, w, "either url or text is required", nil, http.StatusBadRequest)
			return
		}
		if req.URL != "" && req.Text != "" {
			httputil.Fail(deps.Log, w, "url and text are mutually exclusive", nil, http.StatusBadRequest)
			return
		}

		if req.URL != "" {
			submitURL(deps, r.Context(), w, req.URL)
			return
		}
		submitText(deps, r.Context(), w, req.Title, req.Text)
	}
}

func submitURL(deps app.Deps, ctx context.Context, w http.ResponseWriter, articleURL string) {
	art, err := deps.Store.CreateArticle(ctx, articleURL, "")
	if err != nil {
		httputil.Fail(deps.Log, w, "failed to persist article", err, http.StatusInternalServerError)
		return
	}

	body, err := json.Marshal(fetchTaskPayload{ArticleID: art.ID.String(), URL: articleURL})
	if err != nil {
		fail(deps, ctx, w, "marshal payload failed", err, art.ID, http.StatusInternalServerError, true)
		return
	}
	task := queue.Task{Type: queue.TaskTypeFetch, Payload: body}
	if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond); err != nil {
		fail(deps, ctx, w, "failed to enqueue article; please retry", err, art.ID, http.StatusInternalServerError, true)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
		"article_id": art.ID.String(),
		"status":     art.Status,
	})
}

func submitText(deps app.Deps, ctx context.Context, w http.ResponseWriter, title, text string) {
	art, err := deps.Store.CreateArticle(ctx, "", title)
	if err != nil {
		httputil.Fail(deps.Log, w, "failed to persist article", err, http.StatusInternalServerError)
		return
	}
	if err := deps.Store.SetArticleContent(ctx, art.ID, title, "", text); err != nil {
		fail(deps, ctx, w, "failed to persist article text", err, art.ID, http.StatusInternalServerError, true)
		return
	}

	body, err := json.Marshal(analyzeTaskPayload{ArticleID: art.ID.String()})
	if err != nil {
		fail(deps, ctx, w, "marshal payload failed", err, art.ID, http.StatusInternalServerError, true)
		return
	}
	task := queue.Task{Type: queue.TaskTypeAnalyze, Payload: body}
	if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond); err != nil {
		fail(deps, ctx, w, "failed to enqueue article; please retry", err, art.ID, http.StatusInternalServerError, true)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
		"article_id": art.ID.String(),
		"status":     art.Status,
	})
}

func uploadHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		// Validate file size before parsing
		if r.ContentLength > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		contentType := header.Header.Get("Content-Type")
		// Browsers append parameters ("text/plain; charset=utf-8"); compare
		// the bare media type.
		if contentType != "" {
			if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
				contentType = mediaType
			}
		}

		// If Content-Type is missing or generic, detect from filename
		if contentType == "" || contentType == "application/octet-stream" {
			ext := strings.ToLower(filepath.Ext(header.Filename))
			switch ext {
			case ".txt":
				contentType = "text/plain"
			case ".pdf":
				contentType = "application/pdf"
			default:
				httputil.Fail(deps.Log, w, "unsupported file type (only PDF and TXT allowed)", nil, http.StatusBadRequest)
				return
			}
		}

		allowedTypes := map[string]bool{
			"text/plain":      true,
			"application/pdf": true,
		}
		if !allowedTypes[contentType] {
			httputil.Fail(deps.Log, w, "unsupported file type (only PDF and TXT allowed)", nil, http.StatusBadRequest)
			return
		}

		content, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}
		text := extractUploadText(header.Filename, content, deps)
		if strings.TrimSpace(text) == "" {
			httputil.Fail(deps.Log, w, "uploaded file contains no text", nil, http.StatusBadRequest)
			return
		}

		submitText(deps, r.Context(), w, header.Filename, text)
	}
}

// fail is gateway-specific error handler that can mark articles as failed
func fail(deps app.Deps, ctx context.Context, w http.ResponseWriter, message string, err error, articleID uuid.UUID, status int, markFailed bool) {
	log := deps.Log.With("article_id", articleID)
	if markFailed && articleID != uuid.Nil {
		if upErr := deps.Store.UpdateArticleStatus(ctx, articleID, store.StatusFailed); upErr != nil {
			log.Error("failed to mark article failed", "err", upErr)
		}
	}

	httputil.Fail(log, w, message, err, status)
}

func statusHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := chi.URLParam(r, "id")
		articleID, err := uuid.Parse(idStr)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid article id", err, http.StatusBadRequest)
			return
		}
		art, err := deps.Store.GetArticle(r.Context(), articleID)
		if err != nil {
			httputil.Fail(deps.Log, w, "article not found", err, http.StatusNotFound)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"article_id": art.ID.String(),
			"url":        art.SourceURL,
			"title":      art.Title,
			"site_name":  art.SiteName,
			"status":     art.Status,
			"created_at": art.CreatedAt,
		})
	}
}

func reportHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := chi.URLParam(r, "id")
		articleID, err := uuid.Parse(idStr)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid article id", err, http.StatusBadRequest)
			return
		}
		ctx := r.Context()

		// Check cache first
		if cached, err := deps.Cache.GetReport(ctx, articleID.String()); err == nil && cached != nil {
			deps.Log.Info("report cache hit", "article_id", articleID)
			writeReport(w, articleID, *cached, true)
			return
		}

		rep, err := deps.Store.GetReport(ctx, articleID)
		if err != nil {
			httputil.Fail(deps.Log, w, "report not ready", err, http.StatusNotFound)
			return
		}

		result := cache.Report{
			Summary:        rep.Summary,
			Sentiment:      rep.Sentiment,
			SentimentBasis: rep.SentimentBasis,
			Risks:          rep.Risks,
			Opportunities:  rep.Opportunities,
			Model:          rep.Model,
		}
		cacheTTL := time.Duration(deps.Config.CacheTTL) * time.Second
		if err := deps.Cache.SetReport(ctx, articleID.String(), &result, cacheTTL); err != nil {
			// Log cache write failure but don't fail the request
			deps.Log.Warn("failed to cache report", "err", err)
		}
		writeReport(w, articleID, result, false)
	}
}

func writeReport(w http.ResponseWriter, articleID uuid.UUID, rep cache.Report, cached bool) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"article_id":      articleID.String(),
		"summary":         rep.Summary,
		"sentiment":       rep.Sentiment,
		"sentiment_basis": rep.SentimentBasis,
		"risks":           rep.Risks,
		"opportunities":   rep.Opportunities,
		"model":           rep.Model,
		"cached":          cached,
	})
}

func digestHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := deps.Store.LatestDigest(r.Context())
		if err != nil {
			httputil.Fail(deps.Log, w, "no digest available", err, http.StatusNotFound)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"paragraph":     d.Paragraph,
			"bullets":       d.Bullets,
			"article_count": d.ArticleCount,
			"model":         d.Model,
			"created_at":    d.CreatedAt,
		})
	}
}

// extractUploadText extracts text from uploaded files, with PDF support.
func extractUploadText(filename string, content []byte, deps app.Deps) string {
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		text, err := extractPDF(content)
		if err != nil {
			deps.Log.Warn("pdf extraction failed, using raw bytes", "err", err, "filename", filename)
			return string(content)
		}
		return text
	}
	// Treat other files as plain text
	return string(content)
}

func extractPDF(content []byte) (string, error) {
	reader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(reader, int64(len(content)))
	if err != nil {
		return "", err
	}

	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}
