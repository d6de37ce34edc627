package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"finbot/internal/app"
	"finbot/internal/httputil"
	"finbot/internal/queue"
	"finbot/internal/store"
)

type fetchTaskPayload struct {
	ArticleID string `json:"article_id"`
	URL       string `json:"url"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("fetcher worker starting")

	g, ctx := errgroup.WithContext(context.Background())

	// Run queue worker
	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeFetch, func(ctx context.Context, task queue.Task) error {
			return fetchTask(ctx, deps, task)
		})
	})

	// Run health check server
	g.Go(func() error {
		return httputil.ServeHealth(deps, "fetcher")
	})

	// Wait for either to fail
	if err := g.Wait(); err != nil {
		deps.Log.Error("fetcher service stopped", "err", err)
	}
}

// fetchTask decodes the task and runs the fetch. When the last delivery
// fails (e.g. the store keeps rejecting the content), the article is marked
// failed before the queue drops the task.
func fetchTask(ctx context.Context, deps app.Deps, task queue.Task) error {
	var payload fetchTaskPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return err
	}

	err := handleFetch(ctx, deps, payload)
	if err != nil && task.FinalAttempt() {
		if id, parseErr := uuid.Parse(payload.ArticleID); parseErr == nil {
			log := deps.Log.With("article_id", id)
			if upErr := deps.Store.UpdateArticleStatus(ctx, id, store.StatusFailed); upErr != nil {
				log.Error("failed to mark article failed", "err", upErr)
			} else {
				log.Error("fetch permanently failed", "err", err)
			}
		}
	}
	return err
}

func handleFetch(ctx context.Context, deps app.Deps, payload fetchTaskPayload) error {
	articleID, err := uuid.Parse(payload.ArticleID)
	if err != nil {
		return err
	}
	log := deps.Log.With("article_id", articleID)

	art, err := deps.Fetcher.FetchArticle(payload.URL)
	if err != nil {
		log.Error("article fetch failed", "url", payload.URL, "err", err)
		if upErr := deps.Store.UpdateArticleStatus(ctx, articleID, store.StatusFailed); upErr != nil {
			log.Error("failed to mark article failed", "err", upErr)
		}
		// Retrying at the queue level will not help; the fetcher retried already.
		return nil
	}

	if err := deps.Store.SetArticleContent(ctx, articleID, art.Title, art.SiteName, art.Text); err != nil {
		return fmt.Errorf("failed to persist article content: %w", err)
	}
	if err := deps.Store.UpdateArticleStatus(ctx, articleID, store.StatusAnalyzing); err != nil {
		return fmt.Errorf("failed to advance article status: %w", err)
	}
	log.Info("article fetched", "title", art.Title, "chars", len(art.Text))

	body, err := json.Marshal(map[string]any{"article_id": articleID.String()})
	if err != nil {
		return err
	}
	task := queue.Task{Type: queue.TaskTypeAnalyze, Payload: body, NotBefore: time.Now()}
	return queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond)
}
