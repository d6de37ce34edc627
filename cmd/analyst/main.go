package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"finbot/internal/app"
	"finbot/internal/httputil"
	"finbot/internal/queue"
	"finbot/internal/store"
)

type analyzeTaskPayload struct {
	ArticleID string `json:"article_id"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("analyst worker starting")

	g, ctx := errgroup.WithContext(context.Background())

	// Run queue worker
	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeAnalyze, func(ctx context.Context, task queue.Task) error {
			return analyzeTask(ctx, deps, task)
		})
	})

	// Run health check server
	g.Go(func() error {
		return httputil.ServeHealth(deps, "analyst")
	})

	// Wait for either to fail
	if err := g.Wait(); err != nil {
		deps.Log.Error("analyst service stopped", "err", err)
	}
}

// analyzeTask decodes the task and runs the analysis. When the last
// delivery fails, the article is marked failed before the queue drops the
// task, so status polling reaches a terminal state.
func analyzeTask(ctx context.Context, deps app.Deps, task queue.Task) error {
	var payload analyzeTaskPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return err
	}

	err := handleAnalyze(ctx, deps, payload)
	if err != nil && task.FinalAttempt() {
		markArticleFailed(ctx, deps, payload.ArticleID, err)
	}
	return err
}

func markArticleFailed(ctx context.Context, deps app.Deps, articleID string, taskErr error) {
	id, err := uuid.Parse(articleID)
	if err != nil {
		return
	}
	log := deps.Log.With("article_id", id)
	if upErr := deps.Store.UpdateArticleStatus(ctx, id, store.StatusFailed); upErr != nil {
		log.Error("failed to mark article failed", "err", upErr)
		return
	}
	log.Error("analysis permanently failed", "err", taskErr)
}

func handleAnalyze(ctx context.Context, deps app.Deps, payload analyzeTaskPayload) error {
	articleID, err := uuid.Parse(payload.ArticleID)
	if err != nil {
		return err
	}
	log := deps.Log.With("article_id", articleID)

	art, err := deps.Store.GetArticle(ctx, articleID)
	if err != nil {
		return fmt.Errorf("failed to get article: %w", err)
	}
	if art.Content == "" {
		log.Error("article has no content to analyze")
		return deps.Store.UpdateArticleStatus(ctx, articleID, store.StatusFailed)
	}

	rep, err := deps.LLM.Analyze(ctx, art.Title, art.Content)
	if err != nil {
		// Let the queue retry transient model failures; analyzeTask marks
		// the article failed on the final attempt.
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := deps.Store.SaveReport(ctx, store.Report{
		ArticleID:      articleID,
		Summary:        rep.Summary,
		Sentiment:      rep.Sentiment,
		SentimentBasis: rep.SentimentBasis,
		Risks:          rep.Risks,
		Opportunities:  rep.Opportunities,
		Model:          deps.Config.LLMModel,
	}); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	// A stale cached report must not outlive a fresh analysis.
	if err := deps.Cache.InvalidateArticle(ctx, articleID.String()); err != nil {
		log.Warn("failed to invalidate cached report", "err", err)
	}

	if err := deps.Store.UpdateArticleStatus(ctx, articleID, store.StatusReady); err != nil {
		return fmt.Errorf("failed to mark article ready: %w", err)
	}
	log.Info("report generated", "sentiment", rep.Sentiment, "risks", len(rep.Risks), "opportunities", len(rep.Opportunities))
	return nil
}
