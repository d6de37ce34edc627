package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"finbot/internal/app"
	"finbot/internal/httputil"
	"finbot/internal/llm"
	"finbot/internal/store"
)

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("digest worker starting", "schedule", deps.Config.DigestSchedule)

	c := cron.New()
	_, err = c.AddFunc(deps.Config.DigestSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := runDigest(ctx, deps); err != nil {
			deps.Log.Error("digest run failed", "err", err)
		}
	})
	if err != nil {
		deps.Log.Error("invalid digest schedule", "schedule", deps.Config.DigestSchedule, "err", err)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error {
		return httputil.ServeHealth(deps, "digest")
	})
	if err := g.Wait(); err != nil {
		deps.Log.Error("digest service stopped", "err", err)
	}
}

func runDigest(ctx context.Context, deps app.Deps) error {
	since := time.Now().Add(-time.Duration(deps.Config.DigestWindowHours) * time.Hour)
	reports, err := deps.Store.ListReportsSince(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}
	if len(reports) < deps.Config.DigestMinReports {
		deps.Log.Info("not enough reports for digest", "count", len(reports), "min", deps.Config.DigestMinReports)
		return nil
	}

	inputs := make([]llm.DigestInput, len(reports))
	for i, rep := range reports {
		inputs[i] = llm.DigestInput{Summary: rep.Summary, Sentiment: rep.Sentiment}
	}

	result, err := deps.LLM.Digest(ctx, inputs)
	if err != nil {
		return fmt.Errorf("digest generation failed: %w", err)
	}

	saved, err := deps.Store.SaveDigest(ctx, store.Digest{
		Paragraph:    result.Paragraph,
		Bullets:      result.Bullets,
		ArticleCount: len(reports),
		Model:        deps.Config.LLMModel,
	})
	if err != nil {
		return fmt.Errorf("failed to save digest: %w", err)
	}
	deps.Log.Info("digest generated", "id", saved.ID, "articles", saved.ArticleCount, "bullets", len(saved.Bullets))
	return nil
}
