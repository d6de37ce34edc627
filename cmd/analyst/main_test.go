package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finbot/internal/app"
	"finbot/internal/cache"
	"finbot/internal/config"
	"finbot/internal/llm"
	"finbot/internal/queue"
	"finbot/internal/store"
)

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func newTestDeps(st store.Store, client llm.Client, c cache.Cache) app.Deps {
	return app.Deps{
		Store: st,
		LLM:   client,
		Cache: c,
		Config: config.Config{
			LLMModel: "gemini-2.5-pro",
		},
		Log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestHandleAnalyze(t *testing.T) {
	articleID := uuid.New()
	article := store.Article{
		ID:      articleID,
		Title:   "Acme beats estimates",
		Content: "Acme Corp reported quarterly revenue of $4.2B, up 12% year over year.",
		Status:  store.StatusAnalyzing,
	}
	report := llm.Report{
		Summary:        "Acme beat expectations.",
		Sentiment:      "Positive",
		SentimentBasis: "Revenue grew 12%.",
		Risks:          []string{"cost pressure"},
		Opportunities:  []string{"cloud growth"},
	}

	t.Run("successful analysis", func(t *testing.T) {
		st := new(store.MockStore)
		client := new(llm.MockClient)
		c := new(cache.MockCache)

		st.On("GetArticle", mock.Anything, articleID).Return(article, nil).Once()
		client.On("Analyze", mock.Anything, article.Title, article.Content).Return(report, nil).Once()
		st.On("SaveReport", mock.Anything, mock.MatchedBy(func(rep store.Report) bool {
			return rep.ArticleID == articleID &&
				rep.Sentiment == "Positive" &&
				rep.Model == "gemini-2.5-pro"
		})).Return(nil).Once()
		c.On("InvalidateArticle", mock.Anything, articleID.String()).Return(nil).Once()
		st.On("UpdateArticleStatus", mock.Anything, articleID, store.StatusReady).Return(nil).Once()

		err := handleAnalyze(context.Background(), newTestDeps(st, client, c), analyzeTaskPayload{ArticleID: articleID.String()})
		require.NoError(t, err)
		st.AssertExpectations(t)
		client.AssertExpectations(t)
		c.AssertExpectations(t)
	})

	t.Run("missing content marks failed", func(t *testing.T) {
		st := new(store.MockStore)
		st.On("GetArticle", mock.Anything, articleID).
			Return(store.Article{ID: articleID, Status: store.StatusAnalyzing}, nil).Once()
		st.On("UpdateArticleStatus", mock.Anything, articleID, store.StatusFailed).Return(nil).Once()

		err := handleAnalyze(context.Background(), newTestDeps(st, new(llm.MockClient), cache.NewNoOpCache()),
			analyzeTaskPayload{ArticleID: articleID.String()})
		require.NoError(t, err)
		st.AssertExpectations(t)
	})

	t.Run("llm failure is returned for queue retry", func(t *testing.T) {
		st := new(store.MockStore)
		client := new(llm.MockClient)
		st.On("GetArticle", mock.Anything, articleID).Return(article, nil).Once()
		client.On("Analyze", mock.Anything, mock.Anything, mock.Anything).
			Return(llm.Report{}, errors.New("model overloaded")).Once()

		err := handleAnalyze(context.Background(), newTestDeps(st, client, cache.NewNoOpCache()),
			analyzeTaskPayload{ArticleID: articleID.String()})
		require.Error(t, err)
		st.AssertNotCalled(t, "SaveReport", mock.Anything, mock.Anything)
	})

	t.Run("invalid article id", func(t *testing.T) {
		err := handleAnalyze(context.Background(),
			newTestDeps(new(store.MockStore), new(llm.MockClient), cache.NewNoOpCache()),
			analyzeTaskPayload{ArticleID: "nope"})
		require.Error(t, err)
	})

	t.Run("exhausted retries mark article failed", func(t *testing.T) {
		st := new(store.MockStore)
		client := new(llm.MockClient)
		st.On("GetArticle", mock.Anything, articleID).Return(article, nil).Once()
		client.On("Analyze", mock.Anything, mock.Anything, mock.Anything).
			Return(llm.Report{}, errors.New("model overloaded")).Once()
		st.On("UpdateArticleStatus", mock.Anything, articleID, store.StatusFailed).Return(nil).Once()

		task := queue.Task{
			Type:     queue.TaskTypeAnalyze,
			Payload:  mustMarshal(t, analyzeTaskPayload{ArticleID: articleID.String()}),
			Attempts: queue.DefaultMaxAttempts - 1,
		}
		err := analyzeTask(context.Background(), newTestDeps(st, client, cache.NewNoOpCache()), task)
		require.Error(t, err, "the error still surfaces so the queue logs the terminal failure")
		st.AssertExpectations(t)
	})

	t.Run("mid-budget failure leaves status for retry", func(t *testing.T) {
		st := new(store.MockStore)
		client := new(llm.MockClient)
		st.On("GetArticle", mock.Anything, articleID).Return(article, nil).Once()
		client.On("Analyze", mock.Anything, mock.Anything, mock.Anything).
			Return(llm.Report{}, errors.New("model overloaded")).Once()

		task := queue.Task{
			Type:     queue.TaskTypeAnalyze,
			Payload:  mustMarshal(t, analyzeTaskPayload{ArticleID: articleID.String()}),
			Attempts: 1,
		}
		err := analyzeTask(context.Background(), newTestDeps(st, client, cache.NewNoOpCache()), task)
		require.Error(t, err)
		st.AssertNotCalled(t, "UpdateArticleStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache invalidation failure does not fail the task", func(t *testing.T) {
		st := new(store.MockStore)
		client := new(llm.MockClient)
		c := new(cache.MockCache)

		st.On("GetArticle", mock.Anything, articleID).Return(article, nil).Once()
		client.On("Analyze", mock.Anything, mock.Anything, mock.Anything).Return(report, nil).Once()
		st.On("SaveReport", mock.Anything, mock.Anything).Return(nil).Once()
		c.On("InvalidateArticle", mock.Anything, articleID.String()).Return(errors.New("redis down")).Once()
		st.On("UpdateArticleStatus", mock.Anything, articleID, store.StatusReady).Return(nil).Once()

		err := handleAnalyze(context.Background(), newTestDeps(st, client, c),
			analyzeTaskPayload{ArticleID: articleID.String()})
		require.NoError(t, err)
		st.AssertExpectations(t)
	})
}
