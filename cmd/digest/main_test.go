package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finbot/internal/app"
	"finbot/internal/config"
	"finbot/internal/llm"
	"finbot/internal/store"
)

func newTestDeps(st store.Store, client llm.Client) app.Deps {
	return app.Deps{
		Store: st,
		LLM:   client,
		Config: config.Config{
			LLMModel:          "gemini-2.5-pro",
			DigestWindowHours: 24,
			DigestMinReports:  2,
		},
		Log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRunDigest(t *testing.T) {
	reports := []store.Report{
		{Summary: "Acme beat expectations.", Sentiment: "Positive"},
		{Summary: "Foo Inc issued a profit warning.", Sentiment: "Negative"},
	}

	t.Run("generates and saves digest", func(t *testing.T) {
		st := new(store.MockStore)
		client := new(llm.MockClient)

		st.On("ListReportsSince", mock.Anything, mock.Anything).Return(reports, nil).Once()
		client.On("Digest", mock.Anything, mock.MatchedBy(func(inputs []llm.DigestInput) bool {
			return len(inputs) == 2 && inputs[1].Sentiment == "Negative"
		})).Return(llm.DigestResult{
			Paragraph: "Mixed session for equities.",
			Bullets:   []string{"Acme up 12%", "Foo cut guidance"},
		}, nil).Once()
		st.On("SaveDigest", mock.Anything, mock.MatchedBy(func(d store.Digest) bool {
			return d.ArticleCount == 2 && d.Model == "gemini-2.5-pro"
		})).Return(store.Digest{ArticleCount: 2}, nil).Once()

		err := runDigest(context.Background(), newTestDeps(st, client))
		require.NoError(t, err)
		st.AssertExpectations(t)
		client.AssertExpectations(t)
	})

	t.Run("too few reports skips silently", func(t *testing.T) {
		st := new(store.MockStore)
		client := new(llm.MockClient)
		st.On("ListReportsSince", mock.Anything, mock.Anything).
			Return(reports[:1], nil).Once()

		err := runDigest(context.Background(), newTestDeps(st, client))
		require.NoError(t, err)
		client.AssertNotCalled(t, "Digest", mock.Anything, mock.Anything)
		st.AssertNotCalled(t, "SaveDigest", mock.Anything, mock.Anything)
	})

	t.Run("llm failure propagates", func(t *testing.T) {
		st := new(store.MockStore)
		client := new(llm.MockClient)
		st.On("ListReportsSince", mock.Anything, mock.Anything).Return(reports, nil).Once()
		client.On("Digest", mock.Anything, mock.Anything).
			Return(llm.DigestResult{}, errors.New("model overloaded")).Once()

		err := runDigest(context.Background(), newTestDeps(st, client))
		require.Error(t, err)
		st.AssertNotCalled(t, "SaveDigest", mock.Anything, mock.Anything)
	})

	t.Run("store list failure propagates", func(t *testing.T) {
		st := new(store.MockStore)
		st.On("ListReportsSince", mock.Anything, mock.Anything).
			Return(nil, errors.New("db down")).Once()

		err := runDigest(context.Background(), newTestDeps(st, new(llm.MockClient)))
		require.Error(t, err)
	})
}
