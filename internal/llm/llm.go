package llm

import "context"

// Sentiment classifications the analyst prompt allows.
const (
	SentimentPositive = "Positive"
	SentimentNegative = "Negative"
	SentimentNeutral  = "Neutral"
)

// Report is the structured output of a single article analysis.
type Report struct {
	Summary        string
	Sentiment      string
	SentimentBasis string
	Risks          []string
	Opportunities  []string
}

// DigestInput is one finished report fed into the market digest.
type DigestInput struct {
	Summary   string
	Sentiment string
}

// DigestResult is the condensed market overview.
type DigestResult struct {
	Paragraph string
	Bullets   []string
}

// Client is a minimal LLM interface to allow pluggable providers.
type Client interface {
	Analyze(ctx context.Context, title, articleText string) (Report, error)
	Digest(ctx context.Context, inputs []DigestInput) (DigestResult, error)
}
