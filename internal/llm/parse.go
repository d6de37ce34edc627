package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

const maxSectionItems = 3

// parseReport splits the model's markdown response into report fields.
// Sections are delimited by markdown headings; the model is instructed to
// emit Executive Summary, Sentiment Analysis, Key Risks and Potential
// Opportunities, but heading levels and ordering are treated leniently.
func parseReport(content string) (Report, error) {
	content = stripFences(content)
	sections := splitSections(content)
	if len(sections) == 0 {
		return Report{}, fmt.Errorf("no sections found in model response")
	}

	var rep Report
	for name, body := range sections {
		switch {
		case strings.Contains(name, "summary"):
			rep.Summary = strings.TrimSpace(strings.Join(proseLines(body), " "))
		case strings.Contains(name, "sentiment"):
			rep.Sentiment, rep.SentimentBasis = parseSentiment(body)
		case strings.Contains(name, "risk"):
			rep.Risks = clampItems(bulletLines(body))
		case strings.Contains(name, "opportunit"):
			rep.Opportunities = clampItems(bulletLines(body))
		}
	}

	if rep.Summary == "" {
		return Report{}, fmt.Errorf("model response missing executive summary")
	}
	if rep.Sentiment == "" {
		rep.Sentiment = SentimentNeutral
	}
	return rep, nil
}

// splitSections maps lowercased heading text to section body.
func splitSections(content string) map[string][]string {
	sections := make(map[string][]string)
	var current string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			heading := strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
			heading = strings.Trim(heading, "*`")
			current = strings.ToLower(heading)
			continue
		}
		if current == "" || trimmed == "" {
			continue
		}
		sections[current] = append(sections[current], trimmed)
	}
	return sections
}

// parseSentiment finds the classification token and keeps the rest as basis.
func parseSentiment(lines []string) (string, string) {
	joined := strings.Join(lines, " ")
	sentiment := ""
	for _, s := range []string{SentimentPositive, SentimentNegative, SentimentNeutral} {
		if containsWord(joined, s) {
			sentiment = s
			break
		}
	}
	if sentiment == "" {
		return SentimentNeutral, strings.TrimSpace(joined)
	}
	// Drop a leading "Positive:"/"**Negative** -" style label from the basis.
	basis := strings.TrimSpace(joined)
	for _, prefix := range []string{"**" + sentiment + "**", sentiment} {
		if strings.HasPrefix(basis, prefix) {
			basis = strings.TrimSpace(strings.TrimLeft(strings.TrimPrefix(basis, prefix), ":-. "))
			break
		}
	}
	return sentiment, basis
}

func containsWord(s, word string) bool {
	lower := strings.ToLower(s)
	target := strings.ToLower(word)
	idx := strings.Index(lower, target)
	for idx >= 0 {
		before := idx == 0 || !isLetter(lower[idx-1])
		afterIdx := idx + len(target)
		after := afterIdx >= len(lower) || !isLetter(lower[afterIdx])
		if before && after {
			return true
		}
		next := strings.Index(lower[idx+1:], target)
		if next < 0 {
			return false
		}
		idx += 1 + next
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// bulletLines extracts list items, falling back to prose lines when the
// model ignored the bullet instruction.
func bulletLines(lines []string) []string {
	var items []string
	for _, line := range lines {
		if isBullet(line) {
			items = append(items, cleanBullet(line))
		}
	}
	if len(items) == 0 {
		for _, line := range lines {
			items = append(items, strings.TrimSpace(line))
		}
	}
	return items
}

// proseLines drops bullet markers but keeps their text.
func proseLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if isBullet(line) {
			out = append(out, cleanBullet(line))
		} else {
			out = append(out, strings.TrimSpace(line))
		}
	}
	return out
}

func isBullet(line string) bool {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") {
		return true
	}
	// Numbered lists: "1. risk" / "2) risk"
	if len(trimmed) > 2 && trimmed[0] >= '0' && trimmed[0] <= '9' && (trimmed[1] == '.' || trimmed[1] == ')') {
		return true
	}
	return false
}

func cleanBullet(line string) string {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimLeft(trimmed, "-* ")
	if len(trimmed) > 2 && trimmed[0] >= '0' && trimmed[0] <= '9' && (trimmed[1] == '.' || trimmed[1] == ')') {
		trimmed = strings.TrimSpace(trimmed[2:])
	}
	return strings.Trim(trimmed, "* ")
}

func clampItems(items []string) []string {
	if len(items) > maxSectionItems {
		return items[:maxSectionItems]
	}
	return items
}

// parseDigest decodes the JSON digest response.
// The model may wrap JSON in markdown fences; strip them if present.
func parseDigest(content string) (DigestResult, error) {
	raw := stripFences(content)
	var payload struct {
		Paragraph string   `json:"paragraph"`
		Bullets   []string `json:"bullets"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return DigestResult{}, fmt.Errorf("parse digest JSON: %w", err)
	}
	if payload.Paragraph == "" {
		return DigestResult{}, fmt.Errorf("digest response missing paragraph")
	}
	return DigestResult{Paragraph: payload.Paragraph, Bullets: payload.Bullets}, nil
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```JSON")
	raw = strings.TrimPrefix(raw, "```markdown")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}
