package llm

import (
	"fmt"
	"strings"
)

const analystSystemPrompt = `You are "FinBot", an expert financial analyst AI. Your task is to provide a clear, concise, and insightful analysis of a financial news article. Your audience consists of investors and business stakeholders who need actionable information.`

const analystInstructions = `**Instructions:**
1. Read the article text provided below carefully.
2. Generate a structured report with the following distinct sections: ` + "`### Executive Summary`, `### Sentiment Analysis`, `### Key Risks`, and `### Potential Opportunities`" + `. Use markdown headings for each section.
3. **Executive Summary:** Provide a brief, neutral summary of the article's main points. What happened? Who are the key players? What is the core news?
4. **Sentiment Analysis:** Classify the overall sentiment of the news as ` + "`Positive`, `Negative`, or `Neutral`" + `. Provide a one-sentence justification for your classification, citing specific information from the article.
5. **Key Risks:** Identify and list up to 3 potential risks for the involved companies, sectors, or the market based on the article. These should be specific and derived directly from the text.
6. **Potential Opportunities:** Identify and list up to 3 potential opportunities for investors or businesses based on the article. These should also be specific and directly supported by the text.`

const digestSystemPrompt = `You are a financial news editor. Given a list of financial news report summaries, provide an executive market digest.

Rules for the paragraph:
- Single paragraph, concise and neutral
- Summarizing the overall market mood

Rules for bullets:
- 3 to 5 bullet points
- Each bullet covers a distinct key event or theme
- Include company names, numbers, and percentages where relevant
- One sentence per bullet

Output as JSON only, no other text:
{
  "paragraph": "executive market digest paragraph",
  "bullets": ["key event 1", "key event 2", "key event 3"]
}`

// buildAnalystPrompt assembles the user message for a single article.
func buildAnalystPrompt(title, articleText string) string {
	var b strings.Builder
	b.WriteString(analystInstructions)
	b.WriteString("\n\n")
	if title != "" {
		fmt.Fprintf(&b, "**Article Title:** %s\n\n", title)
	}
	fmt.Fprintf(&b, "**Article Text:**\n```%s```\n\n**Generated Report:**\n", articleText)
	return b.String()
}

// buildDigestPrompt assembles the user message for the market digest.
func buildDigestPrompt(inputs []DigestInput) string {
	var b strings.Builder
	b.WriteString("Reports:\n")
	for i, in := range inputs {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, in.Sentiment, in.Summary)
	}
	return b.String()
}
