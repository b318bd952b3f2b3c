package openai

import (
	"fmt"
	"slices"
	"strings"
)

const rewriteSystemPrompt = `You are a market psychologist. Rewrite the given product description into a structured, persona-compatible summary emphasizing how the product aligns with consumer values, motivations, risk attitudes, emotional appeal, and lifestyle context. Keep it short (5-7 sentences).`

const taggingSystemPromptTemplate = `You are a senior consumer segmentation strategist.
Label each cluster with short TAGS that differentiate it from other clusters.

Rules:
1) Return EXACTLY %[1]d tags per cluster.
2) Each tag MUST be exactly 4-5 words.
3) Tags must be derived from the consumer summary (values, cognition, risk, emotions, spending, sustainability), not product features.
4) Avoid filler: focused, oriented, values, traditional, lifestyle, brand, quality, comfort, stability.
5) Do NOT include age or gender unless truly distinguishing.
6) Return ONLY valid JSON of the form {"clusters": {"<cluster id>": {"tags": ["...", "..."]}}}.
`

const taggingUserPromptTemplate = `Product description (context only; do NOT copy product words into tags):
%[1]s

Cluster consumer summaries:
%[2]s

For each cluster, output EXACTLY %[3]d tags. Each tag must be EXACTLY 4-5 words.
Do not mention the product or its features.
Return JSON only.`

func buildTaggingSystemPrompt(tagsPerCluster int) string {
	return fmt.Sprintf(taggingSystemPromptTemplate, tagsPerCluster)
}

// buildTaggingUserPrompt renders one block per cluster in ascending cluster
// order. Summary fields are rendered in key order so prompts are stable.
func buildTaggingUserPrompt(productDescription string, summaries map[int]map[string]string, tagsPerCluster int) string {
	ids := make([]int, 0, len(summaries))
	for id := range summaries {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	blocks := make([]string, 0, len(ids))
	for _, id := range ids {
		summary := summaries[id]
		keys := make([]string, 0, len(summary))
		for k := range summary {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		var b strings.Builder
		fmt.Fprintf(&b, "Cluster %d:", id)
		for _, k := range keys {
			fmt.Fprintf(&b, "\n%s: %s", k, summary[k])
		}
		blocks = append(blocks, b.String())
	}

	return fmt.Sprintf(taggingUserPromptTemplate, productDescription, strings.Join(blocks, "\n\n"), tagsPerCluster)
}
