package orchestrator

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// stripHTML strips any HTML/script markup an analysis source (most
// plausibly the LLM, which is fed untrusted PR content) might have
// embedded in a free-text field, before that text is woven into a review
// comment body. GitHub's own renderer sanitizes review comments, but a
// message crafted to smuggle HTML through this service into a downstream
// consumer (the audit dashboard, a Slack relay) should never see it.
var textPolicy = bluemonday.StrictPolicy()

func stripHTML(s string) string {
	return textPolicy.Sanitize(s)
}

var mdRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))
var htmlPolicy = bluemonday.UGCPolicy()

// renderSummaryHTML converts the posted review's markdown summary into
// sanitized HTML, for the audit store to keep alongside the raw markdown
// so a history viewer can render it without re-implementing markdown
// escaping rules.
func renderSummaryHTML(markdown string) string {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(markdown), &buf); err != nil {
		return htmlPolicy.Sanitize(markdown)
	}
	return htmlPolicy.Sanitize(buf.String())
}
