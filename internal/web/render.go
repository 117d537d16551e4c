package web

import (
	"errors"
	"html"
	"html/template"
	"strings"

	"github.com/JakeFAU/news-helper/internal/client"
)

// Outcome names the branch a submission rendered.
type Outcome string

// Render outcomes, also used as metric labels.
const (
	OutcomeSuccess     Outcome = "success"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeError       Outcome = "error"
	OutcomeNetwork     Outcome = "network_error"
)

// AnalyzingPlaceholder is shown while a submission is in flight.
const AnalyzingPlaceholder template.HTML = "<p>Analyzing…</p>"

var markdownEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// RenderMarkdown escapes &, < and > and wraps the text in a preformatted block.
// Markdown syntax is left as-is.
func RenderMarkdown(md string) template.HTML {
	return template.HTML(`<pre class="markdown">` + markdownEscaper.Replace(md) + `</pre>`) //nolint:gosec // escaped above
}

// RenderOutcome maps an analyze call result onto the fragment shown to the user.
func RenderOutcome(resp *client.Response, err error) (template.HTML, Outcome) {
	if err == nil {
		data := ""
		if resp != nil {
			data = resp.Data
		}
		return RenderMarkdown(data), OutcomeSuccess
	}
	text, outcome := Notice(err)
	return alert(text), outcome
}

// Notice is the plain-text message for a failed analyze call.
func Notice(err error) (string, Outcome) {
	var rl *client.RateLimitError
	if errors.As(err, &rl) {
		return "Rate limited. " + rl.Notice(), OutcomeRateLimited
	}
	var se *client.StatusError
	if errors.As(err, &se) {
		return "Error: " + se.Notice(), OutcomeError
	}
	return "Network error: " + err.Error(), OutcomeNetwork
}

func alert(text string) template.HTML {
	return template.HTML(`<div class="alert">` + html.EscapeString(text) + `</div>`) //nolint:gosec // escaped above
}
