package analysis

import "strings"

// Mode selects the analysis heading. Values outside the known set are accepted
// and echoed verbatim.
type Mode string

// Known modes offered by the frontend.
const (
	ModeSummary    Mode = "summary"
	ModeBias       Mode = "bias"
	ModeBackground Mode = "background"
)

// DefaultMode applies when a request omits mode.
const DefaultMode = ModeSummary

// Modes lists the known modes in display order.
func Modes() []Mode {
	return []Mode{ModeSummary, ModeBias, ModeBackground}
}

// ResolveMode returns the requested mode or DefaultMode when it is nil. An empty
// string is a value, not an omission.
func ResolveMode(requested *string) Mode {
	if requested == nil {
		return DefaultMode
	}
	return Mode(*requested)
}

// Request is the normalized input to Render.
type Request struct {
	URL      string
	Mode     Mode
	Language Language
}

// Meta describes the article. The placeholder never fills it in, so every field
// encodes as JSON null.
type Meta struct {
	Title     *string `json:"title"`
	Author    *string `json:"author"`
	Published *string `json:"published"`
	Site      *string `json:"site"`
}

// Result is the analyze response body.
type Result struct {
	Meta Meta   `json:"meta"`
	Mode Mode   `json:"mode"`
	Data string `json:"data"`
}

// Render builds the localized Markdown document for req.
func Render(req Request) Result {
	return Result{
		Mode: req.Mode,
		Data: Markdown(req),
	}
}

// Markdown joins the document blocks with blank lines, skipping the article line
// when no URL was supplied.
func Markdown(req Request) string {
	s := req.Language.sections()
	blocks := []string{s.Title, req.Language.modeHeading(string(req.Mode))}
	if req.URL != "" {
		blocks = append(blocks, req.Language.articleLine(req.URL))
	}
	blocks = append(blocks, s.TLDR, s.KeyPoints, s.Sources)
	return strings.Join(blocks, "\n\n")
}
