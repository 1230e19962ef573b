// Package prompts holds the prompt templates used by the consultation
// pipeline.
package prompts

import (
	"strings"
	"text/template"

	"github.com/luna-ai/luna/pkg/errkind"
)

// NicheClassificationInput feeds the niche classification prompt.
type NicheClassificationInput struct {
	Message string
	Niche   string
}

// StrategyInput feeds the strategy synthesis prompt.
type StrategyInput struct {
	Niche          string
	Platform       string
	Goals          []string
	AudienceSize   string
	Timeline       string
	MarketResearch string
	Quality        string
}

var nicheClassificationTmpl = template.Must(template.New("niche").Parse(strings.TrimSpace(`
You are a marketing analyst. A creator wrote:

"{{.Message}}"

Detected niche so far: {{if .Niche}}{{.Niche}}{{else}}unknown{{end}}

Respond with a single JSON object, no prose:
{"niche": "<one or two word niche>", "confidence": <0.0-1.0>}
`)))

var strategyTmpl = template.Must(template.New("strategy").Parse(strings.TrimSpace(`
You are Luna, a marketing strategist for social creators.

Creator profile:
- Niche: {{.Niche}}
- Platform: {{.Platform}}
- Goals: {{if .Goals}}{{range $i, $g := .Goals}}{{if $i}}, {{end}}{{$g}}{{end}}{{else}}grow the account{{end}}
- Audience size: {{if .AudienceSize}}{{.AudienceSize}}{{else}}unknown{{end}}
- Timeline: {{if .Timeline}}{{.Timeline}}{{else}}90 days{{end}}

Research quality: {{.Quality}}
{{if .MarketResearch}}Market research findings:
{{.MarketResearch}}
{{end}}
Write a concise growth strategy: positioning, three content pillars, posting
cadence, and one engagement tactic for the next 30 days.
`)))

// NicheClassification renders the niche classification prompt.
func NicheClassification(in NicheClassificationInput) (string, error) {
	return render(nicheClassificationTmpl, in)
}

// Strategy renders the strategy synthesis prompt.
func Strategy(in StrategyInput) (string, error) {
	return render(strategyTmpl, in)
}

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", errkind.Wrap(err, errkind.Internal, errkind.CodeInternal, "render prompt template")
	}
	return b.String(), nil
}
