package scenario

import (
	"bytes"
	"math/rand/v2"
	"strings"
	"text/template"

	"github.com/google/uuid"
)

// TemplateEngine renders request paths and bodies per task invocation.
type TemplateEngine struct {
	funcMap template.FuncMap
}

// TemplateData is passed to every template execution.
type TemplateData struct {
	UserID string
	UUID   string
}

// NewTemplateEngine returns an engine with the random helper functions registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{}
	e.funcMap = template.FuncMap{
		"randomInt":    randomInt,
		"randomUUID":   randomUUID,
		"randomChoice": randomChoice,
		"uuid":         randomUUID,
	}
	return e
}

// Preprocess rewrites the short variables {{userID}}, {{uuid}} and
// {{requestID}} into field access on TemplateData.
func (e *TemplateEngine) Preprocess(input string) string {
	s := strings.ReplaceAll(input, "{{userID}}", "{{.UserID}}")
	s = strings.ReplaceAll(s, "{{uuid}}", "{{.UUID}}")
	s = strings.ReplaceAll(s, "{{requestID}}", "{{.UUID}}")
	return s
}

// Parse compiles text with the engine's functions.
func (e *TemplateEngine) Parse(name, text string) (*template.Template, error) {
	return template.New(name).Funcs(e.funcMap).Option("missingkey=error").Parse(e.Preprocess(text))
}

// Execute renders t with data.
func (e *TemplateEngine) Execute(t *template.Template, data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// IsTemplate reports whether s contains template actions.
func IsTemplate(s string) bool {
	return strings.Contains(s, "{{")
}

func randomInt(min, max int) int {
	if max <= min {
		return min
	}
	return rand.IntN(max-min) + min
}

func randomUUID() string {
	return uuid.NewString()
}

func randomChoice(choices ...string) string {
	if len(choices) == 0 {
		return ""
	}
	return choices[rand.IntN(len(choices))]
}
