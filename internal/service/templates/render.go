package templates

import (
	"strings"

	"github.com/osteele/liquid"
	"go.uber.org/zap"

	applog "github.com/janisto/subscriber-pipeline/internal/platform/logging"
)

// DefaultName replaces an empty subscriber name.
const DefaultName = "Subscriber"

// Bindings are the values available to a template.
type Bindings struct {
	Name    string
	Email   string
	City    string
	Country string
}

func (b Bindings) vars() map[string]any {
	name := b.Name
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	return map[string]any{
		"name":    name,
		"email":   b.Email,
		"city":    b.City,
		"country": b.Country,
	}
}

// Renderer fills template placeholders such as {{name}}. Templates are
// rendered with Liquid; a template Liquid rejects falls back to plain
// placeholder substitution so legacy HTML still goes out.
type Renderer struct {
	engine *liquid.Engine
}

// NewRenderer creates a renderer with a default filter for optional fields.
func NewRenderer() *Renderer {
	engine := liquid.NewEngine()
	// {{ city | default: "your city" }}
	engine.RegisterFilter("default", func(value any, fallback string) any {
		if s, ok := value.(string); value == nil || (ok && s == "") {
			return fallback
		}
		return value
	})
	return &Renderer{engine: engine}
}

// Render produces the personalised body.
func (r *Renderer) Render(tpl string, b Bindings) string {
	vars := b.vars()
	out, err := r.engine.ParseAndRenderString(tpl, vars)
	if err == nil {
		return out
	}
	applog.Logger().Debug("liquid render failed, using plain substitution", zap.Error(err))
	replacements := make([]string, 0, len(vars)*4)
	for k, v := range vars {
		s, _ := v.(string)
		replacements = append(replacements, "{{"+k+"}}", s, "{{ "+k+" }}", s)
	}
	return strings.NewReplacer(replacements...).Replace(tpl)
}
