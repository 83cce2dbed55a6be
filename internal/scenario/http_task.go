package scenario

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"text/template"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HTTPTaskDef declares a status-checking HTTP task, typically loaded from a
// scenario file.
type HTTPTaskDef struct {
	Name         string
	Weight       int
	Method       string
	Path         string
	Body         string
	ExpectStatus int
}

// NewHTTPTask builds a Task from def. Path and Body may contain templates,
// rendered on every invocation. Defaults: method GET, weight 1, expected
// status 200, name "<METHOD> <path>".
func NewHTTPTask(log *zap.Logger, eng *TemplateEngine, def HTTPTaskDef) (Task, error) {
	if log == nil {
		log = zap.NewNop()
	}
	method := strings.ToUpper(def.Method)
	if method == "" {
		method = http.MethodGet
	}
	if def.Path == "" || def.Path[0] != '/' {
		return Task{}, fmt.Errorf("%w: path %q must start with /", ErrInvalidTask, def.Path)
	}
	expect := def.ExpectStatus
	if expect == 0 {
		expect = http.StatusOK
	}
	weight := def.Weight
	if weight == 0 {
		weight = 1
	}
	name := def.Name
	if name == "" {
		name = method + " " + def.Path
	}

	if !IsTemplate(def.Path) && !IsTemplate(def.Body) {
		var body []byte
		if def.Body != "" {
			body = []byte(def.Body)
		}
		return Task{Name: name, Weight: weight, Fn: StatusCheckTask(log, method, def.Path, body, expect)}, nil
	}

	if eng == nil {
		eng = NewTemplateEngine()
	}
	pathTmpl, err := eng.Parse(name+"/path", def.Path)
	if err != nil {
		return Task{}, fmt.Errorf("task %s: parse path: %w", name, err)
	}
	var bodyTmpl *template.Template
	if def.Body != "" {
		if bodyTmpl, err = eng.Parse(name+"/body", def.Body); err != nil {
			return Task{}, fmt.Errorf("task %s: parse body: %w", name, err)
		}
	}

	// stats group by the unrendered path, query string dropped
	statsName := def.Path
	if i := strings.IndexByte(statsName, '?'); i >= 0 {
		statsName = statsName[:i]
	}

	return Task{Name: name, Weight: weight, Fn: func(ctx context.Context, c Client) error {
		data := TemplateData{UserID: UserIDFrom(ctx), UUID: uuid.NewString()}
		path, err := eng.Execute(pathTmpl, data)
		if err != nil {
			return fmt.Errorf("render path: %w", err)
		}
		var body []byte
		if bodyTmpl != nil {
			s, err := eng.Execute(bodyTmpl, data)
			if err != nil {
				return fmt.Errorf("render body: %w", err)
			}
			body = []byte(s)
		}
		resp, err := c.Do(WithRequestName(ctx, statsName), method, path, body)
		if err != nil {
			return err
		}
		checkStatus(log, method, def.Path, expect, resp.StatusCode)
		return nil
	}}, nil
}
