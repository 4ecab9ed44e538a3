// Package render turns page documents into HTML.
//
// Rendering never fails because of page content: an instance whose organism
// is no longer registered becomes a placeholder, and a stored config that no
// longer matches its schema is replaced by the organism's defaults. Both are
// logged at warn level.
package render

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/specialistvlad/pagegrid/internal/ctxlog"
	"github.com/specialistvlad/pagegrid/internal/metrics"
	"github.com/specialistvlad/pagegrid/internal/organism"
	"github.com/specialistvlad/pagegrid/internal/page"
	"github.com/specialistvlad/pagegrid/internal/registry"
	"github.com/specialistvlad/pagegrid/internal/schema"
)

var (
	//go:embed page.html
	pageSource string
	//go:embed instance.html
	instanceSource string

	pageTmpl     = template.Must(template.New("page").Parse(pageSource))
	instanceTmpl = template.Must(template.New("instance").Parse(instanceSource))
)

// Definitions resolves organism ids. *registry.Registry satisfies it.
type Definitions interface {
	Get(id string) (organism.Definition, error)
}

// Pipeline renders instances and pages.
type Pipeline struct {
	defs    Definitions
	metrics *metrics.Metrics
}

// New creates a pipeline. m may be nil.
func New(defs Definitions, m *metrics.Metrics) *Pipeline {
	return &Pipeline{defs: defs, metrics: m}
}

type instanceView struct {
	OrganismID string
	InstanceID string
	Body       template.HTML
}

// RenderInstance renders one instance wrapped in an element carrying its
// organism and instance ids.
func (p *Pipeline) RenderInstance(ctx context.Context, inst page.Instance) template.HTML {
	logger := ctxlog.FromContext(ctx).With("instance", inst.ID, "organism", inst.OrganismID)
	view := instanceView{OrganismID: inst.OrganismID, InstanceID: inst.ID}
	start := time.Now()

	def, err := p.defs.Get(inst.OrganismID)
	p.metrics.RecordLookup(err == nil)
	if err != nil {
		if !errors.Is(err, registry.ErrNotFound) {
			logger.Error("Organism lookup failed.", "error", err)
		} else {
			logger.Warn("Page references an unknown organism, rendering a placeholder.")
		}
		p.metrics.RecordRender(inst.OrganismID, metrics.ResultNotFound, time.Since(start))
		return mustExecute("missing", view)
	}
	view.OrganismID = def.ID()

	result := metrics.ResultOK
	s := def.ConfigSchema()
	config, fieldErrs := s.Decode(inst.Config)
	if len(fieldErrs) == 0 {
		fieldErrs = s.Validate(config)
	}
	if len(fieldErrs) > 0 {
		logger.Warn("Stored config does not match the schema, rendering defaults.",
			"error", &schema.ValidationError{OrganismID: def.ID(), Fields: fieldErrs})
		config = def.DefaultConfig()
		result = metrics.ResultFallback
	}

	body, err := def.Render(config)
	if err != nil {
		logger.Error("Organism render failed.", "error", err)
		p.metrics.RecordRender(def.ID(), metrics.ResultError, time.Since(start))
		return mustExecute("missing", view)
	}
	p.metrics.RecordRender(def.ID(), result, time.Since(start))

	view.Body = body
	return mustExecute("instance", view)
}

// Preview renders an organism with a JSON config without a page around it.
// Unlike RenderInstance it does not degrade: unknown organisms and invalid
// configs are returned as errors.
func (p *Pipeline) Preview(ctx context.Context, organismID string, config []byte) (template.HTML, error) {
	def, err := p.defs.Get(organismID)
	if err != nil {
		return "", err
	}
	s := def.ConfigSchema()
	v, fieldErrs := s.Decode(config)
	if len(fieldErrs) == 0 {
		fieldErrs = s.Validate(v)
	}
	if len(fieldErrs) > 0 {
		return "", &schema.ValidationError{OrganismID: def.ID(), Fields: fieldErrs}
	}
	return def.Render(v)
}

type pageView struct {
	ID       string
	Title    string
	Version  int64
	Sections []template.HTML
}

// WritePage writes the complete HTML document of a page. Hidden instances
// are skipped.
func (p *Pipeline) WritePage(ctx context.Context, w io.Writer, doc *page.Document) error {
	view := pageView{ID: doc.ID, Title: doc.Title, Version: doc.Version}
	for _, inst := range doc.Instances {
		if !inst.Visible {
			continue
		}
		view.Sections = append(view.Sections, p.RenderInstance(ctx, inst))
	}
	if err := pageTmpl.Execute(w, view); err != nil {
		return fmt.Errorf("rendering page %q: %w", doc.ID, err)
	}
	ctxlog.FromContext(ctx).Debug("Page rendered.", "page", doc.ID, "sections", len(view.Sections))
	return nil
}

// RenderPage returns the complete HTML document of a page.
func (p *Pipeline) RenderPage(ctx context.Context, doc *page.Document) (string, error) {
	var buf bytes.Buffer
	if err := p.WritePage(ctx, &buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func mustExecute(name string, view instanceView) template.HTML {
	var buf strings.Builder
	if err := instanceTmpl.ExecuteTemplate(&buf, name, view); err != nil {
		panic(fmt.Sprintf("render: built-in template %q failed: %v", name, err))
	}
	return template.HTML(buf.String())
}
