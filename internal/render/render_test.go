package render_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/specialistvlad/pagegrid/internal/ctxlog"
	"github.com/specialistvlad/pagegrid/internal/metrics"
	"github.com/specialistvlad/pagegrid/internal/page"
	"github.com/specialistvlad/pagegrid/internal/registry"
	"github.com/specialistvlad/pagegrid/internal/render"
	"github.com/specialistvlad/pagegrid/internal/schema"
	"github.com/specialistvlad/pagegrid/organisms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeline(t *testing.T) (*render.Pipeline, *metrics.Metrics) {
	t.Helper()
	reg, err := organisms.Discover(context.Background())
	require.NoError(t, err)
	m := metrics.New()
	return render.New(reg, m), m
}

func logContext() (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger), &buf
}

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestPipeline_RenderInstance(t *testing.T) {
	t.Parallel()

	t.Run("Success: stored config is rendered", func(t *testing.T) {
		t.Parallel()
		p, m := newPipeline(t)
		out := p.RenderInstance(context.Background(), page.Instance{
			ID:         "i-1",
			OrganismID: "hero",
			Visible:    true,
			Config:     json.RawMessage(`{"title":"Trattoria Roma"}`),
		})

		doc := parse(t, string(out))
		wrapper := doc.Find(".organism-instance")
		require.Equal(t, 1, wrapper.Length())
		assert.Equal(t, "hero-section", wrapper.AttrOr("data-organism-id", ""))
		assert.Equal(t, "i-1", wrapper.AttrOr("data-instance-id", ""))
		assert.Equal(t, "Trattoria Roma", doc.Find(".hero-title").Text())
		assert.Equal(t, "Fresh food, made daily", doc.Find(".hero-subtitle").Text(), "missing fields take defaults")
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Renders.WithLabelValues("hero-section", metrics.ResultOK)))
	})

	t.Run("Degrade: unknown organism renders a placeholder", func(t *testing.T) {
		t.Parallel()
		p, m := newPipeline(t)
		ctx, logs := logContext()
		out := p.RenderInstance(ctx, page.Instance{ID: "i-2", OrganismID: "retired-banner", Config: json.RawMessage(`{}`)})

		doc := parse(t, string(out))
		missing := doc.Find("section.organism-missing")
		require.Equal(t, 1, missing.Length())
		assert.Equal(t, "retired-banner", missing.AttrOr("data-organism-id", ""))
		assert.Equal(t, "i-2", missing.AttrOr("data-instance-id", ""))
		assert.Contains(t, logs.String(), "level=WARN")
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues(metrics.ResultNotFound)))
	})

	t.Run("Degrade: invalid stored config falls back to defaults", func(t *testing.T) {
		t.Parallel()
		p, m := newPipeline(t)
		ctx, logs := logContext()
		out := p.RenderInstance(ctx, page.Instance{
			ID:         "i-3",
			OrganismID: "call-to-action",
			Config:     json.RawMessage(`{"heading":"Order","button_color":"not-a-color"}`),
		})

		doc := parse(t, string(out))
		assert.Equal(t, 0, doc.Find(".organism-missing").Length())
		assert.Contains(t, doc.Text(), "Hungry? Order now")
		assert.NotContains(t, string(out), "not-a-color")
		assert.Contains(t, logs.String(), "rendering defaults")
		assert.Contains(t, logs.String(), "button_color")
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Renders.WithLabelValues("call-to-action", metrics.ResultFallback)))
	})

	t.Run("Degrade: undecodable stored config falls back to defaults", func(t *testing.T) {
		t.Parallel()
		p, _ := newPipeline(t)
		out := p.RenderInstance(context.Background(), page.Instance{
			ID:         "i-4",
			OrganismID: "call-to-action",
			Config:     json.RawMessage(`[1,2,3]`),
		})
		assert.Contains(t, string(out), "Hungry? Order now")
	})
}

func TestPipeline_RenderPage(t *testing.T) {
	t.Parallel()
	p, _ := newPipeline(t)

	html, err := p.RenderPage(context.Background(), &page.Document{
		ID:      "home",
		Title:   "Trattoria <Roma>",
		Version: 4,
		Instances: []page.Instance{
			{ID: "a", OrganismID: "hero-section", Visible: true, Config: json.RawMessage(`{}`)},
			{ID: "b", OrganismID: "contact", Visible: false, Config: json.RawMessage(`{}`)},
			{ID: "c", OrganismID: "gone", Visible: true, Config: json.RawMessage(`{}`)},
			{ID: "d", OrganismID: "cta", Visible: true, Config: json.RawMessage(`{}`)},
		},
	})
	require.NoError(t, err)

	doc := parse(t, html)
	assert.Equal(t, "Trattoria <Roma>", doc.Find("title").Text())
	assert.Equal(t, "home", doc.Find("body").AttrOr("data-page-id", ""))
	assert.Equal(t, "4", doc.Find("body").AttrOr("data-page-version", ""))

	var order []string
	doc.Find("main.page > [data-instance-id]").Each(func(_ int, s *goquery.Selection) {
		order = append(order, s.AttrOr("data-instance-id", ""))
	})
	assert.Equal(t, []string{"a", "c", "d"}, order, "hidden instances are skipped, page order is kept")
	assert.Equal(t, 1, doc.Find(".organism-missing").Length())
}

func TestPipeline_RenderPage_Empty(t *testing.T) {
	t.Parallel()
	p, _ := newPipeline(t)
	html, err := p.RenderPage(context.Background(), &page.Document{ID: "blank", Title: "Blank"})
	require.NoError(t, err)
	assert.Equal(t, 0, parse(t, html).Find("main.page").Children().Length())
}

func TestPipeline_Preview(t *testing.T) {
	t.Parallel()
	p, _ := newPipeline(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		out, err := p.Preview(ctx, "cta", []byte(`{"heading":"Book now"}`))
		require.NoError(t, err)
		assert.Contains(t, string(out), "Book now")
	})

	t.Run("Failure: unknown organism", func(t *testing.T) {
		_, err := p.Preview(ctx, "nope", nil)
		require.ErrorIs(t, err, registry.ErrNotFound)
	})

	t.Run("Failure: invalid config", func(t *testing.T) {
		_, err := p.Preview(ctx, "cta", []byte(`{"heading":""}`))
		var verr *schema.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "heading", verr.Fields[0].Field)
	})
}

func TestPipeline_DefaultRenderOfEveryOrganism(t *testing.T) {
	t.Parallel()
	reg, err := organisms.Discover(context.Background())
	require.NoError(t, err)
	p := render.New(reg, nil)

	for md := range reg.List() {
		out := p.RenderInstance(context.Background(), page.Instance{ID: "x", OrganismID: md.ID, Visible: true})
		doc := parse(t, string(out))
		assert.Equal(t, 0, doc.Find(".organism-missing").Length(), md.ID)
		assert.Positive(t, doc.Find(".organism-instance").Children().Length(), md.ID)
	}
}
