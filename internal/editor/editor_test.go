package editor_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/specialistvlad/pagegrid/internal/editor"
	"github.com/specialistvlad/pagegrid/internal/metrics"
	"github.com/specialistvlad/pagegrid/internal/page"
	"github.com/specialistvlad/pagegrid/internal/pagestore/memory"
	"github.com/specialistvlad/pagegrid/internal/registry"
	"github.com/specialistvlad/pagegrid/internal/schema"
	"github.com/specialistvlad/pagegrid/organisms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []editor.Event
}

func (r *recorder) Publish(ev editor.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []editor.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]editor.EventKind, 0, len(r.events))
	for _, ev := range r.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

type fixture struct {
	binding *editor.Binding
	store   page.Store
	events  *recorder
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, opts ...editor.Option) *fixture {
	t.Helper()
	reg, err := organisms.Discover(context.Background())
	require.NoError(t, err)

	f := &fixture{store: memory.New(), events: &recorder{}, metrics: metrics.New()}
	seq := 0
	opts = append([]editor.Option{
		editor.WithPublisher(f.events),
		editor.WithMetrics(f.metrics),
		editor.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("inst-%d", seq)
		}),
	}, opts...)
	f.binding = editor.New(reg, f.store, opts...)
	return f
}

func (f *fixture) config(t *testing.T, pageID, instanceID string) map[string]any {
	t.Helper()
	doc, err := f.store.Get(context.Background(), pageID)
	require.NoError(t, err)
	i, ok := doc.Instance(instanceID)
	require.True(t, ok)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal(doc.Instances[i].Config, &cfg))
	return cfg
}

func TestBinding_AddInstance(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	doc, id, err := f.binding.AddInstance(ctx, "home", "hero")
	require.NoError(t, err)
	assert.Equal(t, "inst-1", id)
	assert.Equal(t, int64(2), doc.Version, "page creation plus the added instance")
	require.Len(t, doc.Instances, 1)
	assert.Equal(t, "hero-section", doc.Instances[0].OrganismID, "aliases resolve to the canonical id")
	assert.True(t, doc.Instances[0].Visible)

	cfg := f.config(t, "home", id)
	assert.Equal(t, "Welcome to our restaurant", cfg["title"])
	assert.Equal(t, "center", cfg["text_alignment"])
	assert.Equal(t, []editor.EventKind{editor.EventAdded}, f.events.kinds())
}

func TestBinding_AddInstance_Failures(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	t.Run("Failure: unknown organism", func(t *testing.T) {
		_, _, err := f.binding.AddInstance(ctx, "home", "no-such-organism")
		require.ErrorIs(t, err, registry.ErrNotFound)
	})

	t.Run("Failure: invalid page id", func(t *testing.T) {
		_, _, err := f.binding.AddInstance(ctx, "Not A Page", "hero-section")
		require.ErrorIs(t, err, editor.ErrInvalidPageID)
	})
}

func TestBinding_Commit(t *testing.T) {
	t.Parallel()

	t.Run("Success: batch is merged onto the stored config", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		_, id, err := f.binding.AddInstance(ctx, "home", "hero-section")
		require.NoError(t, err)

		doc, err := f.binding.Commit(ctx, "home", id, []byte(`{"title":"Trattoria","overlay_opacity":0.75}`))
		require.NoError(t, err)
		assert.Equal(t, int64(3), doc.Version)

		cfg := f.config(t, "home", id)
		assert.Equal(t, "Trattoria", cfg["title"])
		assert.Equal(t, 0.75, cfg["overlay_opacity"])
		assert.Equal(t, "Fresh food, made daily", cfg["subtitle"], "untouched fields keep their value")
		assert.Equal(t, []editor.EventKind{editor.EventAdded, editor.EventCommitted}, f.events.kinds())
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Commits.WithLabelValues("hero-section", metrics.ResultOK)))
	})

	t.Run("Success: null resets a field to its default", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		_, id, err := f.binding.AddInstance(ctx, "home", "hero-section")
		require.NoError(t, err)
		_, err = f.binding.Commit(ctx, "home", id, []byte(`{"subtitle":"Changed"}`))
		require.NoError(t, err)

		_, err = f.binding.Commit(ctx, "home", id, []byte(`{"subtitle":null}`))
		require.NoError(t, err)
		assert.Equal(t, "Fresh food, made daily", f.config(t, "home", id)["subtitle"])
	})

	t.Run("Failure: invalid batch leaves the stored document unchanged", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		_, id, err := f.binding.AddInstance(ctx, "home", "hero-section")
		require.NoError(t, err)
		before, err := f.store.Get(ctx, "home")
		require.NoError(t, err)

		_, err = f.binding.Commit(ctx, "home", id, []byte(`{"title":"","overlay_color":"red","text_alignment":"justify"}`))

		var verr *schema.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "hero-section", verr.OrganismID)
		require.NotEmpty(t, verr.Fields)
		codes := map[string]string{}
		for _, fe := range verr.Fields {
			codes[fe.Field] = fe.Code
		}
		assert.Equal(t, map[string]string{
			"title":          schema.CodeRequired,
			"overlay_color":  schema.CodeInvalidColor,
			"text_alignment": schema.CodeNotAllowed,
		}, codes)

		after, err := f.store.Get(ctx, "home")
		require.NoError(t, err)
		assert.Equal(t, before.Version, after.Version)
		assert.JSONEq(t, string(before.Instances[0].Config), string(after.Instances[0].Config))
		assert.Equal(t, []editor.EventKind{editor.EventAdded}, f.events.kinds())
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Commits.WithLabelValues("hero-section", metrics.ResultInvalid)))
	})

	t.Run("Failure: unknown and mistyped fields", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		_, id, err := f.binding.AddInstance(ctx, "home", "hero-section")
		require.NoError(t, err)

		_, err = f.binding.Commit(ctx, "home", id, []byte(`{"colour":"#fff","overlay_opacity":"high"}`))
		var verr *schema.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Fields, 2)
		assert.Equal(t, schema.CodeUnknownField, verr.Fields[0].Code)
		assert.Equal(t, schema.CodeInvalidType, verr.Fields[1].Code)
	})

	t.Run("Failure: fractional count beyond float64 precision", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		_, id, err := f.binding.AddInstance(ctx, "home", "featured-products")
		require.NoError(t, err)

		_, err = f.binding.Commit(ctx, "home", id, []byte(`{"max_products":4.0000000000000000001}`))

		var verr *schema.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Fields, 1)
		assert.Equal(t, "max_products", verr.Fields[0].Field)
		assert.Equal(t, schema.CodeInvalidType, verr.Fields[0].Code)
		assert.EqualValues(t, 6, f.config(t, "home", id)["max_products"])
	})

	t.Run("Failure: blank value for a choice field", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		_, id, err := f.binding.AddInstance(ctx, "home", "hero-section")
		require.NoError(t, err)

		_, err = f.binding.Commit(ctx, "home", id, []byte(`{"text_alignment":"","height":"  "}`))

		var verr *schema.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Fields, 2)
		for _, fe := range verr.Fields {
			assert.Equal(t, schema.CodeNotAllowed, fe.Code, fe.Field)
		}
		assert.Equal(t, "center", f.config(t, "home", id)["text_alignment"])
	})

	t.Run("Failure: unknown page and instance", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		_, err := f.binding.Commit(ctx, "missing", "inst-1", []byte(`{}`))
		require.ErrorIs(t, err, page.ErrNotFound)

		_, _, err = f.binding.AddInstance(ctx, "home", "hero-section")
		require.NoError(t, err)
		_, err = f.binding.Commit(ctx, "home", "inst-404", []byte(`{}`))
		require.ErrorIs(t, err, editor.ErrInstanceNotFound)
		assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Commits.WithLabelValues("unknown", metrics.ResultNotFound)))
	})
}

// conflictingStore loses the first n compare-and-swap races.
type conflictingStore struct {
	page.Store
	mu        sync.Mutex
	conflicts int
	saves     int
}

func (s *conflictingStore) Save(ctx context.Context, doc *page.Document, expected int64) (*page.Document, error) {
	s.mu.Lock()
	s.saves++
	lose := s.conflicts > 0 && expected > 0
	if lose {
		s.conflicts--
	}
	s.mu.Unlock()
	if lose {
		return nil, fmt.Errorf("simulated: %w", page.ErrVersionConflict)
	}
	return s.Store.Save(ctx, doc, expected)
}

func TestBinding_Commit_RetriesVersionConflicts(t *testing.T) {
	t.Parallel()
	reg, err := organisms.Discover(context.Background())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("Success: re-applied after losing a race", func(t *testing.T) {
		t.Parallel()
		store := &conflictingStore{Store: memory.New()}
		b := editor.New(reg, store)
		_, id, err := b.AddInstance(ctx, "home", "call-to-action")
		require.NoError(t, err)

		store.conflicts = 2
		doc, err := b.Commit(ctx, "home", id, []byte(`{"heading":"Book a table"}`))
		require.NoError(t, err)
		assert.Equal(t, int64(3), doc.Version)
	})

	t.Run("Failure: gives up after the attempt limit", func(t *testing.T) {
		t.Parallel()
		store := &conflictingStore{Store: memory.New()}
		b := editor.New(reg, store, editor.WithMaxAttempts(2))
		_, id, err := b.AddInstance(ctx, "home", "call-to-action")
		require.NoError(t, err)

		store.conflicts = 5
		store.saves = 0
		_, err = b.Commit(ctx, "home", id, []byte(`{"heading":"Book a table"}`))
		require.ErrorIs(t, err, page.ErrVersionConflict)
		assert.Equal(t, 2, store.saves)
	})
}

func TestBinding_ConcurrentCommitsAllLand(t *testing.T) {
	t.Parallel()
	f := newFixture(t, editor.WithMaxAttempts(50))
	ctx := context.Background()
	_, id, err := f.binding.AddInstance(ctx, "home", "hero-section")
	require.NoError(t, err)

	batches := []string{
		`{"title":"One"}`,
		`{"subtitle":"Two"}`,
		`{"height":"small"}`,
		`{"cta_button_text":"Four"}`,
	}
	var wg sync.WaitGroup
	for _, batch := range batches {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.binding.Commit(ctx, "home", id, []byte(batch))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cfg := f.config(t, "home", id)
	assert.Equal(t, "One", cfg["title"])
	assert.Equal(t, "Two", cfg["subtitle"])
	assert.Equal(t, "small", cfg["height"])
	assert.Equal(t, "Four", cfg["cta_button_text"])
}

func TestBinding_InstanceLifecycle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, hero, err := f.binding.AddInstance(ctx, "home", "hero-section")
	require.NoError(t, err)
	_, cta, err := f.binding.AddInstance(ctx, "home", "cta")
	require.NoError(t, err)
	_, contact, err := f.binding.AddInstance(ctx, "home", "contact")
	require.NoError(t, err)

	t.Run("Move", func(t *testing.T) {
		doc, err := f.binding.MoveInstance(ctx, "home", contact, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{contact, hero, cta}, instanceIDs(doc))

		doc, err = f.binding.MoveInstance(ctx, "home", contact, 99)
		require.NoError(t, err)
		assert.Equal(t, []string{hero, cta, contact}, instanceIDs(doc))

		_, err = f.binding.MoveInstance(ctx, "home", contact, -1)
		require.Error(t, err)
	})

	t.Run("Hide", func(t *testing.T) {
		doc, err := f.binding.SetVisible(ctx, "home", cta, false)
		require.NoError(t, err)
		i, _ := doc.Instance(cta)
		assert.False(t, doc.Instances[i].Visible)
	})

	t.Run("Reset", func(t *testing.T) {
		_, err := f.binding.Commit(ctx, "home", hero, []byte(`{"title":"Custom"}`))
		require.NoError(t, err)
		_, err = f.binding.ResetInstance(ctx, "home", hero)
		require.NoError(t, err)
		assert.Equal(t, "Welcome to our restaurant", f.config(t, "home", hero)["title"])
	})

	t.Run("Remove", func(t *testing.T) {
		doc, err := f.binding.RemoveInstance(ctx, "home", cta)
		require.NoError(t, err)
		assert.Equal(t, []string{hero, contact}, instanceIDs(doc))

		_, err = f.binding.RemoveInstance(ctx, "home", cta)
		require.ErrorIs(t, err, editor.ErrInstanceNotFound)
	})

	kinds := f.events.kinds()
	require.NotEmpty(t, kinds)
	assert.Equal(t, editor.EventRemoved, kinds[len(kinds)-1])
}

func TestBinding_CreatePage(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.binding.CreatePage(ctx, "about", "")
	require.NoError(t, err)
	assert.Equal(t, "about", doc.Title)
	assert.Equal(t, int64(1), doc.Version)

	_, err = f.binding.CreatePage(ctx, "about", "About us")
	require.ErrorIs(t, err, page.ErrVersionConflict)

	got, err := f.binding.Page(ctx, "about")
	require.NoError(t, err)
	assert.Empty(t, got.Instances)

	ids, err := f.binding.Pages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"about"}, ids)
}

func TestBinding_Form(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	_, id, err := f.binding.AddInstance(ctx, "home", "hero-section")
	require.NoError(t, err)
	_, err = f.binding.Commit(ctx, "home", id, []byte(`{"title":"Trattoria"}`))
	require.NoError(t, err)

	form, err := f.binding.Form(ctx, "home", id)
	require.NoError(t, err)
	assert.Equal(t, "hero-section", form.OrganismID)
	assert.Equal(t, "Hero Section", form.DisplayName)
	assert.Equal(t, int64(3), form.Version)

	byName := map[string]editor.FormField{}
	var names []string
	for _, ff := range form.Fields {
		byName[ff.Name] = ff
		names = append(names, ff.Name)
	}
	assert.Equal(t, []string{
		"title", "subtitle", "background_image", "overlay_color", "overlay_opacity",
		"text_alignment", "height", "cta_button_text", "cta_button_url",
	}, names)

	title := byName["title"]
	assert.Equal(t, editor.WidgetText, title.Widget)
	assert.True(t, title.Required)
	assert.Equal(t, 80, title.MaxLength)
	assert.JSONEq(t, `"Trattoria"`, string(title.Value))
	assert.JSONEq(t, `"Welcome to our restaurant"`, string(title.Default))

	assert.Equal(t, editor.WidgetURL, byName["background_image"].Widget)
	assert.Equal(t, editor.WidgetColor, byName["overlay_color"].Widget)
	assert.Equal(t, editor.WidgetSelect, byName["text_alignment"].Widget)
	assert.Equal(t, []string{"left", "center", "right"}, byName["text_alignment"].Options)

	opacity := byName["overlay_opacity"]
	assert.Equal(t, editor.WidgetNumber, opacity.Widget)
	require.NotNil(t, opacity.Min)
	require.NotNil(t, opacity.Max)
	assert.Equal(t, 0.0, *opacity.Min)
	assert.Equal(t, 1.0, *opacity.Max)

	_, err = f.binding.Form(ctx, "home", "nope")
	require.ErrorIs(t, err, editor.ErrInstanceNotFound)
}

func TestFormFor_Widgets(t *testing.T) {
	t.Parallel()
	reg, err := organisms.Discover(context.Background())
	require.NoError(t, err)

	widgets := map[string]editor.Widget{}
	for def := range reg.All() {
		form := editor.FormFor(def, def.DefaultConfig())
		for _, ff := range form.Fields {
			widgets[def.ID()+"."+ff.Name] = ff.Widget
		}
	}

	assert.Equal(t, editor.WidgetToggle, widgets["featured-products.show_price"])
	assert.Equal(t, editor.WidgetList, widgets["why-choose-us.features"])
	assert.Equal(t, editor.WidgetTextarea, widgets["custom-html.html_content"])
}

func TestPublisherFunc(t *testing.T) {
	t.Parallel()
	var got []editor.Event
	p := editor.PublisherFunc(func(ev editor.Event) { got = append(got, ev) })
	p.Publish(editor.Event{Kind: editor.EventAdded})
	require.Len(t, got, 1)
}

func instanceIDs(doc *page.Document) []string {
	ids := make([]string, 0, len(doc.Instances))
	for _, inst := range doc.Instances {
		ids = append(ids, inst.ID)
	}
	return ids
}
