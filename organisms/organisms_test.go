package organisms_test

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/specialistvlad/pagegrid/internal/organism"
	"github.com/specialistvlad/pagegrid/internal/registry"
	"github.com/specialistvlad/pagegrid/internal/schema"
	"github.com/specialistvlad/pagegrid/organisms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func builtins(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := organisms.Discover(t.Context())
	require.NoError(t, err)
	return reg
}

func render(t *testing.T, def organism.Definition, patch schema.Patch) *goquery.Document {
	t.Helper()
	cfg := def.ConfigSchema().Apply(def.DefaultConfig(), patch)
	require.Empty(t, def.ConfigSchema().Validate(cfg))
	html, err := def.Render(cfg)
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	require.NoError(t, err)
	return doc
}

func TestBuiltins_Discover(t *testing.T) {
	t.Parallel()
	reg := builtins(t)

	var got []string
	for m := range reg.List() {
		got = append(got, m.ID)
	}
	assert.Equal(t, []string{
		"call-to-action", "contact", "custom-html", "featured-products",
		"hero-section", "testimonials", "why-choose-us",
	}, got)

	for alias, id := range map[string]string{"hero": "hero-section", "cta": "call-to-action", "products": "featured-products", "why-us": "why-choose-us", "custom": "custom-html"} {
		def, err := reg.Get(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, id, def.ID())
	}
}

func TestBuiltins_DefaultsValidateAndRender(t *testing.T) {
	t.Parallel()
	for def := range builtins(t).All() {
		t.Run(def.ID(), func(t *testing.T) {
			t.Parallel()
			require.Empty(t, def.ConfigSchema().Validate(def.DefaultConfig()))

			doc := render(t, def, nil)
			section := doc.Find("section.organism")
			require.Equal(t, 1, section.Length(), "every organism renders one root section")
			assert.True(t, section.HasClass(def.ID()))
		})
	}
}

func TestHeroSection(t *testing.T) {
	t.Parallel()
	hero, err := builtins(t).Get("hero-section")
	require.NoError(t, err)

	doc := render(t, hero, schema.Patch{
		"title":           cty.StringVal("Tasty <b>food</b>"),
		"text_alignment":  cty.StringVal("left"),
		"cta_button_url":  cty.StringVal("https://example.com/order"),
		"overlay_opacity": cty.NumberFloatVal(0.25),
	})
	assert.Equal(t, "Tasty <b>food</b>", doc.Find("h1.hero-title").Text(), "titles are escaped, not interpreted")
	assert.True(t, doc.Find("section").HasClass("text-left"))
	href, _ := doc.Find("a.hero-cta").Attr("href")
	assert.Equal(t, "https://example.com/order", href)
	opacity, _ := doc.Find(".hero-overlay").Attr("data-overlay-opacity")
	assert.Equal(t, "0.25", opacity)

	noButton := render(t, hero, schema.Patch{"cta_button_text": cty.StringVal("")})
	assert.Zero(t, noButton.Find("a.hero-cta").Length())
}

func TestFeaturedProducts(t *testing.T) {
	t.Parallel()
	def, err := builtins(t).Get("featured-products")
	require.NoError(t, err)

	doc := render(t, def, schema.Patch{
		"max_products":       cty.NumberIntVal(4),
		"categories_to_show": cty.ListVal([]cty.Value{cty.NumberIntVal(2), cty.NumberIntVal(7)}),
	})
	assert.Equal(t, 4, doc.Find("li.product-slot").Length())
	categories, _ := doc.Find("section").Attr("data-categories")
	assert.Equal(t, "2,7", categories)
}

func TestTestimonials_RotationOnlyForCarousel(t *testing.T) {
	t.Parallel()
	def, err := builtins(t).Get("testimonials")
	require.NoError(t, err)

	carousel := render(t, def, nil)
	speed, ok := carousel.Find("section").Attr("data-rotation-speed-ms")
	assert.True(t, ok)
	assert.Equal(t, "5000", speed)

	grid := render(t, def, schema.Patch{"display_type": cty.StringVal("grid")})
	_, ok = grid.Find("section").Attr("data-rotation-speed-ms")
	assert.False(t, ok)
}

func TestCustomHTML_Sanitises(t *testing.T) {
	t.Parallel()
	def, err := builtins(t).Get("custom")
	require.NoError(t, err)

	doc := render(t, def, schema.Patch{
		"html_content":      cty.StringVal(`<p onclick="steal()">Welcome to {{restaurant_name}} {{ secret }}</p><script>alert(1)</script>`),
		"css_classes":       cty.StringVal(`promo "><script> wide`),
		"allowed_variables": cty.ListVal([]cty.Value{cty.StringVal("restaurant_name")}),
	})

	assert.Zero(t, doc.Find("script").Length())
	_, hasHandler := doc.Find("p").Attr("onclick")
	assert.False(t, hasHandler)
	name, _ := doc.Find("p span").Attr("data-variable")
	assert.Equal(t, "restaurant_name", name)
	assert.NotContains(t, doc.Text(), "secret")

	section := doc.Find("section")
	assert.True(t, section.HasClass("promo"))
	assert.True(t, section.HasClass("wide"))
	class, _ := section.Attr("class")
	assert.NotContains(t, class, "script")
}

func TestContact_OnlyFilledDetails(t *testing.T) {
	t.Parallel()
	def, err := builtins(t).Get("contact")
	require.NoError(t, err)

	doc := render(t, def, schema.Patch{
		"email":    cty.StringVal("hello@example.com"),
		"address":  cty.StringVal("1 Main St"),
		"show_map": cty.True,
	})
	assert.Zero(t, doc.Find(".contact-phone").Length())
	href, _ := doc.Find(".contact-email a").Attr("href")
	assert.Equal(t, "mailto:hello@example.com", href)
	addr, _ := doc.Find("section").Attr("data-map-address")
	assert.Equal(t, "1 Main St", addr)
}
