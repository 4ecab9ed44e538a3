package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestSchema_DecodePatch(t *testing.T) {
	t.Parallel()
	s := heroSchema(t)

	t.Run("Success: typed fields and list conversion", func(t *testing.T) {
		t.Parallel()
		patch, errs := s.DecodePatch([]byte(`{"title": "Hi", "overlay_opacity": 0.75, "show_cta": true, "tags": ["a", "b"]}`))
		require.Empty(t, errs)
		require.Len(t, patch, 4)
		require.True(t, patch["title"].RawEquals(cty.StringVal("Hi")))
		require.True(t, patch["tags"].RawEquals(cty.ListVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")})))
		f, _ := patch["overlay_opacity"].AsBigFloat().Float64()
		require.InDelta(t, 0.75, f, 1e-9)
	})

	t.Run("Success: empty list and null reset", func(t *testing.T) {
		t.Parallel()
		patch, errs := s.DecodePatch([]byte(`{"tags": [], "title": null}`))
		require.Empty(t, errs)
		require.True(t, patch["tags"].RawEquals(cty.ListValEmpty(cty.String)))
		require.True(t, patch["title"].IsNull())
	})

	t.Run("Failure: field-level errors", func(t *testing.T) {
		t.Parallel()
		patch, errs := s.DecodePatch([]byte(`{"title": 5, "show_cta": "yes", "colour": "#fff", "tags": [1]}`))
		var got []string
		for _, e := range errs {
			got = append(got, e.Field+"="+e.Code)
		}
		want := []string{"colour=UNKNOWN_FIELD", "show_cta=INVALID_TYPE", "tags=INVALID_TYPE", "title=INVALID_TYPE"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("field errors mismatch (-want +got):\n%s", diff)
		}
		require.Empty(t, patch)
	})

	t.Run("Failure: not an object", func(t *testing.T) {
		t.Parallel()
		for _, in := range []string{`[1,2]`, `"title"`, `{`} {
			_, errs := s.DecodePatch([]byte(in))
			require.Len(t, errs, 1, in)
			require.Equal(t, CodeInvalidType, errs[0].Code, in)
		}
	})
}

func TestSchema_ApplyAndDecode(t *testing.T) {
	t.Parallel()
	s := heroSchema(t)

	base := s.Apply(s.Defaults(), Patch{"title": cty.StringVal("Grand opening")})
	require.Equal(t, "Grand opening", base.GetAttr("title").AsString())

	next := s.Apply(base, Patch{"text_alignment": cty.StringVal("left")})
	require.Equal(t, "Grand opening", next.GetAttr("title").AsString(), "fields outside the patch are kept")
	require.Equal(t, "left", next.GetAttr("text_alignment").AsString())

	reset := s.Apply(next, Patch{"title": cty.NullVal(cty.String)})
	require.Equal(t, "Welcome", reset.GetAttr("title").AsString(), "null resets to the default")

	// A stored config written before a field existed picks up its default.
	decoded, errs := s.Decode([]byte(`{"title": "Old page"}`))
	require.Empty(t, errs)
	require.Equal(t, "Old page", decoded.GetAttr("title").AsString())
	require.Equal(t, "center", decoded.GetAttr("text_alignment").AsString())
}

func TestSchema_EncodeRoundTrip(t *testing.T) {
	t.Parallel()
	s := heroSchema(t)
	cfg := s.Apply(s.Defaults(), Patch{
		"title": cty.StringVal("Hello"),
		"tags":  cty.ListVal([]cty.Value{cty.StringVal("vegan")}),
	})

	data, err := s.Encode(cfg)
	require.NoError(t, err)

	back, errs := s.Decode(data)
	require.Empty(t, errs)
	require.True(t, back.RawEquals(cfg), "decoded %#v", back)
}

func TestSchema_EncodeRejectsForeignObjects(t *testing.T) {
	t.Parallel()
	s := heroSchema(t)
	_, err := s.Encode(cty.ObjectVal(map[string]cty.Value{"nope": cty.True}))
	require.ErrorContains(t, err, "unknown field")
}

func TestConform(t *testing.T) {
	t.Parallel()
	_, err := Conform(cty.StringVal("5"), cty.Number)
	require.Error(t, err, "strings never become numbers")

	v, err := Conform(cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2)}), cty.List(cty.Number))
	require.NoError(t, err)
	require.Equal(t, 2, v.LengthInt())

	null, err := Conform(cty.NullVal(cty.DynamicPseudoType), cty.Bool)
	require.NoError(t, err)
	require.True(t, null.IsNull())
}
