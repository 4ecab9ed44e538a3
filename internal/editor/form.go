package editor

import (
	"encoding/json"

	"github.com/specialistvlad/pagegrid/internal/hclutil"
	"github.com/specialistvlad/pagegrid/internal/organism"
	"github.com/specialistvlad/pagegrid/internal/schema"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Widget is the form control used to edit a field.
type Widget string

const (
	WidgetText     Widget = "text"
	WidgetTextarea Widget = "textarea"
	WidgetNumber   Widget = "number"
	WidgetToggle   Widget = "toggle"
	WidgetSelect   Widget = "select"
	WidgetColor    Widget = "color"
	WidgetURL      Widget = "url"
	WidgetList     Widget = "list"
)

// Strings allowed to grow beyond this many characters get a textarea.
const textareaThreshold = 160

// FormField is one editable control, bound to a schema field.
type FormField struct {
	Name        string          `json:"name"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Widget      Widget          `json:"widget"`
	Type        string          `json:"type"`
	Required    bool            `json:"required"`
	Options     []string        `json:"options,omitempty"`
	Min         *float64        `json:"min,omitempty"`
	Max         *float64        `json:"max,omitempty"`
	Integer     bool            `json:"integer,omitempty"`
	MinLength   int             `json:"min_length,omitempty"`
	MaxLength   int             `json:"max_length,omitempty"`
	MaxItems    int             `json:"max_items,omitempty"`
	Value       json.RawMessage `json:"value"`
	Default     json.RawMessage `json:"default"`
}

// Form is the editable view of one organism config.
type Form struct {
	PageID      string      `json:"page_id,omitempty"`
	InstanceID  string      `json:"instance_id,omitempty"`
	OrganismID  string      `json:"organism_id"`
	DisplayName string      `json:"display_name"`
	Version     int64       `json:"version,omitempty"`
	Fields      []FormField `json:"fields"`
}

// FormFor builds the form of def filled with config. config must have the
// schema's object type; use the schema's Decode or Defaults to get one.
func FormFor(def organism.Definition, config cty.Value) *Form {
	s := def.ConfigSchema()
	form := &Form{
		OrganismID:  def.ID(),
		DisplayName: def.Metadata().DisplayName,
		Fields:      make([]FormField, 0, s.Len()),
	}

	hasConfig := config.Type() != cty.NilType && !config.IsNull() && config.Type().IsObjectType()
	for _, f := range s.Fields() {
		value := f.Default
		if hasConfig && config.Type().HasAttribute(f.Name) {
			value = config.GetAttr(f.Name)
		}
		form.Fields = append(form.Fields, FormField{
			Name:        f.Name,
			Label:       f.DisplayLabel(),
			Description: f.Description,
			Widget:      widgetFor(f),
			Type:        hclutil.TypeName(f.Type),
			Required:    f.Required,
			Options:     f.OneOf,
			Min:         f.Min,
			Max:         f.Max,
			Integer:     f.Integer,
			MinLength:   f.MinLength,
			MaxLength:   f.MaxLength,
			MaxItems:    f.MaxItems,
			Value:       marshalValue(value, f.Type),
			Default:     marshalValue(f.Default, f.Type),
		})
	}
	return form
}

func widgetFor(f *schema.Field) Widget {
	switch {
	case f.Type.Equals(cty.Bool):
		return WidgetToggle
	case f.Type.Equals(cty.Number):
		return WidgetNumber
	case f.Type.IsListType():
		return WidgetList
	case len(f.OneOf) > 0:
		return WidgetSelect
	}
	switch f.Format {
	case schema.FormatColor:
		return WidgetColor
	case schema.FormatURL:
		return WidgetURL
	case schema.FormatHTML:
		return WidgetTextarea
	}
	if f.MaxLength == 0 || f.MaxLength > textareaThreshold {
		return WidgetTextarea
	}
	return WidgetText
}

func marshalValue(v cty.Value, ty cty.Type) json.RawMessage {
	if v.Type() == cty.NilType || v.IsNull() || !v.Type().Equals(ty) {
		return json.RawMessage("null")
	}
	raw, err := ctyjson.Marshal(v, ty)
	if err != nil {
		return json.RawMessage("null")
	}
	return raw
}
