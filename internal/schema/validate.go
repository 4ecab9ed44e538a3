package schema

import (
	"math"
	"math/big"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/zclconf/go-cty/cty"
)

// Validate checks a config value against the schema and returns every
// problem found, in field declaration order. A nil result means the value is
// valid and may be handed to a renderer.
func (s *Schema) Validate(v cty.Value) FieldErrors {
	var errs FieldErrors

	if v.Type() == cty.NilType || !v.IsWhollyKnown() || v.IsNull() || !v.Type().IsObjectType() {
		return FieldErrors{newFieldError("", CodeInvalidType, "config must be an object")}
	}

	for _, f := range s.fields {
		if !v.Type().HasAttribute(f.Name) {
			if f.Required {
				errs = append(errs, newFieldError(f.Name, CodeRequired, "%s is required", f.DisplayLabel()))
			} else {
				errs = append(errs, newFieldError(f.Name, CodeInvalidType, "field is missing from the config"))
			}
			continue
		}
		errs = append(errs, f.validate(v.GetAttr(f.Name))...)
	}

	var unknown []string
	for name := range v.Type().AttributeTypes() {
		if _, ok := s.index[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		errs = append(errs, newFieldError(name, CodeUnknownField, "unknown field"))
	}

	return errs
}

// validate checks a single attribute value.
func (f *Field) validate(v cty.Value) FieldErrors {
	if v.IsNull() {
		if f.Required {
			return FieldErrors{newFieldError(f.Name, CodeRequired, "%s is required", f.DisplayLabel())}
		}
		return nil
	}
	if !v.Type().Equals(f.Type) {
		return FieldErrors{newFieldError(f.Name, CodeInvalidType, "expected %s, got %s", f.Type.FriendlyName(), v.Type().FriendlyName())}
	}

	switch {
	case f.Type.Equals(cty.String):
		return f.validateString(v.AsString())
	case f.Type.Equals(cty.Number):
		return f.validateNumber(v.AsBigFloat())
	case f.Type.IsListType():
		return f.validateList(v)
	}
	return nil
}

func (f *Field) validateString(s string) FieldErrors {
	if strings.TrimSpace(s) == "" && f.Required {
		return FieldErrors{newFieldError(f.Name, CodeRequired, "%s is required", f.DisplayLabel())}
	}
	// A choice field has no blank value unless the descriptor lists one.
	if len(f.OneOf) > 0 && !slices.Contains(f.OneOf, s) {
		return FieldErrors{newFieldError(f.Name, CodeNotAllowed, "must be one of: %s", strings.Join(f.OneOf, ", "))}
	}
	if s == "" {
		// Optional fields may be cleared.
		return nil
	}

	var errs FieldErrors
	n := utf8.RuneCountInString(s)
	if f.MaxLength > 0 && n > f.MaxLength {
		errs = append(errs, newFieldError(f.Name, CodeTooLong, "must not exceed %d characters", f.MaxLength))
	}
	if f.MinLength > 0 && n < f.MinLength {
		errs = append(errs, newFieldError(f.Name, CodeTooShort, "must be at least %d characters", f.MinLength))
	}

	switch f.Format {
	case FormatURL:
		if fe := validateURL(f.Name, s); fe != nil {
			errs = append(errs, fe)
		}
	case FormatColor:
		if fe := validateHexColor(f.Name, s); fe != nil {
			errs = append(errs, fe)
		}
	}
	return errs
}

var (
	minInt64 = new(big.Float).SetInt64(math.MinInt64)
	maxInt64 = new(big.Float).SetInt64(math.MaxInt64)
)

// validateNumber checks n at full precision, so 4.0000000000000000001 is
// not a whole number.
func (f *Field) validateNumber(n *big.Float) FieldErrors {
	if f.Integer {
		if !n.IsInt() {
			return FieldErrors{newFieldError(f.Name, CodeInvalidType, "must be a whole number")}
		}
		if n.Cmp(minInt64) < 0 || n.Cmp(maxInt64) > 0 {
			return FieldErrors{newFieldError(f.Name, CodeOutOfRange, "must be between %d and %d", int64(math.MinInt64), int64(math.MaxInt64))}
		}
	}
	below := f.Min != nil && n.Cmp(bound(*f.Min)) < 0
	above := f.Max != nil && n.Cmp(bound(*f.Max)) > 0
	switch {
	case f.Min != nil && f.Max != nil && (below || above):
		return FieldErrors{newFieldError(f.Name, CodeOutOfRange, "must be between %g and %g", *f.Min, *f.Max)}
	case below:
		return FieldErrors{newFieldError(f.Name, CodeOutOfRange, "must be at least %g", *f.Min)}
	case above:
		return FieldErrors{newFieldError(f.Name, CodeOutOfRange, "must be at most %g", *f.Max)}
	}
	return nil
}

// bound converts a declared limit back to the decimal it was written as, at
// the precision cty uses for parsed numbers. big.NewFloat(0.1) would sit
// slightly above a config value of 0.1.
func bound(x float64) *big.Float {
	b, _, err := big.ParseFloat(strconv.FormatFloat(x, 'g', -1, 64), 10, 512, big.ToNearestEven)
	if err != nil {
		return big.NewFloat(x)
	}
	return b
}

func (f *Field) validateList(v cty.Value) FieldErrors {
	n := v.LengthInt()
	if n == 0 && f.Required {
		return FieldErrors{newFieldError(f.Name, CodeRequired, "%s needs at least one item", f.DisplayLabel())}
	}
	if f.MaxItems > 0 && n > f.MaxItems {
		return FieldErrors{newFieldError(f.Name, CodeTooManyItems, "must not have more than %d items", f.MaxItems)}
	}

	elemType := f.Type.ElementType()
	var errs FieldErrors
	for it := v.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.IsNull() {
			errs = append(errs, newFieldError(f.Name, CodeInvalidType, "list items must not be null"))
			continue
		}
		switch {
		case elemType.Equals(cty.String):
			s := elem.AsString()
			if f.MaxLength > 0 && utf8.RuneCountInString(s) > f.MaxLength {
				errs = append(errs, newFieldError(f.Name, CodeTooLong, "items must not exceed %d characters", f.MaxLength))
			}
			if len(f.OneOf) > 0 && !slices.Contains(f.OneOf, s) {
				errs = append(errs, newFieldError(f.Name, CodeNotAllowed, "%q is not one of: %s", s, strings.Join(f.OneOf, ", ")))
			}
		case elemType.Equals(cty.Number):
			errs = append(errs, f.validateNumber(elem.AsBigFloat())...)
		}
	}
	return errs
}

// validateURL accepts absolute http(s) URLs, site-relative paths ("/menu")
// and in-page anchors ("#contact").
func validateURL(field, value string) *FieldError {
	if hasDangerousScheme(value) {
		return newFieldError(field, CodeDangerousURL, "URL contains potentially dangerous content")
	}
	if strings.HasPrefix(value, "#") {
		return nil
	}
	if strings.HasPrefix(value, "/") && !strings.HasPrefix(value, "//") {
		if _, err := url.Parse(value); err != nil {
			return newFieldError(field, CodeInvalidURL, "invalid URL path")
		}
		return nil
	}

	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return newFieldError(field, CodeInvalidURL, "URL must start with http://, https:// or /")
	}
	return nil
}

var dangerousSchemes = []string{"javascript", "data", "vbscript"}

// hasDangerousScheme reports whether value starts with a script or data
// scheme. Browsers drop ASCII control characters and spaces inside the
// scheme, so they are stripped before comparing.
func hasDangerousScheme(value string) bool {
	colon := strings.IndexByte(value, ':')
	if colon < 0 {
		return false
	}
	scheme := strings.Map(func(r rune) rune {
		if r <= ' ' {
			return -1
		}
		return r
	}, value[:colon])
	scheme = strings.ToLower(scheme)
	return slices.Contains(dangerousSchemes, scheme)
}

// validateHexColor accepts #RGB, #RRGGBB and #RRGGBBAA.
func validateHexColor(field, value string) *FieldError {
	if !strings.HasPrefix(value, "#") {
		return newFieldError(field, CodeInvalidColor, "color must be in hex format (#RGB, #RRGGBB or #RRGGBBAA)")
	}
	hex := value[1:]
	if len(hex) != 3 && len(hex) != 6 && len(hex) != 8 {
		return newFieldError(field, CodeInvalidColor, "color must be in hex format (#RGB, #RRGGBB or #RRGGBBAA)")
	}
	for _, c := range hex {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return newFieldError(field, CodeInvalidColor, "color must contain only hexadecimal characters")
		}
	}
	return nil
}
