// Package schema describes the configuration shape of an organism.
//
// A Schema is an ordered list of typed Fields with constraints. It is used in
// two directions: the editor builds forms from it, and every config value is
// validated against it before it may reach a renderer. Config values are
// cty objects whose attributes are exactly the schema's fields; they are
// persisted as plain JSON objects and decoded back through the schema so
// that partially stored configs pick up defaults for newly added fields.
package schema
