// Package organism defines the uniform contract every page building block
// implements, and the glue that binds a parsed descriptor to the compiled Go
// renderer of the same id.
//
// An organism lives in its own Go package next to its organism.hcl
// descriptor. The package exposes a Module whose Register method adds a
// renderer to a Renderers collection:
//
//	func (Module) Register(r *organism.Renderers) {
//		r.Register("hero-section", organism.RendererFor(Render))
//	}
//
// The renderer takes a pointer to an input struct whose fields carry `cty`
// tags matching the descriptor's field names. Discovery checks that both
// sides agree before any organism is exposed.
package organism
