package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/specialistvlad/pagegrid/internal/editor"
	"github.com/specialistvlad/pagegrid/internal/model"
	"github.com/specialistvlad/pagegrid/internal/page"
	"github.com/specialistvlad/pagegrid/internal/registry"
)

// OrganismResponse is the body of GET /api/organisms/{id}.
type OrganismResponse struct {
	Metadata      model.Metadata  `json:"metadata"`
	Form          *editor.Form    `json:"form"`
	DefaultConfig json.RawMessage `json:"default_config"`
}

// InstanceResponse is the body of POST /api/pages/{page}/instances.
type InstanceResponse struct {
	InstanceID string         `json:"instance_id"`
	Page       *page.Document `json:"page"`
}

func (a *api) listOrganisms(w http.ResponseWriter, r *http.Request) {
	var filters []registry.Filter
	if c := r.URL.Query().Get("capability"); c != "" {
		filters = append(filters, registry.WithCapability(c))
	}
	if c := r.URL.Query().Get("category"); c != "" {
		filters = append(filters, registry.WithCategory(c))
	}
	out := slices.Collect(a.Registry.List(filters...))
	if out == nil {
		out = []model.Metadata{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) getOrganism(w http.ResponseWriter, r *http.Request) {
	def, err := a.Registry.Get(chi.URLParam(r, "id"))
	a.Metrics.RecordLookup(err == nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defaults, err := def.ConfigSchema().Encode(def.DefaultConfig())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OrganismResponse{
		Metadata:      def.Metadata(),
		Form:          editor.FormFor(def, def.DefaultConfig()),
		DefaultConfig: defaults,
	})
}

func (a *api) listPages(w http.ResponseWriter, r *http.Request) {
	ids, err := a.Editor.Pages(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (a *api) getPage(w http.ResponseWriter, r *http.Request) {
	doc, err := a.Editor.Page(r.Context(), chi.URLParam(r, "page"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *api) createPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := decodeBody(r, w, &req); err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := a.Editor.CreatePage(r.Context(), chi.URLParam(r, "page"), req.Title)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (a *api) addInstance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrganismID string `json:"organism_id"`
	}
	if err := decodeBody(r, w, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.OrganismID == "" {
		writeError(w, r, fmt.Errorf("%w: organism_id is required", errBadRequest))
		return
	}
	doc, id, err := a.Editor.AddInstance(r.Context(), chi.URLParam(r, "page"), req.OrganismID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, InstanceResponse{InstanceID: id, Page: doc})
}

func (a *api) form(w http.ResponseWriter, r *http.Request) {
	form, err := a.Editor.Form(r.Context(), chi.URLParam(r, "page"), chi.URLParam(r, "instance"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (a *api) commit(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r, w)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := a.Editor.Commit(r.Context(), chi.URLParam(r, "page"), chi.URLParam(r, "instance"), body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *api) removeInstance(w http.ResponseWriter, r *http.Request) {
	doc, err := a.Editor.RemoveInstance(r.Context(), chi.URLParam(r, "page"), chi.URLParam(r, "instance"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *api) resetInstance(w http.ResponseWriter, r *http.Request) {
	doc, err := a.Editor.ResetInstance(r.Context(), chi.URLParam(r, "page"), chi.URLParam(r, "instance"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *api) setVisible(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Visible *bool `json:"visible"`
	}
	if err := decodeBody(r, w, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Visible == nil {
		writeError(w, r, fmt.Errorf("%w: visible is required", errBadRequest))
		return
	}
	doc, err := a.Editor.SetVisible(r.Context(), chi.URLParam(r, "page"), chi.URLParam(r, "instance"), *req.Visible)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *api) moveInstance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index *int `json:"index"`
	}
	if err := decodeBody(r, w, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Index == nil || *req.Index < 0 {
		writeError(w, r, fmt.Errorf("%w: index must be a non-negative integer", errBadRequest))
		return
	}
	doc, err := a.Editor.MoveInstance(r.Context(), chi.URLParam(r, "page"), chi.URLParam(r, "instance"), *req.Index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *api) renderPage(w http.ResponseWriter, r *http.Request) {
	doc, err := a.Editor.Page(r.Context(), chi.URLParam(r, "page"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := a.Render.WritePage(r.Context(), &buf, doc); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
