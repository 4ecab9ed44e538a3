package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/specialistvlad/pagegrid/internal/ctxlog"
	"github.com/specialistvlad/pagegrid/internal/metrics"
	"github.com/specialistvlad/pagegrid/internal/organism"
	"github.com/specialistvlad/pagegrid/internal/page"
	"github.com/specialistvlad/pagegrid/internal/registry"
	"github.com/specialistvlad/pagegrid/internal/schema"
)

var (
	// ErrInstanceNotFound is returned when a page has no instance with the
	// requested id.
	ErrInstanceNotFound = errors.New("instance not found")
	// ErrInvalidPageID is returned when creating a page with a malformed id.
	ErrInvalidPageID = errors.New("invalid page id")
)

// DefaultMaxAttempts bounds how often a change is re-applied after losing a
// compare-and-swap race.
const DefaultMaxAttempts = 3

// Definitions resolves organism ids. *registry.Registry satisfies it.
type Definitions interface {
	Get(id string) (organism.Definition, error)
}

// Binding applies editor changes to page documents.
type Binding struct {
	defs        Definitions
	store       page.Store
	publisher   Publisher
	metrics     *metrics.Metrics
	newID       func() string
	maxAttempts int
}

// Option configures a Binding.
type Option func(*Binding)

// WithPublisher sets the receiver of change events.
func WithPublisher(p Publisher) Option {
	return func(b *Binding) { b.publisher = p }
}

// WithMetrics records commit outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Binding) { b.metrics = m }
}

// WithIDGenerator replaces the uuid instance id generator.
func WithIDGenerator(fn func() string) Option {
	return func(b *Binding) { b.newID = fn }
}

// WithMaxAttempts sets how many times a change is tried before a version
// conflict is returned.
func WithMaxAttempts(n int) Option {
	return func(b *Binding) {
		if n > 0 {
			b.maxAttempts = n
		}
	}
}

// New creates a Binding over the given organisms and page store.
func New(defs Definitions, store page.Store, opts ...Option) *Binding {
	b := &Binding{
		defs:        defs,
		store:       store,
		newID:       uuid.NewString,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Page returns the stored page document.
func (b *Binding) Page(ctx context.Context, pageID string) (*page.Document, error) {
	return b.store.Get(ctx, pageID)
}

// Pages lists the ids of all stored pages.
func (b *Binding) Pages(ctx context.Context) ([]string, error) {
	return b.store.List(ctx)
}

// CreatePage stores a new, empty page.
func (b *Binding) CreatePage(ctx context.Context, pageID, title string) (*page.Document, error) {
	if !page.ValidID(pageID) {
		return nil, fmt.Errorf("%q: %w", pageID, ErrInvalidPageID)
	}
	if title == "" {
		title = pageID
	}
	doc, err := b.store.Save(ctx, &page.Document{ID: pageID, Title: title}, 0)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Info("Page created.", "page", pageID)
	return doc, nil
}

// Form returns the editable form of an instance filled with its stored
// config. Fields whose stored value no longer decodes show their default.
func (b *Binding) Form(ctx context.Context, pageID, instanceID string) (*Form, error) {
	doc, err := b.store.Get(ctx, pageID)
	if err != nil {
		return nil, err
	}
	i, ok := doc.Instance(instanceID)
	if !ok {
		return nil, instanceNotFound(pageID, instanceID)
	}
	inst := doc.Instances[i]

	def, err := b.defs.Get(inst.OrganismID)
	if err != nil {
		return nil, err
	}
	config, _ := def.ConfigSchema().Decode(inst.Config)

	form := FormFor(def, config)
	form.PageID = pageID
	form.InstanceID = instanceID
	form.Version = doc.Version
	return form, nil
}

// Commit applies a JSON batch of field values to an instance's config. The
// merged config is validated before it replaces the stored one; on failure a
// *schema.ValidationError is returned and the page is left unchanged. A
// null value resets the field to its default.
func (b *Binding) Commit(ctx context.Context, pageID, instanceID string, patch []byte) (*page.Document, error) {
	var organismID string
	doc, err := b.update(ctx, pageID, func(doc *page.Document) error {
		inst, def, err := b.resolve(doc, instanceID)
		if err != nil {
			return err
		}
		organismID = def.ID()
		s := def.ConfigSchema()

		p, fieldErrs := s.DecodePatch(patch)
		if len(fieldErrs) > 0 {
			return &schema.ValidationError{OrganismID: organismID, Fields: fieldErrs}
		}
		current, _ := s.Decode(inst.Config)
		merged := s.Apply(current, p)
		if fieldErrs := s.Validate(merged); len(fieldErrs) > 0 {
			return &schema.ValidationError{OrganismID: organismID, Fields: fieldErrs}
		}

		raw, err := s.Encode(merged)
		if err != nil {
			return fmt.Errorf("encoding config of instance %q: %w", instanceID, err)
		}
		inst.Config = raw
		return nil
	})
	b.metrics.RecordCommit(organismLabel(organismID), commitResult(err))
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Debug("Config committed.", "page", pageID, "instance", instanceID, "version", doc.Version)
	b.publish(EventCommitted, doc, instanceID)
	return doc, nil
}

// AddInstance appends an instance of the organism to the page, starting from
// the organism's default config. Missing pages are created. Aliases are
// resolved, so the stored organism id is always the canonical one.
func (b *Binding) AddInstance(ctx context.Context, pageID, organismID string) (*page.Document, string, error) {
	def, err := b.defs.Get(organismID)
	if err != nil {
		return nil, "", err
	}
	raw, err := def.ConfigSchema().Encode(def.DefaultConfig())
	if err != nil {
		return nil, "", fmt.Errorf("encoding default config of %q: %w", def.ID(), err)
	}

	if _, err := b.store.Get(ctx, pageID); errors.Is(err, page.ErrNotFound) {
		if _, err := b.CreatePage(ctx, pageID, ""); err != nil && !errors.Is(err, page.ErrVersionConflict) {
			return nil, "", err
		}
	}

	instanceID := b.newID()
	doc, err := b.update(ctx, pageID, func(doc *page.Document) error {
		doc.Instances = append(doc.Instances, page.Instance{
			ID:         instanceID,
			OrganismID: def.ID(),
			Visible:    true,
			Config:     raw,
		})
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	ctxlog.FromContext(ctx).Info("Instance added.", "page", pageID, "instance", instanceID, "organism", def.ID())
	b.publish(EventAdded, doc, instanceID)
	return doc, instanceID, nil
}

// RemoveInstance deletes an instance from the page.
func (b *Binding) RemoveInstance(ctx context.Context, pageID, instanceID string) (*page.Document, error) {
	var removed page.Instance
	doc, err := b.update(ctx, pageID, func(doc *page.Document) error {
		i, ok := doc.Instance(instanceID)
		if !ok {
			return instanceNotFound(pageID, instanceID)
		}
		removed = doc.Instances[i]
		doc.Instances = append(doc.Instances[:i], doc.Instances[i+1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("Instance removed.", "page", pageID, "instance", instanceID)
	b.publishEvent(Event{
		Kind:       EventRemoved,
		PageID:     pageID,
		InstanceID: instanceID,
		OrganismID: removed.OrganismID,
		Version:    doc.Version,
	})
	return doc, nil
}

// ResetInstance replaces an instance's config with its organism's defaults.
func (b *Binding) ResetInstance(ctx context.Context, pageID, instanceID string) (*page.Document, error) {
	doc, err := b.update(ctx, pageID, func(doc *page.Document) error {
		inst, def, err := b.resolve(doc, instanceID)
		if err != nil {
			return err
		}
		raw, err := def.ConfigSchema().Encode(def.DefaultConfig())
		if err != nil {
			return fmt.Errorf("encoding default config of %q: %w", def.ID(), err)
		}
		inst.Config = raw
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.publish(EventCommitted, doc, instanceID)
	return doc, nil
}

// SetVisible shows or hides an instance without touching its config.
func (b *Binding) SetVisible(ctx context.Context, pageID, instanceID string, visible bool) (*page.Document, error) {
	doc, err := b.update(ctx, pageID, func(doc *page.Document) error {
		i, ok := doc.Instance(instanceID)
		if !ok {
			return instanceNotFound(pageID, instanceID)
		}
		doc.Instances[i].Visible = visible
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.publish(EventCommitted, doc, instanceID)
	return doc, nil
}

// MoveInstance moves an instance to position index. Indexes past the end
// move it to the end.
func (b *Binding) MoveInstance(ctx context.Context, pageID, instanceID string, index int) (*page.Document, error) {
	if index < 0 {
		return nil, fmt.Errorf("position %d is negative", index)
	}
	doc, err := b.update(ctx, pageID, func(doc *page.Document) error {
		i, ok := doc.Instance(instanceID)
		if !ok {
			return instanceNotFound(pageID, instanceID)
		}
		inst := doc.Instances[i]
		rest := append(doc.Instances[:i:i], doc.Instances[i+1:]...)
		index := min(index, len(rest))
		doc.Instances = append(rest[:index:index], append([]page.Instance{inst}, rest[index:]...)...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.publish(EventCommitted, doc, instanceID)
	return doc, nil
}

// update runs a read, mutate, compare-and-swap cycle and re-runs it when
// another writer saved the page in between.
func (b *Binding) update(ctx context.Context, pageID string, mutate func(doc *page.Document) error) (*page.Document, error) {
	logger := ctxlog.FromContext(ctx)
	for attempt := 1; ; attempt++ {
		doc, err := b.store.Get(ctx, pageID)
		if err != nil {
			return nil, err
		}
		expected := doc.Version
		if err := mutate(doc); err != nil {
			return nil, err
		}

		saved, err := b.store.Save(ctx, doc, expected)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, page.ErrVersionConflict) || attempt >= b.maxAttempts {
			return nil, err
		}
		logger.Debug("Page changed concurrently, retrying.", "page", pageID, "attempt", attempt)
	}
}

// resolve finds the instance in doc and the definition of its organism.
func (b *Binding) resolve(doc *page.Document, instanceID string) (*page.Instance, organism.Definition, error) {
	i, ok := doc.Instance(instanceID)
	if !ok {
		return nil, nil, instanceNotFound(doc.ID, instanceID)
	}
	inst := &doc.Instances[i]
	def, err := b.defs.Get(inst.OrganismID)
	if err != nil {
		return nil, nil, fmt.Errorf("instance %q: %w", instanceID, err)
	}
	return inst, def, nil
}

func (b *Binding) publish(kind EventKind, doc *page.Document, instanceID string) {
	i, ok := doc.Instance(instanceID)
	if !ok {
		return
	}
	inst := doc.Instances[i]
	b.publishEvent(Event{
		Kind:       kind,
		PageID:     doc.ID,
		InstanceID: inst.ID,
		OrganismID: inst.OrganismID,
		Version:    doc.Version,
		Visible:    inst.Visible,
		Config:     inst.Config,
	})
}

func (b *Binding) publishEvent(ev Event) {
	if b.publisher != nil {
		b.publisher.Publish(ev)
	}
}

func instanceNotFound(pageID, instanceID string) error {
	return fmt.Errorf("instance %q on page %q: %w", instanceID, pageID, ErrInstanceNotFound)
}

func organismLabel(id string) string {
	if id == "" {
		return "unknown"
	}
	return id
}

func commitResult(err error) string {
	var verr *schema.ValidationError
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.As(err, &verr):
		return metrics.ResultInvalid
	case errors.Is(err, page.ErrVersionConflict):
		return metrics.ResultConflict
	case errors.Is(err, page.ErrNotFound), errors.Is(err, ErrInstanceNotFound), errors.Is(err, registry.ErrNotFound):
		return metrics.ResultNotFound
	default:
		return metrics.ResultError
	}
}
