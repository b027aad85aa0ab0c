// Package manager fetches entity metadata once per entity name and turns API
// records into fresh entity.Entity values.
package manager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/mesh-intelligence/hrentities/pkg/entity"
	"github.com/mesh-intelligence/hrentities/pkg/types"
)

// Store is a second-level metadata cache shared between managers. It holds
// the raw metadata document per entity name. Implementations expire entries
// on their own.
type Store interface {
	Get(ctx context.Context, name string) (data []byte, ok bool, err error)
	Put(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore adds a second-level metadata store consulted before the API.
func WithStore(s Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithLogger sets the log entry the manager logs through.
func WithLogger(l *logrus.Entry) Option {
	return func(m *Manager) { m.log = l }
}

// Manager caches metadata per entity name and performs CRUD round trips.
// It is safe for concurrent use. Entities it returns are never shared.
type Manager struct {
	transport types.Transport
	store     Store
	log       *logrus.Entry

	mu     sync.RWMutex
	meta   map[string]*types.EntityMetadata
	flight singleflight.Group
}

// New returns a Manager that talks to the API through t.
func New(t types.Transport, opts ...Option) *Manager {
	m := &Manager{
		transport: t,
		meta:      make(map[string]*types.EntityMetadata),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logrus.NewEntry(logrus.StandardLogger())
	}
	m.log = m.log.WithField("component", "manager")
	return m
}

// ListOptions selects the page and shape of a ListEntities call. Zero values
// are omitted from the request.
type ListOptions struct {
	Fields   []string
	Query    string
	Sort     string
	PageSize int
	Page     int
}

func (o ListOptions) params() map[string]any {
	p := make(map[string]any)
	if len(o.Fields) > 0 {
		p["fields"] = o.Fields
	}
	if o.Query != "" {
		p["query"] = o.Query
	}
	if o.Sort != "" {
		p["sort"] = o.Sort
	}
	if o.PageSize > 0 {
		p["records"] = o.PageSize
	}
	if o.Page > 0 {
		p["page"] = o.Page
	}
	return p
}

// GetEntity returns a new, empty entity of the named type. Metadata is
// fetched on the first call for a name; concurrent first calls share one
// request.
func (m *Manager) GetEntity(ctx context.Context, name string) (*entity.Entity, error) {
	meta, err := m.metadata(ctx, name)
	if err != nil {
		return nil, err
	}
	return entity.New(meta), nil
}

// NewEntityFromCache returns a new entity built from cached metadata. ok is
// false when the name has not been fetched yet.
func (m *Manager) NewEntityFromCache(name string) (*entity.Entity, bool) {
	meta, ok := m.cached(name)
	if !ok {
		return nil, false
	}
	return entity.New(meta), true
}

// Metadata returns a copy of the cached or fetched metadata for name.
func (m *Manager) Metadata(ctx context.Context, name string) (*types.EntityMetadata, error) {
	meta, err := m.metadata(ctx, name)
	if err != nil {
		return nil, err
	}
	return meta.Clone(), nil
}

// CachedNames returns the entity names with metadata in memory, sorted.
func (m *Manager) CachedNames() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.meta))
	for name := range m.meta {
		names = append(names, name)
	}
	m.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Forget drops the metadata cached for name, in memory and in the store.
func (m *Manager) Forget(ctx context.Context, name string) error {
	m.mu.Lock()
	delete(m.meta, name)
	m.mu.Unlock()
	if m.store == nil {
		return nil
	}
	if err := m.store.Delete(ctx, name); err != nil {
		return fmt.Errorf("forget %s metadata: %w", name, err)
	}
	return nil
}

// Purge drops every in-memory metadata entry. The store keeps its entries
// until they expire.
func (m *Manager) Purge() {
	m.mu.Lock()
	m.meta = make(map[string]*types.EntityMetadata)
	m.mu.Unlock()
}

func (m *Manager) cached(name string) (*types.EntityMetadata, bool) {
	m.mu.RLock()
	meta, ok := m.meta[name]
	m.mu.RUnlock()
	return meta, ok
}

func (m *Manager) metadata(ctx context.Context, name string) (*types.EntityMetadata, error) {
	if meta, ok := m.cached(name); ok {
		m.log.WithField("entity", name).Debug("metadata cache hit")
		return meta, nil
	}
	v, err, shared := m.flight.Do(name, func() (any, error) {
		if meta, ok := m.cached(name); ok {
			return meta, nil
		}
		meta, err := m.fetchMetadata(ctx, name)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.meta[name] = meta
		m.mu.Unlock()
		return meta, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		m.log.WithField("entity", name).Debug("metadata fetch shared")
	}
	return v.(*types.EntityMetadata), nil
}

func (m *Manager) fetchMetadata(ctx context.Context, name string) (*types.EntityMetadata, error) {
	log := m.log.WithField("entity", name)
	if m.store != nil {
		data, ok, err := m.store.Get(ctx, name)
		switch {
		case err != nil:
			log.WithError(err).Warn("metadata store read failed")
		case ok:
			meta, perr := types.ParseEntityMetadata(data)
			if perr == nil {
				log.Debug("metadata store hit")
				return meta, nil
			}
			log.WithError(perr).Warn("discarding unreadable stored metadata")
		}
	}

	log.Debug("metadata cache miss")
	data, err := m.transport.Request(ctx, types.MethodGet, metaPath(name), nil)
	if err != nil {
		return nil, err
	}
	meta, err := types.ParseEntityMetadata(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if m.store != nil {
		if err := m.store.Put(ctx, name, data); err != nil {
			log.WithError(err).Warn("metadata store write failed")
		}
	}
	return meta, nil
}

// ListEntities requests one page of records and loads each into its own
// entity. An empty response yields no entities.
func (m *Manager) ListEntities(ctx context.Context, name string, opts ListOptions) ([]*entity.Entity, error) {
	meta, err := m.metadata(ctx, name)
	if err != nil {
		return nil, err
	}
	data, err := m.transport.Request(ctx, types.MethodGet, entitiesPath(name), opts.params())
	if err != nil {
		return nil, err
	}
	if types.IsEmptyData(data) {
		return nil, nil
	}
	var records []map[string]any
	if err := decode(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s list: %w", name, err)
	}
	out := make([]*entity.Entity, 0, len(records))
	for i, rec := range records {
		e := entity.New(meta)
		if err := e.Load(rec); err != nil {
			return nil, fmt.Errorf("load %s record %d: %w", name, i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// GetEntityByID fetches a single record. A response with no record returns
// a nil entity and no error.
func (m *Manager) GetEntityByID(ctx context.Context, name string, id any) (*entity.Entity, error) {
	meta, err := m.metadata(ctx, name)
	if err != nil {
		return nil, err
	}
	data, err := m.transport.Request(ctx, types.MethodGet, recordPath(name, id), nil)
	if err != nil {
		return nil, err
	}
	return hydrate(meta, data)
}

// Create submits e as a new record and returns the stored record as a new
// entity, so server-assigned fields such as Id are populated. A response
// with no record returns a nil entity and no error.
func (m *Manager) Create(ctx context.Context, e *entity.Entity) (*entity.Entity, error) {
	meta, err := m.metadata(ctx, e.Name())
	if err != nil {
		return nil, err
	}
	data, err := m.transport.Request(ctx, types.MethodPost, entitiesPath(e.Name()), e.DataSourceValue())
	if err != nil {
		return nil, err
	}
	return hydrate(meta, data)
}

// Update submits e to the record named by its Id field and returns the
// stored record as a new entity.
// Returns types.ErrMissingID if e has no Id value.
func (m *Manager) Update(ctx context.Context, e *entity.Entity) (*entity.Entity, error) {
	id, ok := e.ID()
	if !ok {
		return nil, fmt.Errorf("update %s: %w", e.Name(), types.ErrMissingID)
	}
	meta, err := m.metadata(ctx, e.Name())
	if err != nil {
		return nil, err
	}
	data, err := m.transport.Request(ctx, types.MethodPatch, recordPath(e.Name(), id), e.DataSourceValue())
	if err != nil {
		return nil, err
	}
	return hydrate(meta, data)
}

// Delete removes the record named by e's Id field.
// Returns types.ErrMissingID if e has no Id value.
func (m *Manager) Delete(ctx context.Context, e *entity.Entity) error {
	id, ok := e.ID()
	if !ok {
		return fmt.Errorf("delete %s: %w", e.Name(), types.ErrMissingID)
	}
	return m.DeleteByID(ctx, e.Name(), id)
}

// DeleteByID removes the record of entity name with the given id without
// loading its metadata.
func (m *Manager) DeleteByID(ctx context.Context, name string, id any) error {
	_, err := m.transport.Request(ctx, types.MethodDelete, recordPath(name, id), nil)
	return err
}

// GetSettings returns the current user's settings document.
func (m *Manager) GetSettings(ctx context.Context) (json.RawMessage, error) {
	return m.settings(ctx, types.MethodGet, "/user/settings", nil)
}

// GetEntitySettings returns the current user's settings document for the
// named entity.
func (m *Manager) GetEntitySettings(ctx context.Context, name string) (json.RawMessage, error) {
	return m.settings(ctx, types.MethodGet, entitySettingsPath(name), nil)
}

// UpdateEntitySettings stores settings as the current user's settings for
// the named entity and returns the stored document.
func (m *Manager) UpdateEntitySettings(ctx context.Context, name string, settings json.RawMessage) (json.RawMessage, error) {
	return m.settings(ctx, types.MethodPost, entitySettingsPath(name), settings)
}

func (m *Manager) settings(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	data, err := m.transport.Request(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if types.IsEmptyData(data) {
		return nil, nil
	}
	return data, nil
}

func hydrate(meta *types.EntityMetadata, data json.RawMessage) (*entity.Entity, error) {
	if types.IsEmptyData(data) {
		return nil, nil
	}
	var rec map[string]any
	if err := decode(data, &rec); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", meta.Name, err)
	}
	e := entity.New(meta)
	if err := e.Load(rec); err != nil {
		return nil, fmt.Errorf("load %s record: %w", meta.Name, err)
	}
	return e, nil
}

// decode unmarshals keeping numbers as json.Number so integers survive
// intact.
func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func entitiesPath(name string) string {
	return "/entities/" + url.PathEscape(name)
}

func metaPath(name string) string {
	return entitiesPath(name) + "/meta"
}

func recordPath(name string, id any) string {
	return entitiesPath(name) + "/" + url.PathEscape(fmt.Sprint(id))
}

func entitySettingsPath(name string) string {
	return "/user/settings/entities/" + url.PathEscape(name)
}
