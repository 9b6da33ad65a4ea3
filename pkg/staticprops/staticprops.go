// Package staticprops indexes the static props of a compiled level and answers ray queries
// against their collision models.
//
// A Manager is filled once by LoadFromLump and is read-only afterwards. Queries from
// several goroutines are safe as long as every goroutine uses its own RayTest.
package staticprops

import (
	"io/fs"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/saiko-tech/vrad-staticprops/pkg/bsptree"
	"github.com/saiko-tech/vrad-staticprops/pkg/collide"
)

var (
	// ErrCollisionUnavailable is returned by Init without a collision library.
	ErrCollisionUnavailable = errors.New("collision library unavailable")
	// ErrNotInitialized is returned when loading before Init.
	ErrNotInitialized = errors.New("static prop manager not initialized")
)

// Manager owns the static props of one level.
type Manager struct {
	tree   *bsptree.Tree
	files  fs.FS
	logger *zap.Logger

	lib      *collide.Library
	treeData *bsptree.TreeData
	cache    *ModelCache

	models []*CollisionModel
	props  []Prop
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger, zap.NewNop() by default.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a manager for the level tree. Models are read from files.
func NewManager(tree *bsptree.Tree, files fs.FS, opts ...Option) *Manager {
	m := &Manager{
		tree:   tree,
		files:  files,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Init prepares the manager for loading.
func (m *Manager) Init(lib *collide.Library) error {
	if lib == nil {
		return ErrCollisionUnavailable
	}

	m.lib = lib
	m.treeData = bsptree.NewTreeData(m.tree)
	m.cache = newModelCache(lib, m.files, m.logger)

	return nil
}

// Shutdown takes every prop out of the tree, then releases the tree data and the tables.
func (m *Manager) Shutdown() error {
	if m.treeData == nil {
		return nil
	}

	for i := len(m.props) - 1; i >= 0; i-- {
		m.removePropFromTree(i)
	}

	if err := m.treeData.Shutdown(); err != nil {
		return errors.Wrap(err, "failed to shut down tree data")
	}

	m.treeData = nil
	m.props = nil
	m.models = nil
	m.cache = nil

	return nil
}

// Props returns the prop table.
func (m *Manager) Props() []Prop {
	return m.props
}

// Models returns the model dictionary, one entry per dictionary record.
func (m *Manager) Models() []*CollisionModel {
	return m.models
}

// Cache returns the model cache, nil before Init.
func (m *Manager) Cache() *ModelCache {
	return m.cache
}

// MissingModels returns a MissingModelsError if any dictionary model failed to load.
func (m *Manager) MissingModels() error {
	if m.cache == nil || len(m.cache.missing) == 0 {
		return nil
	}

	return MissingModelsError{missingModels: m.cache.missing}
}
