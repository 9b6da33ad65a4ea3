package staticprops

import (
	"io/fs"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/saiko-tech/vrad-staticprops/pkg/collide"
	"github.com/saiko-tech/vrad-staticprops/pkg/studio"
)

// shapeSource is the ownership of a collision model's shape.
type shapeSource interface {
	shape() *collide.Shape
}

// ownedShape is a shape built from the render meshes and owned by the model.
type ownedShape struct {
	s *collide.Shape
}

func (o ownedShape) shape() *collide.Shape {
	return o.s
}

// firstSolidOf borrows the first solid of physics data owned by the model.
type firstSolidOf struct {
	blob *collide.VCollide
}

func (f firstSolidOf) shape() *collide.Shape {
	if f.blob == nil || len(f.blob.Solids) == 0 {
		return nil
	}

	return f.blob.Solids[0]
}

// CollisionModel is the collision representation shared by every prop of one model.
// It is immutable once created.
type CollisionModel struct {
	Name string

	// Mins and Maxs are the model space hull bounds, zero when the model failed to load.
	Mins, Maxs mgl32.Vec3

	// HasPhysicsData is set when the shape came from the .phy sidecar.
	HasPhysicsData bool

	source shapeSource
}

// Shape returns the collision shape or nil if the model has none.
func (m *CollisionModel) Shape() *collide.Shape {
	if m.source == nil {
		return nil
	}

	return m.source.shape()
}

// ModelCache loads collision models once per model name.
// It is not safe for concurrent use while loading.
type ModelCache struct {
	lib    *collide.Library
	files  fs.FS
	logger *zap.Logger

	models  map[string]*CollisionModel
	missing []string
}

func newModelCache(lib *collide.Library, files fs.FS, logger *zap.Logger) *ModelCache {
	return &ModelCache{
		lib:    lib,
		files:  files,
		logger: logger,
		models: make(map[string]*CollisionModel),
	}
}

// Len returns the number of distinct models.
func (c *ModelCache) Len() int {
	return len(c.models)
}

// Missing returns the names of models whose file could not be loaded, in request order.
func (c *ModelCache) Missing() []string {
	return c.missing
}

// GetOrCreate returns the collision model for name, loading it on first use.
// Load failures are logged and produce a model without shape.
func (c *ModelCache) GetOrCreate(name string) *CollisionModel {
	if m, ok := c.models[name]; ok {
		return m
	}

	m := c.create(name)
	c.models[name] = m

	return m
}

func (c *ModelCache) create(name string) *CollisionModel {
	m := &CollisionModel{Name: name}

	hdr, err := loadStudioModel(c.files, name)
	if err != nil {
		c.logger.Warn("unable to load static prop model", zap.String("model", name), zap.Error(err))
		c.missing = append(c.missing, name)

		return m
	}

	m.Mins = hdr.HullMin
	m.Maxs = hdr.HullMax

	blob, err := c.loadPhysics(name, hdr)
	if err == nil {
		m.HasPhysicsData = true
		m.source = firstSolidOf{blob: blob}

		return m
	}

	c.logger.Debug("no usable physics model, using convex hull", zap.String("model", name), zap.Error(err))

	m.source = ownedShape{s: c.convexHull(hdr)}

	return m
}

func (c *ModelCache) loadPhysics(name string, hdr *studio.Model) (*collide.VCollide, error) {
	p, err := loadModelPart(c.files, physicsPath(name), studio.ReadPhysics)
	if err != nil {
		return nil, err
	}

	return c.lib.VCollideLoad(p, hdr.Bones[0].PoseToBone)
}

// convexHull builds one convex piece per render mesh.
func (c *ModelCache) convexHull(hdr *studio.Model) *collide.Shape {
	var pieces []*collide.Convex

	for _, part := range hdr.BodyParts {
		for _, sub := range part.Models {
			for _, mesh := range sub.Meshes {
				pieces = append(pieces, c.lib.ConvexFromVerts(mesh.Vertices))
			}
		}
	}

	return c.lib.ConvertConvexToCollide(pieces)
}
