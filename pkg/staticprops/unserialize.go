package staticprops

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/saiko-tech/vrad-staticprops/pkg/bsptree"
	"github.com/saiko-tech/vrad-staticprops/pkg/staticprops/proplump"
)

// LoadFromLump reads the static prop game lump. A lump of another version is skipped and
// leaves the manager empty. A corrupt lump is an error and loads nothing.
func (m *Manager) LoadFromLump(version uint16, data []byte) error {
	if m.treeData == nil {
		return ErrNotInitialized
	}

	if len(data) == 0 {
		return nil
	}

	l, err := proplump.Decode(version, data)
	if errors.Is(err, proplump.ErrUnsupportedVersion) {
		m.logger.Debug("skipping static prop lump", zap.Uint16("version", version), zap.Int("want", proplump.Version))
		return nil
	}

	if err != nil {
		return errors.Wrap(err, "failed to decode static prop lump")
	}

	for i, p := range l.Props {
		if int(p.PropType) >= len(l.Names) {
			return errors.Errorf("prop %d references model %d of %d", i, p.PropType, len(l.Names))
		}
	}

	base := len(m.models)

	m.unserializeModelDict(l.Names)
	m.unserializeProps(l.Props, base)

	m.logger.Info("loaded static props",
		zap.Int("props", len(m.props)),
		zap.Int("models", m.cache.Len()),
		zap.Int("missing", len(m.cache.missing)),
	)

	return nil
}

func (m *Manager) unserializeModelDict(names []string) {
	for _, name := range names {
		m.models = append(m.models, m.cache.GetOrCreate(name))
	}
}

// unserializeProps appends records whose model indexes are relative to base.
func (m *Manager) unserializeProps(records []proplump.Prop, base int) {
	first := len(m.props)

	for _, rec := range records {
		p := Prop{
			Origin: rec.Origin,
			Angles: rec.Angles,
			Model:  base + int(rec.PropType),
			Flags:  rec.Flags,
			Solid:  rec.Solid,
			Skin:   rec.Skin,
			Handle: bsptree.InvalidHandle,
		}

		model := m.models[p.Model]
		if shape := model.Shape(); shape != nil {
			p.Mins, p.Maxs = m.lib.CollideGetAABB(shape, p.Origin, p.Angles)
		} else {
			// orientation is ignored without a shape
			p.Mins = model.Mins.Add(p.Origin)
			p.Maxs = model.Maxs.Add(p.Origin)
		}

		m.props = append(m.props, p)
	}

	for i := first; i < len(m.props); i++ {
		if m.props[i].CastsShadow() {
			m.insertPropIntoTree(i)
		}
	}
}
