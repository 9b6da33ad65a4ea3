package level

import (
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Entity is the keyvalue set of one map entity.
type Entity map[string]string

// ClassName returns the entity's classname.
func (e Entity) ClassName() string {
	return e["classname"]
}

// Origin parses the "origin" key.
func (e Entity) Origin() (mgl32.Vec3, bool) {
	fields := strings.Fields(e["origin"])
	if len(fields) != 3 {
		return mgl32.Vec3{}, false
	}

	var v mgl32.Vec3

	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return mgl32.Vec3{}, false
		}

		v[i] = float32(x)
	}

	return v, true
}

func parseEntities(str string) []Entity {
	blocks := strings.Split(str, "}")
	entities := make([]Entity, 0, len(blocks))

	for _, block := range blocks {
		block = strings.TrimPrefix(strings.TrimSpace(block), "{")
		if strings.TrimSpace(block) == "" {
			continue
		}

		data := make(Entity)

		for _, entry := range strings.Split(block, "\n") {
			kv := strings.Split(entry, "\"")
			if len(kv) < 4 {
				continue
			}

			data[kv[1]] = kv[3]
		}

		entities = append(entities, data)
	}

	return entities
}

// Lights returns the origins of all light entities.
func (l *Level) Lights() []mgl32.Vec3 {
	var out []mgl32.Vec3

	for _, e := range l.Entities {
		if !strings.HasPrefix(e.ClassName(), "light") {
			continue
		}

		if o, ok := e.Origin(); ok {
			out = append(out, o)
		}
	}

	return out
}
