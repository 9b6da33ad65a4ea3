package studio

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// Marshal encodes m in the layout Read understands. Magic is always IDST.
func Marshal(m *Model) ([]byte, error) {
	var hdr header

	copy(hdr.ID[:], "IDST")
	copy(hdr.Name[:], m.Name)
	hdr.Version = m.Version
	hdr.Flags = m.Flags
	hdr.HullMin = m.HullMin
	hdr.HullMax = m.HullMax
	hdr.NumAnim = m.NumAnim
	hdr.NumFlexRules = m.NumFlexRules
	hdr.NumMouths = m.NumMouths
	hdr.NumBones = int32(len(m.Bones))
	hdr.NumBodyParts = int32(len(m.BodyParts))

	off := headerSize
	hdr.BoneIndex = int32(off)
	off += len(m.Bones) * boneSize
	hdr.BodyPartIndex = int32(off)
	off += len(m.BodyParts) * bodyPartSize

	type placed struct {
		off int
		v   any
	}

	var records []placed

	for i, b := range m.Bones {
		records = append(records, placed{int(hdr.BoneIndex) + i*boneSize, &boneRecord{
			NameIndex:      0,
			Parent:         b.Parent,
			BoneController: b.BoneController,
			PoseToBone:     rows3x4(b.PoseToBone),
		}})
	}

	for i, part := range m.BodyParts {
		bpOff := int(hdr.BodyPartIndex) + i*bodyPartSize
		modelsOff := off
		off += len(part.Models) * modelSize

		records = append(records, placed{bpOff, &bodyPartRecord{
			NumModels:  int32(len(part.Models)),
			ModelIndex: int32(modelsOff - bpOff),
		}})

		for j, sub := range part.Models {
			modelOff := modelsOff + j*modelSize
			meshesOff := off
			off += len(sub.Meshes) * meshSize

			var verts [][3]float32

			rec := &modelRecord{
				NumMeshes: int32(len(sub.Meshes)),
				MeshIndex: int32(meshesOff - modelOff),
			}
			copy(rec.Name[:], sub.Name)

			for k, mesh := range sub.Meshes {
				records = append(records, placed{meshesOff + k*meshSize, &meshRecord{
					Material:     mesh.Material,
					NumVertices:  int32(len(mesh.Vertices)),
					VertexOffset: int32(len(verts)),
				}})

				for _, v := range mesh.Vertices {
					verts = append(verts, v)
				}
			}

			rec.NumVertices = int32(len(verts))
			rec.VertexIndex = int32(off - modelOff)

			if len(verts) > 0 {
				records = append(records, placed{off, verts})
				off += len(verts) * vertexSize
			}

			records = append(records, placed{modelOff, rec})
		}
	}

	hdr.Length = int32(off)
	records = append(records, placed{0, &hdr})

	out := make([]byte, off)

	for _, r := range records {
		var buf bytes.Buffer
		if err := binary.Write(&buf, byteOrder, r.v); err != nil {
			return nil, errors.Wrap(err, "failed to encode model")
		}

		copy(out[r.off:], buf.Bytes())
	}

	return out, nil
}
