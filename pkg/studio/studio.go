// Package studio reads the parts of studio model (.mdl) files needed to build static prop
// collision models: header, bones and the vertex positions of every mesh.
package studio

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Version is the studio model version this package understands.
const Version = 37

// Header flags.
const (
	FlagAutogeneratedHitbox = 0x1
	FlagUsesEnvCubemap      = 0x2
	FlagForceOpaque         = 0x4
	FlagTranslucentTwoPass  = 0x8
	FlagStaticProp          = 0x10
)

var (
	// ErrBadMagic is returned for files that do not start with IDST or IDSQ.
	ErrBadMagic = errors.New("invalid model file")
	// ErrBadVersion is returned for models of a different version.
	ErrBadVersion = errors.New("invalid model version")
	// ErrTruncated is returned when an offset points outside the file.
	ErrTruncated = errors.New("model file truncated")
)

var byteOrder = binary.LittleEndian

// Model is a decoded studio model.
type Model struct {
	Name      string
	Version   int32
	Flags     int32
	HullMin   mgl32.Vec3
	HullMax   mgl32.Vec3
	Bones     []Bone
	BodyParts []BodyPart

	NumAnim      int32
	NumFlexRules int32
	NumMouths    int32
}

// Bone is a skeleton bone.
type Bone struct {
	Parent         int32
	BoneController [6]int32
	PoseToBone     mgl32.Mat3x4
}

// BodyPart is a group of alternative sub models.
type BodyPart struct {
	Models []SubModel
}

// SubModel is one model of a body part.
type SubModel struct {
	Name   string
	Meshes []Mesh
}

// Mesh is a set of vertices sharing a material.
type Mesh struct {
	Material int32
	Vertices []mgl32.Vec3
}

type header struct {
	ID            [4]byte
	Version       int32
	Checksum      int32
	Name          [64]byte
	Length        int32
	EyePosition   [3]float32
	IllumPosition [3]float32
	HullMin       [3]float32
	HullMax       [3]float32
	ViewBBMin     [3]float32
	ViewBBMax     [3]float32
	Flags         int32

	NumBones            int32
	BoneIndex           int32
	NumBoneControllers  int32
	BoneControllerIndex int32
	NumHitboxSets       int32
	HitboxSetIndex      int32
	NumAnim             int32
	AnimIndex           int32
	NumSeq              int32
	SeqIndex            int32
	NumTextures         int32
	TextureIndex        int32
	NumSkinRef          int32
	NumSkinFamilies     int32
	SkinIndex           int32
	NumBodyParts        int32
	BodyPartIndex       int32
	NumAttachments      int32
	AttachmentIndex     int32
	NumFlexDesc         int32
	FlexDescIndex       int32
	NumFlexControllers  int32
	FlexControllerIndex int32
	NumFlexRules        int32
	FlexRuleIndex       int32
	NumIKChains         int32
	IKChainIndex        int32
	NumMouths           int32
	MouthIndex          int32
}

type boneRecord struct {
	NameIndex      int32
	Parent         int32
	BoneController [6]int32
	Pos            [3]float32
	Quat           [4]float32
	Rot            [3]float32
	PosScale       [3]float32
	RotScale       [3]float32
	PoseToBone     [3][4]float32
	QAlignment     [4]float32
	Flags          int32
	ProcType       int32
	ProcIndex      int32
	PhysicsBone    int32
	SurfacePropIdx int32
	Contents       int32
	Unused         [8]int32
}

type bodyPartRecord struct {
	NameIndex  int32
	NumModels  int32
	Base       int32
	ModelIndex int32 // relative to the body part
}

type modelRecord struct {
	Name            [64]byte
	Type            int32
	BoundingRadius  float32
	NumMeshes       int32
	MeshIndex       int32 // relative to the model
	NumVertices     int32
	VertexIndex     int32 // relative to the model
	TangentsIndex   int32
	NumAttachments  int32
	AttachmentIndex int32
	NumEyeballs     int32
	EyeballIndex    int32
	Unused          [8]int32
}

type meshRecord struct {
	Material      int32
	ModelIndex    int32
	NumVertices   int32
	VertexOffset  int32 // into the model's vertices
	NumFlexes     int32
	FlexIndex     int32
	MaterialType  int32
	MaterialParam int32
	MeshID        int32
	Center        [3]float32
	Unused        [8]int32
}

var (
	headerSize   = binary.Size(header{})
	boneSize     = binary.Size(boneRecord{})
	bodyPartSize = binary.Size(bodyPartRecord{})
	modelSize    = binary.Size(modelRecord{})
	meshSize     = binary.Size(meshRecord{})
	vertexSize   = binary.Size([3]float32{})
)

func validMagic(id [4]byte) bool {
	s := string(id[:])
	return s == "IDST" || s == "IDSQ"
}

// ReadFromStream decodes a model from r.
func ReadFromStream(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read model")
	}

	return Read(data)
}

// Read decodes a model from its file contents.
func Read(data []byte) (*Model, error) {
	d := decoder{data: data}

	var hdr header
	if err := d.read(0, &hdr); err != nil {
		return nil, err
	}

	if !validMagic(hdr.ID) {
		return nil, ErrBadMagic
	}

	if hdr.Version != Version {
		return nil, errors.Wrapf(ErrBadVersion, "version %d", hdr.Version)
	}

	m := &Model{
		Name:         cString(hdr.Name[:]),
		Version:      hdr.Version,
		Flags:        hdr.Flags,
		HullMin:      hdr.HullMin,
		HullMax:      hdr.HullMax,
		NumAnim:      hdr.NumAnim,
		NumFlexRules: hdr.NumFlexRules,
		NumMouths:    hdr.NumMouths,
	}

	if err := d.table(int(hdr.BoneIndex), hdr.NumBones, boneSize); err != nil {
		return nil, errors.Wrap(err, "bones")
	}

	if err := d.table(int(hdr.BodyPartIndex), hdr.NumBodyParts, bodyPartSize); err != nil {
		return nil, errors.Wrap(err, "body parts")
	}

	for i := int32(0); i < hdr.NumBones; i++ {
		var rec boneRecord
		if err := d.read(int(hdr.BoneIndex)+int(i)*boneSize, &rec); err != nil {
			return nil, errors.Wrapf(err, "bone %d", i)
		}

		m.Bones = append(m.Bones, Bone{
			Parent:         rec.Parent,
			BoneController: rec.BoneController,
			PoseToBone:     matrix3x4(rec.PoseToBone),
		})
	}

	for i := int32(0); i < hdr.NumBodyParts; i++ {
		bpOff := int(hdr.BodyPartIndex) + int(i)*bodyPartSize

		var rec bodyPartRecord
		if err := d.read(bpOff, &rec); err != nil {
			return nil, errors.Wrapf(err, "body part %d", i)
		}

		if err := d.table(bpOff+int(rec.ModelIndex), rec.NumModels, modelSize); err != nil {
			return nil, errors.Wrapf(err, "body part %d models", i)
		}

		var part BodyPart

		for j := int32(0); j < rec.NumModels; j++ {
			sub, err := d.readModel(bpOff + int(rec.ModelIndex) + int(j)*modelSize)
			if err != nil {
				return nil, errors.Wrapf(err, "body part %d model %d", i, j)
			}

			part.Models = append(part.Models, sub)
		}

		m.BodyParts = append(m.BodyParts, part)
	}

	return m, nil
}

type decoder struct {
	data []byte
}

func (d decoder) read(off int, v any) error {
	size := binary.Size(v)
	if off < 0 || size < 0 || off+size > len(d.data) {
		return ErrTruncated
	}

	return binary.Read(bytes.NewReader(d.data[off:off+size]), byteOrder, v)
}

// table checks that count records of size bytes starting at off lie inside the data.
func (d decoder) table(off int, count int32, size int) error {
	if count < 0 {
		return errors.Wrapf(ErrTruncated, "negative count %d", count)
	}

	if off < 0 || int64(off)+int64(count)*int64(size) > int64(len(d.data)) {
		return errors.Wrapf(ErrTruncated, "%d records at offset %d", count, off)
	}

	return nil
}

func (d decoder) readModel(off int) (SubModel, error) {
	var rec modelRecord
	if err := d.read(off, &rec); err != nil {
		return SubModel{}, err
	}

	if err := d.table(off+int(rec.VertexIndex), rec.NumVertices, vertexSize); err != nil {
		return SubModel{}, errors.Wrap(err, "vertices")
	}

	if err := d.table(off+int(rec.MeshIndex), rec.NumMeshes, meshSize); err != nil {
		return SubModel{}, errors.Wrap(err, "meshes")
	}

	verts := make([][3]float32, rec.NumVertices)
	if rec.NumVertices > 0 {
		if err := d.read(off+int(rec.VertexIndex), verts); err != nil {
			return SubModel{}, errors.Wrap(err, "vertices")
		}
	}

	sub := SubModel{Name: cString(rec.Name[:])}

	for k := int32(0); k < rec.NumMeshes; k++ {
		var mesh meshRecord
		if err := d.read(off+int(rec.MeshIndex)+int(k)*meshSize, &mesh); err != nil {
			return SubModel{}, errors.Wrapf(err, "mesh %d", k)
		}

		first, last := int(mesh.VertexOffset), int(mesh.VertexOffset)+int(mesh.NumVertices)
		if first < 0 || last > len(verts) || first > last {
			return SubModel{}, errors.Wrapf(ErrTruncated, "mesh %d vertex range %d..%d", k, first, last)
		}

		out := Mesh{Material: mesh.Material, Vertices: make([]mgl32.Vec3, 0, last-first)}
		for _, v := range verts[first:last] {
			out.Vertices = append(out.Vertices, v)
		}

		sub.Meshes = append(sub.Meshes, out)
	}

	return sub, nil
}

func matrix3x4(rows [3][4]float32) (m mgl32.Mat3x4) {
	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			m[col*3+row] = rows[row][col]
		}
	}

	return m
}

func rows3x4(m mgl32.Mat3x4) (rows [3][4]float32) {
	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			rows[row][col] = m[col*3+row]
		}
	}

	return rows
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	return string(b)
}
