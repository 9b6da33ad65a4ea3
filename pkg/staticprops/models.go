package staticprops

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/saiko-tech/vrad-staticprops/pkg/studio"
)

const poseTolerance = 1e-3

// ErrNotStaticProp is returned for models that were not compiled with $staticprop.
var ErrNotStaticProp = errors.New("model must be compiled with $staticprop")

func loadModelPart[T any](files fs.FS, filePath string, reader func([]byte) (T, error)) (T, error) {
	var def T

	if files == nil {
		return def, errors.Wrapf(ErrFileNotFound, "%s not found", filePath)
	}

	data, err := fs.ReadFile(files, filePath)
	if err != nil {
		return def, errors.Wrapf(err, "failed to open model part file %q", filePath)
	}

	part, err := reader(data)
	if err != nil {
		return def, errors.Wrapf(err, "failed to read model part from %q", filePath)
	}

	return part, nil
}

// loadStudioModel reads and validates the render model of a static prop.
func loadStudioModel(files fs.FS, filePath string) (*studio.Model, error) {
	m, err := loadModelPart(files, filePath, studio.Read)
	if err != nil {
		return nil, err
	}

	if m.Flags&studio.FlagStaticProp == 0 || !IsStaticProp(m) {
		return nil, errors.Wrapf(ErrNotStaticProp, "model %q", filePath)
	}

	return m, nil
}

// physicsPath returns the .phy sidecar of a model path.
func physicsPath(modelPath string) string {
	return strings.Split(modelPath, ".mdl")[0] + ".phy"
}

// IsStaticProp reports whether a model can be used as a static prop: a single unanimated
// bone without flexes or mouths whose pose-to-bone transform is the identity.
func IsStaticProp(m *studio.Model) bool {
	if len(m.Bones) != 1 || m.NumAnim > 1 || m.NumFlexRules > 0 || m.NumMouths > 0 {
		return false
	}

	bone := m.Bones[0]
	if bone.BoneController[0] != -1 {
		return false
	}

	return isIdentityPose(bone.PoseToBone)
}

func isIdentityPose(pose mgl32.Mat3x4) bool {
	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			want := float32(0)
			if row == col {
				want = 1
			}

			if mgl32.Abs(pose.At(row, col)-want) > poseTolerance {
				return false
			}
		}
	}

	return true
}

// MissingModelsError lists the dictionary models that could not be loaded.
type MissingModelsError struct {
	missingModels []string
}

// Models returns the names of the missing models.
func (m MissingModelsError) Models() []string {
	return m.missingModels
}

func (m MissingModelsError) Error() string {
	return fmt.Sprintf(`missing models: ("%s")`, strings.Join(m.missingModels, `", "`))
}
