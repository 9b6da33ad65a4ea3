package collide

import "github.com/go-gl/mathgl/mgl32"

// AngleMatrix builds the rotation for Source engine angles (pitch, yaw, roll; degrees).
// Yaw rotates around Z, pitch around Y and roll around X, applied roll first.
func AngleMatrix(angles mgl32.Vec3) mgl32.Mat3 {
	pitch := mgl32.DegToRad(angles[0])
	yaw := mgl32.DegToRad(angles[1])
	roll := mgl32.DegToRad(angles[2])

	return mgl32.Rotate3DZ(yaw).Mul3(mgl32.Rotate3DY(pitch)).Mul3(mgl32.Rotate3DX(roll))
}

// transform is a rigid body transform, local to world.
type transform struct {
	rot    mgl32.Mat3
	origin mgl32.Vec3
}

func newTransform(origin, angles mgl32.Vec3) transform {
	return transform{rot: AngleMatrix(angles), origin: origin}
}

func (t transform) toWorld(v mgl32.Vec3) mgl32.Vec3 {
	return t.rot.Mul3x1(v).Add(t.origin)
}

// toLocalRay moves a world space ray into the transform's local space.
// Fractions along the ray are preserved.
func (t transform) toLocalRay(ray Ray) Ray {
	inv := t.rot.Transpose()

	return Ray{
		Start: inv.Mul3x1(ray.Start.Sub(t.origin)),
		Delta: inv.Mul3x1(ray.Delta),
	}
}

// vectorITransform applies the inverse of a 3x4 bone matrix to a point.
func vectorITransform(in1 mgl32.Vec3, in2 mgl32.Mat3x4) (out mgl32.Vec3) {
	t := mgl32.Vec3{}
	t[0] = in1[0] - in2.Col(3)[0]
	t[1] = in1[1] - in2.Col(3)[1]
	t[2] = in1[2] - in2.Col(3)[2]

	out[0] = t[0]*in2.Col(0)[0] + t[1]*in2.Col(0)[1] + t[2]*in2.Col(0)[2]
	out[1] = t[0]*in2.Col(1)[0] + t[1]*in2.Col(1)[1] + t[2]*in2.Col(1)[2]
	out[2] = t[0]*in2.Col(2)[0] + t[1]*in2.Col(2)[1] + t[2]*in2.Col(2)[2]

	return out
}

func extend(mins, maxs *mgl32.Vec3, v mgl32.Vec3) {
	for i, f := range v {
		if f < mins[i] {
			mins[i] = f
		}
		if f > maxs[i] {
			maxs[i] = f
		}
	}
}

func emptyBounds() (mins, maxs mgl32.Vec3) {
	mins = mgl32.Vec3{mgl32.MaxValue, mgl32.MaxValue, mgl32.MaxValue}
	maxs = mgl32.Vec3{-mgl32.MaxValue, -mgl32.MaxValue, -mgl32.MaxValue}
	return
}
