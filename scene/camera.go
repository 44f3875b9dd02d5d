package scene

import (
	"github.com/chewxy/math32"

	reMath "stereo-viewer/math"
)

// Eye identifies which side of the rig a camera sits on.
type Eye int

const (
	EyeLeft Eye = iota
	EyeRight
)

func (e Eye) String() string {
	if e == EyeLeft {
		return "left"
	}
	return "right"
}

const (
	defaultFOV = math32.Pi / 4 // 45°
	defaultFar = 100.0
)

// Frustum holds the near-plane clip bounds of the last projection computed.
type Frustum struct {
	Left, Right, Bottom, Top float32
}

// Camera is one eye of the stereo rig. Target is a gaze direction, not a
// point. Matrices are only refreshed by ComputeViewMatrix and
// ComputeProjectionMatrix; setters never touch them.
type Camera struct {
	eye Eye

	position reMath.Vec3
	target   reMath.Vec3
	up       reMath.Vec3

	fov         float32
	aspectRatio float32
	near        float32
	far         float32
	dioc        float32

	horizontalAngle float32
	verticalAngle   float32

	frustum          Frustum
	viewMatrix       reMath.Mat4
	projectionMatrix reMath.Mat4
}

// NewCamera creates a camera for a width×height viewport with the given
// near plane distance.
func NewCamera(eye Eye, width, height int, near float32) *Camera {
	return &Camera{
		eye:              eye,
		target:           reMath.Vec3Back,
		up:               reMath.Vec3Up,
		fov:              defaultFOV,
		aspectRatio:      float32(width) / float32(height),
		near:             near,
		far:              defaultFar,
		horizontalAngle:  math32.Pi,
		viewMatrix:       reMath.Mat4Identity(),
		projectionMatrix: reMath.Mat4Identity(),
	}
}

// ComputeViewMatrix sets view = lookAt(position, position+target, up).
func (c *Camera) ComputeViewMatrix() {
	c.viewMatrix = reMath.Mat4LookAt(c.position, c.position.Add(c.target), c.up)
}

// ComputeProjectionMatrix builds the skewed frustum for a virtual screen of
// width l at distance dc from the eyes. dc must be positive; it is not
// checked here.
func (c *Camera) ComputeProjectionMatrix(dc, l float32) {
	h := l / c.aspectRatio
	k := c.near / (2 * dc)

	top := k * h
	f := Frustum{Bottom: -top, Top: top}
	switch c.eye {
	case EyeLeft:
		f.Left = k * (c.dioc - l)
		f.Right = k * (c.dioc + l)
	case EyeRight:
		f.Left = -k * (c.dioc + l)
		f.Right = -k * (c.dioc - l)
	}

	c.frustum = f
	c.projectionMatrix = reMath.Mat4Frustum(f.Left, f.Right, f.Bottom, f.Top, c.near, c.far)
}

// SetAspectRatio changes the viewport ratio. Call ComputeProjectionMatrix
// afterwards.
func (c *Camera) SetAspectRatio(width, height int) {
	if height > 0 {
		c.aspectRatio = float32(width) / float32(height)
	}
}

func (c *Camera) Eye() Eye { return c.eye }
func (c *Camera) ViewMatrix() reMath.Mat4 { return c.viewMatrix }
func (c *Camera) ProjectionMatrix() reMath.Mat4 { return c.projectionMatrix }
func (c *Camera) FrustumBounds() Frustum { return c.frustum }
func (c *Camera) Position() reMath.Vec3 { return c.position }
func (c *Camera) Target() reMath.Vec3 { return c.target }
func (c *Camera) Up() reMath.Vec3 { return c.up }
func (c *Camera) FieldOfView() float32 { return c.fov }
func (c *Camera) AspectRatio() float32 { return c.aspectRatio }
func (c *Camera) Near() float32 { return c.near }
func (c *Camera) Far() float32 { return c.far }
func (c *Camera) Dioc() float32 { return c.dioc }
func (c *Camera) HorizontalAngle() float32 { return c.horizontalAngle }
func (c *Camera) VerticalAngle() float32 { return c.verticalAngle }
func (c *Camera) SetPosition(p reMath.Vec3) { c.position = p }
func (c *Camera) SetTarget(t reMath.Vec3) { c.target = t }
func (c *Camera) SetUp(u reMath.Vec3) { c.up = u }
func (c *Camera) SetDioc(d float32) { c.dioc = d }
func (c *Camera) SetHorizontalAngle(a float32) { c.horizontalAngle = a }
func (c *Camera) SetVerticalAngle(a float32) { c.verticalAngle = a }
