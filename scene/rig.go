package scene

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	reMath "stereo-viewer/math"
)

// DefaultDioc is a typical adult interpupillary distance in metres.
const DefaultDioc = 0.065

const (
	defaultSpeed      = 0.15
	defaultMouseSpeed = 0.005
)

// ErrInvalidRig is returned when rig or screen parameters cannot produce a
// valid pair of frustums.
var ErrInvalidRig = errors.New("invalid rig parameters")

// Direction is a movement intent applied by UpdatePosition.
type Direction int

const (
	Backward Direction = iota
	Forward
	StrafeLeft
	StrafeRight
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Backward:
		return "backward"
	case Forward:
		return "forward"
	case StrafeLeft:
		return "strafe-left"
	case StrafeRight:
		return "strafe-right"
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// RigConfig describes the initial viewer pose and the virtual screen: a
// screen of width L at distance Dc in front of the eyes.
type RigConfig struct {
	Position reMath.Vec3
	Up       reMath.Vec3
	Target   reMath.Vec3
	Dioc     float32
	Dc       float32
	L        float32
	Width    int
	Height   int
}

// DefaultRigConfig returns the viewer standing at (0,0,2) looking down +Z at
// a 4-unit wide screen 2 units away.
func DefaultRigConfig(width, height int) RigConfig {
	return RigConfig{
		Position: reMath.NewVec3(0, 0, 2),
		Up:       reMath.Vec3Up,
		Target:   reMath.Vec3Front,
		Dioc:     DefaultDioc,
		Dc:       2,
		L:        4,
		Width:    width,
		Height:   height,
	}
}

func (c RigConfig) validate() error {
	switch {
	case c.Dc <= 0:
		return fmt.Errorf("%w: screen distance %v must be positive", ErrInvalidRig, c.Dc)
	case c.L <= 0:
		return fmt.Errorf("%w: screen width %v must be positive", ErrInvalidRig, c.L)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: viewport %dx%d", ErrInvalidRig, c.Width, c.Height)
	case c.Dioc < 0:
		return fmt.Errorf("%w: negative interocular distance %v", ErrInvalidRig, c.Dioc)
	case c.Up.LengthSqr() == 0 || c.Target.LengthSqr() == 0:
		return fmt.Errorf("%w: up and target must be non-zero", ErrInvalidRig)
	case c.Up.Cross(c.Target).LengthSqr() == 0:
		return fmt.Errorf("%w: up and target are parallel", ErrInvalidRig)
	}
	return nil
}

// Rig is the logical viewer. It owns a left and a right Camera that share
// up, target and look angles and differ only in position, offset by ±dioc/2
// along up×target.
//
// Per frame, callers must run UpdatePosition, UpdateHorizontalAngle,
// UpdateVerticalAngle, UpdateTarget, UpdateUp and ComputeViewMatrices in that
// order.
type Rig struct {
	position reMath.Vec3
	up       reMath.Vec3
	target   reMath.Vec3

	horizontalAngle float32
	verticalAngle   float32

	speed      float32
	mouseSpeed float32

	width, height int
	dc, l         float32

	left, right *Camera
}

// NewRig builds both cameras from cfg. The initial look angles are derived
// from cfg.Target so the supplied gaze is preserved.
func NewRig(cfg RigConfig) (*Rig, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	t := cfg.Target.Normalize()
	r := &Rig{
		position:        cfg.Position,
		up:              cfg.Up,
		horizontalAngle: math32.Atan2(t.X, t.Z),
		verticalAngle:   math32.Asin(t.Y),
		speed:           defaultSpeed,
		mouseSpeed:      defaultMouseSpeed,
		width:           cfg.Width,
		height:          cfg.Height,
		dc:              cfg.Dc,
		l:               cfg.L,
	}

	near := cfg.Dc * (2.0 / 3.0)
	r.left = NewCamera(EyeLeft, cfg.Width, cfg.Height, near)
	r.right = NewCamera(EyeRight, cfg.Width, cfg.Height, near)
	for _, c := range r.cameras() {
		c.SetDioc(cfg.Dioc)
		c.SetUp(r.up)
		c.SetHorizontalAngle(r.horizontalAngle)
		c.SetVerticalAngle(r.verticalAngle)
	}

	r.UpdateTarget()
	r.RefreshCameraOffsets()
	r.computeProjections()
	r.ComputeViewMatrices()
	return r, nil
}

func (r *Rig) cameras() [2]*Camera {
	return [2]*Camera{r.left, r.right}
}

// UpdatePosition moves the rig by speed*delta in the given direction and
// re-derives both camera positions.
func (r *Rig) UpdatePosition(direction Direction, delta float32) {
	step := r.speed * delta
	switch direction {
	case Backward:
		r.position = r.position.Sub(r.target.Mul(step))
	case Forward:
		r.position = r.position.Add(r.target.Mul(step))
	case StrafeLeft:
		r.position = r.position.Sub(r.strafeAxis().Mul(step))
	case StrafeRight:
		r.position = r.position.Add(r.strafeAxis().Mul(step))
	case Up:
		r.position.Y += step
	case Down:
		r.position.Y -= step
	default:
		return
	}
	r.RefreshCameraOffsets()
}

// strafeAxis is the horizontal vector at horizontalAngle - 90°.
func (r *Rig) strafeAxis() reMath.Vec3 {
	a := r.horizontalAngle - math32.Pi/2
	return reMath.NewVec3(math32.Sin(a), 0, math32.Cos(a)).Normalize()
}

// RefreshCameraOffsets places the right camera at position - (dioc/2)·o and
// the left one at position + (dioc/2)·o, with o = normalize(up × target).
// The view matrices are right-handed, so o points to the viewer's left.
func (r *Rig) RefreshCameraOffsets() {
	o := r.up.Cross(r.target).Normalize()
	r.right.SetPosition(r.position.Sub(o.Mul(r.right.Dioc() / 2)))
	r.left.SetPosition(r.position.Add(o.Mul(r.left.Dioc() / 2)))
}

// UpdateHorizontalAngle accumulates the cursor's horizontal distance from
// the viewport centre into the look angle.
func (r *Rig) UpdateHorizontalAngle(cursorX float32) {
	r.horizontalAngle += r.mouseSpeed * (float32(r.width)/2 - cursorX)
	r.left.SetHorizontalAngle(r.horizontalAngle)
	r.right.SetHorizontalAngle(r.horizontalAngle)
}

// UpdateVerticalAngle is the vertical counterpart of UpdateHorizontalAngle.
func (r *Rig) UpdateVerticalAngle(cursorY float32) {
	r.verticalAngle += r.mouseSpeed * (float32(r.height)/2 - cursorY)
	r.left.SetVerticalAngle(r.verticalAngle)
	r.right.SetVerticalAngle(r.verticalAngle)
}

// UpdateTarget recomputes the gaze from the look angles.
func (r *Rig) UpdateTarget() {
	r.target = reMath.Vec3FromAngles(r.horizontalAngle, r.verticalAngle)
	r.left.SetTarget(r.target)
	r.right.SetTarget(r.target)
}

// UpdateUp recomputes up as strafeAxis × target so the basis stays
// orthonormal after look changes.
func (r *Rig) UpdateUp() {
	r.up = r.strafeAxis().Cross(r.target)
	r.left.SetUp(r.up)
	r.right.SetUp(r.up)
}

// ComputeViewMatrices refreshes both cameras' view matrices.
func (r *Rig) ComputeViewMatrices() {
	r.left.ComputeViewMatrix()
	r.right.ComputeViewMatrix()
}

func (r *Rig) computeProjections() {
	r.left.ComputeProjectionMatrix(r.dc, r.l)
	r.right.ComputeProjectionMatrix(r.dc, r.l)
}

// ChangeDioc adds delta to both cameras' interocular distance, never going
// below zero, then re-projects and repositions them. ChangeDioc(x) followed
// by ChangeDioc(-x) restores the previous state only while the distance
// stays non-negative in between; a clamped step is not undone.
func (r *Rig) ChangeDioc(delta float32) {
	r.setDioc(r.left.Dioc() + delta)
}

// ResetDioc restores DefaultDioc on both cameras.
func (r *Rig) ResetDioc() {
	r.setDioc(DefaultDioc)
}

func (r *Rig) setDioc(d float32) {
	if d < 0 {
		d = 0
	}
	r.left.SetDioc(d)
	r.right.SetDioc(d)
	r.computeProjections()
	r.RefreshCameraOffsets()
}

// SetScreen replaces the virtual screen distance and width and re-projects
// both cameras.
func (r *Rig) SetScreen(dc, l float32) error {
	if dc <= 0 || l <= 0 {
		return fmt.Errorf("%w: screen %vx%v", ErrInvalidRig, dc, l)
	}
	r.dc, r.l = dc, l
	r.computeProjections()
	return nil
}

// Resize updates the viewport used for look input and both aspect ratios.
func (r *Rig) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: viewport %dx%d", ErrInvalidRig, width, height)
	}
	r.width, r.height = width, height
	for _, c := range r.cameras() {
		c.SetAspectRatio(width, height)
	}
	r.computeProjections()
	return nil
}

// SetSpeeds overrides the movement and look sensitivities.
func (r *Rig) SetSpeeds(move, look float32) {
	r.speed = move
	r.mouseSpeed = look
}

// Camera returns the camera for eye.
func (r *Rig) Camera(eye Eye) *Camera {
	if eye == EyeLeft {
		return r.left
	}
	return r.right
}

func (r *Rig) Left() *Camera { return r.left }
func (r *Rig) Right() *Camera { return r.right }
func (r *Rig) Position() reMath.Vec3 { return r.position }
func (r *Rig) SetPosition(p reMath.Vec3) { r.position = p }
func (r *Rig) Target() reMath.Vec3 { return r.target }
func (r *Rig) SetTarget(t reMath.Vec3) { r.target = t }
func (r *Rig) Up() reMath.Vec3 { return r.up }
func (r *Rig) SetUp(u reMath.Vec3) { r.up = u }
func (r *Rig) HorizontalAngle() float32 { return r.horizontalAngle }
func (r *Rig) VerticalAngle() float32 { return r.verticalAngle }
func (r *Rig) Dioc() float32 { return r.left.Dioc() }
func (r *Rig) Screen() (dc, l float32) { return r.dc, r.l }
func (r *Rig) Viewport() (width, height int) { return r.width, r.height }
