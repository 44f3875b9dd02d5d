package scene

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reMath "stereo-viewer/math"
)

func newTestRig(t *testing.T) *Rig {
	t.Helper()
	r, err := NewRig(DefaultRigConfig(1280, 720))
	require.NoError(t, err)
	return r
}

func assertVec3(t *testing.T, want, got reMath.Vec3) {
	t.Helper()
	assert.True(t, want.ApproxEqual(got, eps), "want %v, got %v", want, got)
}

func TestNewRigPlacesCameras(t *testing.T) {
	r := newTestRig(t)

	assertVec3(t, reMath.NewVec3(-0.0325, 0, 2), r.Right().Position())
	assertVec3(t, reMath.NewVec3(0.0325, 0, 2), r.Left().Position())
	assertVec3(t, reMath.Vec3Front, r.Target())
	assert.Equal(t, EyeLeft, r.Left().Eye())
	assert.Same(t, r.Right(), r.Camera(EyeRight))

	for _, c := range []*Camera{r.Left(), r.Right()} {
		assertVec3(t, r.Target(), c.Target())
		assertVec3(t, r.Up(), c.Up())
		assert.InDelta(t, 4.0/3.0, c.Near(), eps)
		assert.InDelta(t, DefaultDioc, c.Dioc(), eps)
	}

	dc, l := r.Screen()
	assert.Equal(t, float32(2), dc)
	assert.Equal(t, float32(4), l)
}

func TestNewRigRejectsBadConfig(t *testing.T) {
	cases := map[string]func(*RigConfig){
		"zero dc":        func(c *RigConfig) { c.Dc = 0 },
		"negative l":     func(c *RigConfig) { c.L = -1 },
		"empty viewport": func(c *RigConfig) { c.Width = 0 },
		"negative dioc":  func(c *RigConfig) { c.Dioc = -0.1 },
		"zero target":    func(c *RigConfig) { c.Target = reMath.Vec3Zero },
		"parallel up":    func(c *RigConfig) { c.Up = c.Target },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultRigConfig(1280, 720)
			mutate(&cfg)
			_, err := NewRig(cfg)
			assert.ErrorIs(t, err, ErrInvalidRig)
		})
	}
}

func TestRigEyeSeparationMatchesDioc(t *testing.T) {
	r := newTestRig(t)
	r.UpdateHorizontalAngle(300)
	r.UpdateVerticalAngle(200)
	r.UpdateTarget()
	r.UpdateUp()
	r.UpdatePosition(StrafeRight, 3)

	sep := r.Right().Position().Sub(r.Left().Position())
	assert.InDelta(t, DefaultDioc, sep.Length(), eps)
	assert.InDelta(t, 0, sep.Dot(r.Target()), eps)

	mid := r.Left().Position().Add(r.Right().Position()).Mul(0.5)
	assertVec3(t, r.Position(), mid)
}

func TestRigForwardBackwardRoundTrip(t *testing.T) {
	r := newTestRig(t)
	start := r.Position()

	r.UpdatePosition(Forward, 2.5)
	assertVec3(t, start.Add(reMath.Vec3Front.Mul(0.15*2.5)), r.Position())
	r.UpdatePosition(Backward, 2.5)
	assertVec3(t, start, r.Position())

	r.UpdatePosition(Up, 1)
	r.UpdatePosition(Down, 1)
	assertVec3(t, start, r.Position())
}

func TestRigStrafeDirections(t *testing.T) {
	r := newTestRig(t)
	start := r.Position()

	// Looking down +Z with h = 0, strafing left moves towards +X.
	r.UpdatePosition(StrafeLeft, 1)
	assertVec3(t, start.Add(reMath.NewVec3(0.15, 0, 0)), r.Position())
	r.UpdatePosition(StrafeRight, 1)
	assertVec3(t, start, r.Position())
}

func TestRigUnknownDirectionIsIgnored(t *testing.T) {
	r := newTestRig(t)
	start := r.Position()
	r.UpdatePosition(Direction(42), 10)
	assert.Equal(t, start, r.Position())
	assert.Equal(t, "Direction(42)", Direction(42).String())
}

func TestRigUpdateTargetIsStable(t *testing.T) {
	r := newTestRig(t)
	r.UpdateHorizontalAngle(100)
	r.UpdateVerticalAngle(500)

	r.UpdateTarget()
	first := r.Target()
	r.UpdateTarget()
	assert.Equal(t, first, r.Target())
	assert.InDelta(t, 1, first.Length(), eps)
}

func TestRigCenteredCursorKeepsAngles(t *testing.T) {
	r := newTestRig(t)
	h, v := r.HorizontalAngle(), r.VerticalAngle()
	r.UpdateHorizontalAngle(640)
	r.UpdateVerticalAngle(360)
	assert.Equal(t, h, r.HorizontalAngle())
	assert.Equal(t, v, r.VerticalAngle())
}

func TestRigLookAccumulates(t *testing.T) {
	r := newTestRig(t)
	r.UpdateHorizontalAngle(640 - 100)
	assert.InDelta(t, 0.005*100, r.HorizontalAngle(), eps)
	assert.InDelta(t, 0.005*100, r.Left().HorizontalAngle(), eps)
	assert.InDelta(t, 0.005*100, r.Right().HorizontalAngle(), eps)
}

func TestRigUpStaysOrthogonal(t *testing.T) {
	r := newTestRig(t)
	r.UpdateHorizontalAngle(10)
	r.UpdateVerticalAngle(50)
	r.UpdateTarget()
	r.UpdateUp()

	assert.InDelta(t, 0, r.Up().Dot(r.Target()), eps)
	assert.InDelta(t, 1, r.Up().Length(), eps)
	assert.Greater(t, r.Up().Y, float32(0))
	assertVec3(t, r.Up(), r.Left().Up())
}

func TestRigChangeDiocRoundTrip(t *testing.T) {
	r := newTestRig(t)
	leftProj := r.Left().ProjectionMatrix()
	leftPos := r.Left().Position()

	r.ChangeDioc(0.005)
	assert.InDelta(t, 0.07, r.Dioc(), eps)
	assert.InDelta(t, 0.07, r.Right().Dioc(), eps)
	assert.False(t, leftProj.ApproxEqual(r.Left().ProjectionMatrix(), 1e-7))

	r.ChangeDioc(-0.005)
	assert.True(t, leftProj.ApproxEqual(r.Left().ProjectionMatrix(), eps))
	assertVec3(t, leftPos, r.Left().Position())
}

// Each eye sees the rig centre on the side of its nose, and its frustum is
// skewed the same way so both views converge on the virtual screen.
func TestRigEyesSitOnTheirSide(t *testing.T) {
	r := newTestRig(t)
	r.Left().ComputeViewMatrix()
	r.Right().ComputeViewMatrix()

	centreInLeft := r.Left().ViewMatrix().MulVec3(r.Position())
	centreInRight := r.Right().ViewMatrix().MulVec3(r.Position())
	assert.Greater(t, centreInLeft.X, float32(0))
	assert.Less(t, centreInRight.X, float32(0))

	lf, rf := r.Left().FrustumBounds(), r.Right().FrustumBounds()
	assert.Greater(t, lf.Left+lf.Right, float32(0))
	assert.Less(t, rf.Left+rf.Right, float32(0))
}

func TestRigChangeDiocClampIsNotUndone(t *testing.T) {
	r := newTestRig(t)
	r.ChangeDioc(-0.1)
	r.ChangeDioc(0.1)
	assert.InDelta(t, 0.1, r.Dioc(), eps)
}

func TestRigDiocNeverNegative(t *testing.T) {
	r := newTestRig(t)
	r.ChangeDioc(-1)
	assert.Equal(t, float32(0), r.Dioc())
	assertVec3(t, r.Left().Position(), r.Right().Position())
}

func TestRigResetDioc(t *testing.T) {
	r := newTestRig(t)
	r.ChangeDioc(0.3)
	r.ResetDioc()
	assert.InDelta(t, 0.065, r.Left().Dioc(), 1e-7)
	assert.InDelta(t, 0.065, r.Right().Dioc(), 1e-7)
}

func TestRigSetScreenAndResize(t *testing.T) {
	r := newTestRig(t)
	assert.ErrorIs(t, r.SetScreen(0, 4), ErrInvalidRig)
	require.NoError(t, r.SetScreen(3, 6))
	// near stays 4/3, so left = -near*(dioc+l)/(2dc)
	assert.InDelta(t, -(DefaultDioc + 6), r.Left().FrustumBounds().Left*2*3/r.Left().Near(), 1e-4)

	assert.ErrorIs(t, r.Resize(0, 10), ErrInvalidRig)
	require.NoError(t, r.Resize(1000, 1000))
	assert.Equal(t, float32(1), r.Left().AspectRatio())
	f := r.Right().FrustumBounds()
	assert.InDelta(t, r.Right().Near()*6/(2*3), f.Top, eps)
}

func TestRigAnglesFollowInitialTarget(t *testing.T) {
	cfg := DefaultRigConfig(640, 480)
	cfg.Target = reMath.NewVec3(1, 0, 0)
	r, err := NewRig(cfg)
	require.NoError(t, err)

	assert.InDelta(t, math32.Pi/2, r.HorizontalAngle(), eps)
	assertVec3(t, reMath.Vec3Right, r.Target())
	assertVec3(t, r.Target(), r.Right().Target())
}

func TestRigViewMatricesDiffer(t *testing.T) {
	r := newTestRig(t)
	r.ComputeViewMatrices()
	lv, rv := r.Left().ViewMatrix(), r.Right().ViewMatrix()
	assert.False(t, lv.ApproxEqual(rv, 1e-4))
	// Translation parts differ by exactly dioc along X.
	assert.InDelta(t, DefaultDioc, rv[3][0]-lv[3][0], eps)
}
