package renderer

import (
	"math/rand"

	"stereo-viewer/gpu"
	reMath "stereo-viewer/math"
)

const (
	ssaoKernelSize = 64
	ssaoNoiseSize  = 4
)

// ssaoKernel returns 64 hemisphere sample points (+Z up) as a flat xyz
// array, clustered towards the origin for better contact shadows.
func ssaoKernel() []float32 {
	rng := rand.New(rand.NewSource(42))

	kernel := make([]float32, 0, ssaoKernelSize*3)
	for i := 0; i < ssaoKernelSize; i++ {
		v := reMath.Vec3{
			X: rng.Float32()*2 - 1,
			Y: rng.Float32()*2 - 1,
			Z: rng.Float32(),
		}.Normalize()

		// lerp(0.1, 1.0, t²)
		t := float32(i) / ssaoKernelSize
		v = v.Mul(0.1 + 0.9*t*t)
		kernel = append(kernel, v.X, v.Y, v.Z)
	}
	return kernel
}

// newSSAONoise creates the 4×4 texture of random XY rotation vectors that
// tiles over the screen to rotate the kernel per fragment.
func newSSAONoise(dev gpu.Device) (gpu.Texture, error) {
	rng := rand.New(rand.NewSource(123))

	noise := make([]float32, 0, ssaoNoiseSize*ssaoNoiseSize*3)
	for i := 0; i < ssaoNoiseSize*ssaoNoiseSize; i++ {
		noise = append(noise, rng.Float32()*2-1, rng.Float32()*2-1, 0)
	}
	return dev.CreateTexture(gpu.TextureDesc{
		Width:  ssaoNoiseSize,
		Height: ssaoNoiseSize,
		Format: gpu.FormatRGB32F,
		Filter: gpu.FilterNearest,
		Wrap:   gpu.WrapRepeat,
		Floats: noise,
	})
}
