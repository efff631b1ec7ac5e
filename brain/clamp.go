package brain

import (
	"math"
)

// safe ranges for every numeric scene field. The canonical document must
// never hold a value outside these ranges. The camera fov range in
// particular keeps the renderer away from a divide-by-zero at fov=0 and
// an inverted frustum at extreme values.

const (
	CameraDistanceMin = 0.8
	CameraDistanceMax = 8.0
	CameraFovMin      = 5.0
	CameraFovMax      = 150.0

	RoughnessMin = 0.0
	RoughnessMax = 1.0

	FxOutlineMin    = 0.0
	FxOutlineMax    = 1.0
	FxBloomMin      = 0.0
	FxBloomMax      = 1.5
	FxAlphaMin      = 0.0
	FxAlphaMax      = 1.0
	FxRimMin        = 0.0
	FxRimMax        = 1.0
	FxEnvReflectMin = 0.0
	FxEnvReflectMax = 1.0

	DimensionExtentMin = 0.05
	DimensionExtentMax = 5.0
	DimensionRadiusMin = 0.05
	DimensionRadiusMax = 3.0
	ThicknessMin       = 0.01
	ThicknessMax       = 1.0
	SegmentsMin        = 8
	SegmentsMax        = 128
)

// Clamp forces every numeric field of the document into its safe range
// and returns a new document. Values outside a range move to the nearest
// bound. Clamp(Clamp(d)) == Clamp(d).
func Clamp(doc SceneDocument) SceneDocument {
	next := doc.Copy()

	next.Camera.Distance = clampFloat(next.Camera.Distance, CameraDistanceMin, CameraDistanceMax)
	next.Camera.Fov = clampFloat(next.Camera.Fov, CameraFovMin, CameraFovMax)

	next.Material.Roughness = clampFloat(next.Material.Roughness, RoughnessMin, RoughnessMax)

	next.Fx.Outline = clampFloat(next.Fx.Outline, FxOutlineMin, FxOutlineMax)
	next.Fx.Bloom = clampFloat(next.Fx.Bloom, FxBloomMin, FxBloomMax)
	next.Fx.Alpha = clampFloat(next.Fx.Alpha, FxAlphaMin, FxAlphaMax)
	next.Fx.Rim = clampFloat(next.Fx.Rim, FxRimMin, FxRimMax)
	next.Fx.EnvReflect = clampFloat(next.Fx.EnvReflect, FxEnvReflectMin, FxEnvReflectMax)

	// absent dimension keys stay absent. Copy already gave `next` its own
	// pointers, so clamping in place is safe.
	dimensions := &next.ShapeHint.Dimensions
	if dimensions.Width != nil {
		*dimensions.Width = clampFloat(*dimensions.Width, DimensionExtentMin, DimensionExtentMax)
	}
	if dimensions.Height != nil {
		*dimensions.Height = clampFloat(*dimensions.Height, DimensionExtentMin, DimensionExtentMax)
	}
	if dimensions.Depth != nil {
		*dimensions.Depth = clampFloat(*dimensions.Depth, DimensionExtentMin, DimensionExtentMax)
	}
	if dimensions.Radius != nil {
		*dimensions.Radius = clampFloat(*dimensions.Radius, DimensionRadiusMin, DimensionRadiusMax)
	}
	if dimensions.Thickness != nil {
		*dimensions.Thickness = clampFloat(*dimensions.Thickness, ThicknessMin, ThicknessMax)
	}
	if dimensions.Segments != nil {
		*dimensions.Segments = int(clampFloat(float64(*dimensions.Segments), SegmentsMin, SegmentsMax))
	}

	return next
}

func clampFloat(x float64, lo float64, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
