package brain

import (
	"slices"
)

// Merge combines a base document with a deep-partial patch and returns a
// new document. Neither input is mutated and the result shares no mutable
// substructure with either, so a later in-place mutation of the patch
// cannot corrupt the result.
//
// Scalar fields present in the patch replace the base value. dimensions
// is merged key-by-key so that patching one key never removes siblings.
// features is replaced wholesale when present.
func Merge(base SceneDocument, patch *ScenePatch) SceneDocument {
	next := base.Copy()
	if patch == nil {
		return next
	}

	if p := patch.Object; p != nil {
		if p.Name != nil {
			next.Object.Name = *p.Name
		}
		if p.Category != nil {
			next.Object.Category = *p.Category
		}
	}

	if p := patch.Presentation; p != nil {
		if p.Mode != nil {
			next.Presentation.Mode = *p.Mode
		}
		if p.Style != nil {
			next.Presentation.Style = *p.Style
		}
	}

	if p := patch.ShapeHint; p != nil {
		if p.Primitive != nil {
			next.ShapeHint.Primitive = *p.Primitive
		}
		if p.Features != nil {
			next.ShapeHint.Features = slices.Clone(p.Features)
		}
		if p.Dimensions != nil {
			next.ShapeHint.Dimensions = mergeDimensions(next.ShapeHint.Dimensions, p.Dimensions)
		}
	}

	if p := patch.Material; p != nil {
		if p.Preset != nil {
			next.Material.Preset = *p.Preset
		}
		if p.Color != nil {
			next.Material.Color = *p.Color
		}
		if p.Roughness != nil {
			next.Material.Roughness = *p.Roughness
		}
	}

	if p := patch.Camera; p != nil {
		if p.Orbit != nil {
			next.Camera.Orbit = *p.Orbit
		}
		if p.Distance != nil {
			next.Camera.Distance = *p.Distance
		}
		if p.Fov != nil {
			next.Camera.Fov = *p.Fov
		}
	}

	if p := patch.Lighting; p != nil {
		if p.Preset != nil {
			next.Lighting.Preset = *p.Preset
		}
	}

	if p := patch.Fx; p != nil {
		if p.Outline != nil {
			next.Fx.Outline = *p.Outline
		}
		if p.Bloom != nil {
			next.Fx.Bloom = *p.Bloom
		}
		if p.Alpha != nil {
			next.Fx.Alpha = *p.Alpha
		}
		if p.Rim != nil {
			next.Fx.Rim = *p.Rim
		}
		if p.EnvReflect != nil {
			next.Fx.EnvReflect = *p.EnvReflect
		}
	}

	if patch.Generating != nil {
		next.Generating = *patch.Generating
	}

	if patch.MeshUrl != nil {
		next.MeshUrl = copyPtr(patch.MeshUrl.Url)
	}

	return next
}

func mergeDimensions(base Dimensions, patch *Dimensions) Dimensions {
	next := base.Copy()
	if patch.Width != nil {
		next.Width = copyPtr(patch.Width)
	}
	if patch.Height != nil {
		next.Height = copyPtr(patch.Height)
	}
	if patch.Depth != nil {
		next.Depth = copyPtr(patch.Depth)
	}
	if patch.Radius != nil {
		next.Radius = copyPtr(patch.Radius)
	}
	if patch.Thickness != nil {
		next.Thickness = copyPtr(patch.Thickness)
	}
	if patch.Segments != nil {
		next.Segments = copyPtr(patch.Segments)
	}
	return next
}
