package brain

import (
	"slices"
)

// the scene document is the single canonical state for a session
// every top-level section always exists in the canonical document;
// patches are deep-partial and never remove sections

type ObjectSection struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type PresentationSection struct {
	Mode  string `json:"mode"`
	Style string `json:"style"`
}

// Dimensions is an independently addressable sub-mapping of shape_hint.
// A nil field means "unset, inherit default" and must survive merges of
// sibling keys.
type Dimensions struct {
	Width     *float64 `json:"width,omitempty"`
	Height    *float64 `json:"height,omitempty"`
	Depth     *float64 `json:"depth,omitempty"`
	Radius    *float64 `json:"radius,omitempty"`
	Thickness *float64 `json:"thickness,omitempty"`
	Segments  *int     `json:"segments,omitempty"`
}

func (self Dimensions) Copy() Dimensions {
	return Dimensions{
		Width:     copyPtr(self.Width),
		Height:    copyPtr(self.Height),
		Depth:     copyPtr(self.Depth),
		Radius:    copyPtr(self.Radius),
		Thickness: copyPtr(self.Thickness),
		Segments:  copyPtr(self.Segments),
	}
}

type ShapeHintSection struct {
	Primitive  string     `json:"primitive"`
	Features   []string   `json:"features"`
	Dimensions Dimensions `json:"dimensions"`
}

type MaterialSection struct {
	Preset    string  `json:"preset"`
	Color     string  `json:"color"`
	Roughness float64 `json:"roughness"`
}

type CameraSection struct {
	Orbit    bool    `json:"orbit"`
	Distance float64 `json:"distance"`
	Fov      float64 `json:"fov"`
}

type LightingSection struct {
	Preset string `json:"preset"`
}

type FxSection struct {
	Outline    float64 `json:"outline"`
	Bloom      float64 `json:"bloom"`
	Alpha      float64 `json:"alpha"`
	Rim        float64 `json:"rim"`
	EnvReflect float64 `json:"env_reflect"`
}

type SceneDocument struct {
	Object       ObjectSection       `json:"object"`
	Presentation PresentationSection `json:"presentation"`
	ShapeHint    ShapeHintSection    `json:"shape_hint"`
	Material     MaterialSection     `json:"material"`
	Camera       CameraSection       `json:"camera"`
	Lighting     LightingSection     `json:"lighting"`
	Fx           FxSection           `json:"fx"`
	Generating   bool                `json:"generating"`
	MeshUrl      *string             `json:"mesh_url"`
}

// DefaultScene returns a fresh document with the session defaults.
// Each call returns an independent copy.
func DefaultScene() SceneDocument {
	return SceneDocument{
		Object: ObjectSection{
			Name:     "demo object",
			Category: "generic",
		},
		Presentation: PresentationSection{
			Mode:  "hero_on_pedestal",
			Style: "glossy_studio",
		},
		ShapeHint: ShapeHintSection{
			Primitive: "rounded_box",
			Features:  []string{},
			Dimensions: Dimensions{
				Width:    ptr(0.5),
				Height:   ptr(1.0),
				Depth:    ptr(0.2),
				Radius:   ptr(0.05),
				Segments: ptr(8),
			},
		},
		Material: MaterialSection{
			Preset:    "plastic_gloss",
			Color:     "#4b7bff",
			Roughness: 0.35,
		},
		Camera: CameraSection{
			Orbit:    true,
			Distance: 2.2,
			Fov:      35,
		},
		Lighting: LightingSection{
			Preset: "studio_softbox",
		},
		Fx: FxSection{
			Outline:    0.12,
			Bloom:      0.15,
			Alpha:      1.0,
			Rim:        0.0,
			EnvReflect: 0.0,
		},
		Generating: false,
		MeshUrl:    nil,
	}
}

// Copy returns a document that shares no mutable substructure with the
// receiver.
func (self SceneDocument) Copy() SceneDocument {
	next := self
	next.ShapeHint.Features = slices.Clone(self.ShapeHint.Features)
	next.ShapeHint.Dimensions = self.ShapeHint.Dimensions.Copy()
	next.MeshUrl = copyPtr(self.MeshUrl)
	return next
}

// deep-partial patch types. A nil field means "no change".

type ObjectPatch struct {
	Name     *string
	Category *string
}

type PresentationPatch struct {
	Mode  *string
	Style *string
}

type ShapeHintPatch struct {
	Primitive *string
	// Features is replaced wholesale when non-nil (no list merge)
	Features   []string
	Dimensions *Dimensions
}

type MaterialPatch struct {
	Preset    *string
	Color     *string
	Roughness *float64
}

type CameraPatch struct {
	Orbit    *bool
	Distance *float64
	Fov      *float64
}

type LightingPatch struct {
	Preset *string
}

type FxPatch struct {
	Outline    *float64
	Bloom      *float64
	Alpha      *float64
	Rim        *float64
	EnvReflect *float64
}

// MeshUrlPatch distinguishes "clear the mesh url" (Url nil) from
// "set the mesh url". An absent patch field is a nil *MeshUrlPatch.
type MeshUrlPatch struct {
	Url *string
}

type ScenePatch struct {
	Object       *ObjectPatch
	Presentation *PresentationPatch
	ShapeHint    *ShapeHintPatch
	Material     *MaterialPatch
	Camera       *CameraPatch
	Lighting     *LightingPatch
	Fx           *FxPatch
	Generating   *bool
	MeshUrl      *MeshUrlPatch
}

// IsEmpty reports whether applying the patch can have no effect.
func (self *ScenePatch) IsEmpty() bool {
	return self == nil ||
		self.Object == nil &&
			self.Presentation == nil &&
			self.ShapeHint == nil &&
			self.Material == nil &&
			self.Camera == nil &&
			self.Lighting == nil &&
			self.Fx == nil &&
			self.Generating == nil &&
			self.MeshUrl == nil
}

// Copy returns a patch that shares no mutable substructure with the
// receiver. The store copies every inbound patch so that a caller
// mutating its patch after Apply cannot corrupt canonical state.
func (self *ScenePatch) Copy() *ScenePatch {
	if self == nil {
		return nil
	}
	next := &ScenePatch{}
	if self.Object != nil {
		next.Object = &ObjectPatch{
			Name:     copyPtr(self.Object.Name),
			Category: copyPtr(self.Object.Category),
		}
	}
	if self.Presentation != nil {
		next.Presentation = &PresentationPatch{
			Mode:  copyPtr(self.Presentation.Mode),
			Style: copyPtr(self.Presentation.Style),
		}
	}
	if self.ShapeHint != nil {
		next.ShapeHint = &ShapeHintPatch{
			Primitive: copyPtr(self.ShapeHint.Primitive),
		}
		if self.ShapeHint.Features != nil {
			next.ShapeHint.Features = slices.Clone(self.ShapeHint.Features)
		}
		if self.ShapeHint.Dimensions != nil {
			dimensions := self.ShapeHint.Dimensions.Copy()
			next.ShapeHint.Dimensions = &dimensions
		}
	}
	if self.Material != nil {
		next.Material = &MaterialPatch{
			Preset:    copyPtr(self.Material.Preset),
			Color:     copyPtr(self.Material.Color),
			Roughness: copyPtr(self.Material.Roughness),
		}
	}
	if self.Camera != nil {
		next.Camera = &CameraPatch{
			Orbit:    copyPtr(self.Camera.Orbit),
			Distance: copyPtr(self.Camera.Distance),
			Fov:      copyPtr(self.Camera.Fov),
		}
	}
	if self.Lighting != nil {
		next.Lighting = &LightingPatch{
			Preset: copyPtr(self.Lighting.Preset),
		}
	}
	if self.Fx != nil {
		next.Fx = &FxPatch{
			Outline:    copyPtr(self.Fx.Outline),
			Bloom:      copyPtr(self.Fx.Bloom),
			Alpha:      copyPtr(self.Fx.Alpha),
			Rim:        copyPtr(self.Fx.Rim),
			EnvReflect: copyPtr(self.Fx.EnvReflect),
		}
	}
	next.Generating = copyPtr(self.Generating)
	if self.MeshUrl != nil {
		next.MeshUrl = &MeshUrlPatch{
			Url: copyPtr(self.MeshUrl.Url),
		}
	}
	return next
}

func ptr[T any](value T) *T {
	return &value
}

func copyPtr[T any](value *T) *T {
	if value == nil {
		return nil
	}
	out := *value
	return &out
}
