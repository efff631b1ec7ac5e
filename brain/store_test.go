package brain

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestStoreDefaults(t *testing.T) {
	store := NewSceneStore()
	scene := store.Snapshot()

	assert.Equal(t, "demo object", scene.Object.Name)
	assert.Equal(t, "generic", scene.Object.Category)
	assert.Equal(t, true, scene.Camera.Orbit)
	assert.Equal(t, 2.2, scene.Camera.Distance)
	assert.Equal(t, 1.0, scene.Fx.Alpha)
}

func TestStoreSequentialMerge(t *testing.T) {
	store := NewSceneStore()

	store.Apply(&ScenePatch{
		Material: &MaterialPatch{Color: ptr("#ff0000")},
	})
	store.Apply(&ScenePatch{
		Material: &MaterialPatch{Roughness: ptr(0.9)},
	})
	scene := store.Apply(&ScenePatch{
		Camera: &CameraPatch{Distance: ptr(3.0)},
	})

	assert.Equal(t, "#ff0000", scene.Material.Color)
	assert.Equal(t, 0.9, scene.Material.Roughness)
	assert.Equal(t, 3.0, scene.Camera.Distance)
	// untouched fields keep their original defaults
	assert.Equal(t, "plastic_gloss", scene.Material.Preset)
	assert.Equal(t, 35.0, scene.Camera.Fov)
	assert.Equal(t, true, scene.Camera.Orbit)
	assert.Equal(t, "studio_softbox", scene.Lighting.Preset)
}

func TestStoreAppliesClamp(t *testing.T) {
	store := NewSceneStore()

	scene := store.Apply(&ScenePatch{
		Camera: &CameraPatch{
			Distance: ptr(100.0),
			Fov:      ptr(0.0),
		},
	})
	assert.Equal(t, 8.0, scene.Camera.Distance)
	assert.Equal(t, 5.0, scene.Camera.Fov)
}

func TestStoreNoAliasing(t *testing.T) {
	store := NewSceneStore()

	patch := &ScenePatch{
		ShapeHint: &ShapeHintPatch{
			Features: []string{"camera_bump"},
			Dimensions: &Dimensions{
				Width: ptr(1.5),
			},
		},
		Material: &MaterialPatch{
			Color: ptr("#112233"),
		},
	}
	store.Apply(patch)

	// mutating the caller's patch after apply must not change canonical
	// state
	patch.ShapeHint.Features[0] = "mutated"
	*patch.ShapeHint.Dimensions.Width = 99.0
	*patch.Material.Color = "#999999"

	scene := store.Snapshot()
	assert.Equal(t, []string{"camera_bump"}, scene.ShapeHint.Features)
	assert.Equal(t, 1.5, *scene.ShapeHint.Dimensions.Width)
	assert.Equal(t, "#112233", scene.Material.Color)
}

func TestStoreSnapshotIsolation(t *testing.T) {
	store := NewSceneStore()

	snapshot := store.Snapshot()
	snapshot.Object.Name = "mutated"
	snapshot.ShapeHint.Features = append(snapshot.ShapeHint.Features, "spike")
	*snapshot.ShapeHint.Dimensions.Width = 99.0

	scene := store.Snapshot()
	assert.Equal(t, "demo object", scene.Object.Name)
	assert.Equal(t, []string{}, scene.ShapeHint.Features)
	assert.Equal(t, 0.5, *scene.ShapeHint.Dimensions.Width)
}

func TestStoreGeneratingLifecycle(t *testing.T) {
	store := NewSceneStore()

	scene := store.Apply(&ScenePatch{
		Generating: ptr(true),
		MeshUrl:    &MeshUrlPatch{},
	})
	assert.Equal(t, true, scene.Generating)
	assert.Equal(t, (*string)(nil), scene.MeshUrl)

	url := "http://localhost:8766/phone.ply"
	scene = store.Apply(&ScenePatch{
		Generating: ptr(false),
		MeshUrl:    &MeshUrlPatch{Url: &url},
	})
	assert.Equal(t, false, scene.Generating)
	assert.Equal(t, url, *scene.MeshUrl)
}
