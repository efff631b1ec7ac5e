package brain

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestParseObjectCommands(t *testing.T) {
	patch, matched := ParseCommand("show me a phone prototype")
	assert.Equal(t, true, matched)
	assert.Equal(t, "phone prototype", *patch.Object.Name)
	assert.Equal(t, "consumer_electronics", *patch.Object.Category)
	assert.Equal(t, "rounded_slab", *patch.ShapeHint.Primitive)
	assert.Equal(t, []string{"camera_bump"}, patch.ShapeHint.Features)
	assert.Equal(t, true, *patch.Camera.Orbit)

	patch, matched = ParseCommand("show me a bottle")
	assert.Equal(t, true, matched)
	assert.Equal(t, "bottle", *patch.Object.Name)
	assert.Equal(t, "product_container", *patch.Object.Category)
	assert.Equal(t, "cylinder", *patch.ShapeHint.Primitive)

	patch, matched = ParseCommand("show a headset")
	assert.Equal(t, true, matched)
	assert.Equal(t, "headset", *patch.Object.Name)
	assert.Equal(t, "audio_device", *patch.Object.Category)

	patch, matched = ParseCommand("show me a widget")
	assert.Equal(t, true, matched)
	assert.Equal(t, "widget", *patch.Object.Name)
	assert.Equal(t, "generic", *patch.Object.Category)

	patch, matched = ParseCommand("display an electric car")
	assert.Equal(t, true, matched)
	assert.Equal(t, "electric car", *patch.Object.Name)
}

func TestParseObjectWithEmbeddedStyle(t *testing.T) {
	// the style keyword lands in the same patch as the object
	patch, matched := ParseCommand("show me a wireframe phone")
	assert.Equal(t, true, matched)
	assert.Equal(t, "wireframe phone", *patch.Object.Name)
	assert.Equal(t, "wireframe", *patch.Presentation.Style)
	assert.Equal(t, "consumer_electronics", *patch.Object.Category)
}

func TestParseColorCommands(t *testing.T) {
	patch, matched := ParseCommand("make it red")
	assert.Equal(t, true, matched)
	assert.Equal(t, "#ff2b2b", *patch.Material.Color)

	patch, _ = ParseCommand("make it blue")
	assert.Equal(t, "#2b6cff", *patch.Material.Color)

	// longer color names win over their suffixes
	patch, _ = ParseCommand("set color to electric blue")
	assert.Equal(t, "#1e3cff", *patch.Material.Color)

	patch, _ = ParseCommand("set color to #ff6b2b")
	assert.Equal(t, "#ff6b2b", *patch.Material.Color)

	// hex matching happens on the lowercased text
	patch, _ = ParseCommand("color #FF6B2B")
	assert.Equal(t, "#ff6b2b", *patch.Material.Color)

	// word boundaries: "red" must not match inside "reduce"
	patch, matched = ParseCommand("reduce bloom")
	assert.Equal(t, true, matched)
	assert.Equal(t, (*MaterialPatch)(nil), patch.Material)
	assert.Equal(t, 0.05, *patch.Fx.Bloom)
}

func TestParseCameraCommands(t *testing.T) {
	patch, _ := ParseCommand("zoom in")
	assert.Equal(t, 1.6, *patch.Camera.Distance)

	patch, _ = ParseCommand("get closer")
	assert.Equal(t, 1.6, *patch.Camera.Distance)

	patch, _ = ParseCommand("zoom out")
	assert.Equal(t, 3.2, *patch.Camera.Distance)

	patch, _ = ParseCommand("move further away")
	assert.Equal(t, 3.2, *patch.Camera.Distance)

	patch, _ = ParseCommand("start rotating")
	assert.Equal(t, true, *patch.Camera.Orbit)

	// "stop rotating" must not match the "rotate" rule
	patch, _ = ParseCommand("stop rotating")
	assert.Equal(t, false, *patch.Camera.Orbit)

	patch, _ = ParseCommand("orbit the camera")
	assert.Equal(t, true, *patch.Camera.Orbit)
}

func TestParseStyleCommands(t *testing.T) {
	patch, _ := ParseCommand("make it more futuristic")
	assert.Equal(t, "futuristic_holo", *patch.Presentation.Style)

	patch, _ = ParseCommand("hologram style")
	assert.Equal(t, "futuristic_holo", *patch.Presentation.Style)

	patch, _ = ParseCommand("make it glossy")
	assert.Equal(t, "glossy_studio", *patch.Presentation.Style)

	patch, _ = ParseCommand("clay render please")
	assert.Equal(t, "clay", *patch.Presentation.Style)
}

func TestParseFxCommands(t *testing.T) {
	patch, _ := ParseCommand("more outline")
	assert.Equal(t, 0.25, *patch.Fx.Outline)

	patch, _ = ParseCommand("less outline")
	assert.Equal(t, 0.05, *patch.Fx.Outline)

	patch, _ = ParseCommand("add more bloom")
	assert.Equal(t, 0.35, *patch.Fx.Bloom)

	patch, _ = ParseCommand("make it glow")
	assert.Equal(t, 0.35, *patch.Fx.Bloom)

	patch, _ = ParseCommand("fade out")
	assert.Equal(t, 0.0, *patch.Fx.Alpha)

	patch, _ = ParseCommand("fade in")
	assert.Equal(t, 1.0, *patch.Fx.Alpha)

	patch, _ = ParseCommand("make it shiny")
	assert.Equal(t, 0.1, *patch.Material.Roughness)
	assert.Equal(t, 0.4, *patch.Fx.Rim)
}

func TestParseAlphaPhrasesGuardedBeforeObject(t *testing.T) {
	// "show it" / "hide it" are alpha commands, not an object named "it"
	patch, matched := ParseCommand("show it")
	assert.Equal(t, true, matched)
	assert.Equal(t, (*ObjectPatch)(nil), patch.Object)
	assert.Equal(t, 1.0, *patch.Fx.Alpha)

	patch, matched = ParseCommand("hide it")
	assert.Equal(t, true, matched)
	assert.Equal(t, (*ObjectPatch)(nil), patch.Object)
	assert.Equal(t, 0.0, *patch.Fx.Alpha)
}

func TestParseNoMatch(t *testing.T) {
	patch, matched := ParseCommand("do a backflip")
	assert.Equal(t, false, matched)
	assert.Equal(t, (*ScenePatch)(nil), patch)

	_, matched = ParseCommand("")
	assert.Equal(t, false, matched)

	_, matched = ParseCommand("   ")
	assert.Equal(t, false, matched)
}

func TestParseNormalization(t *testing.T) {
	patch, matched := ParseCommand("MAKE IT RED")
	assert.Equal(t, true, matched)
	assert.Equal(t, "#ff2b2b", *patch.Material.Color)

	patch, matched = ParseCommand("show  me   a   phone")
	assert.Equal(t, true, matched)
	assert.Equal(t, "phone", *patch.Object.Name)
}
