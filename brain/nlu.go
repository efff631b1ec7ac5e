package brain

import (
	"context"
	"regexp"
	"strings"
)

// rule-based command parser. The LLM parser supersedes this when an API
// key is configured; these rules are the offline fallback and the
// reference behavior for the demo commands.

type colorRule struct {
	rx    *regexp.Regexp
	color string
}

// longer color names first so "electric blue" wins over "blue"
var colorRules = []colorRule{
	{regexp.MustCompile(`\belectric blue\b`), "#1e3cff"},
	{regexp.MustCompile(`\bred\b`), "#ff2b2b"},
	{regexp.MustCompile(`\bblue\b`), "#2b6cff"},
	{regexp.MustCompile(`\bgreen\b`), "#2bff6c"},
	{regexp.MustCompile(`\bpurple\b`), "#8b5bff"},
	{regexp.MustCompile(`\bpink\b`), "#ff4bd8"},
	{regexp.MustCompile(`\borange\b`), "#ff8b2b"},
	{regexp.MustCompile(`\bwhite\b`), "#ffffff"},
	{regexp.MustCompile(`\bblack\b`), "#101014"},
}

type styleRule struct {
	keyword string
	style   string
}

var styleRules = []styleRule{
	{"futuristic", "futuristic_holo"},
	{"wireframe", "wireframe"},
	{"hologram", "futuristic_holo"},
	{"clay", "clay"},
	{"glossy", "glossy_studio"},
	{"matte", "matte_studio"},
}

type categoryRule struct {
	rx        *regexp.Regexp
	category  string
	primitive string
	features  []string
}

var categoryRules = []categoryRule{
	{regexp.MustCompile(`\b(phone|handset|smartphone)\b`), "consumer_electronics", "rounded_slab", []string{"camera_bump"}},
	{regexp.MustCompile(`\b(bottle|flask)\b`), "product_container", "cylinder", []string{}},
	{regexp.MustCompile(`\b(headset|headphones)\b`), "audio_device", "capsule", []string{}},
	{regexp.MustCompile(`\b(remote|controller)\b`), "controller", "rounded_box", []string{}},
}

var objectRx = regexp.MustCompile(`(show me|show|display|i want to see)\s+(an?\s+)?(.+)$`)
var hexColorRx = regexp.MustCompile(`#([0-9a-f]{6})\b`)
var whitespaceRx = regexp.MustCompile(`\s+`)

// RuleParser implements CommandParser with the regex rule table.
type RuleParser struct {
}

func NewRuleParser() *RuleParser {
	return &RuleParser{}
}

func (self *RuleParser) Parse(ctx context.Context, text string) (*ScenePatch, bool) {
	return ParseCommand(text)
}

// ParseCommand maps a free-text command to a scene patch. The second
// return is false when no rule matched, which is distinct from a patch
// with no effect.
func ParseCommand(text string) (*ScenePatch, bool) {
	t := whitespaceRx.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
	if t == "" {
		return nil, false
	}

	// alpha phrases are guarded before the object regex so "show it" is
	// not consumed as an object named "it"
	if strings.Contains(t, "hide it") {
		return &ScenePatch{Fx: &FxPatch{Alpha: ptr(0.0)}}, true
	}
	if strings.Contains(t, "show it") {
		return &ScenePatch{Fx: &FxPatch{Alpha: ptr(1.0)}}, true
	}

	// object commands run first. A style keyword embedded in the same
	// phrase ("show me a wireframe phone") lands in the same patch.
	if m := objectRx.FindStringSubmatch(t); m != nil {
		name := strings.Trim(strings.TrimSpace(m[3]), `'"`)
		patch := &ScenePatch{
			Object: &ObjectPatch{
				Name:     ptr(name),
				Category: ptr("generic"),
			},
			Presentation: &PresentationPatch{
				Mode: ptr("hero_on_pedestal"),
			},
			Camera: &CameraPatch{
				Orbit: ptr(true),
			},
		}
		for _, rule := range styleRules {
			if strings.Contains(t, rule.keyword) {
				patch.Presentation.Style = ptr(rule.style)
				break
			}
		}
		for _, rule := range categoryRules {
			if rule.rx.MatchString(name) {
				patch.Object.Category = ptr(rule.category)
				patch.ShapeHint = &ShapeHintPatch{
					Primitive: ptr(rule.primitive),
					Features:  append([]string{}, rule.features...),
				}
				break
			}
		}
		return patch, true
	}

	// style-only commands
	for _, rule := range styleRules {
		if strings.Contains(t, rule.keyword) {
			return &ScenePatch{
				Presentation: &PresentationPatch{Style: ptr(rule.style)},
			}, true
		}
	}

	// colors. Word boundaries keep "red" from matching inside "reduce".
	for _, rule := range colorRules {
		if rule.rx.MatchString(t) {
			return &ScenePatch{
				Material: &MaterialPatch{Color: ptr(rule.color)},
			}, true
		}
	}
	if m := hexColorRx.FindStringSubmatch(t); m != nil {
		return &ScenePatch{
			Material: &MaterialPatch{Color: ptr("#" + m[1])},
		}, true
	}

	// zoom
	if strings.Contains(t, "zoom in") || strings.Contains(t, "closer") {
		return &ScenePatch{Camera: &CameraPatch{Distance: ptr(1.6)}}, true
	}
	if strings.Contains(t, "zoom out") || strings.Contains(t, "further") {
		return &ScenePatch{Camera: &CameraPatch{Distance: ptr(3.2)}}, true
	}

	// orbit toggle. "stop" is checked first so "stop rotating" does not
	// match the "rotate" rule below.
	if strings.Contains(t, "stop rotating") || strings.Contains(t, "stop orbit") {
		return &ScenePatch{Camera: &CameraPatch{Orbit: ptr(false)}}, true
	}
	if strings.Contains(t, "start rotating") || strings.Contains(t, "rotate") || strings.Contains(t, "orbit") {
		return &ScenePatch{Camera: &CameraPatch{Orbit: ptr(true)}}, true
	}

	// enhance (rim + env_reflect)
	if strings.Contains(t, "remove enhance") || t == "plain" || t == "flat" {
		return &ScenePatch{Fx: &FxPatch{Rim: ptr(0.0), EnvReflect: ptr(0.0)}}, true
	}
	if strings.Contains(t, "enhance") || strings.Contains(t, "make it pop") || strings.Contains(t, "stand out") {
		return &ScenePatch{Fx: &FxPatch{Rim: ptr(0.6), EnvReflect: ptr(0.3)}}, true
	}
	if strings.Contains(t, "shiny") || strings.Contains(t, "shinier") {
		return &ScenePatch{
			Material: &MaterialPatch{Roughness: ptr(0.1)},
			Fx:       &FxPatch{Rim: ptr(0.4), EnvReflect: ptr(0.3)},
		}, true
	}
	if strings.Contains(t, "more rim") || strings.Contains(t, "more edge") {
		return &ScenePatch{Fx: &FxPatch{Rim: ptr(0.8)}}, true
	}
	if strings.Contains(t, "less rim") {
		return &ScenePatch{Fx: &FxPatch{Rim: ptr(0.2)}}, true
	}
	if strings.Contains(t, "more reflection") {
		return &ScenePatch{Fx: &FxPatch{EnvReflect: ptr(0.6)}}, true
	}
	if strings.Contains(t, "less reflection") {
		return &ScenePatch{Fx: &FxPatch{EnvReflect: ptr(0.1)}}, true
	}

	// fx knobs
	if strings.Contains(t, "more outline") {
		return &ScenePatch{Fx: &FxPatch{Outline: ptr(0.25)}}, true
	}
	if strings.Contains(t, "less outline") {
		return &ScenePatch{Fx: &FxPatch{Outline: ptr(0.05)}}, true
	}
	if strings.Contains(t, "more bloom") || strings.Contains(t, "glow") {
		return &ScenePatch{Fx: &FxPatch{Bloom: ptr(0.35)}}, true
	}
	if strings.Contains(t, "less bloom") || strings.Contains(t, "reduce bloom") {
		return &ScenePatch{Fx: &FxPatch{Bloom: ptr(0.05)}}, true
	}
	if strings.Contains(t, "fade out") {
		return &ScenePatch{Fx: &FxPatch{Alpha: ptr(0.0)}}, true
	}
	if strings.Contains(t, "fade in") {
		return &ScenePatch{Fx: &FxPatch{Alpha: ptr(1.0)}}, true
	}

	// unknown: no match, safe no-op for the caller to log or ignore
	return nil, false
}
