package brain

import (
	"context"
	"strings"

	"github.com/golang/glog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const llmSystemPrompt = `You are a command parser for a 3D scene renderer. Parse natural language into structured scene commands.

Available primitives: rounded_box, rounded_slab, cylinder, sphere, capsule, torus
Available categories: generic, consumer_electronics, product_container, audio_device, controller
Available colors: red, blue, green, purple, pink, orange, white, black, electric blue, or hex codes
Available styles: futuristic_holo, wireframe, clay, glossy_studio, matte_studio

Return ONLY valid JSON matching this schema:
{
  "object": {"name": str, "category": str} (optional),
  "shape_hint": {
    "primitive": str,
    "features": list,
    "dimensions": {
      "width": float (0.05-5.0),
      "height": float (0.05-5.0),
      "depth": float (0.05-5.0),
      "radius": float (0.05-3.0),
      "thickness": float (0.01-1.0),
      "segments": int (8-128)
    } (optional)
  } (optional),
  "material": {"color": str, "roughness": float} (optional),
  "camera": {"orbit": bool, "distance": float} (optional),
  "presentation": {"style": str} (optional),
  "fx": {"outline": float, "bloom": float, "alpha": float} (optional)
}

Dimension Adjective Mapping:
- "tall" -> increase height (e.g., height: 1.5-2.0)
- "short" -> decrease height (e.g., height: 0.3-0.6)
- "wide" -> increase width (e.g., width: 1.2-1.8)
- "narrow" / "thin" -> decrease width (e.g., width: 0.2-0.4)
- "thick" -> increase depth or thickness (e.g., depth: 0.5-0.8)
- "small" -> decrease all dimensions (e.g., radius: 0.3, height: 0.5)
- "large" / "big" -> increase all dimensions (e.g., radius: 1.0, height: 1.5)

Examples:
"show me a phone" -> {"object": {"name": "phone", "category": "consumer_electronics"}, "shape_hint": {"primitive": "rounded_box", "features": [], "dimensions": {"width": 0.35, "height": 0.75, "depth": 0.08}}, "camera": {"orbit": true}}
"make it red" -> {"material": {"color": "#ff2b2b"}}
"make it wider" -> {"shape_hint": {"dimensions": {"width": 1.2}}}
"zoom in" -> {"camera": {"distance": 1.6}}
"more bloom" -> {"fx": {"bloom": 0.35}}

Only include fields that are mentioned in the command. Return {} for unknown commands.`

const DefaultLlmModel = "claude-sonnet-4-5"

// LlmParser parses commands with the Claude API and falls back to the
// rule parser when the call fails or returns unusable output.
type LlmParser struct {
	client   anthropic.Client
	model    string
	fallback *RuleParser
}

func NewLlmParser(apiKey string, model string) *LlmParser {
	if model == "" {
		model = DefaultLlmModel
	}
	return &LlmParser{
		client:   anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:    model,
		fallback: NewRuleParser(),
	}
}

func (self *LlmParser) Parse(ctx context.Context, text string) (*ScenePatch, bool) {
	message, err := self.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(self.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: llmSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		glog.Infof("[llm]error = %s\n", err)
		return self.fallback.Parse(ctx, text)
	}
	if len(message.Content) == 0 {
		return self.fallback.Parse(ctx, text)
	}

	content := stripJsonFence(message.Content[0].Text)
	patch, err := DecodeScenePatch([]byte(content))
	if err != nil {
		glog.Infof("[llm]bad json = %s\n", err)
		return self.fallback.Parse(ctx, text)
	}
	if patch.IsEmpty() {
		// the model reports unknown commands as {}
		return nil, false
	}
	return patch, true
}

func stripJsonFence(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
