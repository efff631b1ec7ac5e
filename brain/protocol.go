package brain

import (
	"encoding/json"
	"fmt"
	"math"
)

// wire message types exchanged with renderer and controller clients
const (
	MessageTypeHello   = "hello"
	MessageTypeScene   = "scene"
	MessageTypeCommand = "command"
	MessageTypePatch   = "patch"
	MessageTypePing    = "ping"
	MessageTypeWarning = "warning"
)

const (
	RoleRenderer    = "renderer"
	RoleController  = "controller"
	RoleVoiceClient = "voice_client"
)

// Envelope is the union of all wire message shapes. Only the fields for
// the given Type are set.
type Envelope struct {
	Type string `json:"type"`

	// hello
	Role    string `json:"role,omitempty"`
	Version string `json:"version,omitempty"`
	Token   string `json:"token,omitempty"`

	// scene
	Scene json.RawMessage `json:"scene,omitempty"`

	// command
	Text   string `json:"text,omitempty"`
	Source string `json:"source,omitempty"`

	// patch
	Patch json.RawMessage `json:"patch,omitempty"`

	// warning
	Message string `json:"message,omitempty"`
}

func DecodeMessage(raw []byte) (*Envelope, error) {
	message := &Envelope{}
	if err := json.Unmarshal(raw, message); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if message.Type == "" {
		return nil, fmt.Errorf("decode message: missing type")
	}
	return message, nil
}

func EncodeSceneMessage(scene SceneDocument) ([]byte, error) {
	sceneJson, err := json.Marshal(scene)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Envelope{
		Type:  MessageTypeScene,
		Scene: sceneJson,
	})
}

func EncodeHelloMessage(role string, version string, token string) ([]byte, error) {
	return json.Marshal(&Envelope{
		Type:    MessageTypeHello,
		Role:    role,
		Version: version,
		Token:   token,
	})
}

func EncodeCommandMessage(text string, source string) ([]byte, error) {
	return json.Marshal(&Envelope{
		Type:   MessageTypeCommand,
		Text:   text,
		Source: source,
	})
}

func EncodePatchMessage(patch json.RawMessage) ([]byte, error) {
	return json.Marshal(&Envelope{
		Type:  MessageTypePatch,
		Patch: patch,
	})
}

func EncodeWarningMessage(message string) ([]byte, error) {
	return json.Marshal(&Envelope{
		Type:    MessageTypeWarning,
		Message: message,
	})
}

func EncodePingMessage() ([]byte, error) {
	return json.Marshal(&Envelope{
		Type: MessageTypePing,
	})
}

// DecodeScenePatch decodes a deep-partial patch tolerantly: fields of
// the wrong JSON type are skipped so the rest of the patch still
// applies, and unknown keys are ignored for forward compatibility.
// Only a document that is not a JSON object at the top level is an
// error.
func DecodeScenePatch(raw []byte) (*ScenePatch, error) {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}

	patch := &ScenePatch{}
	for key, value := range sections {
		switch key {
		case "object":
			if fields, ok := decodeSection(value); ok {
				p := &ObjectPatch{
					Name:     decodeString(fields["name"]),
					Category: decodeString(fields["category"]),
				}
				patch.Object = p
			}
		case "presentation":
			if fields, ok := decodeSection(value); ok {
				patch.Presentation = &PresentationPatch{
					Mode:  decodeString(fields["mode"]),
					Style: decodeString(fields["style"]),
				}
			}
		case "shape_hint":
			if fields, ok := decodeSection(value); ok {
				p := &ShapeHintPatch{
					Primitive: decodeString(fields["primitive"]),
				}
				if featuresJson, ok := fields["features"]; ok {
					var features []string
					if err := json.Unmarshal(featuresJson, &features); err == nil && features != nil {
						p.Features = features
					} else if err == nil {
						// explicit empty list clears features
						p.Features = []string{}
					}
				}
				if dimensionsJson, ok := fields["dimensions"]; ok {
					if dimensionFields, ok := decodeSection(dimensionsJson); ok {
						p.Dimensions = &Dimensions{
							Width:     decodeFloat(dimensionFields["width"]),
							Height:    decodeFloat(dimensionFields["height"]),
							Depth:     decodeFloat(dimensionFields["depth"]),
							Radius:    decodeFloat(dimensionFields["radius"]),
							Thickness: decodeFloat(dimensionFields["thickness"]),
							Segments:  decodeInt(dimensionFields["segments"]),
						}
					}
				}
				patch.ShapeHint = p
			}
		case "material":
			if fields, ok := decodeSection(value); ok {
				patch.Material = &MaterialPatch{
					Preset:    decodeString(fields["preset"]),
					Color:     decodeString(fields["color"]),
					Roughness: decodeFloat(fields["roughness"]),
				}
			}
		case "camera":
			if fields, ok := decodeSection(value); ok {
				patch.Camera = &CameraPatch{
					Orbit:    decodeBool(fields["orbit"]),
					Distance: decodeFloat(fields["distance"]),
					Fov:      decodeFloat(fields["fov"]),
				}
			}
		case "lighting":
			if fields, ok := decodeSection(value); ok {
				patch.Lighting = &LightingPatch{
					Preset: decodeString(fields["preset"]),
				}
			}
		case "fx":
			if fields, ok := decodeSection(value); ok {
				patch.Fx = &FxPatch{
					Outline:    decodeFloat(fields["outline"]),
					Bloom:      decodeFloat(fields["bloom"]),
					Alpha:      decodeFloat(fields["alpha"]),
					Rim:        decodeFloat(fields["rim"]),
					EnvReflect: decodeFloat(fields["env_reflect"]),
				}
			}
		case "generating":
			patch.Generating = decodeBool(value)
		case "mesh_url":
			// tri-state: absent = no change, null = clear, string = set
			var url *string
			if err := json.Unmarshal(value, &url); err == nil {
				patch.MeshUrl = &MeshUrlPatch{
					Url: url,
				}
			}
		default:
			// unknown section, ignore
		}
	}
	return patch, nil
}

func decodeSection(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if raw == nil {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

func decodeString(raw json.RawMessage) *string {
	if raw == nil {
		return nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}
	return &value
}

func decodeFloat(raw json.RawMessage) *float64 {
	if raw == nil {
		return nil
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}
	return &value
}

func decodeInt(raw json.RawMessage) *int {
	value := decodeFloat(raw)
	if value == nil {
		return nil
	}
	return ptr(int(math.Round(*value)))
}

func decodeBool(raw json.RawMessage) *bool {
	if raw == nil {
		return nil
	}
	var value bool
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}
	return &value
}
