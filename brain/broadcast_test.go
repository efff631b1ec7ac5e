package brain

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestBroadcastRegisterSendsSnapshot(t *testing.T) {
	store := NewSceneStore()
	broadcaster := NewBroadcasterWithDefaults(store)

	clientId := NewId()
	channel := broadcaster.Register(clientId)

	raw := <-channel
	message, err := DecodeMessage(raw)
	assert.Equal(t, nil, err)
	assert.Equal(t, MessageTypeScene, message.Type)

	var scene SceneDocument
	err = json.Unmarshal(message.Scene, &scene)
	assert.Equal(t, nil, err)
	assert.Equal(t, "demo object", scene.Object.Name)

	assert.Equal(t, []Id{clientId}, broadcaster.ClientIds())
}

func TestBroadcastFanOut(t *testing.T) {
	store := NewSceneStore()
	broadcaster := NewBroadcasterWithDefaults(store)

	channels := []chan []byte{}
	for i := 0; i < 3; i += 1 {
		channel := broadcaster.Register(NewId())
		// drain the registration snapshot
		<-channel
		channels = append(channels, channel)
	}

	store.Apply(&ScenePatch{
		Material: &MaterialPatch{Color: ptr("#ff0000")},
		Camera:   &CameraPatch{Distance: ptr(100.0)},
	})
	broadcaster.BroadcastState()

	var first []byte
	for _, channel := range channels {
		raw := <-channel
		if first == nil {
			first = raw
		} else {
			// every client sees the identical encoded state
			assert.Equal(t, string(first), string(raw))
		}

		message, err := DecodeMessage(raw)
		assert.Equal(t, nil, err)
		assert.Equal(t, MessageTypeScene, message.Type)

		var scene SceneDocument
		err = json.Unmarshal(message.Scene, &scene)
		assert.Equal(t, nil, err)
		assert.Equal(t, "#ff0000", scene.Material.Color)
		// broadcast state is post-clamp
		assert.Equal(t, 8.0, scene.Camera.Distance)

		// exactly one message per broadcast
		select {
		case extra := <-channel:
			t.Fatalf("unexpected extra message: %s", extra)
		default:
		}
	}
}

func TestBroadcastDropsStalledClient(t *testing.T) {
	store := NewSceneStore()
	broadcaster := NewBroadcaster(store, &BroadcasterSettings{
		SendBufferSize: 1,
	})

	stalledId := NewId()
	stalledChannel := broadcaster.Register(stalledId)
	// the registration snapshot fills the one-slot buffer; the stalled
	// client never reads it

	liveId := NewId()
	liveChannel := broadcaster.Register(liveId)
	<-liveChannel

	broadcaster.BroadcastState()

	// the stalled client is unregistered, the live one still receives
	assert.Equal(t, []Id{liveId}, broadcaster.ClientIds())
	<-liveChannel

	// its channel was closed after the buffered snapshot
	<-stalledChannel
	_, open := <-stalledChannel
	assert.Equal(t, false, open)
}

func TestBroadcastSend(t *testing.T) {
	store := NewSceneStore()
	broadcaster := NewBroadcasterWithDefaults(store)

	clientId := NewId()
	channel := broadcaster.Register(clientId)
	<-channel

	warning, err := EncodeWarningMessage("unrecognized command")
	assert.Equal(t, nil, err)
	assert.Equal(t, true, broadcaster.Send(clientId, warning))

	raw := <-channel
	message, err := DecodeMessage(raw)
	assert.Equal(t, nil, err)
	assert.Equal(t, MessageTypeWarning, message.Type)
	assert.Equal(t, "unrecognized command", message.Message)

	// unknown client
	assert.Equal(t, false, broadcaster.Send(NewId(), warning))

	broadcaster.Unregister(clientId)
	assert.Equal(t, false, broadcaster.Send(clientId, warning))
	// double unregister is safe
	broadcaster.Unregister(clientId)
}
