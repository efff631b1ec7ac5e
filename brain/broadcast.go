package brain

import (
	"sync"

	"github.com/golang/glog"

	"golang.org/x/exp/maps"
)

type BroadcasterSettings struct {
	// per-client queued message budget. A client that falls this far
	// behind is considered stalled and is unregistered.
	SendBufferSize int
}

func DefaultBroadcasterSettings() *BroadcasterSettings {
	return &BroadcasterSettings{
		SendBufferSize: 32,
	}
}

// Broadcaster fans the canonical scene state out to every registered
// client channel. A send failure to one channel never blocks delivery
// to the others; the failing channel is unregistered.
type Broadcaster struct {
	store *SceneStore

	settings *BroadcasterSettings

	mutex    sync.Mutex
	channels map[Id]chan []byte
}

func NewBroadcasterWithDefaults(store *SceneStore) *Broadcaster {
	return NewBroadcaster(store, DefaultBroadcasterSettings())
}

func NewBroadcaster(store *SceneStore, settings *BroadcasterSettings) *Broadcaster {
	return &Broadcaster{
		store:    store,
		settings: settings,
		channels: map[Id]chan []byte{},
	}
}

// Register adds a client channel to the broadcast set and immediately
// queues the full current snapshot, so a client joining mid-session is
// not left with default state. The returned channel is closed on
// unregister.
func (self *Broadcaster) Register(clientId Id) chan []byte {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	channel := make(chan []byte, self.settings.SendBufferSize)
	self.channels[clientId] = channel

	if message, err := EncodeSceneMessage(self.store.Snapshot()); err == nil {
		// freshly created buffered channel, cannot block
		channel <- message
	}

	glog.V(1).Infof("[broadcast]register %s (%d clients)\n", clientId, len(self.channels))
	return channel
}

// Unregister removes a client channel. Safe to call more than once.
func (self *Broadcaster) Unregister(clientId Id) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	self.unregisterLocked(clientId)
}

func (self *Broadcaster) unregisterLocked(clientId Id) {
	if channel, ok := self.channels[clientId]; ok {
		delete(self.channels, clientId)
		close(channel)
		glog.V(1).Infof("[broadcast]unregister %s (%d clients)\n", clientId, len(self.channels))
	}
}

// Send queues a message to a single client. Returns false if the client
// is unknown or stalled.
func (self *Broadcaster) Send(clientId Id, message []byte) bool {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	channel, ok := self.channels[clientId]
	if !ok {
		return false
	}
	select {
	case channel <- message:
		return true
	default:
		self.unregisterLocked(clientId)
		return false
	}
}

// BroadcastState sends the current canonical snapshot to every
// registered channel. Called after every successful store apply. All
// channels observe state updates in apply order; a stalled channel is
// dropped rather than holding up the rest.
func (self *Broadcaster) BroadcastState() {
	message, err := EncodeSceneMessage(self.store.Snapshot())
	if err != nil {
		glog.Infof("[broadcast]encode error = %s\n", err)
		return
	}

	self.mutex.Lock()
	defer self.mutex.Unlock()

	var stalled []Id
	for clientId, channel := range self.channels {
		select {
		case channel <- message:
		default:
			stalled = append(stalled, clientId)
		}
	}
	for _, clientId := range stalled {
		glog.Infof("[broadcast]drop stalled %s\n", clientId)
		self.unregisterLocked(clientId)
	}
}

// ClientIds returns the ids of all currently registered channels.
func (self *Broadcaster) ClientIds() []Id {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return maps.Keys(self.channels)
}
