package brain

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/gorilla/websocket"
)

// connection state machine:
// disconnected -> connecting -> connected -> disconnected (retry)
//                                         -> closing -> disconnected (terminal)
type ConnectionState string

const (
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
	ConnectionStateClosing      ConnectionState = "closing"
)

type SyncAgentSettings struct {
	WsHandshakeTimeout time.Duration
	WriteTimeout       time.Duration
	PingTimeout        time.Duration
	// reconnect backoff starts at Min, doubles per consecutive failure
	// up to Max, and resets to Min after any successful connection
	ReconnectMinTimeout time.Duration
	ReconnectMaxTimeout time.Duration
}

func DefaultSyncAgentSettings() *SyncAgentSettings {
	return &SyncAgentSettings{
		WsHandshakeTimeout:  2 * time.Second,
		WriteTimeout:        5 * time.Second,
		PingTimeout:         30 * time.Second,
		ReconnectMinTimeout: 500 * time.Millisecond,
		ReconnectMaxTimeout: 8 * time.Second,
	}
}

// capped geometric backoff for reconnect attempts
type reconnectBackoff struct {
	min     time.Duration
	max     time.Duration
	timeout time.Duration
}

func newReconnectBackoff(min time.Duration, max time.Duration) *reconnectBackoff {
	return &reconnectBackoff{
		min:     min,
		max:     max,
		timeout: min,
	}
}

// Next returns the delay before the next attempt and advances the
// backoff.
func (self *reconnectBackoff) Next() time.Duration {
	timeout := self.timeout
	if 2*self.timeout <= self.max {
		self.timeout = 2 * self.timeout
	} else {
		self.timeout = self.max
	}
	return timeout
}

func (self *reconnectBackoff) Reset() {
	self.timeout = self.min
}

// SyncAgent keeps a local shadow copy of the scene document in sync
// with the server. Inbound snapshots are merged into the default
// document with the same merger the server uses, so the shadow is never
// missing a section the defaults define. The agent reconnects with
// capped geometric backoff and re-announces itself on every connect.
type SyncAgent struct {
	ctx    context.Context
	cancel context.CancelFunc

	url     string
	role    string
	version string

	settings *SyncAgentSettings

	mutex           sync.Mutex
	scene           SceneDocument
	connectionState ConnectionState

	stateCallbacks *callbackList[func(ConnectionState)]
	sceneCallbacks *callbackList[func(SceneDocument)]
}

func NewSyncAgentWithDefaults(ctx context.Context, url string, role string, version string) *SyncAgent {
	return NewSyncAgent(ctx, url, role, version, DefaultSyncAgentSettings())
}

func NewSyncAgent(
	ctx context.Context,
	url string,
	role string,
	version string,
	settings *SyncAgentSettings,
) *SyncAgent {
	cancelCtx, cancel := context.WithCancel(ctx)
	agent := &SyncAgent{
		ctx:             cancelCtx,
		cancel:          cancel,
		url:             url,
		role:            role,
		version:         version,
		settings:        settings,
		scene:           DefaultScene(),
		connectionState: ConnectionStateDisconnected,
		stateCallbacks:  newCallbackList[func(ConnectionState)](),
		sceneCallbacks:  newCallbackList[func(SceneDocument)](),
	}
	go agent.run()
	return agent
}

func (self *SyncAgent) run() {
	defer func() {
		self.setConnectionState(ConnectionStateClosing)
		self.setConnectionState(ConnectionStateDisconnected)
	}()

	backoff := newReconnectBackoff(
		self.settings.ReconnectMinTimeout,
		self.settings.ReconnectMaxTimeout,
	)

	for {
		select {
		case <-self.ctx.Done():
			return
		default:
		}

		self.setConnectionState(ConnectionStateConnecting)

		ws, err := self.connect()
		if err != nil {
			glog.V(1).Infof("[agent]connect error = %s\n", err)
			self.setConnectionState(ConnectionStateDisconnected)
			select {
			case <-self.ctx.Done():
				return
			case <-time.After(backoff.Next()):
			}
			continue
		}

		self.setConnectionState(ConnectionStateConnected)
		backoff.Reset()

		self.readLoop(ws)

		self.setConnectionState(ConnectionStateDisconnected)
		select {
		case <-self.ctx.Done():
			return
		case <-time.After(backoff.Next()):
		}
	}
}

func (self *SyncAgent) connect() (*websocket.Conn, error) {
	dialer := &websocket.Dialer{
		HandshakeTimeout: self.settings.WsHandshakeTimeout,
	}
	ws, _, err := dialer.DialContext(self.ctx, self.url, nil)
	if err != nil {
		return nil, err
	}

	success := false
	defer func() {
		if !success {
			ws.Close()
		}
	}()

	// re-announce identity so the server re-registers this channel
	hello, err := EncodeHelloMessage(self.role, self.version, "")
	if err != nil {
		return nil, err
	}
	ws.SetWriteDeadline(time.Now().Add(self.settings.WriteTimeout))
	if err := ws.WriteMessage(websocket.TextMessage, hello); err != nil {
		return nil, err
	}

	success = true
	return ws, nil
}

func (self *SyncAgent) readLoop(ws *websocket.Conn) {
	defer ws.Close()

	readCtx, readCancel := context.WithCancel(self.ctx)
	defer readCancel()

	// closing the conn is the only way to unblock a pending ReadMessage,
	// so the conn's lifetime is tied to the context
	go func() {
		<-readCtx.Done()
		ws.Close()
	}()

	// periodic pings keep idle connections alive through proxies
	go func() {
		defer readCancel()

		for {
			select {
			case <-readCtx.Done():
				return
			case <-time.After(self.settings.PingTimeout):
				ping, err := EncodePingMessage()
				if err != nil {
					return
				}
				ws.SetWriteDeadline(time.Now().Add(self.settings.WriteTimeout))
				if err := ws.WriteMessage(websocket.TextMessage, ping); err != nil {
					return
				}
			}
		}
	}()

	for {
		select {
		case <-readCtx.Done():
			return
		default:
		}

		_, raw, err := ws.ReadMessage()
		if err != nil {
			glog.V(1).Infof("[agent]<- closed = %s\n", err)
			return
		}

		message, err := DecodeMessage(raw)
		if err != nil {
			glog.V(1).Infof("[agent]<- bad message = %s\n", err)
			continue
		}

		switch message.Type {
		case MessageTypeScene:
			self.applySnapshot(message.Scene)
		case MessageTypeWarning:
			glog.Infof("[agent]warning: %s\n", message.Message)
		default:
			glog.V(2).Infof("[agent]other=%s<-\n", message.Type)
		}
	}
}

// applySnapshot treats the full-state message as a patch against the
// default document, applied with the shared merger. Any field the
// server leaves implicit keeps its documented default.
func (self *SyncAgent) applySnapshot(raw []byte) {
	patch, err := DecodeScenePatch(raw)
	if err != nil {
		glog.V(1).Infof("[agent]bad snapshot = %s\n", err)
		return
	}

	self.mutex.Lock()
	self.scene = Merge(DefaultScene(), patch)
	scene := self.scene.Copy()
	self.mutex.Unlock()

	for _, callback := range self.sceneCallbacks.get() {
		callback(scene)
	}
}

// LocalScene returns a copy of the shadow document.
func (self *SyncAgent) LocalScene() SceneDocument {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return self.scene.Copy()
}

func (self *SyncAgent) ConnectionState() ConnectionState {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return self.connectionState
}

func (self *SyncAgent) setConnectionState(connectionState ConnectionState) {
	self.mutex.Lock()
	if self.connectionState == connectionState {
		self.mutex.Unlock()
		return
	}
	self.connectionState = connectionState
	self.mutex.Unlock()

	for _, callback := range self.stateCallbacks.get() {
		callback(connectionState)
	}
}

// AddConnectionStateCallback registers a callback for state machine
// transitions. Returns a function that removes the callback.
func (self *SyncAgent) AddConnectionStateCallback(callback func(ConnectionState)) func() {
	return self.stateCallbacks.add(callback)
}

// AddSceneCallback registers a callback for shadow document updates.
// Returns a function that removes the callback.
func (self *SyncAgent) AddSceneCallback(callback func(SceneDocument)) func() {
	return self.sceneCallbacks.add(callback)
}

// Close shuts the agent down and suppresses any pending reconnect.
func (self *SyncAgent) Close() {
	self.cancel()
}
