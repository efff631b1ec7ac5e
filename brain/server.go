package brain

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/gorilla/websocket"
)

// CommandParser turns free text into a scene patch. The second return
// distinguishes "no recognizable command" from a match that happens to
// carry no effect.
type CommandParser interface {
	Parse(ctx context.Context, text string) (*ScenePatch, bool)
}

// MeshGenerator is the external mesh/geometry boundary. Generate
// returns a url for the produced mesh, and warned=true when the
// primitive was unrecognized and the default was used instead.
type MeshGenerator interface {
	Generate(ctx context.Context, prompt string, primitive string, dimensions Dimensions) (url string, warned bool, err error)
}

type ServerSettings struct {
	WriteTimeout time.Duration
	// a connection silent for this long is considered dead. Clients
	// ping well inside the window.
	ReadTimeout time.Duration
	// maximum inbound message size. Patches are small; anything larger
	// is a misbehaving client.
	ReadLimit int64
}

func DefaultServerSettings() *ServerSettings {
	return &ServerSettings{
		WriteTimeout: 5 * time.Second,
		ReadTimeout:  90 * time.Second,
		ReadLimit:    1024 * 1024,
	}
}

// Server is the websocket endpoint for one scene session. Each
// connection is registered with the broadcaster and fed the canonical
// state; command and patch messages mutate the store and trigger a
// broadcast.
type Server struct {
	ctx    context.Context
	cancel context.CancelFunc

	store       *SceneStore
	broadcaster *Broadcaster
	parser      CommandParser
	// nil disables mesh generation
	generator MeshGenerator

	allowedOrigins []string
	authSecret     string

	settings *ServerSettings

	upgrader websocket.Upgrader

	generateMutex  sync.Mutex
	generateCancel context.CancelFunc
}

func NewServerWithDefaults(
	ctx context.Context,
	store *SceneStore,
	broadcaster *Broadcaster,
	parser CommandParser,
	generator MeshGenerator,
) *Server {
	return NewServer(ctx, store, broadcaster, parser, generator, nil, "", DefaultServerSettings())
}

func NewServer(
	ctx context.Context,
	store *SceneStore,
	broadcaster *Broadcaster,
	parser CommandParser,
	generator MeshGenerator,
	allowedOrigins []string,
	authSecret string,
	settings *ServerSettings,
) *Server {
	cancelCtx, cancel := context.WithCancel(ctx)
	server := &Server{
		ctx:            cancelCtx,
		cancel:         cancel,
		store:          store,
		broadcaster:    broadcaster,
		parser:         parser,
		generator:      generator,
		allowedOrigins: allowedOrigins,
		authSecret:     authSecret,
		settings:       settings,
	}
	server.upgrader = websocket.Upgrader{
		CheckOrigin: server.checkOrigin,
	}
	return server
}

func (self *Server) checkOrigin(r *http.Request) bool {
	if len(self.allowedOrigins) == 0 || slices.Contains(self.allowedOrigins, "*") {
		return true
	}
	return slices.Contains(self.allowedOrigins, r.Header.Get("Origin"))
}

func (self *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := self.upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Infof("[server]upgrade error = %s\n", err)
		return
	}
	self.handle(ws)
}

func (self *Server) handle(ws *websocket.Conn) {
	defer ws.Close()

	clientId := NewId()

	handleCtx, handleCancel := context.WithCancel(self.ctx)
	defer handleCancel()

	send := self.broadcaster.Register(clientId)
	defer self.broadcaster.Unregister(clientId)

	// single writer for this connection
	go func() {
		defer func() {
			handleCancel()
			ws.Close()
		}()

		for {
			select {
			case <-handleCtx.Done():
				return
			case message, ok := <-send:
				if !ok {
					return
				}
				ws.SetWriteDeadline(time.Now().Add(self.settings.WriteTimeout))
				if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
					glog.Infof("[server]%s-> error = %s\n", clientId, err)
					return
				}
				glog.V(2).Infof("[server]%s->\n", clientId)
			}
		}
	}()

	// without a secret every connection may control the scene
	authorized := self.authSecret == ""

	ws.SetReadLimit(self.settings.ReadLimit)
	for {
		select {
		case <-handleCtx.Done():
			return
		default:
		}

		ws.SetReadDeadline(time.Now().Add(self.settings.ReadTimeout))
		_, raw, err := ws.ReadMessage()
		if err != nil {
			glog.V(1).Infof("[server]%s<- closed = %s\n", clientId, err)
			return
		}

		message, err := DecodeMessage(raw)
		if err != nil {
			glog.V(1).Infof("[server]%s<- bad message = %s\n", clientId, err)
			continue
		}

		switch message.Type {
		case MessageTypeHello:
			authorized = self.handleHello(clientId, message, authorized)
		case MessageTypePing:
			// liveness only
			glog.V(2).Infof("[server]ping %s<-\n", clientId)
		case MessageTypeCommand:
			if !authorized {
				self.warn(clientId, "not authorized")
				continue
			}
			self.handleCommand(handleCtx, clientId, message.Text)
		case MessageTypePatch:
			if !authorized {
				self.warn(clientId, "not authorized")
				continue
			}
			self.handlePatch(clientId, message.Patch)
		default:
			// ignore unknown messages
			glog.V(2).Infof("[server]other=%s %s<-\n", message.Type, clientId)
		}
	}
}

func (self *Server) handleHello(clientId Id, message *Envelope, authorized bool) bool {
	glog.V(1).Infof("[server]hello %s role=%s version=%s\n", clientId, message.Role, message.Version)
	if authorized {
		return true
	}
	switch message.Role {
	case RoleController, RoleVoiceClient:
		if _, err := VerifyControlToken(self.authSecret, message.Token); err != nil {
			glog.Infof("[server]auth error %s = %s\n", clientId, err)
			self.warn(clientId, "not authorized")
			return false
		}
		return true
	default:
		// renderers are read-only and need no token
		return false
	}
}

func (self *Server) handleCommand(ctx context.Context, clientId Id, text string) {
	patch, matched := self.parser.Parse(ctx, text)
	if !matched {
		glog.V(1).Infof("[server]no match %s %q\n", clientId, text)
		self.warn(clientId, "command not recognized")
		return
	}
	self.applyAndBroadcast(patch)
}

func (self *Server) handlePatch(clientId Id, raw []byte) {
	if len(raw) == 0 {
		return
	}
	patch, err := DecodeScenePatch(raw)
	if err != nil {
		glog.V(1).Infof("[server]bad patch %s = %s\n", clientId, err)
		self.warn(clientId, "malformed patch")
		return
	}
	self.applyAndBroadcast(patch)
}

func (self *Server) applyAndBroadcast(patch *ScenePatch) {
	if patch.IsEmpty() {
		return
	}
	self.store.Apply(patch)
	self.broadcaster.BroadcastState()

	// a patch that names a new object starts a mesh generation job,
	// superseding any job still in flight
	if patch.Object != nil && patch.Object.Name != nil {
		self.startGeneration(*patch.Object.Name)
	}
}

func (self *Server) warn(clientId Id, message string) {
	if warning, err := EncodeWarningMessage(message); err == nil {
		self.broadcaster.Send(clientId, warning)
	}
}

func (self *Server) startGeneration(prompt string) {
	if self.generator == nil {
		return
	}

	self.generateMutex.Lock()
	if self.generateCancel != nil {
		self.generateCancel()
	}
	generateCtx, generateCancel := context.WithCancel(self.ctx)
	self.generateCancel = generateCancel
	self.generateMutex.Unlock()

	self.store.Apply(&ScenePatch{
		Generating: ptr(true),
		MeshUrl:    &MeshUrlPatch{},
	})
	self.broadcaster.BroadcastState()

	snapshot := self.store.Snapshot()

	go func() {
		url, warned, err := self.generator.Generate(
			generateCtx,
			prompt,
			snapshot.ShapeHint.Primitive,
			snapshot.ShapeHint.Dimensions,
		)

		// the supersession check and the completion apply must be one
		// critical section: a newer job cancels under the same mutex, so
		// a stale job can never clear the flag the newer job owns
		self.generateMutex.Lock()
		defer self.generateMutex.Unlock()
		if generateCtx.Err() != nil {
			// superseded or shutting down. The newer job owns the
			// generating flag now.
			return
		}
		if warned {
			glog.Infof("[gen]unknown primitive for %q, used default\n", prompt)
		}

		patch := &ScenePatch{
			Generating: ptr(false),
		}
		if err != nil {
			glog.Infof("[gen]error %q = %s\n", prompt, err)
		} else if url != "" {
			glog.V(1).Infof("[gen]ready %q = %s\n", prompt, url)
			patch.MeshUrl = &MeshUrlPatch{
				Url: &url,
			}
		}
		self.store.Apply(patch)
		self.broadcaster.BroadcastState()
	}()
}

func (self *Server) Close() {
	self.cancel()
}
