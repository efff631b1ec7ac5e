package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/docopt/docopt-go"

	"github.com/gorilla/websocket"

	"github.com/ledvoice/brain/brain"
)

const SceneCtlVersion = "0.1.0"

const DefaultBrainUrl = "ws://localhost:8765"

var Out *log.Logger
var Err *log.Logger

func init() {
	Out = log.New(os.Stdout, "", 0)
	Err = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
}

func main() {
	usage := fmt.Sprintf(`Scene control.

The default brain url is %s.

Usage:
    scenectl send-command [--url=<url>] [--token=<token>] <text>
    scenectl send-patch [--url=<url>] [--token=<token>] <patch>
    scenectl watch [--url=<url>] [--message_count=<message_count>]
    scenectl mint-token [--role=<role>]

Options:
    -h --help                        Show this screen.
    --version                        Show version.
    --url=<url>                      Brain websocket url.
    --token=<token>                  Control token, when the brain requires auth.
    --message_count=<message_count>  Print this many scene messages then exit.
    --role=<role>                    Token role [default: controller].`,
		DefaultBrainUrl,
	)

	opts, err := docopt.ParseArgs(usage, os.Args[1:], SceneCtlVersion)
	if err != nil {
		panic(err)
	}

	if sendCommand_, _ := opts.Bool("send-command"); sendCommand_ {
		sendCommand(opts)
	} else if sendPatch_, _ := opts.Bool("send-patch"); sendPatch_ {
		sendPatch(opts)
	} else if watch_, _ := opts.Bool("watch"); watch_ {
		watch(opts)
	} else if mintToken_, _ := opts.Bool("mint-token"); mintToken_ {
		mintToken(opts)
	}
}

func brainUrl(opts docopt.Opts) string {
	if urlAny := opts["--url"]; urlAny != nil {
		return urlAny.(string)
	}
	return DefaultBrainUrl
}

func dial(opts docopt.Opts, role string) *websocket.Conn {
	url := brainUrl(opts)

	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		Err.Fatalf("connect %s = %s", url, err)
	}

	token := ""
	if tokenAny := opts["--token"]; tokenAny != nil {
		token = tokenAny.(string)
	}

	hello, err := brain.EncodeHelloMessage(role, SceneCtlVersion, token)
	if err != nil {
		Err.Fatal(err)
	}
	ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := ws.WriteMessage(websocket.TextMessage, hello); err != nil {
		Err.Fatalf("hello = %s", err)
	}
	return ws
}

func sendCommand(opts docopt.Opts) {
	text := opts["<text>"].(string)

	ws := dial(opts, brain.RoleController)
	defer ws.Close()

	message, err := brain.EncodeCommandMessage(text, "scenectl")
	if err != nil {
		Err.Fatal(err)
	}
	ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
		Err.Fatalf("send = %s", err)
	}

	printNextScene(ws)
}

func sendPatch(opts docopt.Opts) {
	patchJson := opts["<patch>"].(string)
	if !json.Valid([]byte(patchJson)) {
		Err.Fatalf("patch is not valid json")
	}

	ws := dial(opts, brain.RoleController)
	defer ws.Close()

	message, err := brain.EncodePatchMessage(json.RawMessage(patchJson))
	if err != nil {
		Err.Fatal(err)
	}
	ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
		Err.Fatalf("send = %s", err)
	}

	printNextScene(ws)
}

// printNextScene drains messages until the post-apply scene broadcast
// arrives. The first scene message is the registration snapshot.
func printNextScene(ws *websocket.Conn) {
	sceneCount := 0
	for {
		ws.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, raw, err := ws.ReadMessage()
		if err != nil {
			Err.Fatalf("read = %s", err)
		}
		message, err := brain.DecodeMessage(raw)
		if err != nil {
			continue
		}
		switch message.Type {
		case brain.MessageTypeScene:
			sceneCount += 1
			if 2 <= sceneCount {
				Out.Printf("%s", raw)
				return
			}
		case brain.MessageTypeWarning:
			Out.Printf("warning: %s", message.Message)
			return
		}
	}
}

func watch(opts docopt.Opts) {
	messageCount := -1
	if messageCount_, err := opts.Int("--message_count"); err == nil {
		messageCount = messageCount_
	}

	ws := dial(opts, brain.RoleRenderer)
	defer ws.Close()

	// periodic pings keep the watch inside the brain's idle read window
	go func() {
		for {
			time.Sleep(30 * time.Second)
			ping, err := brain.EncodePingMessage()
			if err != nil {
				return
			}
			ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if ws.WriteMessage(websocket.TextMessage, ping) != nil {
				return
			}
		}
	}()

	for i := 0; messageCount < 0 || i < messageCount; {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			Err.Fatalf("read = %s", err)
		}
		message, err := brain.DecodeMessage(raw)
		if err != nil {
			continue
		}
		if message.Type == brain.MessageTypeScene {
			Out.Printf("%s", raw)
			i += 1
		}
	}
}

func mintToken(opts docopt.Opts) {
	role := brain.RoleController
	if roleAny := opts["--role"]; roleAny != nil {
		role = roleAny.(string)
	}

	fmt.Print("auth secret: ")
	secretBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		Err.Fatal(err)
	}

	token, err := brain.MintControlToken(string(secretBytes), role)
	if err != nil {
		Err.Fatal(err)
	}
	Out.Printf("%s", token)
}
