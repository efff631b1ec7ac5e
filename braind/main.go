package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/docopt/docopt-go"

	"github.com/golang/glog"

	"github.com/gofiber/fiber/v3"

	"github.com/ledvoice/brain/brain"
)

const BrainVersion = "0.1.0"

func main() {
	usage := `Scene brain daemon.

Owns the canonical scene document for a session, applies command and
patch messages from controllers, and broadcasts the merged state to
every connected renderer. Also runs the procedural mesh generator and
the mesh http server.

Usage:
    braind serve [--config=<config>] [--port=<port>] [-v...]

Options:
    -h --help            Show this screen.
    --version            Show version.
    --config=<config>    Toml config path.
    -p --port=<port>     Override the websocket listen port.
    -v...                Enable verbose mode.`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], BrainVersion)
	if err != nil {
		panic(err)
	}

	if verboseCount, err := opts.Int("-v"); err == nil {
		flag.Set("v", fmt.Sprintf("%d", verboseCount))
	}
	flag.Set("logtostderr", "true")
	flag.Parse()

	if serve_, _ := opts.Bool("serve"); serve_ {
		serve(opts)
	}
}

func serve(opts docopt.Opts) {
	configPath := ""
	if configAny := opts["--config"]; configAny != nil {
		configPath = configAny.(string)
	}

	config, err := brain.LoadConfig(configPath)
	if err != nil {
		glog.Errorf("%s\n", err)
		os.Exit(1)
	}

	if port, err := opts.Int("--port"); err == nil {
		config.ListenAddr = fmt.Sprintf(":%d", port)
	}

	cancelCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := brain.NewSceneStore()
	broadcaster := brain.NewBroadcasterWithDefaults(store)

	var parser brain.CommandParser
	if config.AnthropicApiKey != "" {
		parser = brain.NewLlmParser(config.AnthropicApiKey, config.Model)
		glog.Infof("[braind]llm parser model=%s\n", config.Model)
	} else {
		parser = brain.NewRuleParser()
		glog.Infof("[braind]rule parser (no api key)\n")
	}

	var generator brain.MeshGenerator
	var meshApp *fiber.App
	if config.MeshAddr != "" {
		cache, err := brain.OpenMeshCache(config.MeshDb)
		if err != nil {
			glog.Errorf("%s\n", err)
			os.Exit(1)
		}
		defer cache.Close()

		shapeSettings := brain.DefaultShapeGeneratorSettings()
		shapeSettings.CacheDir = config.CacheDir
		shapeSettings.BaseUrl = config.MeshBaseUrl
		generator = brain.NewShapeGenerator(cache, shapeSettings)

		meshApp = brain.NewMeshServer(config.CacheDir)
		go func() {
			if err := meshApp.Listen(config.MeshAddr, fiber.ListenConfig{
				DisableStartupMessage: true,
			}); err != nil {
				glog.Errorf("[braind]mesh server error = %s\n", err)
			}
		}()
		glog.Infof("[braind]mesh http://%s -> %s\n", config.MeshAddr, config.CacheDir)
	}

	server := brain.NewServer(
		cancelCtx,
		store,
		broadcaster,
		parser,
		generator,
		config.AllowedOrigins,
		config.AuthSecret,
		brain.DefaultServerSettings(),
	)
	defer server.Close()

	mux := http.NewServeMux()
	mux.Handle("/", server)

	httpServer := &http.Server{
		Addr:    config.ListenAddr,
		Handler: mux,
	}
	go func() {
		glog.Infof("[braind]ws://%s\n", config.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Errorf("[braind]listen error = %s\n", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-cancelCtx.Done():
	}

	glog.Infof("[braind]shutting down\n")
	httpServer.Shutdown(context.Background())
	if meshApp != nil {
		meshApp.Shutdown()
	}
}
