/*
Headless demo that draws the render targets described by a TOML file through
the render pass and framebuffer caches.
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/rendertarget/engine"
	"github.com/spaghettifunk/rendertarget/engine/config"
	"github.com/spaghettifunk/rendertarget/engine/core"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	watch := flag.Bool("watch", false, "reload the config file when it changes")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			core.LogFatal("%s", err)
		}
		cfg = c
	}

	e, err := engine.New(cfg)
	if err != nil {
		core.LogFatal("%s", err)
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		core.LogFatal("%s", err)
	}

	var watcher *config.Watcher
	forwarded := make(chan struct{})
	if *watch && *configPath != "" {
		watcher, err = config.NewWatcher(*configPath)
		if err != nil {
			core.LogError("config watcher disabled: %s", err)
		}
	}
	if watcher != nil {
		go func() {
			defer close(forwarded)
			for c := range watcher.Configs() {
				_ = e.ApplyConfig(c)
			}
		}()
	} else {
		close(forwarded)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	go func() {
		// capture sigterm and other system call here
		<-sigCh
		e.Stop()
	}()

	runErr := e.Run()
	if watcher != nil {
		_ = watcher.Close()
	}
	<-forwarded
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
	if runErr != nil {
		os.Exit(1)
	}
}
