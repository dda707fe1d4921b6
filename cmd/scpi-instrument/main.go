// Command scpi-instrument serves a simulated SCPI instrument on a raw
// socket.
//
// This command demonstrates a complete instrument with:
//   - CLI argument parsing
//   - Configuration file support
//   - Simulated instrument types (power supply, multimeter)
//   - mDNS discovery advertising
//   - Protocol logging
//   - An interactive console
//
// Usage:
//
//	scpi-instrument [flags]
//
// Flags:
//
//	-type string          Instrument type: psu, dmm (default "psu")
//	-config string        Configuration file path (YAML)
//	-port int             Listen port (default 5025)
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  Write protocol events to this file
//	-mdns                 Advertise the instrument via mDNS
//	-interactive          Start the interactive console
//
// Examples:
//
//	# Serve a power supply on port 5025
//	scpi-instrument -type psu
//
//	# Serve a multimeter from a config file and advertise it
//	scpi-instrument -config /etc/scpi/dmm.yaml -mdns
//
//	# Record all traffic for scpi-log
//	scpi-instrument -protocol-log psu.slog -interactive
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/scpi-protocol/scpi-go/cmd/scpi-instrument/interactive"
	"github.com/scpi-protocol/scpi-go/pkg/discovery"
	"github.com/scpi-protocol/scpi-go/pkg/examples"
	"github.com/scpi-protocol/scpi-go/pkg/interaction"
	scpilog "github.com/scpi-protocol/scpi-go/pkg/log"
	"github.com/scpi-protocol/scpi-go/pkg/transport"
)

func main() {
	config, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	setupLogging(config.LogLevel)

	if err := validateConfig(config); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	sim, err := examples.NewSimulation(config.Type, config.Identity.identity())
	if err != nil {
		log.Fatalf("Failed to create instrument: %v", err)
	}
	id := sim.Identity()

	log.Println("SCPI Reference Instrument")
	log.Println("=========================")
	log.Printf("Instrument: %s %s (serial %s)", id.Manufacturer, id.Model, id.Serial)
	log.Printf("Port: %d", config.Port)

	protoLogger, closeLog := setupProtocolLog(config)
	defer closeLog()
	if protoLogger != nil {
		sim.SetLogger(protoLogger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := transport.NewServer(transport.ServerConfig{
		Address:        fmt.Sprintf(":%d", config.Port),
		Executor:       sim.Executor,
		MaxConnections: config.MaxConnections,
		IdleTimeout:    config.IdleTimeout,
		Logger:         protoLogger,
		OnConnect: func(c *transport.ServerConn) {
			log.Printf("[EVENT] Controller connected: %s", c.RemoteAddr())
		},
		OnDisconnect: func(c *transport.ServerConn) {
			log.Printf("[EVENT] Controller disconnected: %s (%d lines)", c.RemoteAddr(), c.Lines())
		},
		OnResult: func(c *transport.ServerConn, line string, res *interaction.Result) {
			if res.Err != nil {
				log.Printf("[EVENT] %s: %q -> %s", c.RemoteAddr(), line, res.Err.Entry())
			}
		},
		OnError: func(c *transport.ServerConn, err error) {
			log.Printf("[EVENT] Connection error (%s): %v", c.RemoteAddr(), err)
		},
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Listening on %s", server.Addr())

	var advertiser *discovery.Advertiser
	if config.MDNS {
		adCfg := discovery.DefaultAdvertiserConfig()
		adCfg.Interface = config.Interface
		advertiser = discovery.NewAdvertiser(adCfg)
		info := &discovery.InstrumentInfo{
			Manufacturer:    id.Manufacturer,
			Model:           id.Model,
			SerialNumber:    id.Serial,
			FirmwareVersion: id.Firmware,
			Port:            uint16(config.Port),
		}
		if err := advertiser.Advertise(ctx, info); err != nil {
			log.Printf("Warning: Failed to advertise via mDNS: %v", err)
		} else {
			log.Printf("Advertising %q as %s", info.Instance(), discovery.ServiceTypeSCPIRaw)
		}
	}

	if config.Interactive {
		console, err := interactive.New(sim.Executor, sim.Root, server)
		if err != nil {
			log.Fatalf("Failed to start console: %v", err)
		}
		log.SetOutput(console.Stdout())
		go console.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}

	log.Println("Shutting down...")

	if advertiser != nil {
		advertiser.Stop()
	}
	if err := server.Stop(); err != nil {
		log.Printf("Error stopping server: %v", err)
	}

	log.Println("Goodbye!")
}

func setupLogging(level string) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	switch level {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case "warn", "error":
		log.SetFlags(log.Ltime)
	}
}

// setupProtocolLog builds the protocol logger: a file when -protocol-log
// is set, plus structured console output at debug level. It returns nil
// when neither is enabled.
func setupProtocolLog(config Config) (scpilog.Logger, func()) {
	var loggers []scpilog.Logger
	closeFn := func() {}

	if config.ProtocolLog != "" {
		fl, err := scpilog.NewFileLogger(config.ProtocolLog)
		if err != nil {
			log.Fatalf("Failed to create protocol log: %v", err)
		}
		log.Printf("Protocol logging to: %s", config.ProtocolLog)
		loggers = append(loggers, fl)
		closeFn = func() {
			if err := fl.Close(); err != nil {
				log.Printf("Error closing protocol log: %v", err)
			}
		}
	}
	if config.LogLevel == "debug" {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		loggers = append(loggers, scpilog.NewSlogAdapter(slog.New(handler)))
	}

	switch len(loggers) {
	case 0:
		return nil, closeFn
	case 1:
		return loggers[0], closeFn
	default:
		return scpilog.NewMultiLogger(loggers...), closeFn
	}
}
