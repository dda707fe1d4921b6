// Command scpi-client is a controller for SCPI instruments on a raw
// socket.
//
// Usage:
//
//	scpi-client [flags] [host[:port]]
//
// Without a host the instrument is located via mDNS, optionally narrowed
// with -model or -serial.
//
// Flags:
//
//	-browse              List instruments on the local network and exit
//	-c string            Send one program message, print the response and exit
//	-model string        Select a discovered instrument by model
//	-serial string       Select a discovered instrument by serial number
//	-timeout duration    Query timeout (default 5s)
//	-check               Check the error queue after each program message
//	-protocol-log string Write protocol events to this file
//
// Examples:
//
//	# Find instruments
//	scpi-client -browse
//
//	# One-shot query
//	scpi-client -c "*IDN?" 192.168.1.20
//
//	# Interactive session with the first multimeter found
//	scpi-client -model DMM-6500
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scpi-protocol/scpi-go/cmd/scpi-client/interactive"
	"github.com/scpi-protocol/scpi-go/pkg/connection"
	"github.com/scpi-protocol/scpi-go/pkg/discovery"
	"github.com/scpi-protocol/scpi-go/pkg/inspect"
	scpilog "github.com/scpi-protocol/scpi-go/pkg/log"
	"github.com/scpi-protocol/scpi-go/pkg/transport"
)

// Config holds the client configuration.
type Config struct {
	Browse      bool
	Command     string
	Model       string
	Serial      string
	Timeout     time.Duration
	CheckErrors bool
	ProtocolLog string
	Address     string
}

var config Config

func init() {
	flag.BoolVar(&config.Browse, "browse", false, "List instruments on the local network and exit")
	flag.StringVar(&config.Command, "c", "", "Send one program message, print the response and exit")
	flag.StringVar(&config.Model, "model", "", "Select a discovered instrument by model")
	flag.StringVar(&config.Serial, "serial", "", "Select a discovered instrument by serial number")
	flag.DurationVar(&config.Timeout, "timeout", 5*time.Second, "Query timeout")
	flag.BoolVar(&config.CheckErrors, "check", false, "Check the error queue after each program message")
	flag.StringVar(&config.ProtocolLog, "protocol-log", "", "Write protocol events to this file")
}

func main() {
	flag.Parse()
	config.Address = flag.Arg(0)

	log.SetFlags(log.Ltime)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if config.Browse {
		if err := browse(ctx); err != nil {
			log.Fatalf("Browse failed: %v", err)
		}
		return
	}

	address, err := resolveAddress(ctx)
	if err != nil {
		log.Fatalf("No instrument: %v", err)
	}

	clientCfg := transport.ClientConfig{QueryTimeout: config.Timeout}
	var protoLog *scpilog.FileLogger
	if config.ProtocolLog != "" {
		protoLog, err = scpilog.NewFileLogger(config.ProtocolLog)
		if err != nil {
			log.Fatalf("Failed to create protocol log: %v", err)
		}
		clientCfg.Logger = protoLog
	}

	client := connection.NewSession(func(ctx context.Context) (connection.Conn, error) {
		c, err := transport.Dial(ctx, address, clientCfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	}, connection.Config{
		OnStateChange: func(from, to connection.State) {
			if from == connection.StateConnected && to == connection.StateDisconnected {
				log.Printf("Connection to %s lost; redialing on next message", address)
			}
		},
	})
	if err := client.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect to %s: %v", address, err)
	}
	shutdown := func() {
		client.Close()
		if protoLog != nil {
			protoLog.Close()
		}
	}

	if config.Command != "" {
		code := oneShot(ctx, client)
		shutdown()
		os.Exit(code)
	}
	defer shutdown()

	prompt := address
	if id, err := inspect.NewRemoteInspector(client).Identify(ctx); err == nil {
		log.Printf("Connected to %s", id)
		prompt = id.Model
	}

	controller, err := interactive.New(client, prompt)
	if err != nil {
		log.Fatalf("Failed to start console: %v", err)
	}
	controller.CheckErrors = config.CheckErrors
	log.SetOutput(controller.Stdout())
	controller.Run(ctx, cancel)
}

// oneShot runs -c and returns the exit code: 1 when the instrument
// reported errors or the exchange failed.
func oneShot(ctx context.Context, client interactive.Conn) int {
	c := interactive.NewController(client, os.Stdout)
	if err := c.Exec(ctx, config.Command); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if !config.CheckErrors {
		return 0
	}
	n, err := c.PrintErrors(ctx)
	if err != nil || n > 0 {
		return 1
	}
	return 0
}

// resolveAddress returns the address argument or locates an instrument
// via mDNS.
func resolveAddress(ctx context.Context) (string, error) {
	if config.Address != "" {
		return config.Address, nil
	}

	var filter discovery.FilterFunc
	switch {
	case config.Serial != "":
		filter = discovery.FilterBySerial(config.Serial)
	case config.Model != "":
		filter = discovery.FilterByModel(config.Model)
	default:
		filter = func(*discovery.InstrumentService) bool { return true }
	}

	log.Println("Searching for instruments...")
	browser := discovery.NewBrowser(discovery.DefaultBrowserConfig())
	defer browser.Stop()

	svc, err := browser.Find(ctx, filter)
	if err != nil {
		return "", err
	}
	log.Printf("Found %s", svc)
	return svc.Address(), nil
}

func browse(ctx context.Context) error {
	browser := discovery.NewBrowser(discovery.DefaultBrowserConfig())
	defer browser.Stop()

	services, err := browser.FindAll(ctx)
	if err != nil {
		return err
	}
	if len(services) == 0 {
		fmt.Println("No instruments found")
		return nil
	}

	fmt.Printf("Found %d instrument(s):\n", len(services))
	for _, s := range services {
		fmt.Printf("  %-30s %s %s (serial %s, fw %s)\n",
			s.Address(), s.Manufacturer, s.Model, s.SerialNumber, s.FirmwareVersion)
	}
	return nil
}
