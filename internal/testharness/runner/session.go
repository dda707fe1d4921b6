package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/scpi-protocol/scpi-go/pkg/commands"
	"github.com/scpi-protocol/scpi-go/pkg/connection"
	"github.com/scpi-protocol/scpi-go/pkg/examples"
	"github.com/scpi-protocol/scpi-go/pkg/interaction"
	"github.com/scpi-protocol/scpi-go/pkg/transport"
)

// ErrNoResponse is returned by a local query whose program message
// produced no response text.
var ErrNoResponse = errors.New("no response")

// Session is a controller connection to the instrument under test.
// connection.Session implements it for sockets.
type Session interface {
	Send(ctx context.Context, line string) error
	Query(ctx context.Context, line string) (string, error)
	Close() error
}

// localSession runs program messages in-process on an executor. Failures
// go to the instrument's error queue, as they would over a socket.
type localSession struct {
	exec interaction.Executor
}

func (s *localSession) Send(ctx context.Context, line string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.exec.ExecuteFrom("", line)
	return nil
}

func (s *localSession) Query(ctx context.Context, line string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	res := s.exec.ExecuteFrom("", line)
	if !res.HasResponse() {
		return "", fmt.Errorf("%w to %q", ErrNoResponse, line)
	}
	return string(res.Response), nil
}

func (s *localSession) Close() error {
	return nil
}

// NewLocalSession wraps an executor.
func NewLocalSession(exec interaction.Executor) Session {
	return &localSession{exec: exec}
}

// openSession connects to the configured target: a simulated instrument
// when Simulate is set, the socket at Target otherwise.
func openSession(ctx context.Context, cfg *Config) (Session, error) {
	if cfg.Simulate != "" {
		sim, err := examples.NewSimulation(cfg.Simulate, commands.Identity{})
		if err != nil {
			return nil, err
		}
		if cfg.ProtocolLogger != nil {
			sim.SetLogger(cfg.ProtocolLogger)
		}
		return NewLocalSession(sim.Executor), nil
	}

	if cfg.Target == "" {
		return nil, errors.New("no target: set a target address or a simulation")
	}
	clientCfg := transport.ClientConfig{QueryTimeout: cfg.QueryTimeout}
	if cfg.ProtocolLogger != nil {
		clientCfg.Logger = cfg.ProtocolLogger
	}
	sess := connection.NewSession(func(ctx context.Context) (connection.Conn, error) {
		client, err := transport.Dial(ctx, cfg.Target, clientCfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	}, connection.Config{})
	if err := sess.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Target, err)
	}
	return sess, nil
}
