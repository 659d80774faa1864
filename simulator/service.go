// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/gorilla/rpc/v2"
	"github.com/prometheus/client_golang/prometheus"

	cjson "github.com/ava-labs/avalanchego/utils/json"
	log "github.com/inconshreveable/log15"
)

const (
	// ServiceName is the JSON-RPC namespace: methods are "simulator.run" and
	// so on.
	ServiceName = "simulator"
	// Endpoint is the HTTP path the service is mounted on.
	Endpoint = "/ext/ckbsim"
)

var errNoRegistry = errors.New("service has no program registry")

// Service is the JSON-RPC API of the simulator
type Service struct {
	registry *Registry
	config   Config
	metrics  *Metrics
	log      log.Logger
}

// NewService runs fixtures against [registry] with [config]. Run metrics go
// to config.Registerer.
func NewService(registry *Registry, config Config) (*Service, error) {
	if registry == nil {
		return nil, errNoRegistry
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.NewRegistry()
	}
	if config.Logger == nil {
		config.Logger = log.New("module", "service")
	}
	m, err := NewMetrics(config.Registerer)
	if err != nil {
		return nil, err
	}
	return &Service{
		registry: registry,
		config:   config,
		metrics:  m,
		log:      config.Logger,
	}, nil
}

// NewHandler returns an HTTP handler serving [service].
func NewHandler(service *Service) (http.Handler, error) {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	return server, server.RegisterService(service, ServiceName)
}

// RunArgs are arguments for Run
type RunArgs struct {
	Fixture Fixture `json:"fixture"`
	// MaxCycles overrides the service limit when non zero.
	MaxCycles cjson.Uint64 `json:"maxCycles"`
}

// RunReply is the reply from Run
type RunReply struct {
	TxHash     ids.ID          `json:"txHash"`
	ScriptHash ids.ID          `json:"scriptHash"`
	ExitCode   int8            `json:"exitCode"`
	Cycles     cjson.Uint64    `json:"cycles"`
	Processes  []ProcessReport `json:"processes"`
	Debug      []DebugMessage  `json:"debug"`
	// Error is set when the run stopped before the root process exited.
	Error string `json:"error,omitempty"`
}

// Run executes the script of a fixture
func (s *Service) Run(r *http.Request, args *RunArgs, reply *RunReply) error {
	config := s.config
	config.Metrics = s.metrics
	config.Registerer = prometheus.NewRegistry()
	config.Logger = s.log
	if args.MaxCycles != 0 {
		config.MaxCycles = uint64(args.MaxCycles)
	}

	sim, err := New(&args.Fixture, s.registry, config)
	if err != nil {
		return fmt.Errorf("couldn't load fixture: %w", err)
	}
	defer sim.Close()

	ctx := context.Background()
	if r != nil {
		ctx = r.Context()
	}
	res, runErr := sim.Run(ctx)
	if runErr != nil {
		reply.Error = runErr.Error()
	}

	reply.TxHash = sim.TxHash().ID()
	reply.ScriptHash = sim.ScriptHash().ID()
	reply.ExitCode = res.ExitCode
	reply.Cycles = cjson.Uint64(res.Cycles)
	reply.Processes = res.Processes
	reply.Debug = res.Debug
	return nil
}

// ProgramsArgs are arguments for Programs
type ProgramsArgs struct{}

// ProgramsReply is the reply from Programs
type ProgramsReply struct {
	Names []string `json:"names"`
}

// Programs lists the registered programs
func (s *Service) Programs(_ *http.Request, _ *ProgramsArgs, reply *ProgramsReply) error {
	reply.Names = s.registry.Names()
	return nil
}

// EncodeArgs are arguments for Encode
type EncodeArgs struct {
	Data     string              `json:"data"`
	Encoding formatting.Encoding `json:"encoding"`
}

// EncodeReply is the reply from Encode
type EncodeReply struct {
	Bytes    string              `json:"bytes"`
	Encoding formatting.Encoding `json:"encoding"`
}

// Encode returns the encoded data, typically the code bytes of a program
func (s *Service) Encode(_ *http.Request, args *EncodeArgs, reply *EncodeReply) error {
	bytes, err := formatting.EncodeWithChecksum(args.Encoding, []byte(args.Data))
	if err != nil {
		return fmt.Errorf("couldn't encode data as string: %s", err)
	}
	reply.Bytes = bytes
	reply.Encoding = args.Encoding
	return nil
}

// DecodeArgs are arguments for Decode
type DecodeArgs struct {
	Bytes    string              `json:"bytes"`
	Encoding formatting.Encoding `json:"encoding"`
}

// DecodeReply is the reply from Decode
type DecodeReply struct {
	Data     string              `json:"data"`
	Encoding formatting.Encoding `json:"encoding"`
}

// Decode returns the decoded data
func (s *Service) Decode(_ *http.Request, args *DecodeArgs, reply *DecodeReply) error {
	bytes, err := formatting.Decode(args.Encoding, args.Bytes)
	if err != nil {
		return fmt.Errorf("couldn't decode data as string: %s", err)
	}
	reply.Data = string(bytes)
	reply.Encoding = args.Encoding
	return nil
}
