// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"

	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/rpc"

	cjson "github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/ckbstd/simulator"
)

// Client defines ckbsim client operations.
type Client interface {
	// Run executes the script of [fixture]. A zero [maxCycles] keeps the
	// service limit.
	Run(ctx context.Context, fixture *simulator.Fixture, maxCycles uint64) (*simulator.RunReply, error)

	// Programs lists the programs the service can run
	Programs(ctx context.Context) ([]string, error)

	// Encode returns the hex form of [data]
	Encode(ctx context.Context, data []byte) (string, error)

	// Decode returns the bytes of a hex string
	Decode(ctx context.Context, bytes string) ([]byte, error)
}

// New creates a new client object for the service at [uri], for example
// http://127.0.0.1:9650.
func New(uri string) Client {
	req := rpc.NewEndpointRequester(uri, simulator.Endpoint, simulator.ServiceName)
	return &client{req: req}
}

type client struct {
	req rpc.EndpointRequester
}

func (cli *client) Run(ctx context.Context, fixture *simulator.Fixture, maxCycles uint64) (*simulator.RunReply, error) {
	resp := new(simulator.RunReply)
	err := cli.req.SendRequest(ctx,
		"run",
		&simulator.RunArgs{Fixture: *fixture, MaxCycles: cjson.Uint64(maxCycles)},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (cli *client) Programs(ctx context.Context) ([]string, error) {
	resp := new(simulator.ProgramsReply)
	err := cli.req.SendRequest(ctx,
		"programs",
		&simulator.ProgramsArgs{},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return resp.Names, nil
}

func (cli *client) Encode(ctx context.Context, data []byte) (string, error) {
	resp := new(simulator.EncodeReply)
	err := cli.req.SendRequest(ctx,
		"encode",
		&simulator.EncodeArgs{Data: string(data), Encoding: formatting.Hex},
		resp,
	)
	if err != nil {
		return "", err
	}
	return resp.Bytes, nil
}

func (cli *client) Decode(ctx context.Context, bytes string) ([]byte, error) {
	resp := new(simulator.DecodeReply)
	err := cli.req.SendRequest(ctx,
		"decode",
		&simulator.DecodeArgs{Bytes: bytes, Encoding: formatting.Hex},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return []byte(resp.Data), nil
}
