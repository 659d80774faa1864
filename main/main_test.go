// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/ckbstd/examples"
	"github.com/ava-labs/ckbstd/simulator"
)

func TestRunFixtures(t *testing.T) {
	registry := simulator.NewRegistry()
	_, err := examples.Register(registry)
	require.NoError(t, err)

	for _, name := range []string{"demo", "exec", "spawn"} {
		t.Run(name, func(t *testing.T) {
			config := Config{
				Fixture:   "../tests/fixtures/" + name + ".yaml",
				Simulator: simulator.DefaultConfig(),
			}
			code, err := runFixture(config, registry)
			require.NoError(t, err)
			assert.Zero(t, code)
		})
	}
}

func TestListenAddress(t *testing.T) {
	assert.Equal(t, "127.0.0.1:9650", Config{HTTPHost: "127.0.0.1", HTTPPort: 9650}.ListenAddress())
}
