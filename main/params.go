// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"flag"
	"fmt"
	"strings"

	log "github.com/inconshreveable/log15"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/ckbstd/simulator"
)

const (
	versionKey    = "version"
	fixtureKey    = "fixture"
	httpHostKey   = "http-host"
	httpPortKey   = "http-port"
	logLevelKey   = "log-level"
	guestLevelKey = "guest-log-level"
	maxVMsKey     = "max-vms"
	maxFDsKey     = "max-fds"
	maxCyclesKey  = "max-cycles"
	vmVersionKey  = "vm-version"
	configFileKey = "config-file"

	envPrefix = "CKBSIM"
)

func buildFlagSet() *flag.FlagSet {
	defaults := simulator.DefaultConfig()
	fs := flag.NewFlagSet(simulator.Name, flag.ContinueOnError)

	fs.Bool(versionKey, false, "If true, prints the version and quits")
	fs.String(fixtureKey, "", "Runs the JSON fixture at this path and exits instead of serving")
	fs.String(httpHostKey, "127.0.0.1", "Address of the RPC server")
	fs.Uint(httpPortKey, 9650, "Port of the RPC server")
	fs.String(logLevelKey, "info", "Log level of the simulator")
	fs.String(guestLevelKey, "debug", "Lowest level guest programs log through the debug syscall")
	fs.Int(maxVMsKey, defaults.MaxVMs, "Maximum number of live processes per run")
	fs.Int(maxFDsKey, defaults.MaxFDs, "Maximum number of open pipe descriptors per run")
	fs.Uint64(maxCyclesKey, defaults.MaxCycles, "Cycle limit of a run, 0 for none")
	fs.Uint64(vmVersionKey, defaults.VMVersion, "Value returned by the vm_version syscall")
	fs.String(configFileKey, "", "Reads flags from this JSON or YAML file")

	return fs
}

// getViper returns the viper environment for the ckbsim binary
func getViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := buildFlagSet()
	pflag.CommandLine.AddGoFlagSet(fs)
	pflag.Parse()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}

	if path := v.GetString(configFileKey); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("couldn't read config file %s: %w", path, err)
		}
	}
	return v, nil
}

// Config is the parsed command line of ckbsim.
type Config struct {
	Version   bool
	Fixture   string
	HTTPHost  string
	HTTPPort  uint
	LogLevel  log.Lvl
	Simulator simulator.Config
}

func (c Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}

func getConfig() (Config, error) {
	v, err := getViper()
	if err != nil {
		return Config{}, err
	}

	logLevel, err := log.LvlFromString(v.GetString(logLevelKey))
	if err != nil {
		return Config{}, fmt.Errorf("couldn't parse %s: %w", logLevelKey, err)
	}
	guestLevel, err := log.LvlFromString(v.GetString(guestLevelKey))
	if err != nil {
		return Config{}, fmt.Errorf("couldn't parse %s: %w", guestLevelKey, err)
	}

	sim := simulator.DefaultConfig()
	sim.MaxVMs = v.GetInt(maxVMsKey)
	sim.MaxFDs = v.GetInt(maxFDsKey)
	sim.MaxCycles = v.GetUint64(maxCyclesKey)
	sim.VMVersion = v.GetUint64(vmVersionKey)
	sim.GuestLogLevel = guestLevel

	return Config{
		Version:   v.GetBool(versionKey),
		Fixture:   v.GetString(fixtureKey),
		HTTPHost:  v.GetString(httpHostKey),
		HTTPPort:  v.GetUint(httpPortKey),
		LogLevel:  logLevel,
		Simulator: sim,
	}, nil
}
