// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// e2e implements the e2e tests.
package e2e_test

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	ginkgo "github.com/onsi/ginkgo/v2"
	"github.com/onsi/ginkgo/v2/formatter"
	"github.com/onsi/gomega"
	"sigs.k8s.io/yaml"

	"github.com/ava-labs/ckbstd/client"
	"github.com/ava-labs/ckbstd/examples"
	"github.com/ava-labs/ckbstd/simulator"
	"github.com/ava-labs/ckbstd/typeid"
	"github.com/ava-labs/ckbstd/types"
)

func TestE2e(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "ckbsim e2e test suites")
}

var (
	requestTimeout time.Duration
	uri            string
	outputPath     string
)

func init() {
	flag.DurationVar(
		&requestTimeout,
		"request-timeout",
		30*time.Second,
		"timeout for a single run",
	)
	flag.StringVar(
		&uri,
		"uri",
		"",
		"URI of a running ckbsim such as http://127.0.0.1:9650; an in-process server is started when empty",
	)
	flag.StringVar(
		&outputPath,
		"output-path",
		"",
		"directory to write the fixtures used by the suite as YAML",
	)
}

var (
	server *httptest.Server
	cli    client.Client
)

var _ = ginkgo.BeforeSuite(func() {
	if uri == "" {
		registry := simulator.NewRegistry()
		_, err := examples.Register(registry)
		gomega.Expect(err).Should(gomega.BeNil())
		service, err := simulator.NewService(registry, simulator.DefaultConfig())
		gomega.Expect(err).Should(gomega.BeNil())
		handler, err := simulator.NewHandler(service)
		gomega.Expect(err).Should(gomega.BeNil())
		mux := http.NewServeMux()
		mux.Handle(simulator.Endpoint, handler)
		server = httptest.NewServer(mux)
		uri = server.URL
	}
	outf("{{blue}}ckbsim RPC:{{/}} %q\n", uri+simulator.Endpoint)
	cli = client.New(uri)
})

var _ = ginkgo.AfterSuite(func() {
	if server != nil {
		outf("{{red}}shutting down server{{/}}\n")
		server.Close()
	}
})

func codeHash(name string) types.Hash {
	return types.ComputeHash(simulator.ProgramCode(name))
}

func fixture(root string, args []byte, deps ...string) *simulator.Fixture {
	script := simulator.ScriptFor(simulator.ProgramCode(root), args)
	f := &simulator.Fixture{
		Script: script,
		Inputs: []simulator.Input{{
			PreviousOutput: simulator.OutPoint{TxHash: make(simulator.HexBytes, types.HashLen)},
			Cell:           simulator.Cell{Capacity: 100, Lock: script},
		}},
		Outputs: []simulator.Cell{{Capacity: 90, Lock: script}},
	}
	for _, dep := range deps {
		f.CellDeps = append(f.CellDeps, simulator.Cell{Capacity: 1, Lock: script, Program: dep})
	}
	return f
}

func run(name string, f *simulator.Fixture) *simulator.RunReply {
	if outputPath != "" {
		b, err := yaml.Marshal(f)
		gomega.Expect(err).Should(gomega.BeNil())
		path := filepath.Join(outputPath, name+".yaml")
		gomega.Expect(os.WriteFile(path, b, 0o644)).Should(gomega.BeNil())
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	reply, err := cli.Run(ctx, f, 0)
	cancel()
	gomega.Expect(err).Should(gomega.BeNil())
	outf("{{green}}%s:{{/}} exit code %d, %d cycles, %d processes\n", name, reply.ExitCode, reply.Cycles, len(reply.Processes))
	return reply
}

var _ = ginkgo.Describe("[Programs]", func() {
	ginkgo.It("lists the examples", func() {
		names, err := cli.Programs(context.Background())
		gomega.Ω(err).Should(gomega.BeNil())
		for name := range examples.Programs() {
			gomega.Ω(names).Should(gomega.ContainElement(name))
		}
	})
})

var _ = ginkgo.Describe("[Spawn]", func() {
	ginkgo.It("passes argv to the callee and reads its reply", func() {
		callee := codeHash(examples.SpawnCalleeName)
		reply := run("spawn", fixture(examples.SpawnCallerName, callee[:], examples.SpawnCallerName, examples.SpawnCalleeName))
		gomega.Ω(reply.Error).Should(gomega.BeEmpty())
		gomega.Ω(reply.ExitCode).Should(gomega.Equal(int8(0)))
		gomega.Ω(reply.Processes).Should(gomega.HaveLen(2))
		gomega.Ω(reply.Processes[1].Argv).Should(gomega.Equal([]string{"hello", "world"}))
		gomega.Ω(uint64(reply.Cycles)).Should(gomega.BeNumerically(">=", simulator.SpawnCycles))
	})

	ginkgo.It("fails when the callee is not a dep", func() {
		callee := codeHash(examples.SpawnCalleeName)
		reply := run("spawn-missing", fixture(examples.SpawnCallerName, callee[:], examples.SpawnCallerName))
		gomega.Ω(reply.ExitCode).Should(gomega.Equal(int8(examples.IndexOutOfBound)))
	})
})

var _ = ginkgo.Describe("[Exec]", func() {
	ginkgo.It("replaces the caller with the callee", func() {
		reply := run("exec", fixture(examples.ExecCallerName, nil, examples.ExecCalleeName, examples.ExecCallerName))
		gomega.Ω(reply.Error).Should(gomega.BeEmpty())
		gomega.Ω(reply.ExitCode).Should(gomega.Equal(int8(0)))
		gomega.Ω(reply.Processes).Should(gomega.HaveLen(1))
		gomega.Ω(reply.Processes[0].Program).Should(gomega.Equal(examples.ExecCalleeName))
		gomega.Ω(reply.Processes[0].Argv).Should(gomega.Equal(examples.ExecArgs))
	})
})

var _ = ginkgo.Describe("[Demo]", func() {
	ginkgo.It("prints on the debug channel", func() {
		reply := run("demo", fixture(examples.DemoName, nil, examples.DemoName))
		gomega.Ω(reply.ExitCode).Should(gomega.Equal(int8(0)))
		gomega.Ω(reply.Debug).Should(gomega.HaveLen(1))
		gomega.Ω(reply.Debug[0].Message).Should(gomega.Equal("42"))
	})
})

var _ = ginkgo.Describe("[TypeID]", func() {
	mint := func(outputs int) *simulator.Fixture {
		first := types.CellInput{PreviousOutput: types.OutPoint{}}
		id := typeid.Compute(first, 1)
		f := fixture(examples.TypeIDName, id[:], examples.TypeIDName)
		typ := f.Script
		lock := simulator.ScriptFor([]byte("lock"), nil)
		f.ScriptKind = "type"
		f.Inputs[0].Cell.Lock = lock
		for i := 0; i < outputs; i++ {
			f.Outputs = append(f.Outputs, simulator.Cell{Capacity: 10, Lock: lock, Type: &typ})
		}
		return f
	}

	ginkgo.It("accepts a minted id", func() {
		reply := run("type-id-mint", mint(1))
		gomega.Ω(reply.ExitCode).Should(gomega.Equal(int8(0)))
	})

	ginkgo.It("rejects two cells with one id", func() {
		reply := run("type-id-duplicate", mint(2))
		gomega.Ω(reply.ExitCode).Should(gomega.Equal(examples.TypeIDExitCode))
	})
})

var _ = ginkgo.Describe("[Encoding]", func() {
	ginkgo.It("round trips program code", func() {
		code := simulator.ProgramCode(examples.DemoName)
		encoded, err := cli.Encode(context.Background(), code)
		gomega.Ω(err).Should(gomega.BeNil())
		decoded, err := cli.Decode(context.Background(), encoded)
		gomega.Ω(err).Should(gomega.BeNil())
		gomega.Ω(decoded).Should(gomega.Equal(code))
	})
})

// Outputs to stdout.
//
// e.g.,
//
//	Out("{{green}}{{bold}}hi there %q{{/}}", "aa")
//	Out("{{magenta}}{{bold}}hi therea{{/}} {{cyan}}{{underline}}b{{/}}")
//
// ref.
// https://github.com/onsi/ginkgo/blob/v2.0.0/formatter/formatter.go#L52-L73
func outf(format string, args ...interface{}) {
	s := formatter.F(format, args...)
	fmt.Fprint(formatter.ColorableStdOut, s)
}
