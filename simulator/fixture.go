// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cjson "github.com/ava-labs/avalanchego/utils/json"
	"sigs.k8s.io/yaml"

	"github.com/ava-labs/ckbstd/syscalls"
	"github.com/ava-labs/ckbstd/types"
)

var (
	errBadHex         = errors.New("hex string must start with 0x")
	errBadHashLength  = errors.New("hash must be 32 bytes")
	errBadHeaderIndex = errors.New("header index out of range")
	errBadScriptKind  = errors.New("script kind must be lock or type")
	errNoRootScript   = errors.New("fixture has no script")
)

// HexBytes is a byte string written as 0x prefixed hex.
type HexBytes []byte

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal("0x" + hex.EncodeToString(h))
}

func (h *HexBytes) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if !strings.HasPrefix(s, "0x") {
		return fmt.Errorf("%w: %q", errBadHex, s)
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return err
	}
	*h = raw
	return nil
}

func (h HexBytes) hash() (types.Hash, error) {
	out, ok := types.HashFromBytes(h)
	if !ok {
		return types.Hash{}, fmt.Errorf("%w: got %d", errBadHashLength, len(h))
	}
	return out, nil
}

type Script struct {
	CodeHash HexBytes `json:"codeHash"`
	HashType string   `json:"hashType"`
	Args     HexBytes `json:"args,omitempty"`
}

func (s *Script) build() (*types.Script, error) {
	codeHash, err := s.CodeHash.hash()
	if err != nil {
		return nil, err
	}
	hashType, err := syscalls.ParseHashType(s.HashType)
	if err != nil {
		return nil, err
	}
	return &types.Script{CodeHash: codeHash, HashType: hashType, Args: s.Args}, nil
}

// ScriptFor returns the fixture form of a script whose code is [code],
// matched by data hash.
func ScriptFor(code []byte, args []byte) Script {
	h := types.ComputeHash(code)
	return Script{CodeHash: h[:], HashType: syscalls.HashTypeData1.String(), Args: args}
}

// Cell is an output, an input's previous output or a cell dep. Program, when
// set, replaces Data with the code registered under that name.
type Cell struct {
	Capacity cjson.Uint64 `json:"capacity"`
	Lock     Script       `json:"lock"`
	Type     *Script      `json:"type,omitempty"`
	Data     HexBytes     `json:"data,omitempty"`
	Program  string       `json:"program,omitempty"`
	// Header is an index into the header deps of the block holding the cell.
	Header *int `json:"header,omitempty"`
}

func (c *Cell) data() []byte {
	if c.Program != "" {
		return ProgramCode(c.Program)
	}
	return c.Data
}

func (c *Cell) build() (*types.CellOutput, error) {
	lock, err := c.Lock.build()
	if err != nil {
		return nil, err
	}
	out := &types.CellOutput{Capacity: uint64(c.Capacity), Lock: *lock}
	if c.Type != nil {
		typ, err := c.Type.build()
		if err != nil {
			return nil, err
		}
		out.Type = typ
	}
	return out, nil
}

type OutPoint struct {
	TxHash HexBytes     `json:"txHash"`
	Index  cjson.Uint32 `json:"index"`
}

type Input struct {
	PreviousOutput OutPoint     `json:"previousOutput"`
	Since          cjson.Uint64 `json:"since"`
	Cell           Cell         `json:"cell"`
}

func (i *Input) build() (types.CellInput, error) {
	txHash, err := i.PreviousOutput.TxHash.hash()
	if err != nil {
		return types.CellInput{}, err
	}
	return types.CellInput{
		Since: uint64(i.Since),
		PreviousOutput: types.OutPoint{
			TxHash: txHash,
			Index:  uint32(i.PreviousOutput.Index),
		},
	}, nil
}

type Header struct {
	Version    cjson.Uint32 `json:"version"`
	Number     cjson.Uint64 `json:"number"`
	Epoch      cjson.Uint64 `json:"epoch"`
	Timestamp  cjson.Uint64 `json:"timestamp"`
	ParentHash HexBytes     `json:"parentHash,omitempty"`
	Extension  HexBytes     `json:"extension,omitempty"`
}

func (h *Header) build() (*types.Header, error) {
	out := &types.Header{
		Version:   uint32(h.Version),
		Number:    uint64(h.Number),
		Epoch:     uint64(h.Epoch),
		Timestamp: uint64(h.Timestamp),
	}
	if len(h.ParentHash) > 0 {
		parent, err := h.ParentHash.hash()
		if err != nil {
			return nil, err
		}
		out.ParentHash = parent
	}
	return out, nil
}

// Fixture is a transaction plus the script to run against it.
type Fixture struct {
	// Script is the script being verified. Its code is resolved against the
	// cell deps.
	Script Script `json:"script"`
	// ScriptKind is "lock" (default) or "type" and selects the script
	// group.
	ScriptKind string     `json:"scriptKind,omitempty"`
	Argv       []string   `json:"argv,omitempty"`
	Inputs     []Input    `json:"inputs"`
	Outputs    []Cell     `json:"outputs"`
	CellDeps   []Cell     `json:"cellDeps"`
	HeaderDeps []Header   `json:"headerDeps,omitempty"`
	Witnesses  []HexBytes `json:"witnesses,omitempty"`
}

// ParseFixture decodes a JSON fixture.
func ParseFixture(b []byte) (*Fixture, error) {
	f := &Fixture{}
	if err := json.Unmarshal(b, f); err != nil {
		return nil, fmt.Errorf("couldn't parse fixture: %w", err)
	}
	return f, nil
}

// LoadFixture reads a fixture from [path]. Files ending in .yaml or .yml
// are YAML, anything else is JSON.
func LoadFixture(path string) (*Fixture, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if b, err = yaml.YAMLToJSON(b); err != nil {
			return nil, fmt.Errorf("couldn't parse fixture: %w", err)
		}
	}
	return ParseFixture(b)
}

func (f *Fixture) validate() error {
	if len(f.Script.CodeHash) == 0 {
		return errNoRootScript
	}
	switch f.ScriptKind {
	case "", "lock", "type":
	default:
		return fmt.Errorf("%w: %q", errBadScriptKind, f.ScriptKind)
	}
	check := func(c *Cell) error {
		if c.Header != nil && (*c.Header < 0 || *c.Header >= len(f.HeaderDeps)) {
			return fmt.Errorf("%w: %d", errBadHeaderIndex, *c.Header)
		}
		return nil
	}
	for i := range f.Inputs {
		if err := check(&f.Inputs[i].Cell); err != nil {
			return err
		}
	}
	for i := range f.CellDeps {
		if err := check(&f.CellDeps[i]); err != nil {
			return err
		}
	}
	return nil
}
