// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package syscalls

import "fmt"

// Syscall numbers understood by the host VM.
const (
	SysExit               uint64 = 93
	SysVMVersion          uint64 = 2041
	SysCurrentCycles      uint64 = 2042
	SysExec               uint64 = 2043
	SysLoadTransaction    uint64 = 2051
	SysLoadScript         uint64 = 2052
	SysLoadTxHash         uint64 = 2061
	SysLoadScriptHash     uint64 = 2062
	SysLoadCell           uint64 = 2071
	SysLoadHeader         uint64 = 2072
	SysLoadInput          uint64 = 2073
	SysLoadWitness        uint64 = 2074
	SysLoadCellByField    uint64 = 2081
	SysLoadHeaderByField  uint64 = 2082
	SysLoadInputByField   uint64 = 2083
	SysLoadCellDataAsCode uint64 = 2091
	SysLoadCellData       uint64 = 2092
	SysLoadBlockExtension uint64 = 2104
	SysDebug              uint64 = 2177
	SysSpawn              uint64 = 2601
	SysWait               uint64 = 2602
	SysProcessID          uint64 = 2603
	SysPipe               uint64 = 2604
	SysWrite              uint64 = 2605
	SysRead               uint64 = 2606
	SysInheritedFDs       uint64 = 2607
	SysClose              uint64 = 2608
)

var syscallNames = map[uint64]string{
	SysExit:               "exit",
	SysVMVersion:          "vm_version",
	SysCurrentCycles:      "current_cycles",
	SysExec:               "exec",
	SysLoadTransaction:    "load_transaction",
	SysLoadScript:         "load_script",
	SysLoadTxHash:         "load_tx_hash",
	SysLoadScriptHash:     "load_script_hash",
	SysLoadCell:           "load_cell",
	SysLoadHeader:         "load_header",
	SysLoadInput:          "load_input",
	SysLoadWitness:        "load_witness",
	SysLoadCellByField:    "load_cell_by_field",
	SysLoadHeaderByField:  "load_header_by_field",
	SysLoadInputByField:   "load_input_by_field",
	SysLoadCellDataAsCode: "load_cell_data_as_code",
	SysLoadCellData:       "load_cell_data",
	SysLoadBlockExtension: "load_block_extension",
	SysDebug:              "debug",
	SysSpawn:              "spawn",
	SysWait:               "wait",
	SysProcessID:          "process_id",
	SysPipe:               "pipe",
	SysWrite:              "write",
	SysRead:               "read",
	SysInheritedFDs:       "inherited_fds",
	SysClose:              "close",
}

// SyscallName returns the canonical name of syscall [n].
func SyscallName(n uint64) string {
	if name, ok := syscallNames[n]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", n)
}

// Source selects the collection an indexed item is loaded from.
type Source uint64

const (
	SourceInput       Source = 1
	SourceOutput      Source = 2
	SourceCellDep     Source = 3
	SourceHeaderDep   Source = 4
	SourceGroupInput  Source = 0x0100000000000001
	SourceGroupOutput Source = 0x0100000000000002
)

func (s Source) String() string {
	switch s {
	case SourceInput:
		return "input"
	case SourceOutput:
		return "output"
	case SourceCellDep:
		return "cell_dep"
	case SourceHeaderDep:
		return "header_dep"
	case SourceGroupInput:
		return "group_input"
	case SourceGroupOutput:
		return "group_output"
	default:
		return fmt.Sprintf("source(%#x)", uint64(s))
	}
}

// CellField selects a single field of a cell for load_cell_by_field.
type CellField uint64

const (
	CellFieldCapacity         CellField = 0
	CellFieldDataHash         CellField = 1
	CellFieldLock             CellField = 2
	CellFieldLockHash         CellField = 3
	CellFieldType             CellField = 4
	CellFieldTypeHash         CellField = 5
	CellFieldOccupiedCapacity CellField = 6
)

// HeaderField selects a single field of a header for load_header_by_field.
type HeaderField uint64

const (
	HeaderFieldEpochNumber           HeaderField = 0
	HeaderFieldEpochStartBlockNumber HeaderField = 1
	HeaderFieldEpochLength           HeaderField = 2
)

// InputField selects a single field of an input for load_input_by_field.
type InputField uint64

const (
	InputFieldOutPoint InputField = 0
	InputFieldSince    InputField = 1
)

// Place tells exec and spawn where the program bytes live.
type Place uint64

const (
	PlaceCellData Place = 0
	PlaceWitness  Place = 1
)

// Bounds packs an offset into the high 32 bits and a length into the low 32
// bits. A zero length reads to the end of the content.
type Bounds uint64

// NewBounds returns the packed bounds for [offset, offset+length).
func NewBounds(offset, length uint32) Bounds {
	return Bounds(uint64(offset)<<32 | uint64(length))
}

func (b Bounds) Offset() uint64 { return uint64(b) >> 32 }
func (b Bounds) Length() uint64 { return uint64(b) & 0xffffffff }

// ScriptHashType tells how a script's code hash is matched against cells.
type ScriptHashType byte

const (
	HashTypeData  ScriptHashType = 0
	HashTypeType  ScriptHashType = 1
	HashTypeData1 ScriptHashType = 2
	HashTypeData2 ScriptHashType = 4
)

func (h ScriptHashType) String() string {
	switch h {
	case HashTypeData:
		return "data"
	case HashTypeType:
		return "type"
	case HashTypeData1:
		return "data1"
	case HashTypeData2:
		return "data2"
	default:
		return fmt.Sprintf("hash_type(%d)", byte(h))
	}
}

// IsData reports whether [h] matches code by data hash.
func (h ScriptHashType) IsData() bool {
	return h == HashTypeData || h == HashTypeData1 || h == HashTypeData2
}

// ParseHashType parses the textual form produced by String.
func ParseHashType(s string) (ScriptHashType, error) {
	switch s {
	case "data":
		return HashTypeData, nil
	case "type":
		return HashTypeType, nil
	case "data1":
		return HashTypeData1, nil
	case "data2":
		return HashTypeData2, nil
	default:
		return 0, fmt.Errorf("unknown hash type %q", s)
	}
}
