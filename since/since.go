// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package since implements the time lock value carried by transaction
// inputs.
package since

import (
	"fmt"

	"github.com/ava-labs/ckbstd/types"
)

const (
	lockTypeFlag        uint64 = 1 << 63
	metricTypeFlagMask  uint64 = 0x6000_0000_0000_0000
	flagsMask           uint64 = 0xff00_0000_0000_0000
	valueMask           uint64 = 0x00ff_ffff_ffff_ffff
	remainFlagsBits     uint64 = 0x1f00_0000_0000_0000
	lockByBlockNumber   uint64 = 0x0000_0000_0000_0000
	lockByEpoch         uint64 = 0x2000_0000_0000_0000
	lockByTimestamp     uint64 = 0x4000_0000_0000_0000
	timestampMultiplier uint64 = 1000
)

// Metric is the unit a lock value is measured in.
type Metric uint8

const (
	MetricBlockNumber Metric = iota
	MetricEpoch
	MetricTimestamp
)

func (m Metric) String() string {
	switch m {
	case MetricBlockNumber:
		return "block_number"
	case MetricEpoch:
		return "epoch"
	case MetricTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("metric(%d)", uint8(m))
	}
}

// Since packs a relative/absolute flag, a metric and a 56 bit value.
type Since uint64

// FromBlockNumber fails if [number] spills into the flag byte.
func FromBlockNumber(number uint64, absolute bool) (Since, bool) {
	if number&flagsMask != 0 {
		return 0, false
	}
	return Since(number | lockByBlockNumber | relativeFlag(absolute)), true
}

// FromTimestamp takes a median time in seconds. It fails if [timestamp]
// spills into the flag byte.
func FromTimestamp(timestamp uint64, absolute bool) (Since, bool) {
	if timestamp&flagsMask != 0 {
		return 0, false
	}
	return Since(timestamp | lockByTimestamp | relativeFlag(absolute)), true
}

func FromEpoch(epoch EpochNumberWithFraction, absolute bool) Since {
	return Since(epoch.FullValue()&valueMask | lockByEpoch | relativeFlag(absolute))
}

func relativeFlag(absolute bool) uint64 {
	if absolute {
		return 0
	}
	return lockTypeFlag
}

func (s Since) Uint64() uint64   { return uint64(s) }
func (s Since) IsAbsolute() bool { return uint64(s)&lockTypeFlag == 0 }
func (s Since) IsRelative() bool { return !s.IsAbsolute() }
func (s Since) Flags() uint64    { return uint64(s) & flagsMask }

// FlagsValid reports whether the reserved bits are clear and the metric is
// not the reserved one.
func (s Since) FlagsValid() bool {
	return uint64(s)&remainFlagsBits == 0 && uint64(s)&metricTypeFlagMask != metricTypeFlagMask
}

// LockValue is the decoded value of a Since.
type LockValue struct {
	Metric Metric
	// Value is a block number, a timestamp in milliseconds, or a packed
	// epoch depending on Metric.
	Value uint64
}

func (l LockValue) BlockNumber() (uint64, bool) {
	return l.Value, l.Metric == MetricBlockNumber
}

func (l LockValue) Timestamp() (uint64, bool) {
	return l.Value, l.Metric == MetricTimestamp
}

func (l LockValue) Epoch() (EpochNumberWithFraction, bool) {
	return EpochNumberWithFraction(l.Value), l.Metric == MetricEpoch
}

// ExtractLockValue decodes the metric and value. Timestamps are scaled from
// seconds to milliseconds. It fails on the reserved metric.
func (s Since) ExtractLockValue() (LockValue, bool) {
	value := uint64(s) & valueMask
	switch uint64(s) & metricTypeFlagMask {
	case lockByBlockNumber:
		return LockValue{Metric: MetricBlockNumber, Value: value}, true
	case lockByEpoch:
		return LockValue{Metric: MetricEpoch, Value: EpochFromFullValue(value).FullValue()}, true
	case lockByTimestamp:
		return LockValue{Metric: MetricTimestamp, Value: value * timestampMultiplier}, true
	default:
		return LockValue{}, false
	}
}

// Compare orders two values of the same flag and metric. The second result
// is false when the values are incomparable: one absolute and one relative,
// different metrics, or an invalid metric on either side.
func (s Since) Compare(other Since) (int, bool) {
	if s.IsAbsolute() != other.IsAbsolute() {
		return 0, false
	}
	a, ok := s.ExtractLockValue()
	if !ok {
		return 0, false
	}
	b, ok := other.ExtractLockValue()
	if !ok || a.Metric != b.Metric {
		return 0, false
	}
	if a.Metric == MetricEpoch {
		return EpochNumberWithFraction(a.Value).Compare(EpochNumberWithFraction(b.Value)), true
	}
	switch {
	case a.Value < b.Value:
		return -1, true
	case a.Value > b.Value:
		return 1, true
	default:
		return 0, true
	}
}

// ToAbsolute converts a relative value into an absolute one measured from
// [base], the header of the block the input cell was committed in.
func (s Since) ToAbsolute(base *types.Header) (Since, bool) {
	if !s.IsRelative() {
		return 0, false
	}
	lock, ok := s.ExtractLockValue()
	if !ok {
		return 0, false
	}
	switch lock.Metric {
	case MetricBlockNumber:
		number := base.Number + lock.Value
		if number < base.Number {
			return 0, false
		}
		return FromBlockNumber(number, true)
	case MetricTimestamp:
		timestamp := base.Timestamp + lock.Value
		if timestamp < base.Timestamp {
			return 0, false
		}
		return FromTimestamp(timestamp, true)
	default:
		baseEpoch := EpochFromFullValue(base.Epoch & valueMask)
		epoch, ok := EpochNumberWithFraction(lock.Value).Add(baseEpoch)
		if !ok {
			return 0, false
		}
		return FromEpoch(epoch, true), true
	}
}

func (s Since) String() string {
	kind := "absolute"
	if s.IsRelative() {
		kind = "relative"
	}
	lock, ok := s.ExtractLockValue()
	if !ok {
		return fmt.Sprintf("%s invalid(%#x)", kind, uint64(s))
	}
	if lock.Metric == MetricEpoch {
		return fmt.Sprintf("%s epoch %s", kind, EpochNumberWithFraction(lock.Value))
	}
	return fmt.Sprintf("%s %s %d", kind, lock.Metric, lock.Value)
}
