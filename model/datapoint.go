package model

import (
	"fmt"
	"strconv"

	"github.com/temoto/xively/xerr"
)

type ValueType uint8

const (
	TypeI32 ValueType = iota
	TypeF32
	TypeStr
)

func (t ValueType) String() string {
	switch t {
	case TypeI32:
		return "i32"
	case TypeF32:
		return "f32"
	case TypeStr:
		return "str"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Datapoint is one timestamped value. Active type always matches the last
// successful Set* call. Zero Datapoint is integer 0 with server timestamp.
type Datapoint struct {
	Timestamp Timestamp

	typ ValueType
	i32 int32
	f32 float32
	str string
}

func I32(v int32) Datapoint   { var dp Datapoint; dp.SetI32(v); return dp }
func F32(v float32) Datapoint { var dp Datapoint; dp.SetF32(v); return dp }

func Str(v string) (Datapoint, error) {
	var dp Datapoint
	err := dp.SetStr(v)
	return dp, err
}

// Setters replace whole value, keep timestamp.

func (dp *Datapoint) SetI32(v int32) *Datapoint {
	*dp = Datapoint{Timestamp: dp.Timestamp, typ: TypeI32, i32: v}
	return dp
}

func (dp *Datapoint) SetF32(v float32) *Datapoint {
	*dp = Datapoint{Timestamp: dp.Timestamp, typ: TypeF32, f32: v}
	return dp
}

// SetStr fails and leaves dp unchanged when v exceeds MaxValueString.
func (dp *Datapoint) SetStr(v string) error {
	if len(v) > MaxValueString {
		return xerr.Errorf(xerr.KindEncodeOverflow, "datapoint set", "string length=%d max=%d", len(v), MaxValueString)
	}
	*dp = Datapoint{Timestamp: dp.Timestamp, typ: TypeStr, str: v}
	return nil
}

func (dp *Datapoint) Type() ValueType { return dp.typ }
func (dp *Datapoint) I32() int32      { return dp.i32 }
func (dp *Datapoint) F32() float32    { return dp.f32 }
func (dp *Datapoint) Str() string     { return dp.str }

// AppendValue appends untyped wire text of the value.
// Float always carries decimal point so it decodes back as float.
func (dp *Datapoint) AppendValue(b []byte) []byte {
	switch dp.typ {
	case TypeI32:
		return strconv.AppendInt(b, int64(dp.i32), 10)
	case TypeF32:
		start := len(b)
		b = strconv.AppendFloat(b, float64(dp.f32), 'g', -1, 32)
		if isIntegerText(b[start:]) {
			b = append(b, '.', '0')
		}
		return b
	case TypeStr:
		return append(b, dp.str...)
	}
	panic(fmt.Sprintf("code error datapoint type=%d", dp.typ))
}

func (dp *Datapoint) String() string {
	return fmt.Sprintf("(%s %s ts=%s)", dp.typ, dp.AppendValue(nil), dp.Timestamp)
}

func isIntegerText(b []byte) bool {
	for i, c := range b {
		if c == '-' && i == 0 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(b) > 0
}
