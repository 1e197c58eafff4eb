package model

import (
	"fmt"
	"time"
)

// Wire format of timestamps, always UTC with microseconds.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Zero Timestamp asks the service to assign time on arrival.
type Timestamp struct {
	Sec   int64
	Micro int32
}

func TimestampOf(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Sec: t.Unix(), Micro: int32(t.Nanosecond() / 1000)}
}

func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Timestamp{}, err
	}
	ts := TimestampOf(t)
	if ts.IsZero() {
		return Timestamp{}, fmt.Errorf("timestamp=%s is reserved for server time", s)
	}
	return ts, nil
}

func (ts Timestamp) IsZero() bool { return ts.Sec == 0 && ts.Micro == 0 }

func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Sec, int64(ts.Micro)*1000).UTC()
}

func (ts Timestamp) String() string {
	if ts.IsZero() {
		return "server"
	}
	return ts.Time().Format(TimestampLayout)
}

// AppendFormat appends wire representation, caller must check IsZero.
func (ts Timestamp) AppendFormat(b []byte) []byte {
	return ts.Time().AppendFormat(b, TimestampLayout)
}
