package model

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/xively/bounded"
	"github.com/temoto/xively/xerr"
)

func TestDatapointSetOverwrites(t *testing.T) {
	t.Parallel()

	var dp Datapoint
	ts := Timestamp{Sec: 1357000000, Micro: 5}
	dp.Timestamp = ts
	require.NoError(t, dp.SetStr("abc"))
	dp.SetI32(7)
	assert.Equal(t, TypeI32, dp.Type())
	assert.Equal(t, int32(7), dp.I32())
	assert.Equal(t, "", dp.Str())
	assert.Equal(t, ts, dp.Timestamp)

	dp.SetF32(1.5)
	assert.Equal(t, TypeF32, dp.Type())
	assert.Equal(t, int32(0), dp.I32())
	assert.Equal(t, float32(1.5), dp.F32())
}

func TestDatapointSetStrOverflow(t *testing.T) {
	t.Parallel()

	dp := I32(42)
	err := dp.SetStr(strings.Repeat("x", MaxValueString+1))
	require.Error(t, err)
	assert.Equal(t, xerr.KindEncodeOverflow, xerr.KindOf(err))
	assert.Equal(t, TypeI32, dp.Type())
	assert.Equal(t, int32(42), dp.I32())

	require.NoError(t, dp.SetStr(strings.Repeat("x", MaxValueString)))
}

func TestDatapointAppendValue(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		dp     Datapoint
		expect string
	}{
		{"int", I32(-12), "-12"},
		{"float-int", F32(2), "2.0"},
		{"float-neg", F32(-3), "-3.0"},
		{"float", F32(21.5), "21.5"},
		{"float-exp", F32(1e10), "1e+10"},
		{"str", mustStr(t, "on"), "on"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, c.expect, string(c.dp.AppendValue(nil)))
		})
	}
}

func TestTimestamp(t *testing.T) {
	t.Parallel()

	ts, err := ParseTimestamp("2013-01-01T00:00:00.000001Z")
	require.NoError(t, err)
	assert.Equal(t, Timestamp{Sec: 1356998400, Micro: 1}, ts)
	assert.Equal(t, "2013-01-01T00:00:00.000001Z", string(ts.AppendFormat(nil)))
	assert.Equal(t, "2013-01-01T00:00:00.000001Z", ts.String())

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
	_, err = ParseTimestamp("1970-01-01T00:00:00Z")
	assert.Error(t, err)

	assert.True(t, TimestampOf(time.Time{}).IsZero())
	assert.Equal(t, "server", Timestamp{}.String())
}

func TestDatastreamAdd(t *testing.T) {
	t.Parallel()

	ds := NewDatastreamCap("temp", 2)
	require.NoError(t, ds.Add(I32(1)))
	require.NoError(t, ds.Add(I32(2)))
	err := ds.Add(I32(3))
	require.Error(t, err)
	assert.Equal(t, xerr.KindPrecondition, xerr.KindOf(err))
	assert.True(t, errors.Is(err, bounded.ErrFull))
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, int32(2), ds.Last().I32())
}

func TestFeed(t *testing.T) {
	t.Parallel()

	f := NewFeedCap(42, 2, 3)
	a, err := f.AddDatastream("a")
	require.NoError(t, err)
	assert.Equal(t, 3, a.Points.Cap())
	b, err := f.Ensure("b")
	require.NoError(t, err)
	same, err := f.Ensure("b")
	require.NoError(t, err)
	assert.Same(t, b, same)
	_, err = f.AddDatastream("c")
	assert.Equal(t, xerr.KindPrecondition, xerr.KindOf(err))
	assert.Nil(t, f.Datastream("c"))

	f.Reset()
	assert.Equal(t, 0, f.Datastreams.Len())
	assert.Nil(t, f.Datastream("a"))
}

func mustStr(t testing.TB, s string) Datapoint {
	dp, err := Str(s)
	require.NoError(t, err)
	return dp
}
