package spool

import (
	"reflect"
	"testing"
	"time"

	"github.com/golang/protobuf/descriptor"
	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/spq"
	"github.com/temoto/xively/log2"
	"github.com/temoto/xively/model"
)

func testFeed(t testing.TB) *model.Feed {
	f := model.NewFeed(42)
	temp, err := f.AddDatastream("temp")
	require.NoError(t, err)
	dp := model.F32(21.5)
	dp.Timestamp = model.Timestamp{Sec: 1356998400, Micro: 7}
	require.NoError(t, temp.Add(dp))
	door, err := f.AddDatastream("door")
	require.NoError(t, err)
	s, err := model.Str("open")
	require.NoError(t, err)
	require.NoError(t, door.Add(s))
	require.NoError(t, door.Add(model.I32(-3)))
	return f
}

func TestEntryProtoRoundTrip(t *testing.T) {
	t.Parallel()

	src := testFeed(t)
	b, err := proto.Marshal(EntryFromFeed(src, time.Unix(1500000000, 0)))
	require.NoError(t, err)
	var e Entry
	require.NoError(t, proto.Unmarshal(b, &e))
	assert.Equal(t, int32(42), e.FeedId)
	assert.Equal(t, int64(1500000000), e.CreatedUnix)

	dst, err := e.Feed()
	require.NoError(t, err)
	assert.Equal(t, src.ID, dst.ID)
	require.Equal(t, src.Datastreams.Len(), dst.Datastreams.Len())
	for i, ds := range src.Datastreams.Items() {
		other := dst.Datastreams.At(i)
		assert.Equal(t, ds.ID, other.ID)
		assert.Equal(t, ds.Points.Items(), other.Points.Items())
	}
}

func TestEntryDescriptor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		msg    descriptor.Message
		fields []string
	}{
		{"spool.Entry", &Entry{}, []string{"feed_id", "created_unix", "streams"}},
		{"spool.Stream", &Stream{}, []string{"id", "points"}},
		{"spool.Point", &Point{}, []string{"kind", "i32", "f32", "str", "sec", "micro"}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, reflect.TypeOf(c.msg), proto.MessageType(c.name))
			fd, md := descriptor.ForMessage(c.msg)
			assert.Equal(t, "entry.proto", fd.GetName())
			assert.Equal(t, "proto3", fd.GetSyntax())
			names := []string{}
			for i, f := range md.GetField() {
				names = append(names, f.GetName())
				assert.Equal(t, int32(i+1), f.GetNumber())
			}
			assert.Equal(t, c.fields, names)
		})
	}
}

func TestEntryInvalidKind(t *testing.T) {
	t.Parallel()

	e := Entry{FeedId: 1, Streams: []*Stream{{Id: "a", Points: []*Point{{Kind: 9}}}}}
	_, err := e.Feed()
	assert.Error(t, err)
}

func TestSpoolQueue(t *testing.T) {
	t.Parallel()

	s, err := Open(spq.OnlyForTesting, log2.NewTest(t, log2.LDebug))
	require.NoError(t, err)
	defer s.Close()

	first := testFeed(t)
	second := model.NewFeed(43)
	require.NoError(t, s.Push(first))
	require.NoError(t, s.Push(second))

	f, created, box, err := s.Peek()
	require.NoError(t, err)
	assert.Equal(t, int32(42), f.ID)
	assert.WithinDuration(t, time.Now(), created, time.Minute)
	require.NoError(t, s.Requeue(box))

	f, _, box, err = s.Peek()
	require.NoError(t, err)
	assert.Equal(t, int32(43), f.ID)
	require.NoError(t, s.Delete(box))

	f, _, box, err = s.Peek()
	require.NoError(t, err)
	assert.Equal(t, int32(42), f.ID)
	assert.Equal(t, "open", f.Datastream("door").Points.At(0).Str())
	require.NoError(t, s.Delete(box))
}

func TestSpoolClosedPeek(t *testing.T) {
	t.Parallel()

	s, err := Open(spq.OnlyForTesting, nil)
	require.NoError(t, err)
	done := make(chan error)
	go func() {
		_, _, _, err := s.Peek()
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Close())
	select {
	case err = <-done:
		assert.Equal(t, ErrClosed, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Peek did not return after Close")
	}

	_, err = Open("", nil)
	assert.Error(t, err)
}
