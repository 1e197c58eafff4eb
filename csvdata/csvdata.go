// Package csvdata is the compact CSV body format of feeds and datastreams.
//
//	datapoint:  value | ts,value
//	datastream: v1,v2,v3 | ts1,v1\nts2,v2
//	feed:       id,v1,v2\nid,ts,v
//
// Decoding fills caller allocated structures and never grows them.
package csvdata

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/temoto/xively/model"
	"github.com/temoto/xively/xerr"
)

const (
	opEncode = "csv encode"
	opDecode = "csv decode"
)

func AppendDatapoint(b []byte, dp *model.Datapoint) ([]byte, error) {
	if !dp.Timestamp.IsZero() {
		b = dp.Timestamp.AppendFormat(b)
		b = append(b, ',')
	}
	return appendValue(b, dp)
}

// AppendDatastream writes values joined by comma when no datapoint has
// timestamp, otherwise one line per datapoint.
func AppendDatastream(b []byte, ds *model.Datastream) ([]byte, error) {
	points := ds.Points.Items()
	timed := anyTimestamp(points)
	var err error
	for i := range points {
		if i != 0 {
			if timed {
				b = append(b, '\n')
			} else {
				b = append(b, ',')
			}
		}
		if b, err = AppendDatapoint(b, &points[i]); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// AppendFeed writes one line per datastream, or one line per datapoint
// for datastreams with timestamps. No trailing newline.
func AppendFeed(b []byte, f *model.Feed) ([]byte, error) {
	streams := f.Datastreams.Items()
	first := true
	for i := range streams {
		ds := &streams[i]
		if err := checkName(opEncode, ds.ID); err != nil {
			return nil, err
		}
		points := ds.Points.Items()
		if len(points) == 0 {
			continue
		}
		var err error
		if !anyTimestamp(points) {
			if !first {
				b = append(b, '\n')
			}
			first = false
			b = append(b, ds.ID...)
			for j := range points {
				b = append(b, ',')
				if b, err = appendValue(b, &points[j]); err != nil {
					return nil, err
				}
			}
			continue
		}
		for j := range points {
			if !first {
				b = append(b, '\n')
			}
			first = false
			b = append(b, ds.ID...)
			b = append(b, ',')
			if b, err = AppendDatapoint(b, &points[j]); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}

// ParseValue infers type: int32, then float32, then string.
func ParseValue(dp *model.Datapoint, s string) error {
	if i, err := strconv.ParseInt(s, 10, 32); err == nil {
		dp.SetI32(int32(i))
		return nil
	}
	if hasDigit(s) {
		if f, err := strconv.ParseFloat(s, 32); err == nil {
			dp.SetF32(float32(f))
			return nil
		}
	}
	if err := dp.SetStr(s); err != nil {
		return xerr.New(xerr.KindDecode, opDecode, err)
	}
	return nil
}

// DecodeDatapoint reads `value` or `ts,value` from single line body.
// Timestamp is left untouched when absent.
func DecodeDatapoint(dp *model.Datapoint, body []byte) error {
	line := bytes.TrimRight(body, "\r\n")
	if bytes.IndexAny(line, "\r\n") != -1 {
		return xerr.Errorf(xerr.KindDecode, opDecode, "datapoint expected single line body=%q", body)
	}
	fields := bytes.Split(line, []byte{','})
	switch len(fields) {
	case 1:
		return ParseValue(dp, string(fields[0]))
	case 2:
		ts, err := model.ParseTimestamp(string(fields[0]))
		if err != nil {
			return xerr.New(xerr.KindDecode, opDecode, err)
		}
		if err = ParseValue(dp, string(fields[1])); err != nil {
			return err
		}
		dp.Timestamp = ts
		return nil
	}
	return xerr.Errorf(xerr.KindDecode, opDecode, "datapoint fields=%d body=%q", len(fields), body)
}

// DecodeDatastream appends datapoints from body to ds.
func DecodeDatastream(ds *model.Datastream, body []byte) error {
	return eachLine(body, func(line []byte) error {
		return decodeValues(ds, bytes.Split(line, []byte{','}))
	})
}

// DecodeFeed appends datapoints from body to datastreams of f,
// adding datastreams as they appear.
func DecodeFeed(f *model.Feed, body []byte) error {
	return eachLine(body, func(line []byte) error {
		fields := bytes.Split(line, []byte{','})
		if len(fields) < 2 {
			return xerr.Errorf(xerr.KindDecode, opDecode, "feed line=%q expected id,value", line)
		}
		id := string(fields[0])
		if err := checkName(opDecode, id); err != nil {
			return err
		}
		ds, err := f.Ensure(id)
		if err != nil {
			return xerr.New(xerr.KindDecode, opDecode, err)
		}
		return decodeValues(ds, fields[1:])
	})
}

func decodeValues(ds *model.Datastream, fields [][]byte) error {
	if len(fields) == 2 {
		if ts, err := model.ParseTimestamp(string(fields[0])); err == nil {
			var dp model.Datapoint
			if err = ParseValue(&dp, string(fields[1])); err != nil {
				return err
			}
			dp.Timestamp = ts
			return addPoint(ds, dp)
		}
	}
	for _, field := range fields {
		var dp model.Datapoint
		if err := ParseValue(&dp, string(field)); err != nil {
			return err
		}
		if err := addPoint(ds, dp); err != nil {
			return err
		}
	}
	return nil
}

func addPoint(ds *model.Datastream, dp model.Datapoint) error {
	if err := ds.Add(dp); err != nil {
		return xerr.New(xerr.KindDecode, opDecode, err)
	}
	return nil
}

func eachLine(body []byte, fun func(line []byte) error) error {
	for len(body) != 0 {
		var line []byte
		if i := bytes.IndexByte(body, '\n'); i != -1 {
			line, body = body[:i], body[i+1:]
		} else {
			line, body = body, nil
		}
		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 {
			continue
		}
		if err := fun(line); err != nil {
			return err
		}
	}
	return nil
}

func appendValue(b []byte, dp *model.Datapoint) ([]byte, error) {
	switch dp.Type() {
	case model.TypeStr:
		if s := dp.Str(); containsSeparator(s) {
			return nil, xerr.Errorf(xerr.KindPrecondition, opEncode, "string value=%q contains separator", s)
		}
	case model.TypeF32:
		// NaN and Inf text would decode back as string
		if f := float64(dp.F32()); math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, xerr.Errorf(xerr.KindPrecondition, opEncode, "float value=%v not finite", f)
		}
	}
	return dp.AppendValue(b), nil
}

func checkName(op string, id string) error {
	kind := xerr.KindPrecondition
	if op == opDecode {
		kind = xerr.KindDecode
	}
	switch {
	case id == "":
		return xerr.Errorf(kind, op, "datastream id empty")
	case len(id) > model.MaxDatastreamName:
		return xerr.Errorf(kind, op, "datastream id=%s length=%d max=%d", id, len(id), model.MaxDatastreamName)
	case containsSeparator(id):
		return xerr.Errorf(kind, op, "datastream id=%q contains separator", id)
	}
	return nil
}

func anyTimestamp(points []model.Datapoint) bool {
	for i := range points {
		if !points[i].Timestamp.IsZero() {
			return true
		}
	}
	return false
}

func containsSeparator(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ',', '\r', '\n':
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return true
		}
	}
	return false
}

// String is debug helper, never fails.
func String(ds *model.Datastream) string {
	b, err := AppendDatastream(nil, ds)
	if err != nil {
		return fmt.Sprintf("(error %v)", err)
	}
	return string(b)
}
