package main

import (
	"context"
	"strconv"
	"strings"
	"time"

	prompt "github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/xively"
	"github.com/temoto/xively/comm"
	"github.com/temoto/xively/csvdata"
	"github.com/temoto/xively/log2"
	"github.com/temoto/xively/model"
	"github.com/temoto/xively/transport"
)

const usage = `syntax: one command per line
(feed)
- feed                     show all datastreams of configured feed
(datastream)
- get ID                   show current value
- put ID VALUE...          append values, one datapoint each
- create ID VALUE          create datastream with initial value
- delete ID                delete datastream
(datapoint)
- delete-point ID TS       delete datapoint at timestamp
- delete-range ID START END
                           delete datapoints in time range
(meta)
- timeout MS               network timeout
- log=yes                  enable debug logging
- log=no                   disable debug logging
- stat                     connection counters
`

type command func(ctx context.Context, s *session) error

type session struct {
	client  *xively.Client
	log     *log2.Log
	timeout *comm.Timeout
}

func newSession(client *xively.Client, log *log2.Log, timeout *comm.Timeout) *session {
	return &session{client: client, log: log, timeout: timeout}
}

func (s *session) executor() func(string) {
	return func(line string) {
		cmd, err := parseLine(line)
		if err != nil {
			s.log.Errorf(errors.ErrorStack(err))
			return
		}
		if cmd == nil {
			return
		}
		if err = cmd(context.Background(), s); err != nil {
			s.log.Errorf(errors.ErrorStack(err))
		}
	}
}

func (s *session) feedID() int32 { return s.client.Context().FeedID() }

func (s *session) report(r *transport.Response) {
	if r != nil {
		s.log.Debugf("< %s", r.String())
	}
}

func newCompleter() func(d prompt.Document) []prompt.Suggest {
	suggests := []prompt.Suggest{
		{Text: "help", Description: "show usage"},
		{Text: "feed", Description: "show feed datastreams"},
		{Text: "get", Description: "get ID"},
		{Text: "put", Description: "put ID VALUE..."},
		{Text: "create", Description: "create ID VALUE"},
		{Text: "delete", Description: "delete ID"},
		{Text: "delete-point", Description: "delete-point ID TS"},
		{Text: "delete-range", Description: "delete-range ID START END"},
		{Text: "timeout", Description: "timeout MS"},
		{Text: "log=yes", Description: "enable debug logging"},
		{Text: "log=no", Description: "disable debug logging"},
		{Text: "stat", Description: "connection counters"},
	}

	return func(d prompt.Document) []prompt.Suggest {
		return prompt.FilterFuzzy(suggests, d.GetWordBeforeCursor(), true)
	}
}

// parseLine returns nil command for empty line.
func parseLine(line string) (command, error) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return nil, nil
	}
	name, args := words[0], words[1:]
	argc := func(n int) error {
		if len(args) != n {
			return errors.NotValidf("%s expects %d arguments, got %d", name, n, len(args))
		}
		return nil
	}

	switch name {
	case "help":
		return doUsage, nil
	case "log=yes":
		return doLogLevel(log2.LDebug), nil
	case "log=no":
		return doLogLevel(log2.LInfo), nil
	case "stat":
		return doStat, nil
	case "feed":
		return doFeed, argc(0)
	case "timeout":
		if err := argc(1); err != nil {
			return nil, err
		}
		ms, err := strconv.ParseUint(args[0], 10, 31)
		if err != nil {
			return nil, errors.Annotatef(err, "timeout=%s", args[0])
		}
		return doTimeout(time.Duration(ms) * time.Millisecond), nil
	case "get":
		if err := argc(1); err != nil {
			return nil, err
		}
		return doGet(args[0]), nil
	case "put":
		if len(args) < 2 {
			return nil, errors.NotValidf("put expects ID VALUE...")
		}
		ds := model.NewDatastream(args[0])
		for _, a := range args[1:] {
			var dp model.Datapoint
			if err := csvdata.ParseValue(&dp, a); err != nil {
				return nil, errors.Annotatef(err, "value=%s", a)
			}
			if err := ds.Add(dp); err != nil {
				return nil, errors.Annotate(err, "put")
			}
		}
		return doPut(ds), nil
	case "create":
		if err := argc(2); err != nil {
			return nil, err
		}
		var dp model.Datapoint
		if err := csvdata.ParseValue(&dp, args[1]); err != nil {
			return nil, errors.Annotatef(err, "value=%s", args[1])
		}
		return doCreate(args[0], dp), nil
	case "delete":
		if err := argc(1); err != nil {
			return nil, err
		}
		return doDelete(args[0]), nil
	case "delete-point":
		if err := argc(2); err != nil {
			return nil, err
		}
		ts, err := model.ParseTimestamp(args[1])
		if err != nil {
			return nil, errors.Annotatef(err, "ts=%s", args[1])
		}
		return doDeletePoint(args[0], ts), nil
	case "delete-range":
		if err := argc(3); err != nil {
			return nil, err
		}
		start, err := model.ParseTimestamp(args[1])
		if err != nil {
			return nil, errors.Annotatef(err, "start=%s", args[1])
		}
		end, err := model.ParseTimestamp(args[2])
		if err != nil {
			return nil, errors.Annotatef(err, "end=%s", args[2])
		}
		return doDeleteRange(args[0], start, end), nil
	}
	return nil, errors.NotSupportedf("command=%s", name)
}

func doUsage(ctx context.Context, s *session) error {
	s.log.Info(usage)
	return nil
}

func doLogLevel(level log2.Level) command {
	return func(ctx context.Context, s *session) error {
		s.log.SetLevel(level)
		return nil
	}
}

func doStat(ctx context.Context, s *session) error {
	s.log.Infof("stat %s", s.client.Stat().String())
	return nil
}

func doTimeout(d time.Duration) command {
	return func(ctx context.Context, s *session) error {
		s.timeout.Set(d)
		s.log.Infof("timeout=%v", s.timeout.Get())
		return nil
	}
}

func doFeed(ctx context.Context, s *session) error {
	feed := model.NewFeed(s.feedID())
	r, err := s.client.FeedGet(ctx, feed)
	s.report(r)
	if err != nil {
		return err
	}
	for i := range feed.Datastreams.Items() {
		ds := &feed.Datastreams.Items()[i]
		s.log.Infof("%s = %s", ds.ID, csvdata.String(ds))
	}
	return nil
}

func doGet(id string) command {
	return func(ctx context.Context, s *session) error {
		var dp model.Datapoint
		r, err := s.client.DatastreamGet(ctx, s.feedID(), id, &dp)
		s.report(r)
		if err != nil {
			return err
		}
		value := dp.AppendValue(nil)
		if dp.Timestamp.IsZero() {
			s.log.Infof("%s = %s", id, value)
		} else {
			s.log.Infof("%s = %s at %s", id, value, dp.Timestamp.String())
		}
		return nil
	}
}

func doPut(ds *model.Datastream) command {
	return func(ctx context.Context, s *session) error {
		r, err := s.client.DatastreamUpdate(ctx, s.feedID(), ds)
		s.report(r)
		return err
	}
}

func doCreate(id string, dp model.Datapoint) command {
	return func(ctx context.Context, s *session) error {
		r, err := s.client.DatastreamCreate(ctx, s.feedID(), id, &dp)
		s.report(r)
		return err
	}
}

func doDelete(id string) command {
	return func(ctx context.Context, s *session) error {
		r, err := s.client.DatastreamDelete(ctx, s.feedID(), id)
		s.report(r)
		return err
	}
}

func doDeletePoint(id string, ts model.Timestamp) command {
	return func(ctx context.Context, s *session) error {
		dp := model.Datapoint{Timestamp: ts}
		r, err := s.client.DatapointDelete(ctx, s.feedID(), id, &dp)
		s.report(r)
		return err
	}
}

func doDeleteRange(id string, start, end model.Timestamp) command {
	return func(ctx context.Context, s *session) error {
		r, err := s.client.DatapointDeleteRange(ctx, s.feedID(), id, start, end)
		s.report(r)
		return err
	}
}
