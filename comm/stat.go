package comm

// Values are read and modified atomically, but not consistently,
// i.e. it is possible to read Send.Count=1 Send.Size=0 because Size has not updated yet.

import (
	"expvar"
	"fmt"
)

type Stat struct {
	Conn      expvar.Int
	CloseFail expvar.Int
	Recv      CountSizePair
	Send      CountSizePair
}

func (s *Stat) Add(other *Stat) {
	s.Conn.Add(other.Conn.Value())
	s.CloseFail.Add(other.CloseFail.Value())
	s.Recv.Add(&other.Recv)
	s.Send.Add(&other.Send)
}

func (s *Stat) Value() (r Stat) {
	r.Conn.Set(s.Conn.Value())
	r.CloseFail.Set(s.CloseFail.Value())
	r.Recv = s.Recv.Value()
	r.Send = s.Send.Value()
	return
}

func (s *Stat) String() string {
	return fmt.Sprintf(`{"conn":%d,"close_fail":%d,"recv":%s,"send":%s}`,
		s.Conn.Value(), s.CloseFail.Value(), s.Recv.String(), s.Send.String())
}

type CountSizePair struct {
	Count expvar.Int
	Size  expvar.Int
}

func (csp *CountSizePair) Register(n int) {
	csp.Count.Add(1)
	csp.Size.Add(int64(n))
}

func (csp *CountSizePair) Add(other *CountSizePair) {
	csp.Count.Add(other.Count.Value())
	csp.Size.Add(other.Size.Value())
}

func (csp *CountSizePair) Value() (r CountSizePair) {
	r.Count.Set(csp.Count.Value())
	r.Size.Set(csp.Size.Value())
	return
}

func (csp *CountSizePair) String() string {
	return fmt.Sprintf(`{"count":%d,"size":%d}`, csp.Count.Value(), csp.Size.Value())
}
