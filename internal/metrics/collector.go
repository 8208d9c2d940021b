// Package metrics holds the traffic counters of the sync layer. A
// Collector is created by the caller and injected into the services that
// update it.
package metrics

import "sync/atomic"

type Collector struct {
	reads              atomic.Int64
	writes             atomic.Int64
	remoteReadFailures atomic.Int64
	remoteWriteFailure atomic.Int64
	localFailures      atomic.Int64
	flushed            atomic.Int64
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) IncReads()               { c.reads.Add(1) }
func (c *Collector) IncWrites()              { c.writes.Add(1) }
func (c *Collector) IncRemoteReadFailures()  { c.remoteReadFailures.Add(1) }
func (c *Collector) IncRemoteWriteFailures() { c.remoteWriteFailure.Add(1) }
func (c *Collector) IncLocalFailures()       { c.localFailures.Add(1) }
func (c *Collector) AddFlushed(n int)        { c.flushed.Add(int64(n)) }

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Reads               int64 `json:"reads"`
	Writes              int64 `json:"writes"`
	RemoteReadFailures  int64 `json:"remoteReadFailures"`
	RemoteWriteFailures int64 `json:"remoteWriteFailures"`
	LocalFailures       int64 `json:"localFailures"`
	Flushed             int64 `json:"flushed"`
}

func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Reads:               c.reads.Load(),
		Writes:              c.writes.Load(),
		RemoteReadFailures:  c.remoteReadFailures.Load(),
		RemoteWriteFailures: c.remoteWriteFailure.Load(),
		LocalFailures:       c.localFailures.Load(),
		Flushed:             c.flushed.Load(),
	}
}
