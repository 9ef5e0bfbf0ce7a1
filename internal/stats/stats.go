// Package stats collects operational counters for the worker. Writers send
// increments over a channel so hot paths never block on the collector lock.
package stats

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// StatType identifies a counter. The value is the JSON key used for
// serialization.
type StatType string

const (
	JobsQueued    StatType = "jobs_queued"
	JobsCompleted StatType = "jobs_completed"
	JobsFailed    StatType = "jobs_failed"
	ScrapeSuccess StatType = "scrape_success"
	ScrapeErrors  StatType = "scrape_errors"
	IngestSuccess StatType = "ingest_success"
	IngestErrors  StatType = "ingest_errors"
	RejectedURLs  StatType = "rejected_urls"
)

// AddStat is the message sent to the collector goroutine.
type AddStat struct {
	Type StatType
	Num  uint
}

type counters struct {
	BootTimeUnix      int64             `json:"boot_time"`
	LastOperationUnix int64             `json:"last_operation_time"`
	CurrentTimeUnix   int64             `json:"current_time"`
	Counts            map[StatType]uint `json:"stats"`
	sync.Mutex
}

// Collector accumulates counters sent through its channel.
type Collector struct {
	counters *counters
	ch       chan AddStat
}

// StartCollector starts a goroutine that drains the stat channel and
// updates the counters.
func StartCollector(bufSize uint) *Collector {
	logrus.Info("Starting stats collector")

	c := &counters{
		BootTimeUnix: time.Now().Unix(),
		Counts:       make(map[StatType]uint),
	}
	ch := make(chan AddStat, bufSize)

	go func() {
		for stat := range ch {
			c.Lock()
			c.LastOperationUnix = time.Now().Unix()
			c.Counts[stat.Type] += stat.Num
			c.Unlock()
			logrus.Debugf("Added %d to stat %s", stat.Num, stat.Type)
		}
	}()

	return &Collector{counters: c, ch: ch}
}

// Add increments a counter. Safe to call on a nil collector.
func (s *Collector) Add(typ StatType, num uint) {
	if s == nil {
		return
	}
	s.ch <- AddStat{Type: typ, Num: num}
}

// Json returns the current counters as a JSON byte array.
func (s *Collector) Json() ([]byte, error) {
	s.counters.Lock()
	defer s.counters.Unlock()
	s.counters.CurrentTimeUnix = time.Now().Unix()
	return json.Marshal(s.counters)
}

// Snapshot returns a copy of the current counter values.
func (s *Collector) Snapshot() map[StatType]uint {
	s.counters.Lock()
	defer s.counters.Unlock()
	out := make(map[StatType]uint, len(s.counters.Counts))
	for k, v := range s.counters.Counts {
		out[k] = v
	}
	return out
}
