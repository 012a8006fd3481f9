// Package history keeps an index of past live runs in a Badger store so
// they can be listed and inspected without re-reading the run log file.
package history

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
	"github.com/jamesainslie/tidy/pkg/tidy/report"
)

// Key layout:
//
//	run\x00<started>\x00<id>  -> gob(Record)
//	id\x00<id>                -> run key
const keySeparator = '\x00'

var (
	runPrefix = []byte("run" + string(keySeparator))
	idPrefix  = []byte("id" + string(keySeparator))
)

// stampLayout sorts lexically in time order.
const stampLayout = "20060102T150405.000000000Z"

// Record is the stored form of one run.
type Record struct {
	ID       string
	Root     string
	Started  time.Time
	Finished time.Time
	Summary  report.Summary
	Entries  []organizer.LogEntry
}

// Duration returns how long the run took, or 0 when unknown.
func (r *Record) Duration() time.Duration {
	if r.Finished.IsZero() || r.Finished.Before(r.Started) {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// FromRunLog builds a Record from a finished run.
func FromRunLog(log *organizer.RunLog) Record {
	return Record{
		ID:       log.ID,
		Root:     log.Root,
		Started:  log.Started,
		Finished: log.Finished,
		Summary:  report.Summarize(log),
		Entries:  log.Entries,
	}
}

// FromRun builds a Record from a block of the run log file. The file does
// not keep the finish time.
func FromRun(run report.Run) Record {
	return Record{
		ID:      run.ID,
		Root:    run.Root,
		Started: run.Time,
		Summary: report.SummarizeEntries(run.Entries),
		Entries: run.Entries,
	}
}

// Encode serializes the record using gob.
func (r *Record) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes data into the record.
func (r *Record) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(r)
}

func runKey(started time.Time, id string) []byte {
	key := make([]byte, 0, len(runPrefix)+len(stampLayout)+1+len(id))
	key = append(key, runPrefix...)
	key = append(key, started.UTC().Format(stampLayout)...)
	key = append(key, keySeparator)
	return append(key, id...)
}

func idKey(id string) []byte {
	return append(append([]byte{}, idPrefix...), id...)
}
