// Package metrics records annotation activity. Components take a Recorder and
// default to NoopRecorder, so metrics stay optional.
package metrics

import "time"

// PageOutcome labels the result of processing one page.
type PageOutcome string

const (
	PageWritten   PageOutcome = "written"
	PageUnchanged PageOutcome = "unchanged"
	PageFailed    PageOutcome = "failed"
)

// Recorder defines observability hooks for annotation runs.
type Recorder interface {
	IncAnchors(classification string, n int)
	IncPage(outcome PageOutcome)
	ObservePageDuration(d time.Duration)
	ObserveRunDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncAnchors(string, int)            {}
func (NoopRecorder) IncPage(PageOutcome)               {}
func (NoopRecorder) ObservePageDuration(time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)  {}
