package panel

import (
	"net/url"
	"time"
)

type State uint8

const (
	StateClosed State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "closed"
	}
}

// Status is the outcome of the most recent fetch.
type Status uint8

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "idle"
	}
}

// View is a snapshot of a panel. It shares nothing with the controller.
type View struct {
	Name  string
	Title string

	State  State
	Status Status
	// Err is the message of the last failed fetch; Invalid the message of
	// the last rejected param change.
	Err     string
	Invalid string
	// Stale is set when Rows come from an earlier fetch than the one the
	// panel is loading or has just failed.
	Stale bool

	Headers []string
	Rows    [][]string

	Page       int
	TotalPages int
	PageSize   int
	Filtered   int
	Total      int

	Search    string
	Params    url.Values
	FetchedAt time.Time
}

// Kind picks what a renderer should draw. Rows on screen win over the
// loading and error indicators, which then ride along as Stale and Err.
func (v View) Kind() string {
	switch {
	case v.State == StateClosed:
		return "closed"
	case v.Filtered > 0:
		return "table"
	case v.State == StateLoading:
		return "loading"
	case v.State == StateError:
		return "error"
	default:
		return "empty"
	}
}

func (v View) HasPrevious() bool { return v.Page > 1 }

func (v View) HasNext() bool { return v.Page < v.TotalPages }

// First and Last are the 1-based positions of the visible rows within the
// filtered collection, or zero when nothing is visible.
func (v View) First() int {
	if len(v.Rows) == 0 {
		return 0
	}
	return (v.Page-1)*v.PageSize + 1
}

func (v View) Last() int {
	if len(v.Rows) == 0 {
		return 0
	}
	return v.First() + len(v.Rows) - 1
}
