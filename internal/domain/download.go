package domain

import "time"

// Kind identifies what a queued download refers to
type Kind string

const (
	KindItem       Kind = "workshop_item"       // single Workshop item
	KindCollection Kind = "workshop_collection" // bundle of Workshop items
	KindUnknown    Kind = "unknown"
)

// Status is the lifecycle state of a download request
type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusPaused      Status = "paused"
	StatusComplete    Status = "complete"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
)

// Terminal reports whether the status is final (barring an explicit retry)
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed || s == StatusCancelled
}

// InstallState tracks the post-download installation outcome separately from
// the fetch status. A successful fetch is never reverted by an install
// failure; callers inspect this field instead.
type InstallState string

const (
	InstallNone   InstallState = ""
	InstallDone   InstallState = "installed"
	InstallFailed InstallState = "install_failed"
)

// Download is one queued download request, either a single Workshop item or a
// collection expanded into child item requests at execution time.
type Download struct {
	ID       string
	Name     string
	Kind     Kind
	Status   Status
	Progress int    // 0-100
	Error    string // set iff Status is StatusFailed

	StartedAt time.Time
	EndedAt   time.Time

	SizeBytes       int64
	DownloadedBytes int64
	SpeedBPS        float64 // bytes per second, best-effort

	// TargetInstanceID is the instance the artifact installs into, if any.
	TargetInstanceID string

	// ItemID is the upstream Workshop identifier for item downloads.
	ItemID string
	// ItemIDs holds the member item ids of a collection download.
	ItemIDs []string

	// ParentID links a child item request to its collection request.
	ParentID string
	// ChildIDs holds the request ids spawned by a collection. Internal
	// linkage; stripped from snapshots emitted to subscribers.
	ChildIDs []string

	InstallState InstallState

	// Metadata carries display and install-time details (title, author,
	// tags, thumbnail, per-member details for collections).
	Metadata map[string]any
}

// Clone returns a deep copy safe to hand outside the queue's lock.
func (d *Download) Clone() *Download {
	c := *d
	if d.ItemIDs != nil {
		c.ItemIDs = append([]string(nil), d.ItemIDs...)
	}
	if d.ChildIDs != nil {
		c.ChildIDs = append([]string(nil), d.ChildIDs...)
	}
	if d.Metadata != nil {
		c.Metadata = make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// Snapshot returns the externally visible form of the request: a copy with
// internal linkage fields stripped.
func (d *Download) Snapshot() *Download {
	c := d.Clone()
	c.ChildIDs = nil
	return c
}

// Stats aggregates the state of the whole queue.
type Stats struct {
	Active    int
	Paused    int
	Completed int
	Cancelled int
	Failed    int
	Total     int
	AvgSpeed  float64 // mean SpeedBPS over downloading requests, 0 if none
}
