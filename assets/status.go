package assets

// Status is the lifecycle state of a model asset.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
)

func (s Status) String() string {
	return string(s)
}

// IsActive reports whether a download is in flight.
func (s Status) IsActive() bool {
	return s == StatusDownloading
}

// IsTerminal reports whether no further progress events are expected.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}
