package datanorm

import "errors"

// ErrSnapshotFormat is returned when a results/events flat file cannot be
// parsed back into rows.
var ErrSnapshotFormat = errors.New("invalid snapshot format")
