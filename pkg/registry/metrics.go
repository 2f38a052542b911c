package registry

import (
	"fmt"

	"github.com/prometheus/procfs"
)

// SelfStats is a snapshot of this process's resource usage, the proxy an
// operator wires to reap/leak alerting (§4.5 Reaping, §7 invariant
// alerting) — an idle-looking table whose actor goroutine is stuck shows
// up here as goroutine/FD growth long before it shows up in the table
// count.
type SelfStats struct {
	TableCount    int
	SoftTableCap  int
	NumThreads    int64
	OpenFDs       int64
	ResidentBytes uint64
	VirtualBytes  uint64
}

// Metrics samples /proc/self via procfs and combines it with the
// registry's own table count, for a periodic operator-facing snapshot.
func (r *Registry) Metrics() (*SelfStats, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, fmt.Errorf("registry: open procfs: %w", err)
	}
	proc, err := fs.Self()
	if err != nil {
		return nil, fmt.Errorf("registry: open self proc: %w", err)
	}
	stat, err := proc.Stat()
	if err != nil {
		return nil, fmt.Errorf("registry: read self stat: %w", err)
	}
	fdCount, err := proc.FileDescriptorsLen()
	if err != nil {
		fdCount = -1 // non-Linux or sandboxed hosts may not expose /proc/self/fd
	}

	return &SelfStats{
		TableCount:    r.TableCount(),
		SoftTableCap:  r.softCap,
		NumThreads:    int64(stat.NumThreads),
		OpenFDs:       int64(fdCount),
		ResidentBytes: uint64(stat.ResidentMemory()),
		VirtualBytes:  uint64(stat.VirtualMemory()),
	}, nil
}
