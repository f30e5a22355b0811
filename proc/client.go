package proc

import "github.com/rs/zerolog/log"

// ClientNames are the process names of the desktop client that must be running for
// helpers to register play time.
var ClientNames = []string{"steam"}

// ClientDetector reports whether the desktop client is running.
type ClientDetector struct {
	table  ProcessTable
	ignore bool
}

// NewClientDetector creates a detector. With ignore set, the client is always reported ready.
func NewClientDetector(table ProcessTable, ignore bool) *ClientDetector {
	if table == nil {
		table = SystemTable{}
	}
	return &ClientDetector{table: table, ignore: ignore}
}

// Ready reports whether the client is running.
func (d *ClientDetector) Ready() bool {
	if d.ignore {
		return true
	}
	procs, err := d.table.List()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to look for the client process")
		return false
	}
	for _, p := range procs {
		name := baseName(p.Name)
		for _, c := range ClientNames {
			if name == c {
				return true
			}
		}
	}
	return false
}
