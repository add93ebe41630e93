package sync

// Phase describes the current scan phase.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseAuxiliary   Phase = "auxiliary"
	PhaseDiscovering Phase = "discovering"
	PhaseSyncing     Phase = "syncing"
	PhaseDone        Phase = "done"
)

// Progress reports scan progress to listeners.
type Progress struct {
	Phase      Phase  `json:"phase"`
	Source     string `json:"source,omitempty"`
	FilesTotal int    `json:"files_total"`
	FilesDone  int    `json:"files_done"`
}

// Percent returns the file progress as a percentage (0–100).
func (p Progress) Percent() float64 {
	if p.FilesTotal == 0 {
		return 0
	}
	return float64(p.FilesDone) /
		float64(p.FilesTotal) * 100
}

// ProgressFunc is called with progress updates during a scan.
type ProgressFunc func(Progress)

// SyncStats summarizes one scan.
//
// Processed, Skipped and Failed partition the session files that
// were read. Empty counts files with no messages, including ones
// remembered from earlier scans. TooSmall files are never opened
// and appear in no other counter.
type SyncStats struct {
	Discovered int `json:"discovered"`
	Processed  int `json:"processed"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	Empty      int `json:"empty"`
	TooSmall   int `json:"too_small"`
	AuxErrors  int `json:"aux_errors"`
}

// fileOutcome is what happened to one discovered file.
type fileOutcome int

const (
	outcomeProcessed fileOutcome = iota
	outcomeSkipped
	outcomeFailed
	outcomeEmpty
	outcomeTooSmall
)

// record adds a file outcome to the counters.
func (s *SyncStats) record(o fileOutcome) {
	switch o {
	case outcomeProcessed:
		s.Processed++
	case outcomeSkipped:
		s.Skipped++
	case outcomeFailed:
		s.Failed++
	case outcomeEmpty:
		s.Empty++
	case outcomeTooSmall:
		s.TooSmall++
	}
}

// total returns the number of files that reached an outcome.
func (s SyncStats) total() int {
	return s.Processed + s.Skipped + s.Failed + s.Empty + s.TooSmall
}
