package model

// Stage is the position of a recording in the pipeline.
type Stage int

// Pipeline stages, in order. Aggregated and Failed are terminal.
const (
	StageRaw Stage = iota
	StageNormalized
	StageDesilenced
	StageTranscribed
	StageRatesExtracted
	StageAggregated
	StageFailed
)

var stageNames = [...]string{ //nolint:gochecknoglobals // lookup table
	StageRaw:            "raw",
	StageNormalized:     "normalized",
	StageDesilenced:     "desilenced",
	StageTranscribed:    "transcribed",
	StageRatesExtracted: "rates_extracted",
	StageAggregated:     "aggregated",
	StageFailed:         "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Terminal reports whether no further stage follows s.
func (s Stage) Terminal() bool { return s == StageAggregated || s == StageFailed }

// FileRecord tracks one recording through the pipeline. Each stage stores
// the artifact it produced, so no stage is inferred from file names.
type FileRecord struct {
	ID    RecordingID
	Stage Stage

	RawPath        string
	CanonicalPath  string
	DesilencedPath string
	TranscriptPath string

	// Loudness of the canonical recording, diagnostic only.
	Loudness LoudnessProfile
	// Spans is the cleaned transcript.
	Spans []WordSpan
	// Samples holds the valid per-word rates once RatesExtracted is reached.
	Samples []WordRateSample
	// Dropped counts spans discarded for a non-positive duration.
	Dropped int

	// FailedAt is the stage that was being attempted when Err occurred.
	FailedAt Stage
	Err      error
}

// NewFileRecord starts a record for a raw recording path.
func NewFileRecord(path string) *FileRecord {
	return &FileRecord{
		ID:      ParseRecordingID(path),
		Stage:   StageRaw,
		RawPath: path,
	}
}

// Advance moves the record to stage, storing the artifact path it produced.
func (r *FileRecord) Advance(stage Stage, path string) {
	switch stage {
	case StageNormalized:
		r.CanonicalPath = path
	case StageDesilenced:
		r.DesilencedPath = path
	case StageTranscribed:
		r.TranscriptPath = path
	}
	r.Stage = stage
}

// Fail marks the record failed while attempting stage. The error is wrapped
// in a StageError carrying the recording id.
func (r *FileRecord) Fail(stage Stage, err error) {
	r.FailedAt = stage
	r.Stage = StageFailed
	r.Err = &StageError{Recording: r.ID, Stage: stage, Err: err}
}

// Succeeded reports whether the record produced rates usable for aggregation.
func (r *FileRecord) Succeeded() bool {
	return r.Stage == StageRatesExtracted || r.Stage == StageAggregated
}
