package model

// Job is one unit of work on the queue: a recording to run through the
// pipeline with the settings of the run that scheduled it.
type Job struct {
	// ID is unique per scheduled job.
	ID string
	// RunID groups the jobs of one subject run.
	RunID    string
	Record   *FileRecord
	Settings Settings
}
