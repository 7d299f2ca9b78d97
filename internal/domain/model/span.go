package model

// WordSpan is a transcribed token with start/end timestamps in seconds.
type WordSpan struct {
	Text  string
	Start float64
	End   float64
}

// Duration returns End - Start. Negative values mark a defective span.
func (w WordSpan) Duration() float64 { return w.End - w.Start }

// WordRateSample is the per-word rate derived from a span with a positive
// duration. Length counts characters (runes), a proxy for syllables.
type WordRateSample struct {
	Text     string
	Duration float64
	Length   int
	Rate     float64
}

// SubjectRateResult is the subject-level mean speech rate. Valid is false
// when no recording produced a usable rate; MeanRate is then meaningless
// and must not be read as zero.
type SubjectRateResult struct {
	SubjectID string
	MeanRate  float64
	Valid     bool
	// Files is the number of transcripts that contributed to MeanRate.
	Files int
}

// Rate returns the mean rate and whether it is present.
func (r SubjectRateResult) Rate() (float64, bool) {
	return r.MeanRate, r.Valid
}

// NewSubjectRateResult builds a result; mean is ignored when ok is false.
func NewSubjectRateResult(subjectID string, mean float64, ok bool, files int) SubjectRateResult {
	if !ok {
		return SubjectRateResult{SubjectID: subjectID}
	}
	return SubjectRateResult{SubjectID: subjectID, MeanRate: mean, Valid: true, Files: files}
}
