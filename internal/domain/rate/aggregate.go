package rate

import (
	"sync"

	model "github.com/okian/speechrate/internal/domain/model"
)

// Aggregate returns the mean of per-file mean rates. Files without samples do
// not contribute. It reports false when no file contributed.
func Aggregate(files [][]model.WordRateSample) (float64, bool) {
	mean, n := meanOfMeans(files)
	return mean, n > 0
}

func meanOfMeans(files [][]model.WordRateSample) (float64, int) {
	var sum float64
	n := 0
	for _, f := range files {
		m, ok := Mean(f)
		if !ok {
			continue
		}
		sum += m
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

// Aggregator collects the samples of one subject's recordings. It is safe
// for concurrent use.
type Aggregator struct {
	mu        sync.Mutex
	subjectID string
	files     [][]model.WordRateSample
}

// NewAggregator creates an aggregator for subjectID.
func NewAggregator(subjectID string) *Aggregator {
	return &Aggregator{subjectID: subjectID}
}

// Add records the samples of one recording. An empty slice is kept so that
// Files reflects every recording seen.
func (a *Aggregator) Add(samples []model.WordRateSample) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files = append(a.files, samples)
}

// Files returns the number of recordings added.
func (a *Aggregator) Files() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.files)
}

// Result builds the subject result. When no recording produced a rate the
// result is absent and ErrAggregationEmpty is returned alongside it.
func (a *Aggregator) Result() (model.SubjectRateResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	mean, n := meanOfMeans(a.files)
	res := model.NewSubjectRateResult(a.subjectID, mean, n > 0, n)
	if n == 0 {
		return res, model.ErrAggregationEmpty
	}
	return res, nil
}
