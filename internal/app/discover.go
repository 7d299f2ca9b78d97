package service

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	model "github.com/okian/speechrate/internal/domain/model"
)

// supported lists the containers a raw recording may come in.
var supported = map[string]struct{}{".wav": {}, ".webm": {}}

// isRecording reports whether name is a raw recording rather than an
// artifact of a previous run.
func isRecording(name string) bool {
	if _, ok := supported[strings.ToLower(filepath.Ext(name))]; !ok {
		return false
	}
	return !model.IsDerived(name)
}

func recordings(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataDir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && isRecording(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Discover returns the recordings of subjectID in dir, sorted by name.
// Derived artifacts are left out; a recording present as both .wav and
// .webm is listed twice and deduplicated when scheduled.
func Discover(dir, subjectID string) ([]string, error) {
	names, err := recordings(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, name := range names {
		if model.ParseRecordingID(name).Subject == subjectID {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths, nil
}

// Subjects returns the distinct subject ids with recordings in dir, sorted.
func Subjects(dir string) ([]string, error) {
	names, err := recordings(dir)
	if err != nil {
		return nil, err
	}
	var subjects []string
	for _, name := range names {
		subjects = append(subjects, model.ParseRecordingID(name).Subject)
	}
	slices.Sort(subjects)
	return slices.Compact(subjects), nil
}
