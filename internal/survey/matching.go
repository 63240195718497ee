package survey

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/incidence-dev/incidence/internal/frame"
)

// MatchingDir returns the directory holding the harmonised files of a
// matching flow, e.g. "matching/matching_erfs".
func MatchingDir(outputDir, flow string) string {
	return filepath.Join(outputDir, "matching", "matching_"+flow)
}

// MatchingFile returns the path of the harmonised file of one source.
func MatchingFile(outputDir, flow, source string) string {
	return filepath.Join(MatchingDir(outputDir, flow), "data_matching_"+source+".csv")
}

// WriteMatchingFiles writes every frame to data_matching_<source>.csv under
// the flow directory and returns the written paths in source order.
func WriteMatchingFiles(outputDir, flow string, frames map[string]*frame.Frame) ([]string, error) {
	sources := make([]string, 0, len(frames))
	for s := range frames {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	paths := make([]string, 0, len(sources))
	for _, s := range sources {
		path := MatchingFile(outputDir, flow, s)
		if err := frame.Save(path, frames[s]); err != nil {
			return nil, fmt.Errorf("writing matching file for %s: %w", s, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// PrepareMatching top-codes and builds donation classes on every frame, then
// writes the matching files.
func PrepareMatching(outputDir, flow string, frames map[string]*frame.Frame) ([]string, error) {
	for s, f := range frames {
		if err := DonationClasses(f); err != nil {
			return nil, fmt.Errorf("%s: %w", s, err)
		}
	}
	return WriteMatchingFiles(outputDir, flow, frames)
}
