package engine

import "fmt"

// Summary counts results of a validation run.
type Summary struct {
	Files    int `json:"files" yaml:"files"`
	Passed   int `json:"passed" yaml:"passed"`
	Findings int `json:"findings" yaml:"findings"`
	Failures int `json:"failures" yaml:"failures"` // rules that could not run
	Errors   int `json:"errors" yaml:"errors"`     // files that could not be loaded
}

// Summarize counts results.
func Summarize(results []*Result) Summary {
	var s Summary
	for _, r := range results {
		if r == nil {
			continue
		}
		s.Files++
		if r.Err != nil {
			s.Errors++
			continue
		}
		if r.Passed() {
			s.Passed++
		}
		for _, d := range r.Diagnostics {
			if d.Failed {
				s.Failures++
			} else {
				s.Findings++
			}
		}
	}
	return s
}

// Clean reports whether every file loaded and passed.
func (s Summary) Clean() bool {
	return s.Errors == 0 && s.Passed == s.Files
}

func (s Summary) String() string {
	return fmt.Sprintf("%d files: %d passed, %d findings, %d rule failures, %d unreadable",
		s.Files, s.Passed, s.Findings, s.Failures, s.Errors)
}
