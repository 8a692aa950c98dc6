package classify

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"lectern/internal/filename"
)

// Library describes one remote library as the resolver needs it.
type Library struct {
	ID   string
	Name string
}

// Match is the result of resolving a parsed filename against the known
// library set. Alternatives holds every nonzero-scoring candidate, highest
// score first; ties keep input order.
type Match struct {
	Library      *Library
	Confidence   int
	Alternatives []Candidate
}

// Candidate pairs a library with the score it earned.
type Candidate struct {
	Library Library
	Score   int
}

// Attribute weights. An exact alignment of all four saturates at
// MaxConfidence instead of summing, so duplicates cannot overshoot the scale.
const (
	weightTeacherCode = 40
	weightYear        = 25
	weightBranch      = 20
	weightTeacherName = 15

	// MaxConfidence is the score ceiling.
	MaxConfidence = 100
)

// yearAliases maps secondary-school year tokens onto the middle-school codes
// the library names actually use.
var yearAliases = map[string]string{
	"S1": "M1",
	"S2": "M2",
	"S3": "M3",
}

var teacherCodePattern = regexp.MustCompile(`P\d{4}`)

var foldCaser = cases.Fold()

// MappedYear translates an academic-year token to the form used in library
// names, e.g. S1 -> M1. Unknown tokens pass through unchanged.
func MappedYear(token string) string {
	if mapped, ok := yearAliases[token]; ok {
		return mapped
	}
	return token
}

// ResolveLibrary scores every known library against the parsed filename.
// Confidence at or above the caller's threshold permits automatic
// assignment; the decision itself is left to the caller.
func ResolveLibrary(parsed *filename.Parsed, libraries []Library) Match {
	if parsed == nil {
		return Match{}
	}

	year := MappedYear(parsed.AcademicYear)
	teacherName := foldCaser.String(strings.TrimSpace(parsed.TeacherName))

	candidates := make([]Candidate, 0, len(libraries))
	for _, lib := range libraries {
		score := scoreLibrary(lib.Name, year, parsed.Branch, parsed.TeacherCode, teacherName)
		if score > 0 {
			candidates = append(candidates, Candidate{Library: lib, Score: score})
		}
	}

	// Stable: equal scores keep listing order. Deliberate simplicity, not a
	// strong guarantee.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	match := Match{Alternatives: candidates}
	if len(candidates) > 0 {
		best := candidates[0]
		match.Library = &best.Library
		match.Confidence = best.Score
	}
	return match
}

func scoreLibrary(libName, year, branch, teacherCode, foldedTeacherName string) int {
	score := 0
	matched := 0

	if teacherCode != "" && teacherCodePattern.FindString(libName) == teacherCode {
		score += weightTeacherCode
		matched++
	}
	if year != "" && strings.HasPrefix(libName, year+"-") {
		score += weightYear
		matched++
	}
	if branch != "" && strings.Contains(libName, branch) {
		score += weightBranch
		matched++
	}
	if foldedTeacherName != "" && strings.Contains(foldCaser.String(libName), foldedTeacherName) {
		score += weightTeacherName
		matched++
	}

	if matched == 4 {
		return MaxConfidence
	}
	if score > MaxConfidence {
		score = MaxConfidence
	}
	return score
}
