package filename

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"lectern/internal/services"
)

// ContentType describes what kind of lesson video a filename encodes.
type ContentType string

const (
	ContentFull            ContentType = "full"
	ContentQuestionVariant ContentType = "question_variant"
	ContentRevision        ContentType = "revision"
)

// Parsed is the immutable result of parsing one filename. AcademicYear and
// TeacherCode are always present; the remaining fields are optional depending
// on which grammar segments were found.
type Parsed struct {
	Type           ContentType
	AcademicYear   string // e.g. "M2"
	Term           string // "T1"/"T2", may be empty
	Unit           string // e.g. "U1"
	Lesson         string // e.g. "L3"
	Branch         string // subject token, possibly compound: "SCI-AR"
	TeacherCode    string // "P" + four digits
	TeacherName    string
	ClassNumber    string // e.g. "C30"
	QuestionNumber int    // 0 when absent
	LocalizedTitle string // verbatim text from the {...} segment, trimmed
}

// Primary grammar:
//
//	[RE-]<Year>[-T<1|2>][-U<n>][-L<n>]-<Branch>[-<Lang>]-P<nnnn>-<Teacher>[-C<n>]--{<Title>}[-Q<n>]
//
// Branch may be a compound token such as SCI-AR; the teacher code anchors the
// end of the branch segment.
var primaryPattern = regexp.MustCompile(
	`^(?:(RE)-)?([JSM][1-6])(?:-(T[12]))?(?:-(U\d+))?(?:-(L\d+))?-([A-Z]{2,}(?:-[A-Z]{2,})?)-(P\d{4})-([^-]+)(?:-(C\d+))?--\{(.+?)\}(?:-Q(\d+))?$`,
)

var (
	yearToken      = regexp.MustCompile(`^[JSM][1-6]$`)
	termToken      = regexp.MustCompile(`^T[12]$`)
	unitToken      = regexp.MustCompile(`^U\d+$`)
	lessonToken    = regexp.MustCompile(`^L\d+$`)
	teacherToken   = regexp.MustCompile(`^P\d{4}$`)
	classToken     = regexp.MustCompile(`^C\d+$`)
	questionToken  = regexp.MustCompile(`^Q(\d+)$`)
	branchToken    = regexp.MustCompile(`^[A-Z]{2,}$`)
	braceSegment   = regexp.MustCompile(`\{(.+?)\}`)
	sepBeforeBrace = regexp.MustCompile(`-{2,}\{`)
	sepRun         = regexp.MustCompile(`-{2,}`)
	questionMark   = regexp.MustCompile(`-Q\d+`)
	questionSuffix = regexp.MustCompile(`-Q(\d+)$`)
)

// Parse converts a raw filename into its structured form. Failure is
// reported with services.ErrParse and a diagnostic naming what was missing;
// it never panics on arbitrary input.
func Parse(name string) (*Parsed, error) {
	normalized := normalize(name)
	if normalized == "" {
		return nil, services.Wrap(services.ErrParse, "filename", "parse", "empty filename", nil)
	}

	if parsed := matchPrimary(normalized); parsed != nil {
		return parsed, nil
	}
	if parsed := matchFallback(normalized); parsed != nil {
		return parsed, nil
	}

	return nil, services.Wrap(services.ErrParse, "filename", "parse",
		"expected [RE-]<year>-T<term>-U<unit>-L<lesson>-<branch>-P<code>-<teacher>--{title}[-Q<n>], got "+strconv.Quote(name), nil)
}

// normalize strips the extension and collapses runs of separators to a
// single one so accidental repeats do not defeat the grammar. The intentional
// double dash introducing the brace segment is preserved.
func normalize(name string) string {
	trimmed := strings.TrimSpace(name)
	if ext := filepath.Ext(trimmed); ext != "" && !strings.ContainsAny(ext, "{}") {
		trimmed = strings.TrimSuffix(trimmed, ext)
	}
	trimmed = sepBeforeBrace.ReplaceAllString(trimmed, "\x00{")
	trimmed = sepRun.ReplaceAllString(trimmed, "-")
	return strings.ReplaceAll(trimmed, "\x00", "--")
}

func matchPrimary(name string) *Parsed {
	m := primaryPattern.FindStringSubmatch(name)
	if m == nil {
		return nil
	}

	parsed := &Parsed{
		AcademicYear:   m[2],
		Term:           m[3],
		Unit:           m[4],
		Lesson:         m[5],
		Branch:         strings.ToUpper(m[6]),
		TeacherCode:    m[7],
		TeacherName:    strings.TrimSpace(m[8]),
		ClassNumber:    m[9],
		LocalizedTitle: strings.TrimSpace(m[10]),
	}
	if m[11] != "" {
		parsed.QuestionNumber, _ = strconv.Atoi(m[11])
	}
	parsed.Type = deriveType(m[1] != "", name, parsed.QuestionNumber)
	return parsed
}

// matchFallback scans dash-separated tokens individually, tolerating omitted
// or reordered segments. It succeeds only when both the academic year and the
// teacher code are present.
func matchFallback(name string) *Parsed {
	working := name
	parsed := &Parsed{}

	if m := braceSegment.FindStringSubmatch(working); m != nil {
		parsed.LocalizedTitle = strings.TrimSpace(m[1])
		working = strings.Replace(working, m[0], "", 1)
	}

	revision := false
	if strings.HasPrefix(working, "RE-") {
		revision = true
		working = strings.TrimPrefix(working, "RE-")
	}

	var branchParts []string
	var nameParts []string
	seenTeacherCode := false
	for _, token := range strings.Split(working, "-") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		switch {
		case parsed.AcademicYear == "" && yearToken.MatchString(token):
			parsed.AcademicYear = token
		case parsed.Term == "" && termToken.MatchString(token):
			parsed.Term = token
		case parsed.Unit == "" && unitToken.MatchString(token):
			parsed.Unit = token
		case parsed.Lesson == "" && lessonToken.MatchString(token):
			parsed.Lesson = token
		case parsed.TeacherCode == "" && teacherToken.MatchString(token):
			parsed.TeacherCode = token
			seenTeacherCode = true
		case parsed.ClassNumber == "" && classToken.MatchString(token):
			parsed.ClassNumber = token
		case questionToken.MatchString(token):
			if m := questionToken.FindStringSubmatch(token); m != nil {
				parsed.QuestionNumber, _ = strconv.Atoi(m[1])
			}
		case !seenTeacherCode && branchToken.MatchString(token):
			branchParts = append(branchParts, token)
		case seenTeacherCode:
			nameParts = append(nameParts, token)
		}
	}

	if parsed.AcademicYear == "" || parsed.TeacherCode == "" {
		return nil
	}

	parsed.Branch = strings.Join(branchParts, "-")
	parsed.TeacherName = strings.TrimSpace(strings.Join(nameParts, " "))
	parsed.Type = deriveType(revision, name, parsed.QuestionNumber)
	return parsed
}

// deriveType is derivation, not declaration: a leading revision marker wins,
// then any question marker, then plain content.
func deriveType(revision bool, name string, questionNumber int) ContentType {
	switch {
	case revision:
		return ContentRevision
	case questionNumber > 0 || questionMark.MatchString(name):
		return ContentQuestionVariant
	default:
		return ContentFull
	}
}

// BaseName returns the filename with extension and trailing question-number
// suffix stripped. Paired question variants share a base name.
func BaseName(name string) string {
	return questionSuffix.ReplaceAllString(normalize(name), "")
}

// QuestionNumber extracts the trailing question number, or 0 when absent.
func QuestionNumber(name string) int {
	m := questionSuffix.FindStringSubmatch(normalize(name))
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// Compare orders filenames by base name (question suffix stripped), then by
// question number ascending, so "…--{title}" sorts before "…--{title}-Q1".
func Compare(a, b string) int {
	baseA, baseB := BaseName(a), BaseName(b)
	if baseA != baseB {
		return strings.Compare(baseA, baseB)
	}
	qa, qb := QuestionNumber(a), QuestionNumber(b)
	switch {
	case qa < qb:
		return -1
	case qa > qb:
		return 1
	default:
		return 0
	}
}
