package classify

import (
	"fmt"
	"strings"

	"lectern/internal/filename"
)

// Collection names the target sub-bucket for an upload plus the
// human-readable reason the rule matched.
type Collection struct {
	Name   string
	Reason string
}

type collectionRule struct {
	matches func(*filename.Parsed) bool
	name    func(year string, parsed *filename.Parsed) string
	reason  func(parsed *filename.Parsed) string
}

// Routing rules in priority order; first match wins. The trailing catch-all
// keeps ResolveCollection total.
var collectionRules = []collectionRule{
	{
		matches: func(p *filename.Parsed) bool { return p.Type == filename.ContentRevision && p.Term != "" },
		name: func(year string, p *filename.Parsed) string {
			return fmt.Sprintf("RE-%s-%s", p.Term, year)
		},
		reason: func(p *filename.Parsed) string {
			return fmt.Sprintf("Term %s revision video", termNumber(p.Term))
		},
	},
	{
		matches: func(p *filename.Parsed) bool { return p.Type == filename.ContentRevision },
		name: func(year string, p *filename.Parsed) string {
			return fmt.Sprintf("RE-%s", year)
		},
		reason: func(*filename.Parsed) string { return "General revision video" },
	},
	{
		matches: func(p *filename.Parsed) bool { return p.Type == filename.ContentQuestionVariant },
		name: func(year string, p *filename.Parsed) string {
			return fmt.Sprintf("%s-%s-QV", termOrDefault(p.Term), year)
		},
		reason: func(p *filename.Parsed) string {
			return fmt.Sprintf("Questions video for term %s", termNumber(termOrDefault(p.Term)))
		},
	},
	{
		matches: func(*filename.Parsed) bool { return true },
		name: func(year string, p *filename.Parsed) string {
			return fmt.Sprintf("%s-%s", termOrDefault(p.Term), year)
		},
		reason: func(p *filename.Parsed) string {
			return fmt.Sprintf("Regular content video for term %s", termNumber(termOrDefault(p.Term)))
		},
	},
}

// ResolveCollection routes a parsed filename to its target collection for
// the configured academic year. Pure and total: every parsed filename yields
// a non-empty name and reason.
func ResolveCollection(parsed *filename.Parsed, year string) Collection {
	for _, rule := range collectionRules {
		if rule.matches(parsed) {
			return Collection{
				Name:   rule.name(year, parsed),
				Reason: rule.reason(parsed),
			}
		}
	}
	// Unreachable: the last rule always matches.
	return Collection{
		Name:   fmt.Sprintf("T1-%s", year),
		Reason: "Regular content video for term 1",
	}
}

func termOrDefault(term string) string {
	if term == "" {
		return "T1"
	}
	return term
}

func termNumber(term string) string {
	return strings.TrimPrefix(term, "T")
}
