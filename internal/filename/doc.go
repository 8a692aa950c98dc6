// Package filename parses the structured lesson-video naming convention into
// typed records. A canonical two-stage grammar is used: a strict primary
// pattern, then a token-scan fallback that tolerates omitted or reordered
// segments. The package also defines the ordering used to keep question
// variants next to their parent lesson.
package filename
