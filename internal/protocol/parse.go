package protocol

import (
	"regexp"
	"strconv"
	"strings"

	llmerrors "github.com/ahrav/go-checkmate/internal/llm/errors"
)

// Required reply sections, in the order they are reported when missing.
const (
	SectionResourceAnalysis = "RESOURCE_ANALYSIS"
	SectionTruthAnalysis    = "TRUTH_ANALYSIS"
	SectionConfidence       = "CONFIDENCE"
	SectionScore            = "SCORE"
)

// requiredSections lists every tag a conforming reply must contain.
var requiredSections = []string{
	SectionResourceAnalysis,
	SectionTruthAnalysis,
	SectionConfidence,
	SectionScore,
}

// sectionPatterns holds one case-insensitive matcher per required tag.
// Sections contain arbitrary unescaped model text, so extraction scans for
// each matched tag pair independently rather than parsing a document tree.
var sectionPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(requiredSections))
	for _, name := range requiredSections {
		patterns[name] = regexp.MustCompile(`(?is)<` + name + `>(.*?)</` + name + `>`)
	}
	return patterns
}()

// replySampleLen bounds the reply-head sample attached to parse errors.
const replySampleLen = 160

// scoreScale is the upper bound of both numeric sections.
const scoreScale = 100

// Result is a fully validated structured reply. It is produced only when
// all four sections are present and both integers lie in [0,100]; there is
// no partially populated or defaulted form.
type Result struct {
	ResourceAnalysis string `json:"resource_analysis"`
	TruthAnalysis    string `json:"truth_analysis"`
	Confidence       int    `json:"confidence"`
	Score            int    `json:"score"`
}

// Parse extracts and validates the four required sections from a model
// reply. Extraction is case-insensitive and per-tag; a failure reports the
// full set of missing tags plus a sample of the reply head. Numeric
// sections must parse as integers in [0,100]; out-of-range values are
// rejected, never clamped.
func Parse(reply string) (*Result, error) {
	sections := make(map[string]string, len(requiredSections))
	var missing []string
	for _, name := range requiredSections {
		match := sectionPatterns[name].FindStringSubmatch(reply)
		if match == nil {
			missing = append(missing, name)
			continue
		}
		sections[name] = strings.TrimSpace(match[1])
	}

	if len(missing) > 0 {
		return nil, &llmerrors.ProtocolError{
			Kind:    llmerrors.ProtocolMissingSections,
			Missing: missing,
			Sample:  replySample(reply),
		}
	}

	confidence, err := parseBoundedInt(SectionConfidence, sections[SectionConfidence])
	if err != nil {
		return nil, err
	}
	score, err := parseBoundedInt(SectionScore, sections[SectionScore])
	if err != nil {
		return nil, err
	}

	return &Result{
		ResourceAnalysis: sections[SectionResourceAnalysis],
		TruthAnalysis:    sections[SectionTruthAnalysis],
		Confidence:       confidence,
		Score:            score,
	}, nil
}

// parseBoundedInt validates a numeric section as an integer in [0,100].
func parseBoundedInt(field, raw string) (int, error) {
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &llmerrors.ProtocolError{
			Kind:  llmerrors.ProtocolBadInteger,
			Field: field,
			Value: raw,
		}
	}
	if value < 0 || value > scoreScale {
		return 0, &llmerrors.ProtocolError{
			Kind:  llmerrors.ProtocolOutOfRange,
			Field: field,
			Value: raw,
		}
	}
	return value, nil
}

// replySample returns a bounded head sample of the reply for diagnostics.
func replySample(reply string) string {
	sample := strings.TrimSpace(reply)
	if len(sample) > replySampleLen {
		sample = sample[:replySampleLen]
	}
	return sample
}
