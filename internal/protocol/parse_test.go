package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmerrors "github.com/ahrav/go-checkmate/internal/llm/errors"
)

func conformingReply(confidence, score string) string {
	return "<RESOURCE_ANALYSIS>Two primary sources agree.</RESOURCE_ANALYSIS>\n" +
		"<TRUTH_ANALYSIS>The claim holds as stated.</TRUTH_ANALYSIS>\n" +
		"<CONFIDENCE>" + confidence + "</CONFIDENCE>\n" +
		"<SCORE>" + score + "</SCORE>"
}

func TestParse_Conforming(t *testing.T) {
	result, err := Parse(conformingReply("90", "85"))
	require.NoError(t, err)

	assert.Equal(t, "Two primary sources agree.", result.ResourceAnalysis)
	assert.Equal(t, "The claim holds as stated.", result.TruthAnalysis)
	assert.Equal(t, 90, result.Confidence)
	assert.Equal(t, 85, result.Score)
}

func TestParse_CaseInsensitiveTags(t *testing.T) {
	reply := "<resource_analysis>sources</Resource_Analysis>\n" +
		"<truth_analysis>analysis</truth_analysis>\n" +
		"<Confidence>50</Confidence>\n" +
		"<score>0</SCORE>"

	result, err := Parse(reply)
	require.NoError(t, err)
	assert.Equal(t, 50, result.Confidence)
	assert.Equal(t, 0, result.Score)
}

func TestParse_SurroundingProseIgnored(t *testing.T) {
	reply := "Sure, here is my evaluation:\n\n" +
		conformingReply("70", "60") +
		"\n\nLet me know if you need anything else."

	result, err := Parse(reply)
	require.NoError(t, err)
	assert.Equal(t, 70, result.Confidence)
	assert.Equal(t, 60, result.Score)
}

func TestParse_MissingSections(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		missing []string
	}{
		{
			name:    "all_missing",
			reply:   "I cannot comply with this request.",
			missing: []string{SectionResourceAnalysis, SectionTruthAnalysis, SectionConfidence, SectionScore},
		},
		{
			name: "score_only_missing",
			reply: "<RESOURCE_ANALYSIS>a</RESOURCE_ANALYSIS>" +
				"<TRUTH_ANALYSIS>b</TRUTH_ANALYSIS>" +
				"<CONFIDENCE>10</CONFIDENCE>",
			missing: []string{SectionScore},
		},
		{
			name: "unterminated_tag_counts_as_missing",
			reply: "<RESOURCE_ANALYSIS>a</RESOURCE_ANALYSIS>" +
				"<TRUTH_ANALYSIS>b</TRUTH_ANALYSIS>" +
				"<CONFIDENCE>10" +
				"<SCORE>20</SCORE>",
			missing: []string{SectionConfidence},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.reply)
			require.Error(t, err)

			var protoErr *llmerrors.ProtocolError
			require.ErrorAs(t, err, &protoErr)
			assert.Equal(t, llmerrors.ProtocolMissingSections, protoErr.Kind)
			assert.Equal(t, tt.missing, protoErr.Missing)
			assert.NotEmpty(t, protoErr.Sample)
		})
	}
}

func TestParse_SampleIsBounded(t *testing.T) {
	_, err := Parse(strings.Repeat("x", 4000))
	var protoErr *llmerrors.ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Len(t, protoErr.Sample, replySampleLen)
}

func TestParse_NumericValidation(t *testing.T) {
	tests := []struct {
		name       string
		confidence string
		score      string
		wantKind   llmerrors.ProtocolErrorKind
		wantField  string
	}{
		{
			name:       "confidence_not_an_integer",
			confidence: "very high",
			score:      "50",
			wantKind:   llmerrors.ProtocolBadInteger,
			wantField:  SectionConfidence,
		},
		{
			name:       "score_is_a_float",
			confidence: "50",
			score:      "85.5",
			wantKind:   llmerrors.ProtocolBadInteger,
			wantField:  SectionScore,
		},
		{
			name:       "score_above_range",
			confidence: "50",
			score:      "101",
			wantKind:   llmerrors.ProtocolOutOfRange,
			wantField:  SectionScore,
		},
		{
			name:       "confidence_negative",
			confidence: "-1",
			score:      "50",
			wantKind:   llmerrors.ProtocolOutOfRange,
			wantField:  SectionConfidence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(conformingReply(tt.confidence, tt.score))
			require.Error(t, err)

			var protoErr *llmerrors.ProtocolError
			require.ErrorAs(t, err, &protoErr)
			assert.Equal(t, tt.wantKind, protoErr.Kind)
			assert.Equal(t, tt.wantField, protoErr.Field)
		})
	}
}

func TestParse_BoundaryValuesAccepted(t *testing.T) {
	result, err := Parse(conformingReply("0", "100"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Confidence)
	assert.Equal(t, 100, result.Score)
}

func TestParse_WhitespaceTrimmed(t *testing.T) {
	reply := "<RESOURCE_ANALYSIS>\n  sources here  \n</RESOURCE_ANALYSIS>" +
		"<TRUTH_ANALYSIS>analysis</TRUTH_ANALYSIS>" +
		"<CONFIDENCE>\n 42 \n</CONFIDENCE>" +
		"<SCORE>7</SCORE>"

	result, err := Parse(reply)
	require.NoError(t, err)
	assert.Equal(t, "sources here", result.ResourceAnalysis)
	assert.Equal(t, 42, result.Confidence)
}

func TestParse_ErrorIsRetryable(t *testing.T) {
	_, err := Parse("garbage")
	require.Error(t, err)
	assert.True(t, llmerrors.IsRetryableError(err))
}
