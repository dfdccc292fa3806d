package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestFinalGradeAllQuartersPresent(t *testing.T) {
	got := FinalGrade(f(90), f(85), f(88), f(92))
	require.NotNil(t, got)
	assert.Equal(t, 88.75, *got)
}

func TestFinalGradeMissingQuarter(t *testing.T) {
	assert.Nil(t, FinalGrade(f(90), f(85), nil, f(92)))
	assert.Nil(t, FinalGrade(nil, nil, nil, nil))
}

func TestFinalGradeRoundsHalfUp(t *testing.T) {
	// mean = 86.125 -> 86.13
	got := FinalGrade(f(86), f(86), f(86), f(86.5))
	require.NotNil(t, got)
	assert.Equal(t, 86.13, *got)
}

func completeFinals(value float64) []SubjectFinal {
	finals := make([]SubjectFinal, 0, len(RequiredSubjects))
	for _, name := range RequiredSubjects {
		finals = append(finals, SubjectFinal{Subject: name, Final: f(value)})
	}
	return finals
}

func TestGeneralAverageComplete(t *testing.T) {
	got := GeneralAverage(completeFinals(90))
	require.NotNil(t, got)
	assert.Equal(t, 90.0, *got)
}

func TestGeneralAverageMissingSubject(t *testing.T) {
	finals := completeFinals(90)
	finals = finals[:len(finals)-1]
	assert.Nil(t, GeneralAverage(finals))
}

func TestGeneralAverageUndefinedFinal(t *testing.T) {
	finals := completeFinals(90)
	finals[2].Final = nil
	assert.Nil(t, GeneralAverage(finals))
}

func TestGeneralAverageDuplicateSubject(t *testing.T) {
	finals := completeFinals(90)
	finals = append(finals, SubjectFinal{Subject: "English", Final: f(95)})
	assert.Nil(t, GeneralAverage(finals))
}

func TestGeneralAverageIgnoresExtraSubjects(t *testing.T) {
	finals := completeFinals(88)
	finals = append(finals, SubjectFinal{Subject: "Journalism", Final: f(99)})
	got := GeneralAverage(finals)
	require.NotNil(t, got)
	assert.Equal(t, 88.0, *got)
}

func TestTranscriptAverageMAPEHCluster(t *testing.T) {
	finals := []SubjectFinal{
		{Subject: "Filipino", Final: f(90)},
		{Subject: "English", Final: f(88)},
		{Subject: "Music", Final: f(85)},
		{Subject: "Arts", Final: f(86)},
		{Subject: "Physical Education", Final: f(88)},
		{Subject: "Health", Final: f(84)},
	}
	// MAPEH cluster mean = 85.75 -> 86 (integer half-up)
	// overall = (90 + 88 + 86) / 3 = 88.0
	got := TranscriptAverage(finals)
	require.NotNil(t, got)
	assert.Equal(t, 88.0, *got)
}

func TestTranscriptAverageClusterRoundsToInteger(t *testing.T) {
	finals := []SubjectFinal{
		{Subject: "Music", Final: f(90.5)},
		{Subject: "Arts", Final: f(90.5)},
	}
	// cluster mean 90.5 -> 91, single rating overall -> 91.00
	got := TranscriptAverage(finals)
	require.NotNil(t, got)
	assert.Equal(t, 91.0, *got)
}

func TestTranscriptAveragePartialSet(t *testing.T) {
	finals := []SubjectFinal{
		{Subject: "Mathematics", Final: f(87)},
		{Subject: "Science", Final: nil},
	}
	got := TranscriptAverage(finals)
	require.NotNil(t, got)
	assert.Equal(t, 87.0, *got)
}

func TestTranscriptAverageEmpty(t *testing.T) {
	assert.Nil(t, TranscriptAverage(nil))
	assert.Nil(t, TranscriptAverage([]SubjectFinal{{Subject: "Science", Final: nil}}))
}
