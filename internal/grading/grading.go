// Package grading holds the deterministic grade aggregation rules:
// per-enrollment pre-final grades, the per-student general average over the
// required learning areas, and the transcript variant with MAPEH clustering.
package grading

import "math"

// RequiredSubjects are the learning areas that must all carry a final grade
// before a general average is defined. Names must match Subject.Name exactly.
var RequiredSubjects = []string{
	"Filipino",
	"English",
	"Mathematics",
	"Science",
	"Araling Panlipunan (AP)",
	"Edukasyon sa Pagpapakatao (EsP)",
	"Technology and Livelihood Education (TLE)",
	"MAPEH",
}

// CoreLearningAreas are the transcript rows that contribute individually;
// MAPEH is replaced by the clustered component average on the transcript.
var CoreLearningAreas = []string{
	"Filipino",
	"English",
	"Mathematics",
	"Science",
	"Araling Panlipunan (AP)",
	"Edukasyon sa Pagpapakatao (EsP)",
	"Technology and Livelihood Education (TLE)",
}

// MAPEHComponents are clustered into a single synthetic rating on the transcript.
var MAPEHComponents = []string{
	"Music",
	"Arts",
	"Physical Education",
	"Health",
}

// SubjectFinal pairs a subject name with its (possibly undefined) final grade.
type SubjectFinal struct {
	Subject string
	Final   *float64
}

// FinalGrade returns the mean of the four quarterly scores rounded half-up to
// two decimals. It is defined only when all four quarters are present; a
// subject with incomplete quarters contributes nothing downstream.
func FinalGrade(q1, q2, q3, q4 *float64) *float64 {
	if q1 == nil || q2 == nil || q3 == nil || q4 == nil {
		return nil
	}
	avg := round2((*q1 + *q2 + *q3 + *q4) / 4)
	return &avg
}

// GeneralAverage computes the student's overall average across the required
// subjects. It is defined only when every required subject has exactly one
// entry with a defined final; duplicates or gaps make the result undefined.
func GeneralAverage(finals []SubjectFinal) *float64 {
	byName := make(map[string][]*float64, len(finals))
	for _, f := range finals {
		byName[f.Subject] = append(byName[f.Subject], f.Final)
	}

	var sum float64
	for _, name := range RequiredSubjects {
		entries := byName[name]
		if len(entries) != 1 || entries[0] == nil {
			return nil
		}
		sum += *entries[0]
	}

	avg := round2(sum / float64(len(RequiredSubjects)))
	return &avg
}

// TranscriptAverage computes the SF10 general average. Core learning areas
// contribute their finals individually; the MAPEH components are averaged as
// a cluster and rounded half-up to an integer before folding in. Unlike
// GeneralAverage, available ratings are averaged even when the set is
// incomplete. Returns nil when no ratings exist at all.
func TranscriptAverage(finals []SubjectFinal) *float64 {
	core := make(map[string]struct{}, len(CoreLearningAreas))
	for _, name := range CoreLearningAreas {
		core[name] = struct{}{}
	}
	mapeh := make(map[string]struct{}, len(MAPEHComponents))
	for _, name := range MAPEHComponents {
		mapeh[name] = struct{}{}
	}

	var ratings []float64
	var mapehRatings []float64
	for _, f := range finals {
		if f.Final == nil {
			continue
		}
		if _, ok := core[f.Subject]; ok {
			ratings = append(ratings, *f.Final)
			continue
		}
		if _, ok := mapeh[f.Subject]; ok {
			mapehRatings = append(mapehRatings, *f.Final)
		}
	}

	if len(mapehRatings) > 0 {
		ratings = append(ratings, roundInt(mean(mapehRatings)))
	}

	if len(ratings) == 0 {
		return nil
	}

	avg := round2(mean(ratings))
	return &avg
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// round2 rounds half-up to two decimals. Grades are non-negative, so the
// floor(+0.5) form matches decimal ROUND_HALF_UP and avoids banker's rounding.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

func roundInt(v float64) float64 {
	return math.Floor(v + 0.5)
}
