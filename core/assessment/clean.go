package assessment

import (
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rors/core"
)

var (
	errTooManyCorrectAnswers = errors.New("Cannot have more correct answers than total questions")
	errGradeRequired         = errors.New("Grade is required for completed assessments")
)

// Clean derives the score of a completed assessment when it is not set.
// Any other status clears the score & the correct answers; the total questions are kept.
func (n *Numeric) Clean() ([]string, error) {
	if n.IsCompleted() {
		if n.CorrectAnswers > n.TotalQuestions {
			return nil, core.NewValidationError(errTooManyCorrectAnswers)
		}
		if !n.Score.Valid && n.TotalQuestions > 0 {
			n.Score = null.Float64From(core.Round2(float64(n.CorrectAnswers) / float64(n.TotalQuestions) * 100))
			return []string{"score"}, nil
		}
		return nil, nil
	}

	var set []string
	if n.Score.Valid {
		n.Score = null.Float64{}
		set = append(set, "score")
	}
	if n.CorrectAnswers != 0 {
		n.CorrectAnswers = 0
		set = append(set, "correct_answers")
	}
	return set, nil
}

// Clean requires the grade of a completed assessment. Any other status clears the grade.
func (g *Graded) Clean() ([]string, error) {
	if g.IsCompleted() {
		if !g.Grade.Valid || g.Grade.String == "" {
			return nil, core.NewValidationError(errGradeRequired)
		}
		return nil, nil
	}

	if g.Grade.Valid {
		g.Grade = null.String{}
		return []string{"grade"}, nil
	}
	return nil, nil
}
