// internal/report/questions.go
package report

import (
	"fmt"

	"refcheck/internal/models"
)

const (
	minQuestions = 3
	maxQuestions = 5
)

// questionForFlag maps each flag type to one templated interview question.
var questionForFlag = map[string]func(flag models.FraudFlag) string{
	models.FlagSkillMismatch: func(flag models.FraudFlag) string {
		skill, _ := flag.Evidence["claimed_skill"].(string)
		return fmt.Sprintf("Your resume lists %s as a core skill, but your public code activity does not show it. Can you walk me through a recent project where you used it?", skill)
	},
	models.FlagEmploymentGap: func(flag models.FraudFlag) string {
		prior, _ := flag.Evidence["prior_employer"].(string)
		next, _ := flag.Evidence["next_employer"].(string)
		return fmt.Sprintf("There is a gap between your time at %s and %s. What were you doing during that period?", prior, next)
	},
	models.FlagLowRating: func(models.FraudFlag) string {
		return "Some references rated your past performance lower than expected. How would you describe your working relationships on your last team?"
	},
	models.FlagRehireConcerns: func(models.FraudFlag) string {
		return "Several former colleagues expressed reservations about working with you again. What do you think they would say, and why?"
	},
}

var genericQuestions = []string{
	"Tell me about a project you are most proud of and your specific contribution to it.",
	"Describe a time you received difficult feedback. How did you respond?",
	"What does your ideal engineering team look like, and what role do you play in it?",
}

// BuildQuestions produces the interview-question list deterministically from
// the flag set: one question per distinct flag type in the order flags were
// produced, padded with generic behavioral questions to at least three,
// capped at five.
func BuildQuestions(flags []models.FraudFlag) []string {
	var questions []string
	seen := make(map[string]bool)

	for _, flag := range flags {
		if seen[flag.Type] {
			continue
		}
		template, ok := questionForFlag[flag.Type]
		if !ok {
			continue
		}
		seen[flag.Type] = true
		questions = append(questions, template(flag))
		if len(questions) == maxQuestions {
			return questions
		}
	}

	for _, generic := range genericQuestions {
		if len(questions) >= minQuestions {
			break
		}
		questions = append(questions, generic)
	}
	return questions
}
