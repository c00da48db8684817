// internal/references/templates.go
package references

import (
	"math/rand"

	"refcheck/internal/models"
)

// responseTemplate fixes everything about a simulated response except the
// anecdote, which is sampled from the template's pool.
type responseTemplate struct {
	weight      float64
	rating      int
	strengths   []string
	weaknesses  []string
	wouldRehire bool
	anecdotes   []string
}

// 60% strong performer, 30% solid contributor, 10% performance concerns.
var responseTemplates = []responseTemplate{
	{
		weight:      0.60,
		rating:      9,
		strengths:   []string{"technical depth", "ownership", "mentorship"},
		weaknesses:  []string{"takes on too much"},
		wouldRehire: true,
		anecdotes: []string{
			"Led the migration that cut our deploy time in half.",
			"Debugged a production outage at 2am and wrote the postmortem before standup.",
			"Onboarded three junior engineers who all still quote their advice.",
		},
	},
	{
		weight:      0.30,
		rating:      7,
		strengths:   []string{"reliable delivery", "good collaborator"},
		weaknesses:  []string{"needs clearer requirements", "quiet in design reviews"},
		wouldRehire: true,
		anecdotes: []string{
			"Consistently shipped their sprint commitments without drama.",
			"Picked up an unfamiliar service and had it stable within a month.",
			"Steady hand during the reorg when half the team left.",
		},
	},
	{
		weight:      0.10,
		rating:      4,
		strengths:   []string{"enthusiastic"},
		weaknesses:  []string{"missed deadlines", "difficult to give feedback to"},
		wouldRehire: false,
		anecdotes: []string{
			"Promised a feature for the release and it slipped three times.",
			"Got defensive in code review more than once.",
			"Needed constant follow-up to close out their tickets.",
		},
	},
}

func (g *Generator) respond(ref models.Reference) models.ReferenceResponse {
	tmpl := pickTemplate(g.rng)
	return models.ReferenceResponse{
		Reference:   ref,
		Rating:      tmpl.rating,
		Strengths:   tmpl.strengths,
		Weaknesses:  tmpl.weaknesses,
		WouldRehire: tmpl.wouldRehire,
		Anecdote:    tmpl.anecdotes[g.rng.Intn(len(tmpl.anecdotes))],
	}
}

func pickTemplate(rng *rand.Rand) responseTemplate {
	roll := rng.Float64()
	cumulative := 0.0
	for _, tmpl := range responseTemplates {
		cumulative += tmpl.weight
		if roll < cumulative {
			return tmpl
		}
	}
	return responseTemplates[len(responseTemplates)-1]
}
