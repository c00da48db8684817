// internal/references/generator.go

// Package references fabricates a plausible population of former-colleague
// contacts from an employment history and simulates an outreach round
// against it. Everything here is pure with respect to the supplied random
// source: a fixed seed reproduces the exact same population and sample.
package references

import (
	"fmt"
	"math"
	"math/rand"

	"refcheck/internal/models"
)

const (
	MinPerEmployer = 15
	MaxPerEmployer = 25

	DefaultResponseRate = 0.20
)

var firstNames = []string{
	"Avery", "Blake", "Casey", "Dana", "Ellis", "Finley", "Gray", "Harper",
	"Indira", "Jules", "Kiran", "Logan", "Morgan", "Noor", "Oakley", "Priya",
	"Quinn", "Reese", "Sasha", "Tatum", "Uma", "Vik", "Wren", "Yuki", "Zane",
}

var lastNames = []string{
	"Adler", "Bishop", "Castillo", "Dawson", "Eng", "Fontaine", "Gupta",
	"Hayes", "Ivanov", "Joshi", "Khan", "Larsen", "Mendoza", "Nakamura",
	"Okafor", "Petrov", "Quigley", "Ramos", "Singh", "Tran", "Ueda",
	"Vance", "Whitfield", "Xu", "Young",
}

var titleVocabulary = []string{
	"Software Engineer",
	"Senior Software Engineer",
	"Engineering Manager",
	"Product Manager",
	"Tech Lead",
	"QA Engineer",
	"DevOps Engineer",
	"Staff Engineer",
}

// relationshipWeights bias the population toward peers.
var relationshipWeights = []struct {
	relationship models.Relationship
	weight       float64
}{
	{models.RelationshipPeer, 0.60},
	{models.RelationshipManager, 0.25},
	{models.RelationshipDirectReport, 0.15},
}

// Generator produces synthetic reference populations. The random source is
// injected so tests can fix a seed.
type Generator struct {
	rng          *rand.Rand
	minPer       int
	maxPer       int
	responseRate float64
}

type Option func(*Generator)

func WithPerEmployerRange(min, max int) Option {
	return func(g *Generator) {
		g.minPer = min
		g.maxPer = max
	}
}

func WithResponseRate(rate float64) Option {
	return func(g *Generator) {
		g.responseRate = rate
	}
}

func NewGenerator(rng *rand.Rand, opts ...Option) *Generator {
	g := &Generator{
		rng:          rng,
		minPer:       MinPerEmployer,
		maxPer:       MaxPerEmployer,
		responseRate: DefaultResponseRate,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate draws a random count of contacts per employment entry. An empty
// history yields an empty slice, never an error.
func (g *Generator) Generate(employment []models.EmploymentEntry) []models.Reference {
	var refs []models.Reference
	for _, entry := range employment {
		count := g.minPer + g.rng.Intn(g.maxPer-g.minPer+1)
		for i := 0; i < count; i++ {
			refs = append(refs, models.Reference{
				Name:         g.pickName(),
				Employer:     entry.Employer,
				Title:        titleVocabulary[g.rng.Intn(len(titleVocabulary))],
				Relationship: g.pickRelationship(),
			})
		}
	}
	return refs
}

// SimulateOutreach samples round(len(refs) * rate) references without
// replacement and fabricates a templated response for each. An empty
// population returns an empty slice immediately.
func (g *Generator) SimulateOutreach(refs []models.Reference) []models.ReferenceResponse {
	if len(refs) == 0 {
		return nil
	}

	count := int(math.Round(float64(len(refs)) * g.responseRate))
	if count > len(refs) {
		count = len(refs)
	}
	if count == 0 {
		return nil
	}

	// Partial Fisher-Yates: the first count positions are the sample.
	indices := g.rng.Perm(len(refs))[:count]

	responses := make([]models.ReferenceResponse, 0, count)
	for _, idx := range indices {
		responses = append(responses, g.respond(refs[idx]))
	}
	return responses
}

// Stats summarizes a generation plus outreach round for the final report.
func Stats(refs []models.Reference, responses []models.ReferenceResponse) models.ReferenceStats {
	stats := models.ReferenceStats{
		Generated: len(refs),
		Responded: len(responses),
	}
	if len(responses) > 0 {
		sum := 0
		for _, r := range responses {
			sum += r.Rating
		}
		stats.MeanRating = float64(sum) / float64(len(responses))
	}
	return stats
}

func (g *Generator) pickName() string {
	return fmt.Sprintf("%s %s",
		firstNames[g.rng.Intn(len(firstNames))],
		lastNames[g.rng.Intn(len(lastNames))],
	)
}

func (g *Generator) pickRelationship() models.Relationship {
	roll := g.rng.Float64()
	cumulative := 0.0
	for _, rw := range relationshipWeights {
		cumulative += rw.weight
		if roll < cumulative {
			return rw.relationship
		}
	}
	return relationshipWeights[len(relationshipWeights)-1].relationship
}
