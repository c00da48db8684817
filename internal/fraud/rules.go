// internal/fraud/rules.go

// Package fraud evaluates a fixed, ordered list of independent rules over
// the resume, the developer-profile summary, and the simulated reference
// responses, then aggregates the resulting flags into one risk level.
package fraud

import (
	"fmt"
	"sort"
	"strings"

	"refcheck/internal/models"
)

// Rule inspects the inputs and emits zero or more flags. Rules must be
// deterministic: all randomness lives upstream in reference generation.
type Rule interface {
	Name() string
	Evaluate(input *Input) []models.FraudFlag
}

// Input bundles everything a rule may inspect.
type Input struct {
	Resume     *models.ParsedResume
	Profile    *models.ProfileSummary
	References []models.ReferenceResponse
}

// ==========================
// Skill / profile-language mismatch
// ==========================

// headlineSkills are the resume claims worth cross-checking against
// observed profile languages.
var headlineSkills = map[string]bool{
	"python":     true,
	"javascript": true,
	"typescript": true,
	"java":       true,
	"go":         true,
	"rust":       true,
}

// skillAliases folds framework and ecosystem names into the language they
// imply.
var skillAliases = map[string]string{
	"react":  "javascript",
	"node":   "javascript",
	"django": "python",
	"golang": "go",
	"spring": "java",
}

type SkillMismatchRule struct{}

func (r *SkillMismatchRule) Name() string { return "skill-mismatch" }

func (r *SkillMismatchRule) Evaluate(input *Input) []models.FraudFlag {
	// Without an analyzed profile there is nothing to contradict the claim.
	if !input.Profile.Analyzed() || input.Resume == nil {
		return nil
	}

	observed := make(map[string]bool, len(input.Profile.Languages))
	observedList := make([]string, 0, len(input.Profile.Languages))
	for lang := range input.Profile.Languages {
		observed[strings.ToLower(lang)] = true
		observedList = append(observedList, lang)
	}
	sort.Strings(observedList)

	var flags []models.FraudFlag
	for _, skill := range input.Resume.Skills {
		claim := strings.ToLower(strings.TrimSpace(skill))
		if canonical, ok := skillAliases[claim]; ok {
			claim = canonical
		}
		if !headlineSkills[claim] {
			continue
		}
		if observed[claim] {
			continue
		}
		flags = append(flags, models.FraudFlag{
			Type:     models.FlagSkillMismatch,
			Severity: models.SeverityHigh,
			Category: "profile",
			Message: fmt.Sprintf("Resume claims %q but the code profile shows no %s activity (observed: %s)",
				skill, claim, strings.Join(observedList, ", ")),
			Evidence: map[string]interface{}{
				"claimed_skill":      skill,
				"canonical_skill":    claim,
				"observed_languages": observedList,
			},
		})
	}
	return flags
}

// ==========================
// Employment-timeline gap
// ==========================

type EmploymentGapRule struct {
	// ThresholdMonths above which a gap is flagged. Strict mode tightens
	// this from 6 to 3.
	ThresholdMonths int
}

func (r *EmploymentGapRule) Name() string { return "employment-gap" }

func (r *EmploymentGapRule) Evaluate(input *Input) []models.FraudFlag {
	if input.Resume == nil || len(input.Resume.Employment) < 2 {
		return nil
	}

	entries := make([]models.EmploymentEntry, len(input.Resume.Employment))
	copy(entries, input.Resume.Employment)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StartDate < entries[j].StartDate
	})

	var flags []models.FraudFlag
	for i := 0; i < len(entries)-1; i++ {
		earlier, later := entries[i], entries[i+1]
		if earlier.EndDate == "" {
			// Open-ended position: no gap to measure against it.
			continue
		}
		end, err := models.ParseMonth(earlier.EndDate)
		if err != nil {
			continue
		}
		start, err := models.ParseMonth(later.StartDate)
		if err != nil {
			continue
		}
		gap := models.MonthsBetween(end, start)
		if gap <= r.ThresholdMonths {
			continue
		}
		flags = append(flags, models.FraudFlag{
			Type:     models.FlagEmploymentGap,
			Severity: models.SeverityMedium,
			Category: "timeline",
			Message: fmt.Sprintf("%d-month gap between %s and %s",
				gap, earlier.Employer, later.Employer),
			Evidence: map[string]interface{}{
				"gap_months":     gap,
				"prior_employer": earlier.Employer,
				"next_employer":  later.Employer,
				"gap_start":      earlier.EndDate,
				"gap_end":        later.StartDate,
			},
		})
	}
	return flags
}

// ==========================
// Reference sentiment
// ==========================

const lowRatingThreshold = 6.5

type ReferenceSentimentRule struct{}

func (r *ReferenceSentimentRule) Name() string { return "reference-sentiment" }

func (r *ReferenceSentimentRule) Evaluate(input *Input) []models.FraudFlag {
	responses := input.References
	if len(responses) == 0 {
		return nil
	}

	var flags []models.FraudFlag

	sum := 0
	noRehire := 0
	for _, resp := range responses {
		sum += resp.Rating
		if !resp.WouldRehire {
			noRehire++
		}
	}
	mean := float64(sum) / float64(len(responses))

	if mean < lowRatingThreshold {
		flags = append(flags, models.FraudFlag{
			Type:     models.FlagLowRating,
			Severity: models.SeverityHigh,
			Category: "references",
			Message: fmt.Sprintf("Mean reference rating %.1f across %d responses is below %.1f",
				mean, len(responses), lowRatingThreshold),
			Evidence: map[string]interface{}{
				"mean_rating": mean,
				"sample_size": len(responses),
			},
		})
	}

	// Checked independently of the mean; both flags can fire.
	if noRehire >= 2 {
		flags = append(flags, models.FraudFlag{
			Type:     models.FlagRehireConcerns,
			Severity: models.SeverityHigh,
			Category: "references",
			Message: fmt.Sprintf("%d of %d references would not rehire the candidate",
				noRehire, len(responses)),
			Evidence: map[string]interface{}{
				"no_rehire_count": noRehire,
				"sample_size":     len(responses),
			},
		})
	}

	return flags
}
