// internal/models/profile.go
package models

// ProfileStatus distinguishes "analyzed" from "not requested" from "failed".
// Downstream rules need the distinction: no skill-mismatch flags are emitted
// unless a profile was actually analyzed.
type ProfileStatus string

const (
	ProfileAnalyzed ProfileStatus = "analyzed"
	ProfileSkipped  ProfileStatus = "skipped"
	ProfileFailed   ProfileStatus = "failed"
)

// ProfileSummary is the structured result of analyzing a candidate's public
// code-contribution profile. Commit counts are sampled from the most
// recently touched repositories, not exhaustive, as a deliberate
// latency trade-off.
type ProfileSummary struct {
	Status        ProfileStatus  `json:"status"`
	Handle        string         `json:"handle,omitempty"`
	Error         string         `json:"error,omitempty"` // populated when Status == failed
	OriginalRepos int            `json:"originalRepos"`
	ForkedRepos   int            `json:"forkedRepos"`
	Languages     map[string]int `json:"languages,omitempty"` // language -> repo count
	TotalStars    int            `json:"totalStars"`
	ApproxCommits int            `json:"approxCommits"`
	SampledRepos  int            `json:"sampledRepos"` // how many repos the commit estimate covers
}

// SkippedProfile is the sentinel for "no handle supplied".
func SkippedProfile() *ProfileSummary {
	return &ProfileSummary{Status: ProfileSkipped}
}

// FailedProfile is the sentinel for a lookup that could not complete.
func FailedProfile(handle, msg string) *ProfileSummary {
	return &ProfileSummary{Status: ProfileFailed, Handle: handle, Error: msg}
}

// Analyzed reports whether rule evaluation may rely on this summary.
func (p *ProfileSummary) Analyzed() bool {
	return p != nil && p.Status == ProfileAnalyzed
}
