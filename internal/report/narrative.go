// internal/report/narrative.go

// Package report turns a fraud evaluation into the final deliverable: a
// narrative, a bounded interview-question list, and the completed report
// document.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"refcheck/internal/common/config"
	stderrors "refcheck/internal/common/errors"
	"refcheck/internal/common/logger"
	"refcheck/internal/models"
)

// NarrativeClient calls the text-generation service. The service is treated
// as unreliable: every failure path falls back to a templated narrative, so
// Generate never surfaces an error to the pipeline.
type NarrativeClient struct {
	config *config.NarrativeConfig
	client *http.Client
	logger logger.Logger
}

func NewNarrativeClient(cfg *config.NarrativeConfig, log logger.Logger) *NarrativeClient {
	return &NarrativeClient{
		config: cfg,
		// No client timeout; the per-call context bounds each request.
		client: &http.Client{},
		logger: log.WithFields(map[string]interface{}{"component": "narrative-client"}),
	}
}

// Generate returns the narrative text and its source, which is
// models.NarrativeTemplate whenever the service could not be used.
func (n *NarrativeClient) Generate(ctx context.Context, candidateName string, result *models.FraudResult, stats models.ReferenceStats, profile *models.ProfileSummary) (string, string) {
	if n.config.BaseURL == "" {
		return templateNarrative(candidateName, result, stats, profile), models.NarrativeTemplate
	}

	ctx, cancel := context.WithTimeout(ctx, n.config.Timeout())
	defer cancel()

	text, err := n.request(ctx, buildPrompt(candidateName, result, stats, profile))
	if err != nil {
		n.logger.Warn("narrative generation failed, using template", map[string]interface{}{
			"candidate": candidateName,
			"error":     err.Error(),
		})
		return templateNarrative(candidateName, result, stats, profile), models.NarrativeTemplate
	}
	return text, models.NarrativeGenerated
}

func (n *NarrativeClient) request(ctx context.Context, prompt string) (string, error) {
	requestBody := map[string]interface{}{
		"model":       n.config.Model,
		"prompt":      prompt,
		"max_tokens":  n.config.MaxTokens,
		"temperature": n.config.Temperature,
	}
	body, _ := json.Marshal(requestBody)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= n.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", stderrors.NewNarrativeTimeoutError()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.BaseURL+"/v1/completions", bytes.NewReader(body))
		if err != nil {
			return "", stderrors.NewNarrativeFailedError(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if n.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+n.config.APIKey)
		}

		resp, lastErr = n.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return "", stderrors.NewNarrativeTimeoutError()
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", stderrors.NewNarrativeTimeoutError()
		}
		return "", stderrors.NewNarrativeFailedError(lastErr)
	}
	if resp == nil {
		return "", stderrors.NewNarrativeFailedError(fmt.Errorf("no successful response after retries"))
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", stderrors.NewNarrativeFailedError(err)
	}
	if strings.TrimSpace(apiResponse.Text) == "" {
		return "", stderrors.NewNarrativeFailedError(fmt.Errorf("empty completion"))
	}
	return apiResponse.Text, nil
}

func buildPrompt(candidateName string, result *models.FraudResult, stats models.ReferenceStats, profile *models.ProfileSummary) string {
	var parts []string

	parts = append(parts, "You are a hiring-verification analyst. Write a short, factual narrative summarizing the findings below. Do not speculate beyond the listed evidence.")
	parts = append(parts, fmt.Sprintf("\nCandidate: %s", candidateName))
	parts = append(parts, fmt.Sprintf("Risk level: %s", result.Risk))

	if len(result.Flags) > 0 {
		parts = append(parts, "\nFindings:")
		for _, flag := range result.Flags {
			parts = append(parts, fmt.Sprintf("- [%s] %s", flag.Severity, flag.Message))
		}
	} else {
		parts = append(parts, "\nFindings: none")
	}

	parts = append(parts, fmt.Sprintf("\nReference outreach: %d contacted of %d generated, mean rating %.1f",
		stats.Responded, stats.Generated, stats.MeanRating))

	if profile.Analyzed() {
		parts = append(parts, fmt.Sprintf("Code profile: %d original repos, %d stars, ~%d recent commits",
			profile.OriginalRepos, profile.TotalStars, profile.ApproxCommits))
	} else {
		parts = append(parts, "Code profile: not analyzed")
	}

	parts = append(parts, "\nNarrative:")
	return strings.Join(parts, "\n")
}

// templateNarrative is the deterministic fallback.
func templateNarrative(candidateName string, result *models.FraudResult, stats models.ReferenceStats, profile *models.ProfileSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Verification of %s completed with risk level %s. ", candidateName, result.Risk)

	if len(result.Flags) == 0 {
		b.WriteString("No discrepancies were flagged. ")
	} else {
		fmt.Fprintf(&b, "%d potential discrepanc", len(result.Flags))
		if len(result.Flags) == 1 {
			b.WriteString("y was flagged: ")
		} else {
			b.WriteString("ies were flagged: ")
		}
		for i, flag := range result.Flags {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(flag.Message)
		}
		b.WriteString(". ")
	}

	fmt.Fprintf(&b, "%d of %d simulated references responded", stats.Responded, stats.Generated)
	if stats.Responded > 0 {
		fmt.Fprintf(&b, " with a mean rating of %.1f", stats.MeanRating)
	}
	b.WriteString(". ")

	if profile.Analyzed() {
		fmt.Fprintf(&b, "The developer profile showed %d original repositories and approximately %d recent commits.",
			profile.OriginalRepos, profile.ApproxCommits)
	} else {
		b.WriteString("No developer profile was analyzed.")
	}

	return b.String()
}
