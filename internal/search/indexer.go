// internal/search/indexer.go

// Package search pushes completed verification reports into Elasticsearch
// so analysts can query across candidates. Indexing is a post-completion
// side effect and never fails a run.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"refcheck/internal/common/config"
	stderrors "refcheck/internal/common/errors"
	"refcheck/internal/common/logger"
	"refcheck/internal/models"
)

// reportDocument is the flattened shape indexed per completed run.
type reportDocument struct {
	RecordID        string    `json:"record_id"`
	CandidateName   string    `json:"candidate_name"`
	Risk            string    `json:"risk"`
	Summary         string    `json:"summary"`
	FlagCount       int       `json:"flag_count"`
	FlagTypes       []string  `json:"flag_types"`
	ProfileAnalyzed bool      `json:"profile_analyzed"`
	MeanRating      float64   `json:"mean_reference_rating"`
	CompletedAt     time.Time `json:"completed_at"`
}

type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(client *elasticsearch.Client, cfg *config.ElasticsearchConfig, log logger.Logger) *Indexer {
	return &Indexer{
		client: client,
		index:  cfg.Index,
		logger: log.WithFields(map[string]interface{}{"component": "report-indexer"}),
	}
}

// IndexReport writes the report document keyed by record id, so re-indexing
// the same record is an idempotent overwrite.
func (i *Indexer) IndexReport(ctx context.Context, record *models.VerificationRecord) error {
	if record.Result == nil {
		return stderrors.NewReportIndexFailedError(fmt.Errorf("record %s has no report", record.ID))
	}

	doc := reportDocument{
		RecordID:        record.ID,
		CandidateName:   record.CandidateName,
		Risk:            string(record.Result.Risk),
		Summary:         record.Result.Summary,
		FlagCount:       len(record.Result.Flags),
		FlagTypes:       flagTypes(record.Result.Flags),
		ProfileAnalyzed: record.Result.ProfileAnalyzed,
		MeanRating:      record.Result.References.MeanRating,
	}
	if record.CompletedAt != nil {
		doc.CompletedAt = *record.CompletedAt
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return stderrors.NewReportIndexFailedError(err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: record.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}
	resp, err := req.Do(ctx, i.client)
	if err != nil {
		return stderrors.NewReportIndexFailedError(err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return stderrors.NewReportIndexFailedError(fmt.Errorf("index response: %s", resp.Status()))
	}

	i.logger.Info("report indexed", map[string]interface{}{
		"recordId": record.ID,
		"index":    i.index,
		"risk":     doc.Risk,
	})
	return nil
}

func flagTypes(flags []models.FraudFlag) []string {
	seen := make(map[string]bool)
	var types []string
	for _, flag := range flags {
		if !seen[flag.Type] {
			seen[flag.Type] = true
			types = append(types, flag.Type)
		}
	}
	return types
}
