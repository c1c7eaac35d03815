package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockgraph/src/domain"
)

// Orquestração assíncrona: a migração completa roda em background sob um
// jobId e o estado vive no cache externo, chave job:<jobId>. Só o runner
// escreve; os handlers de status apenas leem. O percentual é monótono:
// 25 depois da fase A, 50 depois da B, 90 depois da C, 100 no fim.

// StatusCache é o contrato de cache que o runner precisa (o client redis o
// satisfaz).
type StatusCache interface {
	GetKey(ctx context.Context, key string) (string, bool, error)
	SetKey(ctx context.Context, key string, value string) error
}

const (
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"

	PhaseItemNormalization         = "item_normalization"
	PhaseRelationshipNormalization = "relationship_normalization"
	PhaseEmbeddedConversion        = "embedded_conversion"
	PhaseDone                      = "done"
)

// JobCounters é o par convertidos/erros de um tipo de entidade.
type JobCounters struct {
	Converted int `json:"converted"`
	Errors    int `json:"errors"`
}

type JobProgress struct {
	CurrentPhase    string `json:"currentPhase"`
	PercentComplete int    `json:"percentComplete"`

	Items     JobCounters `json:"items"`
	Purchases JobCounters `json:"purchases"`
	Sales     JobCounters `json:"sales"`

	TotalRelationshipsCreated int `json:"totalRelationshipsCreated"`
	TotalErrors               int `json:"totalErrors"`
}

type JobStatus struct {
	JobID       string      `json:"jobId"`
	Status      string      `json:"status"`
	StartTime   string      `json:"startTime"`
	LastUpdated string      `json:"lastUpdated"`
	EndTime     string      `json:"endTime,omitempty"`
	Progress    JobProgress `json:"progress"`
	Error       string      `json:"error,omitempty"`
}

func jobKey(jobID string) string {
	return "job:" + jobID
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// StartCompleteMigrationJob registra o job como running e dispara a execução
// em background. O contexto do request não segura o job: ele roda sob
// context.Background.
func (s *MigrationService) StartCompleteMigrationJob(ctx context.Context, jobID string, cleanup bool) error {
	if s.cache == nil {
		return domain.Unavailablef("job status cache is not configured")
	}

	status := &JobStatus{
		JobID:     jobID,
		Status:    JobStatusRunning,
		StartTime: nowUTC(),
		Progress:  JobProgress{CurrentPhase: PhaseItemNormalization},
	}
	if err := s.writeJobStatus(ctx, status); err != nil {
		return err
	}

	go s.runJob(jobID, cleanup, status)
	return nil
}

// GetJobStatus lê o estado do job no cache. Chave ausente é NotFound.
func (s *MigrationService) GetJobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	if s.cache == nil {
		return nil, domain.Unavailablef("job status cache is not configured")
	}

	raw, found, err := s.cache.GetKey(ctx, jobKey(jobID))
	if err != nil {
		return nil, domain.Unavailablef("read job status: %v", err)
	}
	if !found {
		return nil, domain.NotFoundf("job %s", jobID)
	}

	var status JobStatus
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return nil, fmt.Errorf("decode job status %s: %w", jobID, err)
	}
	return &status, nil
}

func (s *MigrationService) runJob(jobID string, cleanup bool, status *JobStatus) {
	ctx := context.Background()

	report, err := s.runComplete(ctx, cleanup, func(phase string, percent int) {
		status.Progress.CurrentPhase = phase
		if percent > status.Progress.PercentComplete {
			status.Progress.PercentComplete = percent
		}
		if err := s.writeJobStatus(ctx, status); err != nil {
			s.logger.Error("Failed to persist job progress", "job_id", jobID, "error", err)
		}
	})

	if report != nil && report.EmbeddedConversion != nil {
		conv := report.EmbeddedConversion
		status.Progress.Items = JobCounters{Converted: conv.Items.Created, Errors: len(conv.Items.Errors)}
		status.Progress.Purchases = JobCounters{Converted: conv.Purchases.Created, Errors: len(conv.Purchases.Errors)}
		status.Progress.Sales = JobCounters{Converted: conv.Sales.Created, Errors: len(conv.Sales.Errors)}
		status.Progress.TotalRelationshipsCreated = conv.TotalRelationshipsCreated
		status.Progress.TotalErrors = conv.TotalErrors
	}

	if err != nil {
		status.Status = JobStatusFailed
		status.Error = err.Error()
		status.EndTime = nowUTC()
		if writeErr := s.writeJobStatus(ctx, status); writeErr != nil {
			s.logger.Error("Failed to persist failed job status", "job_id", jobID, "error", writeErr)
		}
		s.logger.Error("Migration job failed", "job_id", jobID, "error", err)
		return
	}

	status.Status = JobStatusCompleted
	status.Progress.PercentComplete = 100
	status.EndTime = nowUTC()
	if err := s.writeJobStatus(ctx, status); err != nil {
		s.logger.Error("Failed to persist completed job status", "job_id", jobID, "error", err)
	}
	s.logger.Info("Migration job completed",
		"job_id", jobID,
		"relationships_created", status.Progress.TotalRelationshipsCreated,
		"errors", status.Progress.TotalErrors)
}

func (s *MigrationService) writeJobStatus(ctx context.Context, status *JobStatus) error {
	status.LastUpdated = nowUTC()

	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode job status: %w", err)
	}
	return s.cache.SetKey(ctx, jobKey(status.JobID), string(raw))
}
