package importer

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/carbonledger/carbonledger/internal/entries"
	"github.com/carbonledger/carbonledger/internal/inventory"
	"github.com/carbonledger/carbonledger/internal/shared"
)

// Enqueuer hands a batch id to the background queue.
type Enqueuer interface {
	EnqueueImport(ctx context.Context, batchID string) error
}

// ReportGuard mirrors the mutability check entries go through.
type ReportGuard interface {
	EnsureMutable(ctx context.Context, id int64) (inventory.Report, error)
}

// BatchRecorder counts batches reaching a final status, typically a metrics
// registry.
type BatchRecorder interface {
	RecordImportBatch(status string)
}

// Service accepts provider uploads and processes them in the background.
type Service struct {
	repo    RepositoryPort
	reports ReportGuard
	queue   Enqueuer
	audit   *shared.AuditLogger
	metrics BatchRecorder
	maxSize int64
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, reports ReportGuard, queue Enqueuer, audit *shared.AuditLogger, maxSize int64) *Service {
	return &Service{repo: repo, reports: reports, queue: queue, audit: audit, maxSize: maxSize}
}

// WithMetrics attaches a batch status counter.
func (s *Service) WithMetrics(metrics BatchRecorder) *Service {
	s.metrics = metrics
	return s
}

// UploadParams describes one incoming provider file.
type UploadParams struct {
	InventoryID int64
	Category    entries.Category
	Provider    Provider
	Filename    string
	Data        []byte
}

// Upload validates and stores the file, then enqueues processing. The parse
// runs up front so obviously broken files fail at upload time instead of in
// the worker.
func (s *Service) Upload(ctx context.Context, actorID int64, p UploadParams) (Batch, error) {
	if s.maxSize > 0 && int64(len(p.Data)) > s.maxSize {
		return Batch{}, fmt.Errorf("importer: %w: file exceeds %d bytes", shared.ErrValidation, s.maxSize)
	}
	if p.Provider != ProviderCSV && p.Provider != ProviderTableau {
		return Batch{}, fmt.Errorf("importer: %w: unknown provider %q", shared.ErrValidation, p.Provider)
	}
	if _, err := s.reports.EnsureMutable(ctx, p.InventoryID); err != nil {
		return Batch{}, err
	}
	if _, err := Parse(bytes.NewReader(p.Data), p.Provider); err != nil {
		return Batch{}, err
	}

	batch, err := s.repo.Create(ctx, Batch{
		ID:          uuid.NewString(),
		InventoryID: p.InventoryID,
		Category:    string(p.Category),
		Provider:    p.Provider,
		Filename:    p.Filename,
		CreatedBy:   actorID,
	}, p.Data)
	if err != nil {
		return Batch{}, err
	}
	if err := s.queue.EnqueueImport(ctx, batch.ID); err != nil {
		_ = s.repo.MarkFailed(ctx, batch.ID, "enqueue failed: "+err.Error())
		return Batch{}, err
	}
	s.recordAudit(ctx, actorID, "import.upload", batch)
	return batch, nil
}

// Get fetches one batch by id.
func (s *Service) Get(ctx context.Context, id string) (Batch, error) {
	return s.repo.Get(ctx, id)
}

// List returns recent batches, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]Batch, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.List(ctx, limit)
}

// Process parses a stored batch and commits its rows as synced entries.
// Called from the background worker; any failure marks the batch failed and
// leaves no partial entries behind.
func (s *Service) Process(ctx context.Context, batchID string) error {
	if err := s.repo.MarkProcessing(ctx, batchID); err != nil {
		return err
	}
	batch, err := s.repo.Get(ctx, batchID)
	if err != nil {
		return err
	}
	report, err := s.reports.EnsureMutable(ctx, batch.InventoryID)
	if err != nil {
		return s.fail(ctx, batchID, err)
	}
	payload, err := s.repo.Payload(ctx, batchID)
	if err != nil {
		return s.fail(ctx, batchID, err)
	}
	rows, err := Parse(bytes.NewReader(payload), batch.Provider)
	if err != nil {
		return s.fail(ctx, batchID, err)
	}
	if err := s.repo.CommitRows(ctx, batch, report.UnitID, rows); err != nil {
		return s.fail(ctx, batchID, err)
	}
	if s.metrics != nil {
		s.metrics.RecordImportBatch(string(StatusDone))
	}
	s.recordAudit(ctx, batch.CreatedBy, "import.done", batch)
	return nil
}

func (s *Service) fail(ctx context.Context, batchID string, cause error) error {
	if err := s.repo.MarkFailed(ctx, batchID, cause.Error()); err != nil {
		return fmt.Errorf("importer: mark failed: %w (cause: %s)", err, cause)
	}
	if s.metrics != nil {
		s.metrics.RecordImportBatch(string(StatusFailed))
	}
	return cause
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, batch Batch) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "import_batches",
		EntityID: batch.ID,
		Meta: map[string]any{
			"inventory_id": strconv.FormatInt(batch.InventoryID, 10),
			"category":     batch.Category,
			"provider":     string(batch.Provider),
			"filename":     batch.Filename,
		},
	})
}
