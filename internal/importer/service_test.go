package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonledger/carbonledger/internal/entries"
	"github.com/carbonledger/carbonledger/internal/inventory"
	"github.com/carbonledger/carbonledger/internal/shared"
)

type mockRepo struct {
	batches   map[string]Batch
	payloads  map[string][]byte
	committed []Row
	commitTo  int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{batches: make(map[string]Batch), payloads: make(map[string][]byte)}
}

func (m *mockRepo) Create(ctx context.Context, b Batch, payload []byte) (Batch, error) {
	b.Status = StatusPending
	m.batches[b.ID] = b
	m.payloads[b.ID] = payload
	return b, nil
}

func (m *mockRepo) Get(ctx context.Context, id string) (Batch, error) {
	b, ok := m.batches[id]
	if !ok {
		return Batch{}, shared.ErrNotFound
	}
	return b, nil
}

func (m *mockRepo) List(ctx context.Context, limit int) ([]Batch, error) {
	var out []Batch
	for _, b := range m.batches {
		out = append(out, b)
	}
	return out, nil
}

func (m *mockRepo) Payload(ctx context.Context, id string) ([]byte, error) {
	payload, ok := m.payloads[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return payload, nil
}

func (m *mockRepo) MarkProcessing(ctx context.Context, id string) error {
	b, ok := m.batches[id]
	if !ok || b.Status != StatusPending {
		return shared.ErrNotFound
	}
	b.Status = StatusProcessing
	m.batches[id] = b
	return nil
}

func (m *mockRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	b := m.batches[id]
	b.Status = StatusFailed
	b.Error = reason
	m.batches[id] = b
	return nil
}

func (m *mockRepo) CommitRows(ctx context.Context, batch Batch, unitID int64, rows []Row) error {
	m.committed = rows
	m.commitTo = unitID
	b := m.batches[batch.ID]
	b.Status = StatusDone
	b.RowCount = len(rows)
	b.ImportedCount = len(rows)
	m.batches[batch.ID] = b
	return nil
}

type mockReports struct {
	reports map[int64]inventory.Report
}

func (m *mockReports) EnsureMutable(ctx context.Context, id int64) (inventory.Report, error) {
	rep, ok := m.reports[id]
	if !ok {
		return inventory.Report{}, shared.ErrNotFound
	}
	if !rep.Mutable() {
		return inventory.Report{}, shared.ErrInventoryClosed
	}
	return rep, nil
}

type mockQueue struct {
	enqueued []string
	fail     bool
}

func (m *mockQueue) EnqueueImport(ctx context.Context, batchID string) error {
	if m.fail {
		return assert.AnError
	}
	m.enqueued = append(m.enqueued, batchID)
	return nil
}

const sampleCSV = "label,quantity,factor_key\nServer rack,900,equipment.server\nLaptop fleet,30,equipment.laptop\n"

func newTestService() (*Service, *mockRepo, *mockQueue) {
	repo := newMockRepo()
	queue := &mockQueue{}
	reports := &mockReports{reports: map[int64]inventory.Report{
		1: {ID: 1, UnitID: 10, Year: 2025, Status: inventory.StatusOpen},
		2: {ID: 2, UnitID: 10, Year: 2024, Status: inventory.StatusClosed},
	}}
	return NewService(repo, reports, queue, nil, 1<<20), repo, queue
}

func uploadParams(inventoryID int64, data string) UploadParams {
	return UploadParams{
		InventoryID: inventoryID,
		Category:    entries.CategoryEquipment,
		Provider:    ProviderCSV,
		Filename:    "export.csv",
		Data:        []byte(data),
	}
}

func TestUploadEnqueuesBatch(t *testing.T) {
	svc, repo, queue := newTestService()

	batch, err := svc.Upload(context.Background(), 42, uploadParams(1, sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, batch.Status)
	assert.NotEmpty(t, batch.ID)
	assert.Equal(t, []string{batch.ID}, queue.enqueued)
	assert.Equal(t, []byte(sampleCSV), repo.payloads[batch.ID])
}

func TestUploadRejectsClosedReport(t *testing.T) {
	svc, _, queue := newTestService()

	_, err := svc.Upload(context.Background(), 42, uploadParams(2, sampleCSV))
	assert.ErrorIs(t, err, shared.ErrInventoryClosed)
	assert.Empty(t, queue.enqueued)
}

func TestUploadRejectsBrokenFileBeforeQueueing(t *testing.T) {
	svc, _, queue := newTestService()

	_, err := svc.Upload(context.Background(), 42, uploadParams(1, "label,quantity\nTrip,10\n"))
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, queue.enqueued)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	svc, _, _ := newTestService()
	svc.maxSize = 8

	_, err := svc.Upload(context.Background(), 42, uploadParams(1, sampleCSV))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestUploadMarksFailedWhenEnqueueFails(t *testing.T) {
	svc, repo, queue := newTestService()
	queue.fail = true

	_, err := svc.Upload(context.Background(), 42, uploadParams(1, sampleCSV))
	require.Error(t, err)
	for _, b := range repo.batches {
		assert.Equal(t, StatusFailed, b.Status)
	}
}

func TestProcessCommitsRowsToReportUnit(t *testing.T) {
	svc, repo, _ := newTestService()
	batch, err := svc.Upload(context.Background(), 42, uploadParams(1, sampleCSV))
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), batch.ID))

	require.Len(t, repo.committed, 2)
	assert.Equal(t, int64(10), repo.commitTo)
	done, err := repo.Get(context.Background(), batch.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, done.Status)
	assert.Equal(t, 2, done.ImportedCount)
}

func TestProcessFailsWhenReportClosedMeanwhile(t *testing.T) {
	repo := newMockRepo()
	queue := &mockQueue{}
	reports := &mockReports{reports: map[int64]inventory.Report{
		1: {ID: 1, UnitID: 10, Year: 2025, Status: inventory.StatusOpen},
	}}
	svc := NewService(repo, reports, queue, nil, 1<<20)

	batch, err := svc.Upload(context.Background(), 42, uploadParams(1, sampleCSV))
	require.NoError(t, err)

	reports.reports[1] = inventory.Report{ID: 1, UnitID: 10, Year: 2025, Status: inventory.StatusClosed}
	err = svc.Process(context.Background(), batch.ID)
	assert.ErrorIs(t, err, shared.ErrInventoryClosed)

	failed, err := repo.Get(context.Background(), batch.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Empty(t, repo.committed)
}

func TestProcessIsIdempotentPerBatch(t *testing.T) {
	svc, _, _ := newTestService()
	batch, err := svc.Upload(context.Background(), 42, uploadParams(1, sampleCSV))
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), batch.ID))
	// A second delivery finds the batch no longer pending and backs off.
	err = svc.Process(context.Background(), batch.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
