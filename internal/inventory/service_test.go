package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonledger/carbonledger/internal/authz"
	"github.com/carbonledger/carbonledger/internal/shared"
)

type mockRepo struct {
	reports     map[int64]Report
	nextID      int64
	lastVisible []int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{reports: make(map[int64]Report), nextID: 1}
}

func (m *mockRepo) List(ctx context.Context, visibleUnitIDs []int64, year int) ([]Report, error) {
	m.lastVisible = visibleUnitIDs
	var out []Report
	for _, rep := range m.reports {
		if year != 0 && rep.Year != year {
			continue
		}
		if visibleUnitIDs != nil && !containsID(visibleUnitIDs, rep.UnitID) {
			continue
		}
		out = append(out, rep)
	}
	return out, nil
}

func (m *mockRepo) Get(ctx context.Context, id int64) (Report, error) {
	rep, ok := m.reports[id]
	if !ok {
		return Report{}, shared.ErrNotFound
	}
	return rep, nil
}

func (m *mockRepo) Create(ctx context.Context, unitID int64, year int, title string, createdBy int64) (Report, error) {
	for _, rep := range m.reports {
		if rep.UnitID == unitID && rep.Year == year {
			return Report{}, shared.ErrDuplicate
		}
	}
	rep := Report{ID: m.nextID, UnitID: unitID, Year: year, Title: title, Status: StatusDraft, CreatedBy: createdBy}
	m.reports[rep.ID] = rep
	m.nextID++
	return rep, nil
}

func (m *mockRepo) UpdateTitle(ctx context.Context, id int64, title string) (Report, error) {
	rep, ok := m.reports[id]
	if !ok {
		return Report{}, shared.ErrNotFound
	}
	rep.Title = title
	m.reports[id] = rep
	return rep, nil
}

func (m *mockRepo) SetStatus(ctx context.Context, id int64, status Status) (Report, error) {
	rep, ok := m.reports[id]
	if !ok {
		return Report{}, shared.ErrNotFound
	}
	rep.Status = status
	m.reports[id] = rep
	return rep, nil
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func TestLifecycleTransitions(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	ctx := context.Background()

	report, err := svc.Create(ctx, 1, 10, 2025, "")
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, report.Status)
	assert.Equal(t, "Carbon report 2025", report.Title)

	report, err = svc.Open(ctx, 1, report.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, report.Status)

	// Closing a draft is not a valid transition.
	_, err = svc.Create(ctx, 1, 11, 2025, "other")
	require.NoError(t, err)
	_, err = svc.Close(ctx, 1, 2)
	assert.Error(t, err)

	report, err = svc.Close(ctx, 1, report.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, report.Status)

	report, err = svc.Reopen(ctx, 1, report.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, report.Status)
}

func TestEnsureMutableRejectsClosedReport(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	ctx := context.Background()

	report, err := svc.Create(ctx, 1, 10, 2025, "x")
	require.NoError(t, err)
	_, err = svc.Open(ctx, 1, report.ID)
	require.NoError(t, err)
	_, err = svc.Close(ctx, 1, report.ID)
	require.NoError(t, err)

	_, err = svc.EnsureMutable(ctx, report.ID)
	assert.ErrorIs(t, err, shared.ErrInventoryClosed)
}

func TestCreateRejectsImplausibleYear(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	_, err := svc.Create(context.Background(), 1, 10, 1899, "x")
	assert.Error(t, err)
}

func TestListPassesScopeFilter(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	_, err := svc.List(context.Background(), authz.RecordFilter{UnitIDs: []string{"10"}}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, repo.lastVisible)
}
