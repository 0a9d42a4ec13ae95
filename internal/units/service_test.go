package units

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonledger/carbonledger/internal/authz"
	"github.com/carbonledger/carbonledger/internal/shared"
)

type mockRepo struct {
	units       map[int64]Unit
	nextID      int64
	lastVisible []int64
	listAll     bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{units: make(map[int64]Unit), nextID: 1}
}

func (m *mockRepo) List(ctx context.Context, visibleIDs []int64) ([]Unit, error) {
	m.lastVisible = visibleIDs
	m.listAll = visibleIDs == nil
	var out []Unit
	for _, u := range m.units {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockRepo) Get(ctx context.Context, id int64) (Unit, error) {
	u, ok := m.units[id]
	if !ok {
		return Unit{}, shared.ErrNotFound
	}
	return u, nil
}

func (m *mockRepo) Create(ctx context.Context, code, name string, parentID *int64) (Unit, error) {
	for _, u := range m.units {
		if u.Code == code {
			return Unit{}, shared.ErrDuplicate
		}
	}
	u := Unit{ID: m.nextID, Code: code, Name: name, ParentID: parentID}
	m.units[u.ID] = u
	m.nextID++
	return u, nil
}

func (m *mockRepo) Update(ctx context.Context, id int64, code, name string, parentID *int64) (Unit, error) {
	u, ok := m.units[id]
	if !ok {
		return Unit{}, shared.ErrNotFound
	}
	u.Code, u.Name, u.ParentID = code, name, parentID
	m.units[id] = u
	return u, nil
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.units[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.units, id)
	return nil
}

func TestListAppliesScopeFilter(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	_, err := svc.List(context.Background(), authz.RecordFilter{UnitIDs: []string{"12", "7"}})
	require.NoError(t, err)
	assert.Equal(t, []int64{12, 7}, repo.lastVisible)

	_, err = svc.List(context.Background(), authz.RecordFilter{All: true})
	require.NoError(t, err)
	assert.True(t, repo.listAll)
}

func TestCreateTrimsAndDetectsDuplicates(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	unit, err := svc.Create(context.Background(), 1, "  HQ  ", " Headquarters ", nil)
	require.NoError(t, err)
	assert.Equal(t, "HQ", unit.Code)
	assert.Equal(t, "Headquarters", unit.Name)

	_, err = svc.Create(context.Background(), 1, "HQ", "Other", nil)
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestDeleteMissingUnit(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	assert.ErrorIs(t, svc.Delete(context.Background(), 1, 99), shared.ErrNotFound)
}
