package audit

import (
	"context"
	"testing"
	"time"
)

type stubTimelineRepo struct {
	windowRows     []TimelineRow
	allRows        []TimelineRow
	lastWindowCall WindowParams
	lastAllCall    AllParams
}

func (s *stubTimelineRepo) TimelineWindow(ctx context.Context, arg WindowParams) ([]TimelineRow, error) {
	s.lastWindowCall = arg
	return s.windowRows, nil
}

func (s *stubTimelineRepo) TimelineAll(ctx context.Context, arg AllParams) ([]TimelineRow, error) {
	s.lastAllCall = arg
	return s.allRows, nil
}

func mockRow(at string, actor int64, action, entity, entityID, unitID string) TimelineRow {
	ts, _ := time.Parse(time.RFC3339, at)
	return TimelineRow{At: ts, ActorID: actor, Action: action, Entity: entity, EntityID: entityID, UnitID: unitID}
}

func TestServiceTimelinePaging(t *testing.T) {
	repo := &stubTimelineRepo{
		windowRows: []TimelineRow{
			mockRow("2025-03-10T10:00:00Z", 1, "inventory.close", "inventories", "1", "10"),
			mockRow("2025-03-09T09:00:00Z", 1, "entry.update", "entries", "2", "10"),
			mockRow("2025-03-08T08:00:00Z", 2, "entry.create", "entries", "3", "12"),
		},
	}
	svc := NewService(repo)
	result, err := svc.Timeline(context.Background(), TimelineFilters{
		From:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Page:     1,
		PageSize: 2,
	})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Rows))
	}
	if !result.Paging.HasNext {
		t.Fatalf("expected hasNext true")
	}
	if repo.lastWindowCall.LimitRows != 3 {
		t.Fatalf("expected limitRows 3, got %d", repo.lastWindowCall.LimitRows)
	}
	if repo.lastWindowCall.OffsetRows != 0 {
		t.Fatalf("expected offset 0, got %d", repo.lastWindowCall.OffsetRows)
	}
}

func TestServiceTimelineCapsPageSize(t *testing.T) {
	repo := &stubTimelineRepo{}
	svc := NewService(repo)
	if _, err := svc.Timeline(context.Background(), TimelineFilters{PageSize: 500}); err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if repo.lastWindowCall.LimitRows != 51 {
		t.Fatalf("expected limitRows 51, got %d", repo.lastWindowCall.LimitRows)
	}
}

func TestServiceTimelineSecondPageOffset(t *testing.T) {
	repo := &stubTimelineRepo{}
	svc := NewService(repo)
	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 3, PageSize: 10})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if repo.lastWindowCall.OffsetRows != 20 {
		t.Fatalf("expected offset 20, got %d", repo.lastWindowCall.OffsetRows)
	}
	if result.Paging.PrevPage != 2 {
		t.Fatalf("expected prevPage 2, got %d", result.Paging.PrevPage)
	}
}

func TestServiceExportPassesFilters(t *testing.T) {
	repo := &stubTimelineRepo{allRows: []TimelineRow{mockRow("2025-03-10T10:00:00Z", 1, "user.create", "users", "7", "")}}
	svc := NewService(repo)
	rows, err := svc.Export(context.Background(), TimelineFilters{Actor: " ops@example.com ", Entity: "users"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if !repo.lastAllCall.Actor.Valid || repo.lastAllCall.Actor.String != "ops@example.com" {
		t.Fatalf("expected trimmed actor filter, got %+v", repo.lastAllCall.Actor)
	}
	if repo.lastAllCall.UnitID.Valid {
		t.Fatalf("expected empty unit filter to stay null")
	}
}
