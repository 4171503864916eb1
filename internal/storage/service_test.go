package storage

import (
	"context"
	"testing"
	"time"
)

func TestService_LatestFetches(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []*FetchRecord{
		{Kind: "armor", SourceURL: "https://mhw-db.com/armor", Bytes: 100, FetchedAt: base},
		{Kind: "skills", SourceURL: "https://mhw-db.com/skills", Bytes: 10, FetchedAt: base},
		{Kind: "armor", SourceURL: "https://mhw-db.com/armor", Bytes: 120, FetchedAt: base.Add(time.Hour)},
	}
	for _, r := range records {
		if err := svc.RecordFetch(ctx, r); err != nil {
			t.Fatalf("RecordFetch failed: %v", err)
		}
		if r.ID == 0 {
			t.Errorf("expected ID to be set for %s fetch", r.Kind)
		}
	}

	latest, err := svc.LatestFetches(ctx)
	if err != nil {
		t.Fatalf("LatestFetches failed: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("expected 2 fetches, got %d", len(latest))
	}

	if latest[0].Kind != "armor" || latest[0].Bytes != 120 {
		t.Errorf("expected newest armor fetch, got %+v", latest[0])
	}
	if !latest[0].FetchedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("expected FetchedAt %v, got %v", base.Add(time.Hour), latest[0].FetchedAt)
	}
	if latest[1].Kind != "skills" {
		t.Errorf("expected skills second, got %s", latest[1].Kind)
	}
}

func TestService_QueryLog(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, thing := range []string{"rathalos", "diablos", "kulu"} {
		err := svc.RecordQuery(ctx, &QueryRecord{
			Session:     "discord:123",
			Command:     "!set " + thing,
			Thing:       thing,
			ThingType:   "set",
			Rank:        "high",
			ResultCount: i,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("RecordQuery failed: %v", err)
		}
	}

	recent, err := svc.RecentQueries(ctx, 2)
	if err != nil {
		t.Fatalf("RecentQueries failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(recent))
	}
	if recent[0].Thing != "kulu" || recent[1].Thing != "diablos" {
		t.Errorf("expected newest first, got %s, %s", recent[0].Thing, recent[1].Thing)
	}
	if recent[0].ResultCount != 2 {
		t.Errorf("expected ResultCount 2, got %d", recent[0].ResultCount)
	}

	deleted, err := svc.PruneQueries(ctx, base.Add(90*time.Second))
	if err != nil {
		t.Fatalf("PruneQueries failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	recent, err = svc.RecentQueries(ctx, 0)
	if err != nil {
		t.Fatalf("RecentQueries failed: %v", err)
	}
	if len(recent) != 1 || recent[0].Thing != "kulu" {
		t.Errorf("expected only kulu left, got %+v", recent)
	}
}
