package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/athletiq/socialgraph/internal/models"
)

func profileRowValues(id uuid.UUID, username string) []any {
	return []any{
		id, username, "Display " + username, (*string)(nil), "soccer", "intermediate", "bio",
		true, true, true, models.VisibilityPublic, models.ModerationStandard, time.Now().UTC(),
	}
}

func TestProfileService_FetchProfile_NotFound(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return fakeRow{err: pgx.ErrNoRows}
		},
	}

	svc := NewProfileService(db)
	_, err := svc.FetchProfile(context.Background(), uuid.New())
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestProfileService_FetchProfile_Success(t *testing.T) {
	profileID := uuid.New()
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(profileRowValues(profileID, "alice")...)
		},
	}

	svc := NewProfileService(db)
	profile, err := svc.FetchProfile(context.Background(), profileID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.ID != profileID || profile.Username != "alice" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.ParentalControls.Visibility != models.VisibilityPublic {
		t.Fatalf("unexpected visibility: %s", profile.ParentalControls.Visibility)
	}
}

func TestProfileService_SearchProfiles_ShortQuery(t *testing.T) {
	svc := &ProfileService{}
	results, err := svc.SearchProfiles(context.Background(), " a ", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestProfileService_SearchProfiles_ReturnsRows(t *testing.T) {
	aliceID := uuid.New()
	alexID := uuid.New()
	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			return &fakeRows{rows: [][]any{
				profileRowValues(aliceID, "alice"),
				profileRowValues(alexID, "alex"),
			}}, nil
		},
	}

	svc := NewProfileService(db)
	results, err := svc.SearchProfiles(context.Background(), "al", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != aliceID || results[1].ID != alexID {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestProfileService_SearchProfiles_QueryError(t *testing.T) {
	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			return nil, errors.New("connection reset")
		},
	}

	svc := NewProfileService(db)
	if _, err := svc.SearchProfiles(context.Background(), "alice", 10); err == nil {
		t.Fatal("expected query error")
	}
}

func TestProfileService_SearchProfiles_EmptyResultIsNotNil(t *testing.T) {
	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			return &fakeRows{}, nil
		},
	}

	svc := NewProfileService(db)
	results, err := svc.SearchProfiles(context.Background(), "nobody", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results == nil {
		t.Fatal("expected empty slice, got nil")
	}
}
