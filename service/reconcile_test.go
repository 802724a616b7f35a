package service

import (
	"context"
	"errors"
	"testing"

	"singo-backend/dto"
	"singo-backend/repository"
)

func TestReconcileAppliesScore(t *testing.T) {
	repo := newTestRepo(t)
	user, version := seedVersion(t, repo)
	ctx := context.Background()

	recording, err := repo.CreateRecording(ctx, user.UserID, version.VersionID, nil, "take.mp3")
	if err != nil {
		t.Fatalf("CreateRecording: %v", err)
	}

	svc := NewReconcileService(repo)
	if err := svc.Process(ctx, dto.ReconcileMessage{RecordID: recording.RecordID, Score: 77.25}); err != nil {
		t.Fatalf("Process: %v", err)
	}

	stored, err := repo.FindRecordingByID(ctx, recording.RecordID)
	if err != nil {
		t.Fatalf("FindRecordingByID: %v", err)
	}
	if stored.AccuracyScore != 77.25 {
		t.Fatalf("expected reconciled score 77.25, got %v", stored.AccuracyScore)
	}
}

func TestReconcileMissingRecordingDoesNotRetry(t *testing.T) {
	repo := newTestRepo(t)

	svc := NewReconcileService(repo)
	err := svc.Process(context.Background(), dto.ReconcileMessage{RecordID: 9999, Score: 50})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
