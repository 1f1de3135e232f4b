package repository_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/NamanBalaji/streamdl/internal/repository"
)

func TestNewBboltRepository_OpenError(t *testing.T) {
	dir := t.TempDir()
	_, err := repository.NewBboltRepository(dir)
	if err == nil {
		t.Errorf("Expected error when opening DB on directory path, got nil")
	}
}

func TestNewBboltRepository_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	repo, err := repository.NewBboltRepository(dbPath)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer repo.Close()
}

func TestSaveNilRecord(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := repository.NewBboltRepository(dbPath)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer repo.Close()

	err = repo.Save(nil)
	if !errors.Is(err, repository.ErrNilRecord) {
		t.Errorf("Expected ErrNilRecord, got %v", err)
	}

	err = repo.Save(&repository.Record{})
	if !errors.Is(err, repository.ErrEmptyID) {
		t.Errorf("Expected ErrEmptyID, got %v", err)
	}
}

func TestSaveFindRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := repository.NewBboltRepository(dbPath)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer repo.Close()

	rec := &repository.Record{
		ID:        uuid.New(),
		Source:    "https://cdn.example.com/master.m3u8",
		Output:    "/tmp/movie.mkv",
		Status:    repository.StatusRunning,
		StartedAt: time.Now().UTC().Truncate(time.Second),
		Tracks:    []repository.TrackRecord{{Type: "video", Name: "video0_1080p_H264", Segments: 10}},
	}

	if err := repo.Save(rec); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	rec.Status = repository.StatusFailed
	rec.Error = "boom"
	if err := repo.Save(rec); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := repo.Find(rec.ID)
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}

	if got.Status != repository.StatusFailed || got.Error != "boom" || got.Source != rec.Source {
		t.Errorf("Find returned wrong data: %+v", got)
	}

	if len(got.Tracks) != 1 || got.Tracks[0].Segments != 10 {
		t.Errorf("Find returned wrong tracks: %+v", got.Tracks)
	}

	if !got.StartedAt.Equal(rec.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, rec.StartedAt)
	}

	_, err = repo.Find(uuid.New())
	if !errors.Is(err, repository.ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}

func TestSaveFindAllDelete(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := repository.NewBboltRepository(dbPath)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer repo.Close()

	list, err := repo.FindAll()
	if err != nil {
		t.Fatalf("FindAll error: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected empty list, got %d items", len(list))
	}

	now := time.Now()
	older := &repository.Record{ID: uuid.New(), StartedAt: now.Add(-time.Hour)}
	newer := &repository.Record{ID: uuid.New(), StartedAt: now}

	for _, r := range []*repository.Record{newer, older} {
		if err := repo.Save(r); err != nil {
			t.Fatalf("Save error: %v", err)
		}
	}

	list, err = repo.FindAll()
	if err != nil {
		t.Fatalf("FindAll error: %v", err)
	}
	if len(list) != 2 || list[0].ID != older.ID || list[1].ID != newer.ID {
		t.Errorf("FindAll returned wrong data: %+v", list)
	}

	err = repo.Delete(uuid.Nil)
	if err == nil {
		t.Errorf("Expected error deleting Nil ID, got nil")
	}

	err = repo.Delete(uuid.New())
	if !errors.Is(err, repository.ErrRecordNotFound) {
		t.Errorf("Expected error deleting non-existent ID, got %v", err)
	}

	if err := repo.Delete(older.ID); err != nil {
		t.Errorf("Delete error for existing ID: %v", err)
	}

	list, err = repo.FindAll()
	if err != nil {
		t.Fatalf("FindAll error after delete: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("Expected one record after delete, got %d items", len(list))
	}
}

func TestCloseBehavior(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := repository.NewBboltRepository(dbPath)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}

	err = repo.Close()
	if err != nil {
		t.Fatalf("Close error: %v", err)
	}

	err = repo.Save(&repository.Record{ID: uuid.New()})
	if err == nil {
		t.Errorf("Expected error Save after Close, got nil")
	}
	_, err = repo.FindAll()
	if err == nil {
		t.Errorf("Expected error FindAll after Close, got nil")
	}

	err = repo.Delete(uuid.New())
	if err == nil {
		t.Errorf("Expected error Delete after Close, got nil")
	}
}
