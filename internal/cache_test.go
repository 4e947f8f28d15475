package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewCacheManager(t *testing.T) {
	cacheDir := t.TempDir()
	cm := NewCacheManager(cacheDir, 0)
	if cm.cacheDir != cacheDir {
		t.Errorf("NewCacheManager() cacheDir = %q, want %q", cm.cacheDir, cacheDir)
	}
	if cm.ttl != DefaultCacheTTL {
		t.Errorf("NewCacheManager() ttl = %v, want %v", cm.ttl, DefaultCacheTTL)
	}
}

func TestCacheManager_Paths(t *testing.T) {
	cacheDir := t.TempDir()
	cm := NewCacheManager(cacheDir, time.Minute)

	if got, want := cm.GetIndexPath(), filepath.Join(cacheDir, "transcripts.yaml"); got != want {
		t.Errorf("GetIndexPath() = %q, want %q", got, want)
	}
	if got, want := cm.GetTranscriptsPath("vf_proj_12345"), filepath.Join(cacheDir, "transcripts_vf_proj_12345.json"); got != want {
		t.Errorf("GetTranscriptsPath() = %q, want %q", got, want)
	}
	if got, want := cm.GetTranscriptsPath("../etc/passwd"), filepath.Join(cacheDir, "transcripts_.._etc_passwd.json"); got != want {
		t.Errorf("GetTranscriptsPath() = %q, want %q", got, want)
	}
}

func TestCacheManager_IsCacheValid(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cm.now = func() time.Time { return now }

	valid, err := cm.IsCacheValid("proj")
	if err != nil || valid {
		t.Fatalf("IsCacheValid() on empty cache = %v, %v; want false, nil", valid, err)
	}

	if err := cm.SaveTranscripts("proj", CreateTestTranscripts(3)); err != nil {
		t.Fatalf("SaveTranscripts() error = %v", err)
	}

	valid, err = cm.IsCacheValid("proj")
	if err != nil || !valid {
		t.Errorf("IsCacheValid() after save = %v, %v; want true, nil", valid, err)
	}

	valid, _ = cm.IsCacheValid("other")
	if valid {
		t.Error("IsCacheValid() should be false for an uncached project")
	}

	now = now.Add(2 * time.Minute)
	valid, _ = cm.IsCacheValid("proj")
	if valid {
		t.Error("IsCacheValid() should be false once the TTL has elapsed")
	}
}

func TestCacheManager_SaveAndLoadTranscripts(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), time.Minute)
	transcripts := CreateTestTranscripts(4)

	if err := cm.SaveTranscripts("proj", transcripts); err != nil {
		t.Fatalf("SaveTranscripts() error = %v", err)
	}
	// A second save for the same project replaces the entry
	if err := cm.SaveTranscripts("proj", transcripts[:2]); err != nil {
		t.Fatalf("SaveTranscripts() error = %v", err)
	}

	loaded, err := cm.LoadTranscripts("proj")
	if err != nil {
		t.Fatalf("LoadTranscripts() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("LoadTranscripts() returned %d transcripts, want 2", len(loaded))
	}
	if loaded[0].ID != transcripts[0].ID || !loaded[0].CreatedAt.Equal(transcripts[0].CreatedAt) {
		t.Errorf("LoadTranscripts()[0] = %+v, want %+v", loaded[0], transcripts[0])
	}

	index, err := cm.LoadIndex()
	if err != nil {
		t.Fatalf("LoadIndex() error = %v", err)
	}
	if len(index.Projects) != 1 || index.Projects[0].TranscriptCount != 2 {
		t.Errorf("index = %+v, want one project with 2 transcripts", index.Projects)
	}
}

func TestCacheManager_LoadMissing(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), time.Minute)
	_, err := cm.LoadTranscripts("missing")
	if err == nil {
		t.Fatal("LoadTranscripts() should fail for a missing project")
	}
	if _, ok := err.(*StorageError); !ok {
		t.Errorf("LoadTranscripts() error = %T, want *StorageError", err)
	}
}

func TestCacheManager_ClearCache(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), time.Minute)
	if err := cm.SaveTranscripts("proj", CreateTestTranscripts(1)); err != nil {
		t.Fatalf("SaveTranscripts() error = %v", err)
	}

	if err := cm.ClearCache(); err != nil {
		t.Fatalf("ClearCache() error = %v", err)
	}
	if _, err := os.Stat(cm.GetIndexPath()); !os.IsNotExist(err) {
		t.Error("index should be removed")
	}
	if _, err := os.Stat(cm.GetTranscriptsPath("proj")); !os.IsNotExist(err) {
		t.Error("transcript file should be removed")
	}

	// Clearing an empty cache is fine
	if err := cm.ClearCache(); err != nil {
		t.Errorf("ClearCache() on empty cache error = %v", err)
	}
}
