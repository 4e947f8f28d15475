package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

const cacheVersion = "1.0"

// DefaultCacheTTL is how long a fetched transcript list stays fresh
const DefaultCacheTTL = 5 * time.Minute

// CacheManager caches fetched transcript lists per project so repeated CLI
// invocations skip the backend round trip
type CacheManager struct {
	cacheDir string
	ttl      time.Duration
	now      func() time.Time
}

// CacheMetadata stores metadata about the cache
type CacheMetadata struct {
	CacheVersion string    `yaml:"cache_version"`
	CreatedAt    time.Time `yaml:"created_at"`
	UpdatedAt    time.Time `yaml:"updated_at"`
}

// ProjectIndexEntry records one cached transcript list
type ProjectIndexEntry struct {
	ProjectID       string    `yaml:"project_id"`
	FetchedAt       time.Time `yaml:"fetched_at"`
	TranscriptCount int       `yaml:"transcript_count"`
	File            string    `yaml:"file"`
}

// CacheIndex is the YAML index of all cached projects
type CacheIndex struct {
	Projects []ProjectIndexEntry `yaml:"projects"`
	Metadata CacheMetadata       `yaml:"metadata"`
}

// NewCacheManager creates a cache rooted at cacheDir. A non-positive ttl
// selects DefaultCacheTTL.
func NewCacheManager(cacheDir string, ttl time.Duration) *CacheManager {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CacheManager{
		cacheDir: cacheDir,
		ttl:      ttl,
		now:      time.Now,
	}
}

// EnsureCacheDir ensures the cache directory exists
func (cm *CacheManager) EnsureCacheDir() error {
	return os.MkdirAll(cm.cacheDir, 0755)
}

// GetCacheDir returns the cache directory path
func (cm *CacheManager) GetCacheDir() string {
	return cm.cacheDir
}

// GetIndexPath returns the path to the cache index YAML file
func (cm *CacheManager) GetIndexPath() string {
	return filepath.Join(cm.cacheDir, "transcripts.yaml")
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// GetTranscriptsPath returns the path to a project's cached transcript list
func (cm *CacheManager) GetTranscriptsPath(projectID string) string {
	return filepath.Join(cm.cacheDir, fmt.Sprintf("transcripts_%s.json", unsafeFileChars.ReplaceAllString(projectID, "_")))
}

// LoadIndex loads the cache index
func (cm *CacheManager) LoadIndex() (*CacheIndex, error) {
	data, err := os.ReadFile(cm.GetIndexPath())
	if err != nil {
		return nil, err
	}

	var index CacheIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index: %w", err)
	}
	return &index, nil
}

// SaveIndex saves the cache index
func (cm *CacheManager) SaveIndex(index *CacheIndex) error {
	if err := cm.EnsureCacheDir(); err != nil {
		return err
	}

	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	return os.WriteFile(cm.GetIndexPath(), data, 0644)
}

func (cm *CacheManager) findEntry(index *CacheIndex, projectID string) (int, *ProjectIndexEntry) {
	for i := range index.Projects {
		if index.Projects[i].ProjectID == projectID {
			return i, &index.Projects[i]
		}
	}
	return -1, nil
}

// IsCacheValid reports whether a fresh transcript list exists for projectID
func (cm *CacheManager) IsCacheValid(projectID string) (bool, error) {
	index, err := cm.LoadIndex()
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	_, entry := cm.findEntry(index, projectID)
	if entry == nil {
		return false, nil
	}
	if index.Metadata.CacheVersion != cacheVersion {
		return false, nil
	}
	if cm.now().Sub(entry.FetchedAt) > cm.ttl {
		return false, nil
	}
	if _, err := os.Stat(filepath.Join(cm.cacheDir, entry.File)); err != nil {
		return false, nil
	}
	return true, nil
}

// LoadTranscripts loads a project's cached transcript list
func (cm *CacheManager) LoadTranscripts(projectID string) ([]Transcript, error) {
	path := cm.GetTranscriptsPath(projectID)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "read", Err: err}
	}

	var transcripts []Transcript
	if err := json.Unmarshal(data, &transcripts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcripts: %w", err)
	}
	return transcripts, nil
}

// SaveTranscripts writes a project's transcript list and updates the index
func (cm *CacheManager) SaveTranscripts(projectID string, transcripts []Transcript) error {
	if err := cm.EnsureCacheDir(); err != nil {
		return err
	}

	path := cm.GetTranscriptsPath(projectID)
	data, err := json.MarshalIndent(transcripts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcripts: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &StorageError{Path: path, Op: "write", Err: err}
	}

	now := cm.now()
	index, err := cm.LoadIndex()
	if err != nil || index.Metadata.CacheVersion != cacheVersion {
		index = &CacheIndex{
			Projects: make([]ProjectIndexEntry, 0, 1),
			Metadata: CacheMetadata{
				CacheVersion: cacheVersion,
				CreatedAt:    now,
			},
		}
	}
	index.Metadata.UpdatedAt = now

	entry := ProjectIndexEntry{
		ProjectID:       projectID,
		FetchedAt:       now,
		TranscriptCount: len(transcripts),
		File:            filepath.Base(path),
	}
	if i, _ := cm.findEntry(index, projectID); i >= 0 {
		index.Projects[i] = entry
	} else {
		index.Projects = append(index.Projects, entry)
	}

	return cm.SaveIndex(index)
}

// ClearCache removes every cached transcript list and the index
func (cm *CacheManager) ClearCache() error {
	index, err := cm.LoadIndex()
	if err == nil {
		for _, entry := range index.Projects {
			_ = os.Remove(filepath.Join(cm.cacheDir, entry.File))
		}
	}

	if err := os.Remove(cm.GetIndexPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
