package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jihwankim/faultsched/pkg/logging"
)

// Storage persists RunSummary documents to outputDir as JSON files,
// keeping only the keepLastN most recent (keepLastN <= 0 disables
// pruning).
type Storage struct {
	outputDir string
	keepLastN int
	logger    *logging.Logger
}

// NewStorage creates outputDir if needed and returns a Storage bound to
// it.
func NewStorage(outputDir string, keepLastN int, logger *logging.Logger) (*Storage, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Storage{
		outputDir: outputDir,
		keepLastN: keepLastN,
		logger:    logger,
	}, nil
}

// Save writes summary as a JSON file named by its start time and run
// ID, then prunes old reports if keepLastN is set.
func (s *Storage) Save(summary *RunSummary) (string, error) {
	timestamp := summary.StartTime.Format("20060102-150405")
	filename := fmt.Sprintf("run-%s-%s.json", timestamp, summary.RunID)
	path := filepath.Join(s.outputDir, filename)

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write run summary: %w", err)
	}

	s.logger.Info("run summary saved", "path", path)

	if s.keepLastN > 0 {
		if err := s.cleanupOld(); err != nil {
			s.logger.Warn("failed to prune old run summaries", "error", err.Error())
		}
	}

	return path, nil
}

// Load reads a RunSummary from a JSON file previously written by Save.
func (s *Storage) Load(path string) (*RunSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run summary: %w", err)
	}

	var summary RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run summary: %w", err)
	}
	return &summary, nil
}

// List returns every stored summary, newest first.
func (s *Storage) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var summaries []Summary
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(s.outputDir, entry.Name())
		full, err := s.Load(path)
		if err != nil {
			s.logger.Warn("failed to load run summary", "path", path, "error", err.Error())
			continue
		}

		summaries = append(summaries, Summary{
			RunID:      full.RunID,
			SystemName: full.SystemName,
			StartTime:  full.StartTime,
			Duration:   full.Duration,
			Status:     full.Status,
			Filepath:   path,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartTime.After(summaries[j].StartTime)
	})
	return summaries, nil
}

// cleanupOld deletes every stored summary beyond the keepLastN most
// recent.
func (s *Storage) cleanupOld() error {
	summaries, err := s.List()
	if err != nil {
		return err
	}
	if len(summaries) <= s.keepLastN {
		return nil
	}

	for _, old := range summaries[s.keepLastN:] {
		if err := os.Remove(old.Filepath); err != nil {
			s.logger.Warn("failed to delete old run summary", "path", old.Filepath, "error", err.Error())
		} else {
			s.logger.Debug("deleted old run summary", "path", old.Filepath)
		}
	}
	return nil
}

// OutputDir returns the directory Storage is bound to.
func (s *Storage) OutputDir() string { return s.outputDir }
