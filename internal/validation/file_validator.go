package validation

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileValidator checks the local files the command line reads feeds from
// and writes exports to
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("file does not exist", slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("path is a directory, not a file", slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateFeedFile checks that path is a readable CSV whose first line
// has at least minFields comma-separated headers
func (v *FileValidator) ValidateFeedFile(path string, minFields int) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" && ext != ".txt" {
		return fmt.Errorf("feed file %s must be a .csv file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		return fmt.Errorf("feed file %s is empty", path)
	}

	header := strings.TrimPrefix(scanner.Text(), "\ufeff")
	if fields := len(strings.Split(header, ",")); fields < minFields {
		v.logger.Warn("feed header too short",
			slog.String("file", path),
			slog.Int("fields", fields),
			slog.Int("required", minFields))
		return fmt.Errorf("feed file %s has %d header fields, need at least %d", path, fields, minFields)
	}
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a probe file
	probe, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("output directory validated", slog.String("directory", dir))
	return nil
}

// ValidateExportPath checks that path has the extension of format and that
// its directory is writable
func (v *FileValidator) ValidateExportPath(path, format string) error {
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."); ext != format {
		return fmt.Errorf("export path %s must end in .%s", path, format)
	}
	return v.ValidateOutputDirectory(filepath.Dir(path))
}
