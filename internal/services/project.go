package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var projectIDPattern = regexp.MustCompile(`^\d{5}$`)

// ValidateProjectID accepts exactly five ASCII digits.
func ValidateProjectID(projectID string) error {
	if !projectIDPattern.MatchString(projectID) {
		return &ValidationError{Field: "projectId", Message: "Invalid project ID format. Must be a 5-digit number."}
	}
	return nil
}

// FindProjectPDFs returns every *.pdf file under dataDir/projectID, recursively
// and sorted. A missing project directory yields no files and no error.
func FindProjectPDFs(dataDir, projectID string) ([]string, error) {
	if err := ValidateProjectID(projectID); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(filepath.Join(dataDir, projectID))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat project directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path %s is not a directory", root)
	}

	var pdfs []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			pdfs = append(pdfs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan project directory %s: %w", root, err)
	}
	sort.Strings(pdfs)
	return pdfs, nil
}
