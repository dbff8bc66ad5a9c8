package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meghashyamc/searchdesk/db/kvdb"
)

var importExtensions = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".json": "application/json",
	".yaml": "text/yaml",
	".yml":  "text/yaml",
}

type ImportFile struct {
	Path     string `json:"path"`
	UploadID string `json:"upload_id,omitempty"`
	Indexed  int    `json:"indexed"`
	Error    string `json:"error,omitempty"`
}

type ImportResult struct {
	Files     []ImportFile `json:"files"`
	Skipped   int          `json:"skipped"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

type fileInfo struct {
	path    string
	modTime time.Time
}

// ImportDirectory ingests every supported file under root that is new or was
// modified since it was last imported. Hidden entries and the excluded
// folders are skipped. A failing file does not stop the others.
func (s *Service) ImportDirectory(ctx context.Context, root string, excludeFolders []string) (*ImportResult, error) {
	root = filepath.Clean(root)

	files, skipped, err := s.discoverModifiedFiles(root, excludeFolders)
	if err != nil {
		s.logger.Error("could not walk import directory", "root", root, "err", err.Error())
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	s.logger.Info("importing directory", "root", root, "files", len(files), "unchanged", skipped)

	result := &ImportResult{Files: make([]ImportFile, 0, len(files)), Skipped: skipped}
	for _, file := range files {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		imported := s.importFile(ctx, root, file)
		if imported.Error != "" {
			result.Failed++
		} else {
			result.Succeeded++
		}
		result.Files = append(result.Files, imported)
	}

	return result, nil
}

// importFile names the file's documents by its path relative to root, so
// files sharing a name in different folders stay distinct.
func (s *Service) importFile(ctx context.Context, root string, file fileInfo) ImportFile {
	imported := ImportFile{Path: file.path}

	key := filepath.Base(file.path)
	if rel, err := filepath.Rel(root, file.path); err == nil {
		key = filepath.ToSlash(rel)
	}

	f, err := os.Open(file.path)
	if err != nil {
		imported.Error = err.Error()
		return imported
	}
	defer f.Close()

	status, err := s.Ingest(ctx, Upload{
		FileName:    file.path,
		Key:         key,
		ContentType: importExtensions[strings.ToLower(filepath.Ext(file.path))],
		Body:        f,
	})
	if status != nil {
		imported.UploadID = status.ID
		imported.Indexed = status.Indexed
	}
	if err != nil {
		imported.Error = err.Error()
		return imported
	}

	s.setFileMetadata(file.path, kvdb.FileMetadata{LastIndexed: file.modTime, UploadID: status.ID})
	return imported
}

func (s *Service) discoverModifiedFiles(root string, excludeFolders []string) ([]fileInfo, int, error) {
	excludeSet := make(map[string]struct{}, len(excludeFolders))
	for _, folder := range excludeFolders {
		excludeSet[filepath.Clean(folder)] = struct{}{}
	}

	var files []fileInfo
	skipped := 0
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("could not walk through file or directory", "path", path, "err", err.Error())
			if errors.Is(err, os.ErrPermission) {
				return nil
			}
			return err
		}

		hidden := strings.HasPrefix(entry.Name(), ".") && path != root
		if entry.IsDir() {
			if hidden || isInExcludedPath(path, excludeSet) {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden || importExtensions[strings.ToLower(filepath.Ext(path))] == "" {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return nil
		}
		if !s.shouldFileBeImported(path, info.ModTime()) {
			skipped++
			return nil
		}

		files = append(files, fileInfo{path: path, modTime: info.ModTime()})
		return nil
	})

	return files, skipped, err
}

func (s *Service) shouldFileBeImported(path string, modTime time.Time) bool {
	metadata, err := s.getFileMetadata(path)
	if err != nil {
		if !errors.Is(err, kvdb.ErrNotFound) {
			s.logger.Warn("failed to get file metadata", "path", path, "err", err.Error())
		}
		return true
	}

	return modTime.After(metadata.LastIndexed)
}

func (s *Service) setFileMetadata(path string, metadata kvdb.FileMetadata) {
	data, err := json.Marshal(metadata)
	if err != nil {
		s.logger.Error("failed to marshal file metadata", "path", path, "err", err.Error())
		return
	}
	if err := s.store.Set(kvdb.FilesBucket, path, string(data)); err != nil {
		s.logger.Error("failed to set file metadata", "path", path, "err", err.Error())
	}
}

func (s *Service) getFileMetadata(path string) (*kvdb.FileMetadata, error) {
	value, err := s.store.Get(kvdb.FilesBucket, path)
	if err != nil {
		return nil, err
	}

	var metadata kvdb.FileMetadata
	if err := json.Unmarshal([]byte(value), &metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", path, err)
	}

	return &metadata, nil
}

// Assumes path and the excluded folders are clean
func isInExcludedPath(path string, excludeSet map[string]struct{}) bool {
	_, ok := excludeSet[path]
	return ok
}
