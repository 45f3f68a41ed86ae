package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"MarketTiming/internal/domain/models"
	"MarketTiming/pkg/logger"
)

// FileSource reads raw tables from the first data directory holding the
// configured file.
type FileSource struct {
	dirs  []string
	files map[string]string
	sheet string
	log   *logger.Logger
}

func NewFileSource(dirs []string, files map[string]string, sheet string, l *logger.Logger) *FileSource {
	return &FileSource{dirs: dirs, files: files, sheet: sheet, log: l}
}

func (s *FileSource) Load(ctx context.Context, key string) (*models.RawTable, error) {
	name, ok := s.files[key]
	if !ok {
		return nil, fmt.Errorf("%w: no file configured for %q", models.ErrSourceNotFound, key)
	}

	for _, dir := range s.dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		table, err := DecodeTable(f, name, s.sheet)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		table.Key = key
		table.Origin = "local:" + path
		s.log.Debug("raw table loaded",
			logger.String("source", key),
			logger.String("path", path),
			logger.Int("rows", len(table.Rows)),
		)
		return table, nil
	}
	return nil, fmt.Errorf("%w: %s not found in [%s]", models.ErrSourceNotFound, name, strings.Join(s.dirs, ", "))
}
