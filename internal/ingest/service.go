package ingest

import (
	"bytes"
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/domain"
	"github.com/dvloznov/spending-patterns/internal/logger"
	"github.com/dvloznov/spending-patterns/internal/storage"
)

// RawPrefix is the object prefix of archived uploads.
const RawPrefix = "raw"

// Result summarizes a completed upload.
type Result struct {
	RowCount int    `json:"row_count"`
	Archive  string `json:"archive"`
}

// Service turns uploaded workbooks into the stored transaction table.
type Service struct {
	archive storage.Blob
	tables  domain.TableWriter
	log     zerolog.Logger
	newID   func() string
}

// NewService creates an ingest service. Raw uploads are archived in archive
// and the converted table replaces the one held by tables.
func NewService(archive storage.Blob, tables domain.TableWriter, log zerolog.Logger) *Service {
	return &Service{
		archive: archive,
		tables:  tables,
		log:     log,
		newID:   func() string { return uuid.New().String() },
	}
}

// ValidateFilename checks that name is a non-empty .xlsx file name.
func ValidateFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return domain.NewValidationError("file", "file name is missing")
	}
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return domain.NewValidationError("file", "only .xlsx files are accepted")
	}
	return nil
}

// Upload archives the raw file, converts it and overwrites the table.
func (s *Service) Upload(ctx context.Context, filename string, content []byte) (Result, error) {
	if err := ValidateFilename(filename); err != nil {
		return Result{}, err
	}
	log := logger.FromContext(ctx, s.log)
	log.Info().Str("file", filename).Int("bytes", len(content)).Msg("Workbook upload started")

	name := path.Join(RawPrefix, s.newID()+"-"+filepath.Base(filepath.Clean(filename)))
	if err := s.archive.Write(ctx, name, content); err != nil {
		return Result{}, domain.WrapStorage("archive upload", err)
	}

	t, err := Workbook(bytes.NewReader(content), Options{Sheet: DefaultSheet})
	if err != nil {
		log.Error().Err(err).Str("file", filename).Msg("Workbook conversion failed")
		return Result{}, err
	}

	if err := s.tables.Save(ctx, t); err != nil {
		return Result{}, errors.Wrap(err, "ingest.Upload: save table")
	}

	log.Info().Str("file", filename).Int("rows", len(t)).Str("archive", name).Msg("Workbook converted")
	return Result{RowCount: len(t), Archive: name}, nil
}
