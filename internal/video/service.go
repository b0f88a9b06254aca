package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sethj34/obs-dashboard/internal/blob"
	"github.com/sethj34/obs-dashboard/internal/catalog"
)

// DefaultMimeType is used when a record carries no content type, matching
// what video players expect from this server.
const DefaultMimeType = "video/mp4"

type Service struct {
	catalog catalog.Catalog
	blobs   blob.Store
}

func NewService(cat catalog.Catalog, blobs blob.Store) *Service {
	return &Service{
		catalog: cat,
		blobs:   blobs,
	}
}

type IntakeRequest struct {
	FileName string
	Title    string
	MimeType string
	Data     io.Reader
}

// Intake persists the uploaded bytes first and only then appends the
// record, so a failed blob write never leaves a dangling catalog entry.
// The reverse failure (blob stored, append failed) keeps the blob: an
// orphaned file is preferable to losing already-stored content.
func (s *Service) Intake(ctx context.Context, req *IntakeRequest) (*catalog.VideoRecord, error) {
	ext := filepath.Ext(req.FileName)

	key, size, err := s.blobs.Put(ctx, req.Data, ext)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	title := req.Title
	if title == "" {
		title = req.FileName
	}

	record := &catalog.VideoRecord{
		ID:           strings.TrimSuffix(key, filepath.Ext(key)),
		Title:        title,
		CreatedAt:    time.Now().UTC(),
		StorageKey:   key,
		OriginalName: req.FileName,
		SizeBytes:    size,
		MimeType:     req.MimeType,
	}

	if err := s.catalog.Append(record); err != nil {
		log.Error().Err(err).
			Str("storageKey", key).
			Msg("Catalog append failed after blob write, keeping orphaned blob")
		return nil, fmt.Errorf("failed to save video record: %w", err)
	}

	return record, nil
}

func (s *Service) Get(id string) (*catalog.VideoRecord, error) {
	return s.catalog.FindByID(id)
}

func (s *Service) List() ([]*catalog.VideoRecord, error) {
	return s.catalog.List()
}

// StreamData is everything the delivery endpoint needs to emit a response:
// the resolved range, the blob size, the content type and an open reader
// (nil when Range.Kind is Unsatisfiable).
type StreamData struct {
	Range       Resolution
	TotalSize   int64
	ContentType string
	Reader      io.ReadCloser
}

// Stream runs the per-request delivery sequence: catalog lookup, blob stat,
// range resolution, blob open. It stops at the first failure. A catalog
// record whose blob is gone is a consistency fault; it is logged as such
// and still surfaces as blob.ErrNotFound.
func (s *Service) Stream(ctx context.Context, id, rangeHeader string) (*StreamData, error) {
	record, err := s.catalog.FindByID(id)
	if err != nil {
		return nil, err
	}

	totalSize, err := s.blobs.Stat(ctx, record.StorageKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			log.Error().
				Str("videoId", id).
				Str("storageKey", record.StorageKey).
				Msg("Catalog record references a missing blob")
		}
		return nil, err
	}

	contentType := record.MimeType
	if contentType == "" {
		contentType = DefaultMimeType
	}

	data := &StreamData{
		Range:       ResolveRange(rangeHeader, totalSize),
		TotalSize:   totalSize,
		ContentType: contentType,
	}

	switch data.Range.Kind {
	case Satisfiable:
		data.Reader, err = s.blobs.OpenRange(ctx, record.StorageKey, data.Range.Start, data.Range.End)
	case Unsatisfiable:
		// 416 carries no body.
	default:
		data.Reader, err = s.blobs.Open(ctx, record.StorageKey)
	}
	if err != nil {
		return nil, err
	}

	return data, nil
}

// SpoolToFile copies a record's blob into a temporary file and returns its
// path plus a cleanup func. The provider upload helper works on file paths,
// so remote blob backends have to go through the local disk.
func (s *Service) SpoolToFile(ctx context.Context, record *catalog.VideoRecord) (string, func(), error) {
	reader, err := s.blobs.Open(ctx, record.StorageKey)
	if err != nil {
		return "", nil, err
	}
	defer reader.Close()

	tmp, err := os.CreateTemp("", "yt-upload-*"+filepath.Ext(record.StorageKey))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create spool file: %w", err)
	}

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("failed to spool blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("failed to spool blob: %w", err)
	}

	path := tmp.Name()
	return path, func() { os.Remove(path) }, nil
}
