package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aircheck/internal/fileutil"
	"aircheck/internal/logging"
	"aircheck/internal/retention"
	"aircheck/internal/services"
	"aircheck/internal/store"
)

var importExtensions = map[string]struct{}{
	".mp3":  {},
	".aac":  {},
	".m4a":  {},
	".ogg":  {},
	".opus": {},
	".flac": {},
	".wav":  {},
}

// ImportOptions tunes one library import.
type ImportOptions struct {
	// RecordedAt overrides the air time. Zero means the source file's
	// modification time.
	RecordedAt time.Time
	// Override pins a TTL instead of the show default.
	Override *retention.Override
}

// Import copies an external audio file into the library as an uploaded
// recording for the show. The copy is hash-verified, the artifact takes the
// library filename convention, and the row follows the same TTL creation
// rule as a live session.
func (r *Runner) Import(ctx context.Context, show *store.Show, sourcePath string, opts ImportOptions) (*store.Recording, error) {
	if show == nil {
		return nil, services.Wrap(services.ErrValidation, "recorder", "import", "show required", nil)
	}
	trimmed := strings.TrimSpace(sourcePath)
	if trimmed == "" {
		return nil, services.Wrap(services.ErrValidation, "recorder", "import", "source path required", nil)
	}
	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "recorder", "import", "resolve source path", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "recorder", "import", "stat source file", err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "recorder", "import", fmt.Sprintf("source path %q is a directory", absPath), nil)
	}
	ext := strings.ToLower(filepath.Ext(info.Name()))
	if _, ok := importExtensions[ext]; !ok {
		return nil, services.Wrap(services.ErrValidation, "recorder", "import", fmt.Sprintf("unsupported file extension %q", ext), nil)
	}

	station, err := r.store.StationByID(ctx, show.StationID)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "recorder", "import", "load station", err)
	}
	if station == nil {
		return nil, services.Wrap(services.ErrNotFound, "recorder", "import", fmt.Sprintf("station %d not found", show.StationID), nil)
	}

	ctx = services.WithComponent(ctx, "recorder")
	log := logging.WithContext(ctx, r.logger)

	recordedAt := opts.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = info.ModTime()
	}
	location, locErr := station.Location()
	if locErr != nil {
		log.Warn("invalid station timezone, stamping in local time",
			logging.String("timezone", station.Timezone),
			logging.Error(locErr))
		location = time.Local
	}

	filename := buildFilename(station, show, store.SourceUploaded, recordedAt.In(location), ext)
	destPath := filepath.Join(r.cfg.Paths.LibraryDir, filename)
	written, err := fileutil.ImportFile(absPath, destPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "recorder", "import", "copy into library", err)
	}

	recordedUTC := recordedAt.UTC()
	rec := &store.Recording{
		ShowID:        show.ID,
		Filename:      filename,
		RecordedAt:    recordedUTC,
		FileSizeBytes: written,
		SourceType:    store.SourceUploaded,
		ExpiresAt:     retention.ComputeExpiry(recordedUTC, opts.Override, show.RetentionDays, show.TTLUnit),
	}
	if opts.Override != nil {
		value := opts.Override.Value
		unit := opts.Override.Unit
		rec.TTLValue = &value
		rec.TTLUnit = &unit
	}
	stored, err := r.store.InsertRecording(ctx, rec)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "recorder", "import", "persist recording", err)
	}

	log.Info("recording imported",
		logging.String("show", show.Name),
		logging.String("source", absPath),
		logging.String("filename", stored.Filename),
		logging.Int64("size_bytes", stored.FileSizeBytes))
	return stored, nil
}
