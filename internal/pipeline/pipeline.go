// Package pipeline wires the batch stages together: raw documents to the transcript
// table (Ingest), and the table to insight packs (Extract).
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"finsense-go/internal/config"
	"finsense-go/internal/dataset"
	"finsense-go/internal/document"
	"finsense-go/internal/extractor"
	"finsense-go/internal/fileutil"
	"finsense-go/internal/insights"
	"finsense-go/internal/logger"
	"finsense-go/internal/metadata"
	"finsense-go/internal/segmenter"
	"finsense-go/internal/types"
)

// BuildRecords zips document metadata with its segments into table rows.
func BuildRecords(docPath string, meta types.DocumentMetadata, segments []types.Segment, ingestDate, source string) []types.TranscriptRecord {
	out := make([]types.TranscriptRecord, 0, len(segments))
	for i, seg := range segments {
		out = append(out, types.TranscriptRecord{
			DocPath:       docPath,
			CompanyHint:   meta.CompanyHint,
			FiscalYear:    meta.FiscalYear,
			FiscalQuarter: meta.FiscalQuarter,
			IngestDate:    ingestDate,
			SegmentIndex:  i,
			Speaker:       seg.Speaker,
			Section:       seg.Section,
			Text:          seg.Content,
			Source:        source,
		})
	}
	return out
}

// IngestDate is today's date in tz, or in UTC when tz cannot be loaded.
func IngestDate(now time.Time, tz string, log *logger.Logger) string {
	loc := time.UTC
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			log.WithField("timezone", tz).Warn("unknown timezone; using UTC")
		} else {
			loc = l
		}
	}
	return now.In(loc).Format("2006-01-02")
}

// Discover lists supported documents under dir recursively, sorted by path.
func Discover(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && document.Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

type IngestResult struct {
	Documents int
	Failed    int
	Records   int
	Path      string
}

// Ingest parses every raw document into the transcript table. A missing raw dir or an
// empty result is "nothing to do" and leaves any existing table untouched.
func Ingest(ctx context.Context, cfg config.Config, log *logger.Logger) (IngestResult, error) {
	log = log.Component("ingest")
	var res IngestResult

	seg, err := segmenter.New(cfg.Parse.SpeakerLineRegex, cfg.Parse.DetectQAMarkers)
	if err != nil {
		return res, err
	}

	rawDir := cfg.RawDir()
	ok, err := fileutil.DirExists(rawDir)
	if err != nil {
		return res, err
	}
	if !ok {
		log.WithField("dir", rawDir).Warn("raw dir does not exist; nothing to do")
		return res, nil
	}

	files, err := Discover(rawDir)
	if err != nil {
		return res, fmt.Errorf("scan %s: %w", rawDir, err)
	}
	if len(files) == 0 {
		log.WithField("dir", rawDir).Warn("no transcripts found (txt/pdf); nothing to do")
		return res, nil
	}

	today := IngestDate(time.Now(), cfg.Parse.AssumeTimezone, log)
	var all []types.TranscriptRecord
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		entry := log.WithField("doc", filepath.Base(path))

		text, err := document.Load(path)
		if err != nil {
			entry.WithField("error", err.Error()).Warn("could not read document; skipping")
			res.Failed++
			continue
		}
		if strings.TrimSpace(text) == "" {
			entry.Warn("empty document; no records")
			res.Failed++
			continue
		}

		recs := BuildRecords(docPath(cfg.Root, path), metadata.Guess(filepath.Base(path)), seg.Split(text), today, cfg.DefaultSource)
		entry.WithField("segments", len(recs)).Info("parsed")
		all = append(all, recs...)
		res.Documents++
	}

	if len(all) == 0 {
		log.Warn("no records produced; nothing to do")
		return res, nil
	}

	res.Path = cfg.TranscriptsPath()
	if err := dataset.Write(res.Path, all); err != nil {
		return res, err
	}
	res.Records = len(all)
	log.WithFields(map[string]interface{}{
		"path":      res.Path,
		"documents": res.Documents,
		"records":   res.Records,
	}).Info("ingestion complete")
	return res, nil
}

// docPath is path relative to root with forward slashes, or path itself when outside root.
func docPath(root, path string) string {
	if root != "" {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}

type ExtractResult struct {
	Rows   int
	Packs  int
	Failed int
}

// Extract writes one insight pack per eligible table row, or per row when
// extract.all_segments is set. A missing table is "nothing to do".
func Extract(ctx context.Context, cfg config.Config, log *logger.Logger) (ExtractResult, error) {
	log = log.Component("extract")
	var res ExtractResult

	path := cfg.TranscriptsPath()
	if !fileutil.FileExists(path) {
		log.WithField("path", path).Warn("transcript table not found; run ingest first")
		return res, nil
	}
	records, err := dataset.Read(path)
	if err != nil {
		return res, err
	}
	res.Rows = len(records)

	dir := cfg.InsightsDir()
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !cfg.Extract.AllSegments && !extractor.Eligible(rec) {
			continue
		}
		if _, err := insights.Write(dir, extractor.BuildPack(rec)); err != nil {
			log.WithField("doc", rec.DocPath).WithField("segment", rec.SegmentIndex).
				WithField("error", err.Error()).Error("write pack failed")
			res.Failed++
			continue
		}
		res.Packs++
	}

	log.WithFields(map[string]interface{}{
		"rows":   res.Rows,
		"packs":  res.Packs,
		"failed": res.Failed,
		"dir":    dir,
	}).Info("extraction complete")
	return res, nil
}
