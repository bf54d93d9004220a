package insights

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"finsense-go/internal/fileutil"
	"finsense-go/internal/logger"
)

type ArchiveResult struct {
	Scanned  int
	Archived int
}

func (r ArchiveResult) Remaining() int { return r.Scanned - r.Archived }

// LowQuality reports whether a decoded pack is missing year/quarter or carries a
// placeholder company label.
func LowQuality(pack map[string]any) bool {
	if isEmptyValue(pack["fiscal_year"]) || isEmptyValue(pack["fiscal_quarter"]) {
		return true
	}
	hint, _ := pack["company_hint"].(string)
	switch strings.ToUpper(strings.TrimSpace(hint)) {
	case "", "UNKNOWN", "--":
		return true
	}
	return false
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case float64:
		return t == 0
	case json.Number:
		return t.String() == "0" || t.String() == ""
	}
	return false
}

// Archive moves low-quality and unreadable packs from dir into archiveDir.
func Archive(dir, archiveDir string, log *logger.Logger) (ArchiveResult, error) {
	var res ArchiveResult
	log = log.Component("insights.archive")

	ok, err := fileutil.DirExists(dir)
	if err != nil {
		return res, err
	}
	if !ok {
		log.WithField("dir", dir).Info("no insights directory; nothing to clean")
		return res, nil
	}
	names, err := List(dir)
	if err != nil {
		return res, err
	}
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return res, fmt.Errorf("create archive dir: %w", err)
	}

	for _, name := range names {
		res.Scanned++
		path := filepath.Join(dir, name)
		entry := log.WithField("pack", name)

		var pack map[string]any
		b, err := os.ReadFile(path)
		if err == nil {
			dec := json.NewDecoder(bytes.NewReader(b))
			dec.UseNumber()
			err = dec.Decode(&pack)
		}

		switch {
		case err != nil:
			entry.WithField("error", err.Error()).Warn("unreadable pack; archiving")
		case LowQuality(pack):
			entry.Info("archiving low-quality pack")
		default:
			entry.Debug("keeping pack")
			continue
		}

		if err := os.Rename(path, filepath.Join(archiveDir, name)); err != nil {
			entry.WithField("error", err.Error()).Error("archive move failed")
			continue
		}
		res.Archived++
	}

	log.WithFields(map[string]interface{}{
		"scanned":   res.Scanned,
		"archived":  res.Archived,
		"remaining": res.Remaining(),
	}).Info("clean complete")
	return res, nil
}
