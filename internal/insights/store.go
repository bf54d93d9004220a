// Package insights names, writes, reads and archives insight pack files.
package insights

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"finsense-go/internal/fileutil"
	"finsense-go/internal/types"
)

const missingPart = "NA"

// ErrInvalidPackName is returned by Resolve for empty names and names with path elements.
var ErrInvalidPackName = errors.New("invalid pack name")

// FileName is {ticker}_{year}_{quarter}_seg{index}.json with unsafe characters replaced.
func FileName(p types.InsightPack) string {
	company := p.Ticker
	if company == "" {
		company = types.TickerFromHint(p.CompanyHint)
	}
	if company == "" {
		company = "UNKNOWN"
	}
	year := missingPart
	if p.FiscalYear != nil {
		year = strconv.Itoa(*p.FiscalYear)
	}
	quarter := missingPart
	if p.FiscalQuarter != nil {
		quarter = *p.FiscalQuarter
	}
	return fileutil.SafeFilename(fmt.Sprintf("%s_%s_%s_seg%d.json", company, year, quarter, p.SegmentIndex))
}

// Write stores the pack atomically in dir and returns its path.
func Write(dir string, p types.InsightPack) (string, error) {
	path := filepath.Join(dir, FileName(p))
	if err := fileutil.WriteJSONFileAtomic(path, p); err != nil {
		return "", fmt.Errorf("write insight pack %s: %w", path, err)
	}
	return path, nil
}

// List returns the sorted pack file names in dir. A missing dir yields nothing.
func List(dir string) ([]string, error) {
	ok, err := fileutil.DirExists(dir)
	if err != nil || !ok {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		if strings.HasPrefix(e.Name(), ".tmp_") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func Read(path string) (types.InsightPack, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return types.InsightPack{}, err
	}
	var p types.InsightPack
	if err := json.Unmarshal(b, &p); err != nil {
		return types.InsightPack{}, fmt.Errorf("decode insight pack %s: %w", filepath.Base(path), err)
	}
	return p, nil
}

// Resolve maps a user-supplied pack name to a path inside dir, rejecting anything that
// would escape it.
func Resolve(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPackName)
	}
	if !strings.EqualFold(filepath.Ext(name), ".json") {
		name += ".json"
	}
	if name != filepath.Base(name) || name == ".json" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPackName, name)
	}
	return filepath.Join(dir, name), nil
}
