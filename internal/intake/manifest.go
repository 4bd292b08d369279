package intake

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LoadManifest reads the manifest index table and returns records keyed by
// lowercased title.
func LoadManifest(path string) (map[string]Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read manifest header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	records := make(map[string]Manifest)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read manifest row: %w", err)
		}

		title := strings.TrimSpace(field(row, "Title"))
		if title == "" {
			continue
		}

		records[strings.ToLower(title)] = Manifest{
			ID:           field(row, "ID"),
			Category:     field(row, "Category"),
			Tags:         field(row, "Primary_Tags"),
			Type:         field(row, "Type"),
			Status:       field(row, "Status"),
			PrimaryUse:   field(row, "Primary_Use"),
			Phase:        field(row, "Phase"),
			Dependencies: field(row, "Key_Dependencies"),
		}
	}

	return records, nil
}

// EnrichManifest cross-references entries against the manifest records,
// matching the lowercased filename first and the stem second. Returns the
// number of matched entries.
func EnrichManifest(entries []Entry, records map[string]Manifest, logger *slog.Logger) int {
	matched := 0
	for i := range entries {
		e := &entries[i]
		fname := strings.ToLower(e.Filename)
		stem := strings.ToLower(strings.TrimSuffix(fname, filepath.Ext(fname)))

		if m, ok := records[fname]; ok {
			manifest := m
			e.Manifest = &manifest
			matched++
			continue
		}
		if m, ok := records[stem]; ok {
			manifest := m
			e.Manifest = &manifest
			matched++
		}
	}

	logger.Info("manifest cross-reference complete",
		"matched", matched,
		"total", len(entries))
	return matched
}
