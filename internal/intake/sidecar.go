package intake

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const sidecarSuffix = ".meta.json"

// EnrichSidecars attaches `<filename>.meta.json` payloads to their source
// entries. Sidecars are matched within the same directory; a malformed or
// unreadable sidecar leaves the entry untouched. Returns the number of
// enriched entries.
func EnrichSidecars(entries []Entry, logger *slog.Logger) int {
	sidecars := make(map[string]string)
	for i := range entries {
		e := &entries[i]
		if !strings.HasSuffix(e.Filename, sidecarSuffix) {
			continue
		}
		source := strings.TrimSuffix(e.Filename, sidecarSuffix)
		sidecars[filepath.Join(filepath.Dir(e.Path), source)] = e.Path
	}

	enriched := 0
	for i := range entries {
		e := &entries[i]
		if strings.HasSuffix(e.Filename, sidecarSuffix) {
			continue
		}

		sidecarPath, ok := sidecars[e.Path]
		if !ok {
			continue
		}

		data, err := os.ReadFile(sidecarPath)
		if err != nil || !json.Valid(data) {
			continue
		}

		e.Sidecar = json.RawMessage(data)
		enriched++
	}

	logger.Info("sidecar enrichment complete",
		"enriched", enriched,
		"total", len(entries))
	return enriched
}
