package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/4jp/alchemia/internal/intake"
)

const documentSchemaVersion = "1.0"

// InventoryDocument is the JSON carrier for file-to-file runs, letting the
// CLI stages hand the inventory off without a database.
type InventoryDocument struct {
	SchemaVersion string         `json:"schema_version"`
	Generated     time.Time      `json:"generated"`
	TotalFiles    int            `json:"total_files"`
	Entries       []intake.Entry `json:"entries"`
}

// SaveInventory writes the inventory document to path.
func SaveInventory(path string, entries []intake.Entry) error {
	doc := InventoryDocument{
		SchemaVersion: documentSchemaVersion,
		Generated:     time.Now().UTC(),
		TotalFiles:    len(entries),
		Entries:       entries,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal inventory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write inventory: %w", err)
	}
	return nil
}

// LoadInventory reads an inventory document from path.
func LoadInventory(path string) ([]intake.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}

	var doc InventoryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse inventory: %w", err)
	}
	return doc.Entries, nil
}
