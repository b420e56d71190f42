package forest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/FNNDSC/pl-dylld/internal/domain"
)

// SaveLog пишет records в <outputDir>/treeLog.json.
func SaveLog(outputDir string, records []domain.TreeRecord) error {
	if records == nil {
		records = []domain.TreeRecord{}
	}

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal tree log: %w", err)
	}

	path := filepath.Join(outputDir, LogFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
