package provision

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// csvHeader fixes the artifact column order.
var csvHeader = []string{"role", "status", "uid", "username", "email", "password", "class_id", "error"}

// WriteCSV writes the audit artifact for one run into dir, named with an
// ISO-like timestamp, and returns the file path. Every value is
// double-quoted with embedded quotes doubled; encoding/csv is not used
// because it quotes only when necessary and the artifact contract quotes
// unconditionally.
func WriteCSV(dir string, results []Result, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("creating artifacts directory %s: %w", dir, err)
	}

	timestamp := strings.NewReplacer(":", "-", ".", "-").Replace(now.UTC().Format("2006-01-02T15:04:05.000Z"))
	path := filepath.Join(dir, fmt.Sprintf("role-accounts-%s.csv", timestamp))

	var b strings.Builder
	writeRow(&b, csvHeader)
	for _, r := range results {
		classID := ""
		if r.ClassID != nil {
			classID = strconv.Itoa(*r.ClassID)
		}
		b.WriteByte('\n')
		writeRow(&b, []string{r.Role, r.Status, r.UID, r.Username, r.Email, r.Password, classID, r.Error})
	}

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return "", fmt.Errorf("writing artifact %s: %w", path, err)
	}
	return path, nil
}

func writeRow(b *strings.Builder, values []string) {
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(v, `"`, `""`))
		b.WriteByte('"')
	}
}
