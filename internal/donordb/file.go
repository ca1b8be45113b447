// Reads and writes the donor file.

package donordb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/maruel/donors/internal/donor"
)

// Initialize creates the donor file with its header line if it doesn't exist.
//
// An existing file is left untouched; its header is not validated.
func Initialize(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	// Write to a temporary file and rename so a crash never leaves a partial header.
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	tmp := f.Name()
	defer func() {
		_ = os.Remove(tmp)
	}()
	if _, err := f.WriteString(donor.Header + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync header: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil { //nolint:gosec // G302: data file is not secret
		return fmt.Errorf("failed to chmod %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return nil
}

// LoadAll reads every record in the donor file.
//
// The first line is the header and is skipped. Blank lines are ignored. A
// record whose quoted field contains a newline spans several physical lines;
// a quoted span left open at end of file is an error. Any record that fails to
// decode aborts the load.
func LoadAll(path string) ([]donor.Donor, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is the configured data file
	if err != nil {
		return nil, fmt.Errorf("failed to open donor file %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	var out []donor.Donor
	r := bufio.NewReader(f)
	lineNo := 0
	header := true
	for {
		line, start, err := readRecord(r, &lineNo)
		if err != nil {
			return nil, fmt.Errorf("failed to read donor file %s: %w", path, err)
		}
		if line == "" && start == 0 {
			break
		}
		if header {
			header = false
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := checkContinued(line); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, start, err)
		}
		d, err := donor.Decode(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, start, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// readRecord returns the next logical record and the physical line it starts
// on. Physical lines are joined while a quoted span is open. start is 0 at EOF.
func readRecord(r *bufio.Reader, lineNo *int) (string, int, error) {
	var rec strings.Builder
	start := 0
	for {
		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", 0, err
		}
		if line == "" && errors.Is(err, io.EOF) {
			return rec.String(), start, nil
		}
		*lineNo++
		if start == 0 {
			start = *lineNo
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		if rec.Len() != 0 || *lineNo != start {
			rec.WriteByte('\n')
		}
		rec.WriteString(line)
		if errors.Is(err, io.EOF) || donor.Balanced(rec.String()) {
			return rec.String(), start, nil
		}
	}
}

// checkContinued rejects a record that never closes its quoted span, and a
// record spanning several lines that does not hold exactly one row of fields.
// Either one means a stray quote swallowed the following lines.
func checkContinued(rec string) error {
	if !donor.Balanced(rec) {
		return fmt.Errorf("%w: unterminated quoted field", donor.ErrMalformed)
	}
	if strings.Contains(rec, "\n") {
		if n := len(donor.SplitLine(rec, 0)); n != len(donor.Columns) {
			return fmt.Errorf("%w: record spanning several lines has %d fields, want %d", donor.ErrMalformed, n, len(donor.Columns))
		}
	}
	return nil
}

// Append writes d at the end of the donor file.
//
// The file must already exist, see [Initialize]. Every call opens, writes,
// syncs and closes the file.
func Append(path string, d *donor.Donor) error {
	_, err := appendLine(path, donor.Encode(d)+"\n")
	return err
}

// appendLine appends line and returns the resulting file size.
func appendLine(path, line string) (int64, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644) //nolint:gosec // G304: path is the configured data file
	if err != nil {
		return 0, fmt.Errorf("failed to open donor file for append: %w", err)
	}
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("failed to write record: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("failed to sync record: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("failed to stat donor file: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close donor file: %w", err)
	}
	return info.Size(), nil
}
