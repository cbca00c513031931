// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirseerhq/sirseer-insight/internal/github"
	"github.com/sirseerhq/sirseer-insight/internal/metrics"
)

// Supported formats.
const (
	FormatCSV    = "csv"
	FormatNDJSON = "ndjson"
)

// OutputWriter defines the interface for writing derived records.
// Implementations can write to various formats like CSV or NDJSON.
type OutputWriter interface {
	// Write writes a single record to the output.
	// The record should be immediately flushed to avoid memory accumulation.
	Write(record metrics.Record) error

	// Close flushes buffered output, closes the underlying writer and
	// releases any resources. It must be called when all writing is complete.
	Close() error

	// Count returns the number of records written so far.
	Count() int
}

// New creates a writer of the given format over w. The kind selects the
// CSV column set and is ignored for NDJSON.
func New(w io.Writer, format string, kind github.Kind) (OutputWriter, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return NewCSVWriter(w, kind)
	case FormatNDJSON:
		return NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want csv or ndjson)", format)
	}
}

// Create opens path for writing and wraps it in a writer of the given
// format. A path of "-" writes to stdout, which Close leaves open.
func Create(path, format string, kind github.Kind) (OutputWriter, error) {
	if path == "-" {
		return New(os.Stdout, format, kind)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	w, err := New(file, format, kind)
	if err != nil {
		file.Close()
		os.Remove(path)
		return nil, err
	}

	switch ow := w.(type) {
	case *Writer:
		ow.closeFunc = file.Close
	case *CSVWriter:
		ow.closeFunc = file.Close
	}
	return w, nil
}

// WriteAll writes records in order, stopping at the first failure.
func WriteAll(w OutputWriter, records []metrics.Record) error {
	for i := range records {
		if err := w.Write(records[i]); err != nil {
			return fmt.Errorf("record %d (%s): %w", i, records[i].Key, err)
		}
	}
	return nil
}

// Extension returns the conventional file extension for a format.
func Extension(format string) string {
	if strings.ToLower(format) == FormatNDJSON {
		return ".ndjson"
	}
	return ".csv"
}
