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

package testutil

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

// AssertNDJSONOutput validates that a file holds expectedCount NDJSON
// records of the given kind and returns them decoded.
func AssertNDJSONOutput(t *testing.T, filePath, kind string, expectedCount int) []map[string]interface{} {
	t.Helper()

	file, err := os.Open(filePath)
	if err != nil {
		t.Fatalf("Failed to open output file: %v", err)
	}
	defer file.Close()

	var records []map[string]interface{}
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" {
			continue
		}

		var rec map[string]interface{}
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			t.Errorf("Line %d: invalid JSON: %v", line, err)
			continue
		}

		requiredFields := []string{"kind", "key", "url", "created_at"}
		if kind == "pull_request" {
			requiredFields = append(requiredFields, "repository", "number", "review_time_hours", "body_length")
		} else {
			requiredFields = append(requiredFields, "name", "owner", "engagement_score", "issue_ratio")
		}
		for _, field := range requiredFields {
			if _, ok := rec[field]; !ok {
				t.Errorf("Line %d: missing required field '%s'", line, field)
			}
		}
		if rec["kind"] != kind {
			t.Errorf("Line %d: kind = %v, want %s", line, rec["kind"], kind)
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		t.Fatalf("Error reading file: %v", err)
	}
	if len(records) != expectedCount {
		t.Errorf("Expected %d records, got %d", expectedCount, len(records))
	}
	return records
}

// AssertCSVOutput validates that a CSV file starts with header and holds
// expectedRows data rows. It returns the data rows.
func AssertCSVOutput(t *testing.T, filePath string, header []string, expectedRows int) [][]string {
	t.Helper()

	file, err := os.Open(filePath)
	if err != nil {
		t.Fatalf("Failed to open output file: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Invalid CSV: %v", err)
	}
	if len(rows) == 0 {
		t.Fatal("CSV output has no header")
	}
	if strings.Join(rows[0], ",") != strings.Join(header, ",") {
		t.Errorf("CSV header = %v, want %v", rows[0], header)
	}
	if got := len(rows) - 1; got != expectedRows {
		t.Errorf("Expected %d CSV rows, got %d", expectedRows, got)
	}
	return rows[1:]
}

// AssertMetadataFile validates the metadata file written next to an export
// and returns it decoded.
func AssertMetadataFile(t *testing.T, path, command string) map[string]interface{} {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read metadata file: %v", err)
	}

	var metadata map[string]interface{}
	if err := json.Unmarshal(data, &metadata); err != nil {
		t.Fatalf("Invalid metadata JSON: %v", err)
	}

	requiredFields := []string{"insight_version", "method_version", "run_id", "command", "parameters", "runs", "results"}
	for _, field := range requiredFields {
		if _, ok := metadata[field]; !ok {
			t.Errorf("Missing required metadata field: %s", field)
		}
	}
	if metadata["command"] != command {
		t.Errorf("metadata command = %v, want %s", metadata["command"], command)
	}
	return metadata
}

// AssertContainsString checks if a string contains a substring
func AssertContainsString(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Errorf("Expected string to contain %q, got: %s", needle, haystack)
	}
}

// AssertErrorContains checks if an error contains expected text
func AssertErrorContains(t *testing.T, err error, expected string) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), expected) {
		t.Errorf("Expected error to contain %q, got: %v", expected, err)
	}
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertEqual compares two values and fails if they're not equal
func AssertEqual(t *testing.T, got, want interface{}) {
	t.Helper()
	if got != want {
		t.Errorf("Got %v, want %v", got, want)
	}
}
