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
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/sirseerhq/sirseer-insight/internal/github"
)

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v\n%s", err, data)
	}
	return rows
}

func TestCSVWriter_Repositories(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewCSVWriter(&buf, github.KindRepository)
	if err != nil {
		t.Fatal(err)
	}

	rec := sampleRepository(1500)
	rec.Description = "A tool, with \"quotes\"\nand a newline"
	if err := w.Write(rec); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	rows := readCSV(t, buf.Bytes())
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(rows))
	}

	header, _ := Columns(github.KindRepository)
	row := map[string]string{}
	for i, name := range header {
		if rows[0][i] != name {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], name)
		}
		row[name] = rows[1][i]
	}

	want := map[string]string{
		"name":             "repo",
		"stars":            "1500",
		"description":      "A tool, with \"quotes\"\nand a newline",
		"issue_ratio":      "0.75",
		"engagement_score": "13",
		"created_at":       "2025-03-01T12:00:00Z",
	}
	for col, v := range want {
		if row[col] != v {
			t.Errorf("%s = %q, want %q", col, row[col], v)
		}
	}
}

func TestCSVWriter_PullRequests(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewCSVWriter(&buf, github.KindPullRequest)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(samplePullRequest(42)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	rows := readCSV(t, buf.Bytes())
	header, _ := Columns(github.KindPullRequest)
	row := map[string]string{}
	for i, name := range header {
		row[name] = rows[1][i]
	}

	want := map[string]string{
		"repository":        "org/repo",
		"number":            "42",
		"title":             "fix: handle \"quoted\", comma",
		"closed_at":         "2025-03-01T13:30:00Z",
		"merged_at":         "",
		"review_time_hours": "1.50",
		"body_length":       "12",
	}
	for col, v := range want {
		if row[col] != v {
			t.Errorf("%s = %q, want %q", col, row[col], v)
		}
	}
}

func TestCSVWriter_EmptyWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewCSVWriter(&buf, github.KindPullRequest)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	rows := readCSV(t, buf.Bytes())
	if len(rows) != 1 || rows[0][0] != "repository" {
		t.Errorf("expected header only, got %v", rows)
	}
}

func TestCSVWriter_RejectsOtherKind(t *testing.T) {
	w, err := NewCSVWriter(&bytes.Buffer{}, github.KindPullRequest)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(sampleRepository(1)); err == nil {
		t.Error("expected error writing a repository to a pull request CSV")
	}
}

func TestColumns_UnknownKind(t *testing.T) {
	if _, err := Columns(github.Kind("gist")); err == nil {
		t.Error("expected error for unknown kind")
	}
}
