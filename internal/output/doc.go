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

// Package output writes derived records for downstream reporting, as CSV
// (one fixed column set per record kind, with a header row) or NDJSON
// (Newline Delimited JSON, one record per line).
//
// Writers are fed after a run finishes; they never see a partially fetched
// page. Both writers are safe for concurrent use and keep nothing in memory
// beyond the current record.
//
// Example usage:
//
//	w, err := output.Create("repos.csv", output.FormatCSV, github.KindRepository)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if err := output.WriteAll(w, result.Records); err != nil {
//	    log.Fatal(err)
//	}
package output
