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

// Package pagination walks a cursor-paginated GraphQL connection.
//
// A Driver repeats build → fetch → normalize → derive cycles for one Source
// until the connection is exhausted, the record cap is reached, the caller
// cancels, or a page fails. Pages are fetched strictly in sequence because
// each cursor comes from the previous response.
//
// A failed run keeps everything accumulated before the failure:
//
//	result, err := driver.Drive(ctx, pagination.Config{PageSize: 10, RecordCap: 1000})
//	if err != nil {
//		var abort *pagination.AbortError
//		if errors.As(err, &abort) {
//			log.Warn("partial result", "records", len(result.Records))
//		}
//	}
package pagination
