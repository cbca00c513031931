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

// Package collect wires configuration into the fetch pipeline and runs it
// for the two record sources: repository search and the pull requests of a
// set of target repositories.
//
// Pull request runs are independent pagination runs, one per target,
// executed concurrently up to the configured limit. A failing target never
// cancels its siblings; its partial result and cause are reported with the
// others.
package collect
