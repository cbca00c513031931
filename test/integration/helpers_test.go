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

// Package integration runs the built sirseer-insight binary against mock
// GitHub servers. Set INTEGRATION_TEST=true to run it.
package integration

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/sirseerhq/sirseer-insight/test/testutil"
)

func requireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}
}

// recordingServer answers repository info lookups and pull request pages
// for any repository, and remembers what the last pull request query asked
// for.
type recordingServer struct {
	*testutil.MockServer

	mu        sync.Mutex
	lastFirst int
	lastAuth  string
}

// pageHandler returns the body for the pull request page of key at index
// idx, or a status code to fail with.
type pageHandler func(key string, idx int) (body string, status int)

func newRecordingServer(t *testing.T, pages pageHandler) *recordingServer {
	t.Helper()
	s := &recordingServer{}
	s.MockServer = testutil.NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		query, vars := testutil.DecodeGraphQLRequest(t, r)
		w.Header().Set("Content-Type", "application/json")

		s.mu.Lock()
		s.lastAuth = r.Header.Get("Authorization")
		s.mu.Unlock()

		if strings.Contains(query, "stargazerCount") {
			key := fmt.Sprintf("%v/%v", vars["owner"], vars["repo"])
			fmt.Fprintf(w, `{"data":{"repository":{"nameWithOwner":%q,"stargazerCount":1,"pullRequests":{"totalCount":5}}}}`, key)
			return
		}

		if i := strings.Index(query, "first: "); i >= 0 {
			n, _ := strconv.Atoi(strings.TrimSuffix(strings.Fields(query[i+len("first: "):])[0], ","))
			s.mu.Lock()
			s.lastFirst = n
			s.mu.Unlock()
		}

		key := fmt.Sprintf("%v/%v", vars["owner"], vars["name"])
		idx := 0
		if c, ok := vars["cursor"].(string); ok {
			idx, _ = strconv.Atoi(strings.TrimPrefix(c, "cursor"))
		}
		body, status := pages(key, idx)
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		_, _ = w.Write([]byte(body))
	})
	return s
}

// singlePage serves one page of n pull requests for every repository.
func singlePage(n int) pageHandler {
	return func(key string, idx int) (string, int) {
		return testutil.GeneratePullRequestPages(key, 1, n)[0], 0
	}
}

func (s *recordingServer) LastFirst() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFirst
}

func (s *recordingServer) LastAuth() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth
}
