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

package github

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	insighterrors "github.com/sirseerhq/sirseer-insight/internal/errors"
	"github.com/sirseerhq/sirseer-insight/test/testutil"
)

func TestInfoClient_GetRepositoryInfo(t *testing.T) {
	server := testutil.NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		query, vars := testutil.DecodeGraphQLRequest(t, r)
		if !strings.Contains(query, "pullRequests(states: [MERGED, CLOSED])") {
			t.Errorf("unexpected query: %s", query)
		}
		if vars["owner"] != "golang" || vars["repo"] != "go" {
			t.Errorf("unexpected variables: %v", vars)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"repository":{"nameWithOwner":"golang/go","stargazerCount":120000,"pullRequests":{"totalCount":4321}}}}`))
	})

	transport, err := NewHTTPTransport("token", server.GraphQLURL())
	if err != nil {
		t.Fatalf("NewHTTPTransport() error = %v", err)
	}
	client := NewInfoClient(transport.HTTPClient(), transport.Endpoint())

	info, err := client.GetRepositoryInfo(context.Background(), "golang", "go")
	if err != nil {
		t.Fatalf("GetRepositoryInfo() error = %v", err)
	}
	if info.NameWithOwner != "golang/go" || info.Stars != 120000 || info.TotalPullRequests != 4321 {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestInfoClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "not found",
			status:  http.StatusOK,
			body:    `{"data":{"repository":null},"errors":[{"type":"NOT_FOUND","message":"Could not resolve to a Repository with the name 'nope/nope'."}]}`,
			wantErr: insighterrors.ErrRepoNotFound,
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"message":"Bad credentials"}`,
			wantErr: insighterrors.ErrInvalidToken,
		},
		{
			name:    "rate limited",
			status:  http.StatusForbidden,
			body:    `{"message":"API rate limit exceeded"}`,
			wantErr: insighterrors.ErrRateLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testutil.NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			client := NewInfoClient(http.DefaultClient, server.GraphQLURL())
			_, err := client.GetRepositoryInfo(context.Background(), "nope", "nope")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
