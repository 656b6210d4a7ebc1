// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 NobelLM Authors
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
)

// IdentifierFunc extracts the rate-limit identifier from an HTTP
// request, defaulting to the caller's remote address.
type IdentifierFunc func(r *http.Request) string

// DefaultIdentifierFunc keys the bucket by the remote address's host,
// so every connection from one client shares a bucket.
func DefaultIdentifierFunc(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware enforces limiter in front of next, responding 429 per the
// error contract when an identifier's bucket is empty.
func Middleware(limiter *Limiter, identifierFn IdentifierFunc) func(http.Handler) http.Handler {
	if identifierFn == nil {
		identifierFn = DefaultIdentifierFunc
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := identifierFn(r)
			if !limiter.Allow(identifier) {
				writeRateLimited(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimited(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"kind":    "RateLimitExceeded",
			"message": "rate limit exceeded, try again shortly",
		},
	})
}
