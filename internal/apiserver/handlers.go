// Copyright 2025 NobelLM Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package apiserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nobellm-ai/nobellm-query/internal/domain"
	"github.com/nobellm-ai/nobellm-query/internal/orchestrator"
)

// errorResponse is the Query API error body.
type errorResponse struct {
	Error   errorBody `json:"error"`
	TraceID string    `json:"trace_id,omitempty"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("query_api", "malformed request body"), "")
		return
	}

	resp, err := s.orchestrator.HandleQuery(r.Context(), req)
	if err != nil {
		stageErr, ok := err.(*domain.StageError)
		if !ok {
			stageErr = domain.NewStageError("query_api", domain.KindConfig, "", err.Error(), err)
		}
		slog.Error("query failed", "stage", stageErr.Stage, "kind", stageErr.Kind, "sub_kind", stageErr.SubKind)
		writeError(w, stageErr, resp.TraceID)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, stageErr *domain.StageError, traceID string) {
	writeJSON(w, stageErr.HTTPStatus(), errorResponse{
		Error:   errorBody{Kind: string(stageErr.Kind), Message: stageErr.Message},
		TraceID: traceID,
	})
}
