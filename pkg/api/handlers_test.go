// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/cpumap/pkg/cpu"
	"github.com/NVIDIA/cpumap/pkg/cpumap"
	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
	"github.com/NVIDIA/cpumap/pkg/header"
	"github.com/NVIDIA/cpumap/pkg/ppc64"
	"github.com/NVIDIA/cpumap/pkg/server"
)

func newTestHandler(allowed *cpu.AllowList) *Handler {
	return NewHandler(ppc64.New(ppc64.WithSource(cpumap.Embedded())), allowed, "test")
}

func do(t *testing.T, h http.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) cpuerrors.ErrorCode {
	t.Helper()
	var resp server.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.Code
}

// generic documents keep the tests independent of report Go types
type document map[string]any

func decodeDoc(t *testing.T, w *httptest.ResponseRecorder) document {
	t.Helper()
	var doc document
	require.NoError(t, json.NewDecoder(w.Body).Decode(&doc))
	return doc
}

func TestHandleModels(t *testing.T) {
	h := newTestHandler(nil)

	w := do(t, h.HandleModels, http.MethodGet, "")
	require.Equal(t, http.StatusOK, w.Code)

	var list cpu.ModelList
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Equal(t, header.KindModelList, list.Kind)
	assert.Equal(t, "ppc64", list.Driver)
	assert.Equal(t, 10, list.Count)
	assert.Contains(t, list.Models, "POWER9")

	w = do(t, h.HandleModels, http.MethodPost, "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, http.MethodGet, w.Header().Get("Allow"))
}

func TestHandleCompare(t *testing.T) {
	h := newTestHandler(nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantResult string
	}{
		{
			name:       "identical",
			body:       `{"host": {"arch": "ppc64le", "model": "POWER9"}, "cpu": {"model": "POWER9"}}`,
			wantStatus: http.StatusOK,
			wantResult: "identical",
		},
		{
			name:       "incompatible",
			body:       `{"host": {"arch": "ppc64le", "model": "POWER9"}, "cpu": {"model": "POWER8"}}`,
			wantStatus: http.StatusOK,
			wantResult: "incompatible",
		},
		{
			name:       "fail incompatible",
			body:       `{"host": {"model": "POWER9"}, "cpu": {"model": "POWER8"}, "failIncompatible": true}`,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "unknown field",
			body:       `{"host": {"model": "POWER9"}, "guest": {}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing cpu",
			body:       `{"host": {"model": "POWER9"}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty body",
			body:       ``,
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h.HandleCompare, http.MethodPost, tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantResult == "" {
				return
			}
			doc := decodeDoc(t, w)
			assert.Equal(t, string(header.KindComparison), doc["kind"])
			comparison := doc["comparison"].(map[string]any)
			assert.Equal(t, tt.wantResult, comparison["result"])
		})
	}
}

func TestHandleCompute(t *testing.T) {
	h := newTestHandler(nil)

	w := do(t, h.HandleCompute, http.MethodPost,
		`{"host": {"arch": "ppc64le", "model": "POWER9", "vendor": "IBM"},
		  "cpu": {"type": "guest", "arch": "ppc64le", "model": "POWER8", "match": "exact"},
		  "wantData": true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	comparison := decodeDoc(t, w)["comparison"].(map[string]any)
	assert.Equal(t, "identical", comparison["result"])
	data := comparison["data"].(map[string]any)
	assert.Equal(t, "0x004d0000", data["pvr"])
	assert.Equal(t, "ppc64le", data["arch"])

	w = do(t, h.HandleCompute, http.MethodPost,
		`{"host": {"arch": "ppc64le", "model": "POWER9"}, "cpu": {"arch": "x86_64", "model": "POWER9"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	comparison = decodeDoc(t, w)["comparison"].(map[string]any)
	assert.Equal(t, "incompatible", comparison["result"])
	assert.Equal(t, "CPU arch x86_64 does not match host arch", comparison["message"])

	w = do(t, h.HandleCompute, http.MethodPost,
		`{"host": {"model": "POWER42"}, "cpu": {"model": "POWER9"}}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, cpuerrors.ErrCodeUnknownModel, errorCode(t, w))

	w = do(t, h.HandleCompute, http.MethodPost,
		`{"host": {"arch": "sparc", "model": "POWER9"}, "cpu": {"model": "POWER9"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleDecode(t *testing.T) {
	tests := []struct {
		name       string
		allowed    *cpu.AllowList
		body       string
		wantStatus int
		wantCode   cpuerrors.ErrorCode
		wantModel  string
	}{
		{
			name:       "revision fallback",
			body:       `{"data": {"arch": "ppc64le", "pvr": "0x004e1202"}}`,
			wantStatus: http.StatusOK,
			wantModel:  "POWER9",
		},
		{
			name:       "template kept",
			body:       `{"data": {"arch": "ppc64", "pvr": "0x004d0000"}, "cpu": {"type": "guest", "match": "exact"}}`,
			wantStatus: http.StatusOK,
			wantModel:  "POWER8",
		},
		{
			name:       "unknown pvr",
			body:       `{"data": {"arch": "ppc64", "pvr": "0x12340000"}}`,
			wantStatus: http.StatusNotFound,
			wantCode:   cpuerrors.ErrCodeNoModelForIdentifier,
		},
		{
			name:       "not allowed",
			allowed:    cpu.NewAllowList("POWER8"),
			body:       `{"data": {"arch": "ppc64", "pvr": "0x004e0000"}}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   cpuerrors.ErrCodeConfigUnsupported,
		},
		{
			name:       "missing data",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   cpuerrors.ErrCodeInvalidRequest,
		},
		{
			name:       "malformed pvr",
			body:       `{"data": {"arch": "ppc64", "pvr": "zz"}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   cpuerrors.ErrCodeInvalidRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(tt.allowed)
			w := do(t, h.HandleDecode, http.MethodPost, tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, w))
				return
			}

			var report cpu.DefinitionReport
			require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
			assert.Equal(t, header.KindDefinition, report.Kind)
			assert.Equal(t, tt.wantModel, report.CPU.Model)
			assert.Equal(t, "IBM", report.CPU.Vendor)
		})
	}
}

func TestHandleBaseline(t *testing.T) {
	h := newTestHandler(nil)

	w := do(t, h.HandleBaseline, http.MethodPost,
		`{"cpus": [{"model": "POWER9", "vendor": "IBM"}, {"model": "POWER9"}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report cpu.DefinitionReport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.Equal(t, header.KindBaseline, report.Kind)
	assert.Equal(t, "POWER9", report.CPU.Model)
	assert.Equal(t, cpu.TypeGuest, report.CPU.Type)
	assert.Equal(t, cpu.MatchExact, report.CPU.Match)

	w = do(t, h.HandleBaseline, http.MethodPost,
		`{"cpus": [{"model": "POWER9"}, {"model": "POWER8"}]}`)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, cpuerrors.ErrCodeOperationFailed, errorCode(t, w))

	w = do(t, h.HandleBaseline, http.MethodPost, `{"cpus": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h.HandleBaseline, http.MethodPost, `{"cpus": [{"model": "POWER9"}, null]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleUpdate(t *testing.T) {
	h := newTestHandler(nil)

	w := do(t, h.HandleUpdate, http.MethodPost,
		`{"guest": {"type": "guest", "mode": "host-model"}, "host": {"model": "POWER9", "vendor": "IBM"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report cpu.DefinitionReport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.Equal(t, "POWER9", report.CPU.Model)
	assert.Equal(t, "IBM", report.CPU.Vendor)
	assert.Equal(t, cpu.MatchExact, report.CPU.Match)

	w = do(t, h.HandleUpdate, http.MethodPost,
		`{"guest": {"mode": "bogus"}, "host": {"model": "POWER9"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoutesServed(t *testing.T) {
	s := newServer(ppc64.New(), nil)
	s.SetReady(true)

	for path := range newTestHandler(nil).Routes() {
		t.Run(path, func(t *testing.T) {
			method := http.MethodPost
			if path == "/v1/models" {
				method = http.MethodGet
			}
			req := httptest.NewRequest(method, path, strings.NewReader("{}"))
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)
			assert.NotEqual(t, http.StatusNotFound, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
		})
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConstants(t *testing.T) {
	assert.Equal(t, "cpumapd", name)
	assert.Equal(t, "dev", versionDefault)
	assert.NotEmpty(t, version)
	assert.NotEmpty(t, commit)
	assert.NotEmpty(t, date)
}
