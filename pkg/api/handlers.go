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
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/NVIDIA/cpumap/pkg/cpu"
	"github.com/NVIDIA/cpumap/pkg/defaults"
	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
	"github.com/NVIDIA/cpumap/pkg/header"
	"github.com/NVIDIA/cpumap/pkg/serializer"
	"github.com/NVIDIA/cpumap/pkg/server"
)

// Handler serves the CPU operations of one driver over HTTP.
type Handler struct {
	driver  cpu.Driver
	allowed *cpu.AllowList
	version string
}

// NewHandler returns a Handler for driver. allowed restricts the models
// decode may return; nil allows all.
func NewHandler(driver cpu.Driver, allowed *cpu.AllowList, version string) *Handler {
	return &Handler{driver: driver, allowed: allowed, version: version}
}

// Routes returns the API routes keyed by path.
func (h *Handler) Routes() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"/v1/models":   h.HandleModels,
		"/v1/compare":  h.HandleCompare,
		"/v1/compute":  h.HandleCompute,
		"/v1/decode":   h.HandleDecode,
		"/v1/baseline": h.HandleBaseline,
		"/v1/update":   h.HandleUpdate,
	}
}

// HandleModels lists the models known to the driver.
func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaults.CPUHandlerTimeout)
	defer cancel()

	models, err := h.driver.Models(ctx)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to list CPU models", nil)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, cpu.NewModelList(h.driver.Name(), models, h.version))
}

// HandleCompare runs the map-free comparison of two definitions.
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if !validDefinitions(w, r, req.Host, req.CPU) {
		return
	}

	h.respondComparison(w, r, h.driver.Compare(req.Host, req.CPU, req.FailIncompatible))
}

// HandleCompute checks a CPU against a host using the CPU map.
func (h *Handler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if !validDefinitions(w, r, req.Host, req.CPU) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaults.CPUHandlerTimeout)
	defer cancel()

	h.respondComparison(w, r, h.driver.Compute(ctx, req.Host, req.CPU, req.WantData))
}

// HandleDecode translates hardware data into a CPU model.
func (h *Handler) HandleDecode(w http.ResponseWriter, r *http.Request) {
	var req DecodeRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.Data == nil {
		server.WriteError(w, r, http.StatusBadRequest, cpuerrors.ErrCodeInvalidRequest,
			"Hardware data is required", false, nil)
		return
	}

	def := req.CPU
	if def == nil {
		def = &cpu.Definition{}
	}
	if !validDefinitions(w, r, def) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaults.CPUHandlerTimeout)
	defer cancel()

	if err := h.driver.Decode(ctx, def, req.Data, h.allowed, flagsOf(req.ExpandFeatures, false)); err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to decode CPU data",
			map[string]any{"pvr": req.Data.PVR.String()})
		return
	}

	serializer.RespondJSON(w, http.StatusOK, cpu.NewDefinitionReport(header.KindDefinition, def, h.version))
}

// HandleBaseline computes a CPU runnable on every CPU of the request.
func (h *Handler) HandleBaseline(w http.ResponseWriter, r *http.Request) {
	var req BaselineRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if !validDefinitions(w, r, req.CPUs...) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaults.CPUHandlerTimeout)
	defer cancel()

	def, err := h.driver.Baseline(ctx, req.CPUs, h.allowed, flagsOf(req.ExpandFeatures, req.Migratable))
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to compute baseline CPU",
			map[string]any{"cpus": len(req.CPUs)})
		return
	}

	serializer.RespondJSON(w, http.StatusOK, cpu.NewDefinitionReport(header.KindBaseline, def, h.version))
}

// HandleUpdate resolves a host-model or host-passthrough guest.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if !validDefinitions(w, r, req.Guest, req.Host) {
		return
	}

	if err := h.driver.Update(req.Guest, req.Host); err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to update guest CPU",
			map[string]any{"mode": string(req.Guest.Mode)})
		return
	}

	serializer.RespondJSON(w, http.StatusOK, cpu.NewDefinitionReport(header.KindDefinition, req.Guest, h.version))
}

// respondComparison answers with the comparison report unless the
// comparison itself failed.
func (h *Handler) respondComparison(w http.ResponseWriter, r *http.Request, c cpu.Comparison) {
	if c.Result == cpu.ResultError {
		server.WriteErrorFromErr(w, r, c.Err, "CPU comparison failed", nil)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, cpu.NewComparisonReport(c, h.version))
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	server.WriteError(w, r, http.StatusMethodNotAllowed, cpuerrors.ErrCodeMethodNotAllowed,
		"Method not allowed", false, map[string]any{
			"method":  r.Method,
			"allowed": []string{method},
		})
	return false
}

// decodeRequest reads a JSON POST body into v. It writes the error
// response and returns false on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if !allowMethod(w, r, http.MethodPost) {
		return false
	}
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, defaults.MaxRequestBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		message := "Invalid request body"
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			message = "Request body is empty"
		case errors.As(err, &maxErr):
			message = "Request body too large"
		}
		slog.Debug("rejected request body", "path", r.URL.Path, "error", err)
		server.WriteError(w, r, http.StatusBadRequest, cpuerrors.ErrCodeInvalidRequest,
			message, false, map[string]any{"error": err.Error()})
		return false
	}
	return true
}

func validDefinitions(w http.ResponseWriter, r *http.Request, defs ...*cpu.Definition) bool {
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			server.WriteErrorFromErr(w, r, err, "Invalid CPU definition", nil)
			return false
		}
	}
	return true
}
