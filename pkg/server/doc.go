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

// Package server is the reusable HTTP server behind cpumapd.
//
// The server hosts API handlers supplied by the caller and wraps each of
// them with the same middleware chain, outermost first:
//
//   - metrics: request count, latency and in-flight gauge per route
//   - version: negotiates the API version from the Accept header
//     (application/vnd.nvidia.cpumap.v1+json) and sets X-API-Version
//   - request ID: keeps a valid X-Request-Id or assigns a UUID
//   - panic recovery: turns a panic into a 500 error response
//   - rate limit: token bucket from golang.org/x/time/rate, 429 when empty
//   - logging: debug level request start and completion
//
// System endpoints skip the middleware:
//
//   - GET /health: liveness
//   - GET /ready: readiness, 503 until the server listens or while a
//     ReadyCheck fails
//   - GET /metrics: Prometheus metrics
//
// Errors are written as ErrorResponse documents. WriteErrorFromErr maps the
// code of a StructuredError to a status with StatusForCode.
//
// # Usage
//
//	s := server.New(
//	    server.WithName("cpumapd"),
//	    server.WithVersion(version),
//	    server.WithHandler(map[string]http.HandlerFunc{
//	        "/v1/models": h.HandleModels,
//	    }),
//	)
//	if err := s.Run(ctx); err != nil {
//	    return err
//	}
//
// # Configuration
//
// NewConfig reads PORT and SHUTDOWN_TIMEOUT_SECONDS from the environment.
// Timeouts default to the values in pkg/defaults.
package server
