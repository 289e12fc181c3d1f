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

// Package api exposes the CPU operations of the ppc64 driver over HTTP.
//
// The package is a thin layer over pkg/server: it builds the driver from
// the environment, registers the handlers and delegates server lifecycle,
// middleware and system endpoints to pkg/server.
//
// # Endpoints
//
// Application endpoints (rate limited):
//   - GET /v1/models: CPUModelList of the known models
//   - POST /v1/compare: CPUComparison of a CPU against a host, names only
//   - POST /v1/compute: CPUComparison using the CPU map, optional guest data
//   - POST /v1/decode: CPUDefinition with the model matching a PVR
//   - POST /v1/baseline: CPUBaseline runnable on all given CPUs
//   - POST /v1/update: CPUDefinition of a guest resolved against a host
//
// System endpoints: GET /health, GET /ready, GET /metrics.
//
// Example:
//
//	curl -X POST http://localhost:8080/v1/decode \
//	  -H "Content-Type: application/json" \
//	  -d '{"data": {"arch": "ppc64le", "pvr": "0x004e1202"}}'
//
// An identical or incompatible comparison is a 200 response; the result
// field tells them apart. Errors carry the code of the failing operation,
// e.g. UNKNOWN_MODEL (404) or CONFIG_UNSUPPORTED (422).
//
// # Configuration
//
//   - CPUMAP_SOURCE: CPU map location, "embedded" (default), a file path
//     or cm://namespace/name[/key]
//   - CPUMAP_ALLOWED_MODELS: comma separated models decode may return
//   - KUBECONFIG: kubeconfig for cm:// sources outside the cluster
//   - PORT, SHUTDOWN_TIMEOUT_SECONDS, LOG_LEVEL
package api
