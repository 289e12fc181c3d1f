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

package defaults

import "time"

// CPU map source timeouts.
const (
	// ConfigMapReadTimeout bounds reading a CPU map ConfigMap.
	ConfigMapReadTimeout = 15 * time.Second

	// ConfigMapWriteTimeout bounds writing a result document to a ConfigMap.
	// Longer than reads to absorb client-side rate limiting.
	ConfigMapWriteTimeout = 30 * time.Second
)

// Handler timeouts for HTTP request processing.
const (
	// CPUHandlerTimeout bounds one CPU operation request, map load included.
	CPUHandlerTimeout = 30 * time.Second

	// MaxRequestBodyBytes caps the size of JSON request bodies.
	MaxRequestBodyBytes = 1 << 20
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading a request.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 30 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second
)

// Kubernetes timeouts for K8s API operations.
const (
	// K8sNodeListTimeout bounds listing cluster nodes.
	K8sNodeListTimeout = 30 * time.Second

	// K8sNodePatchTimeout bounds labeling a single node.
	K8sNodePatchTimeout = 10 * time.Second
)

// Agent timeouts for the in-cluster host agent Job.
const (
	// AgentJobTimeout is the default wait for the agent Job to complete.
	AgentJobTimeout = 5 * time.Minute

	// AgentJobDeadline caps the run time of the agent Job in the cluster.
	AgentJobDeadline = 10 * time.Minute

	// AgentJobDeleteTimeout bounds waiting for a previous Job to go away.
	AgentJobDeleteTimeout = 30 * time.Second

	// AgentCleanupTimeout bounds removing agent resources after a run.
	AgentCleanupTimeout = 30 * time.Second
)
