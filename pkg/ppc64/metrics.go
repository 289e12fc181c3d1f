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

package ppc64

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mapLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpumap_map_loads_total",
			Help: "Total number of CPU map loads by outcome",
		},
		[]string{"arch", "status"},
	)

	recordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpumap_records_skipped_total",
			Help: "Total number of CPU map records ignored because they were invalid",
		},
		[]string{"arch", "element"},
	)

	operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpumap_operations_total",
			Help: "Total number of CPU operations by result",
		},
		[]string{"arch", "operation", "result"},
	)

	pvrFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cpumap_ppc64_pvr_generation_fallbacks_total",
			Help: "Total number of PVR lookups resolved by masking the revision bits",
		},
	)
)

// observe records the outcome of an operation.
func observe(op string, result string) {
	operations.WithLabelValues(driverName, op, result).Inc()
}

// observeErr records an operation that either succeeded or failed with err.
func observeErr(op string, err error) {
	if err != nil {
		observe(op, "error")
		return
	}
	observe(op, "ok")
}
