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

package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/NVIDIA/cpumap/pkg/defaults"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Setenv(EnvPort, "")
	t.Setenv(EnvShutdownTimeout, "")

	cfg := NewConfig()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, defaults.ServerShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, defaults.ServerReadHeaderTimeout, cfg.ReadHeaderTimeout)
}

func TestNewConfigEnv(t *testing.T) {
	tests := []struct {
		name         string
		port         string
		shutdown     string
		wantPort     int
		wantShutdown time.Duration
	}{
		{"valid", "9090", "45", 9090, 45 * time.Second},
		{"invalid port", "http", "", 8080, defaults.ServerShutdownTimeout},
		{"port out of range", "70000", "", 8080, defaults.ServerShutdownTimeout},
		{"negative shutdown", "", "-5", 8080, defaults.ServerShutdownTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvPort, tt.port)
			t.Setenv(EnvShutdownTimeout, tt.shutdown)

			cfg := NewConfig()
			assert.Equal(t, tt.wantPort, cfg.Port)
			assert.Equal(t, tt.wantShutdown, cfg.ShutdownTimeout)
		})
	}
}
