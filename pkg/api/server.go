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
	"fmt"
	"log/slog"
	"os"

	"github.com/NVIDIA/cpumap/pkg/cpu"
	"github.com/NVIDIA/cpumap/pkg/cpumap"
	"github.com/NVIDIA/cpumap/pkg/logging"
	"github.com/NVIDIA/cpumap/pkg/ppc64"
	"github.com/NVIDIA/cpumap/pkg/server"
)

const (
	name           = "cpumapd"
	versionDefault = "dev"
)

// Environment variables read by Serve.
const (
	EnvSource        = "CPUMAP_SOURCE"
	EnvAllowedModels = "CPUMAP_ALLOWED_MODELS"
	EnvKubeconfig    = "KUBECONFIG"
)

var (
	// overridden during build with ldflags, e.g.
	// -X "github.com/NVIDIA/cpumap/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Serve starts the API server and blocks until shutdown.
func Serve() error {
	ctx := context.Background()

	logging.SetDefaultStructuredLogger(name, version)
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
	)

	src, err := cpumap.ParseURI(os.Getenv(EnvSource), os.Getenv(EnvKubeconfig))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", EnvSource, err)
	}
	allowed := cpu.ParseAllowList(os.Getenv(EnvAllowedModels))

	slog.Info("cpu map", "source", fmt.Sprint(src), "allowedModels", allowed.Models())

	s := newServer(ppc64.New(ppc64.WithSource(src)), allowed)
	if err := s.Run(ctx); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}

	return nil
}

// newServer wires the handlers of driver into a server. The server is
// ready only while the CPU map of driver loads.
func newServer(driver cpu.Driver, allowed *cpu.AllowList) *server.Server {
	h := NewHandler(driver, allowed, version)
	return server.New(
		server.WithName(name),
		server.WithVersion(version),
		server.WithHandler(h.Routes()),
		server.WithReadyCheck(func(ctx context.Context) error {
			_, err := driver.CountModels(ctx)
			return err
		}),
	)
}
