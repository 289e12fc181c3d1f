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

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cpumap/pkg/logging"
)

const (
	name           = "cpuctl"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Execute runs the CLI with the process arguments and exits non-zero on
// error. Called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Version:               fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		EnableShellCompletion: true,
		Usage:                 "ppc64 CPU model database and compatibility checks",
		Description: `cpuctl answers CPU model questions for ppc64 virtualization hosts:

  models    list the CPU models the CPU map knows
  compare   compare a CPU against a host by name only
  compute   check a CPU against a host using the CPU map
  decode    find the CPU model of a PVR value
  baseline  compute a guest CPU runnable on a set of hosts
  update    resolve a host-model or host-passthrough guest
  host      describe the running host

CPU definitions are read from YAML or JSON files, or cm://namespace/name
ConfigMaps. Output of decode, baseline, update and host can be fed back as
input.`,
		Flags: []cli.Flag{
			cpuMapFlag(),
			kubeconfigFlag(),
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			outputFlag(),
			formatFlag(),
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			slog.Debug("starting",
				"name", name,
				"version", version,
				"commit", commit,
				"date", date)
			return ctx, nil
		},
		Commands: []*cli.Command{
			modelsCmd(),
			compareCmd(),
			computeCmd(),
			decodeCmd(),
			baselineCmd(),
			updateCmd(),
			hostCmd(),
		},
	}
}
