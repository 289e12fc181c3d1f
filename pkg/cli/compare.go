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

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cpumap/pkg/cpu"
)

func hostFileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "host",
		Usage:    "Host CPU definition: file path or cm://namespace/name",
		Required: true,
	}
}

func cpuFileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "cpu",
		Usage:    "CPU definition to check: file path or cm://namespace/name",
		Required: true,
	}
}

// loadPair reads the host and CPU definitions named by the command flags.
func loadPair(cmd *cli.Command, hostFlag, cpuFlag string) (host, def *cpu.Definition, err error) {
	kubeconfig := cmd.String("kubeconfig")
	if host, err = loadDefinition(cmd.String(hostFlag), kubeconfig); err != nil {
		return nil, nil, err
	}
	if def, err = loadDefinition(cmd.String(cpuFlag), kubeconfig); err != nil {
		return nil, nil, err
	}
	return host, def, nil
}

func compareCmd() *cli.Command {
	return &cli.Command{
		Name:  "compare",
		Usage: "Compare a CPU against a host by architecture and model name",
		Description: `Compare does not consult the CPU map. The CPU is identical when its
architecture is unset or equal to the host's and both name the same model.

With --fail-incompatible an incompatible CPU is reported as an error.`,
		Flags: []cli.Flag{
			hostFileFlag(),
			cpuFileFlag(),
			&cli.BoolFlag{
				Name:  "fail-incompatible",
				Usage: "Exit with an error when the CPU is incompatible",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			host, def, err := loadPair(cmd, "host", "cpu")
			if err != nil {
				return err
			}

			d, err := driverFor(cmd, host.Arch)
			if err != nil {
				return err
			}

			c := d.Compare(host, def, cmd.Bool("fail-incompatible"))
			if err := comparisonError(c); err != nil {
				return err
			}
			return writeResult(ctx, cmd, cpu.NewComparisonReport(c, version))
		},
	}
}

func computeCmd() *cli.Command {
	return &cli.Command{
		Name:  "compute",
		Usage: "Check a CPU against a host using the CPU map",
		Description: `Both models must exist in the CPU map. With --guest-data the report
includes the hardware data a guest of the CPU model sees.`,
		Flags: []cli.Flag{
			hostFileFlag(),
			cpuFileFlag(),
			&cli.BoolFlag{
				Name:  "guest-data",
				Usage: "Include the guest hardware data in the report",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			host, def, err := loadPair(cmd, "host", "cpu")
			if err != nil {
				return err
			}

			d, err := driverFor(cmd, host.Arch)
			if err != nil {
				return err
			}

			var c cpu.Comparison
			if cmd.Bool("guest-data") {
				c = d.GuestData(ctx, host, def)
			} else {
				c = d.Compute(ctx, host, def, false)
			}
			if err := comparisonError(c); err != nil {
				return err
			}
			return writeResult(ctx, cmd, cpu.NewComparisonReport(c, version))
		},
	}
}
