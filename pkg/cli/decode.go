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

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cpumap/pkg/cpu"
	"github.com/NVIDIA/cpumap/pkg/header"
)

func decodeCmd() *cli.Command {
	return &cli.Command{
		Name:  "decode",
		Usage: "Find the CPU model of a PVR value",
		Description: `Looks up the model registered for the PVR. When no model has the exact
value, the revision bits are cleared and the generation is looked up.

  cpuctl decode --pvr 0x004e1202 --arch ppc64le`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "pvr",
				Usage:    "Processor Version Register value in hex (e.g. 0x004e1202)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "arch",
				Usage: "Architecture of the CPU (ppc64, ppc64le)",
			},
			&cli.StringFlag{
				Name:  "cpu",
				Usage: "CPU definition to complete: file path or cm://namespace/name",
			},
			allowedModelsFlag(),
			&cli.BoolFlag{
				Name:  "expand-features",
				Usage: "Request the full feature list of the model",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			pvr, err := cpu.ParsePVR(cmd.String("pvr"))
			if err != nil {
				return fmt.Errorf("invalid --pvr: %w", err)
			}
			arch, err := cpu.ParseArch(cmd.String("arch"))
			if err != nil {
				return fmt.Errorf("invalid --arch: %w", err)
			}

			def := &cpu.Definition{Type: cpu.TypeGuest}
			if path := cmd.String("cpu"); path != "" {
				if def, err = loadDefinition(path, cmd.String("kubeconfig")); err != nil {
					return err
				}
			}

			d, err := driverFor(cmd, arch)
			if err != nil {
				return err
			}

			var flags cpu.Flags
			if cmd.Bool("expand-features") {
				flags |= cpu.FlagExpandFeatures
			}

			if err := d.Decode(ctx, def, &cpu.Data{Arch: arch, PVR: pvr}, allowList(cmd), flags); err != nil {
				return err
			}
			return writeResult(ctx, cmd, cpu.NewDefinitionReport(header.KindDefinition, def, version))
		},
	}
}
