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

func modelsCmd() *cli.Command {
	return &cli.Command{
		Name:  "models",
		Usage: "List the CPU models known to the CPU map",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "count",
				Usage: "Report the number of models only",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			d, err := driverFor(cmd, cpu.ArchNone)
			if err != nil {
				return err
			}

			if cmd.Bool("count") {
				n, err := d.CountModels(ctx)
				if err != nil {
					return err
				}
				list := cpu.NewModelList(d.Name(), nil, version)
				list.Count = n
				return writeResult(ctx, cmd, list)
			}

			models, err := d.Models(ctx)
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, cpu.NewModelList(d.Name(), models, version))
		},
	}
}
