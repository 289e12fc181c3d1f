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
	"github.com/NVIDIA/cpumap/pkg/header"
)

func updateCmd() *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Resolve a host-model or host-passthrough guest against a host",
		Description: `Guests in host-model or host-passthrough mode take the host's model and
vendor with exact matching. Custom guests are returned unchanged.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "guest",
				Usage:    "Guest CPU definition: file path or cm://namespace/name",
				Required: true,
			},
			hostFileFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			host, guest, err := loadPair(cmd, "host", "guest")
			if err != nil {
				return err
			}

			d, err := driverFor(cmd, host.Arch)
			if err != nil {
				return err
			}

			if err := d.Update(guest, host); err != nil {
				return err
			}
			return writeResult(ctx, cmd, cpu.NewDefinitionReport(header.KindDefinition, guest, version))
		},
	}
}
