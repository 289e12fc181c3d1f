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
	"github.com/NVIDIA/cpumap/pkg/k8s/node"
)

// newHostDriver is replaced in tests to fake the host hardware.
var newHostDriver = func(cmd *cli.Command) (cpu.Driver, error) {
	return driverFor(cmd, cpu.ArchNone)
}

func hostCmd() *cli.Command {
	return &cli.Command{
		Name:  "host",
		Usage: "Describe the CPU of the running host",
		Description: `Reads the PVR of the running host and decodes it into a CPU model.

With --label-node the model is recorded on the Kubernetes node, so that
"cpuctl baseline --nodes" can read it. The node name defaults to the
NODE_NAME environment variable.

With --deploy-agent the same command runs as a Job on a cluster node and the
report is read back from the ConfigMap the Job writes to.`,
		Flags: append([]cli.Flag{
			allowedModelsFlag(),
			&cli.BoolFlag{
				Name:  "label-node",
				Usage: "Label the Kubernetes node with the decoded model",
			},
			&cli.StringFlag{
				Name:    "node-name",
				Usage:   "Node to label (default: NODE_NAME)",
				Sources: cli.EnvVars("NODE_NAME"),
			},
		}, agentFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("deploy-agent") {
				return runAgent(ctx, cmd)
			}

			d, err := newHostDriver(cmd)
			if err != nil {
				return err
			}

			data, err := d.NodeData(ctx)
			if err != nil {
				return fmt.Errorf("failed to read host CPU data: %w", err)
			}

			def := &cpu.Definition{Type: cpu.TypeHost, Arch: data.Arch}
			if err := d.Decode(ctx, def, data, allowList(cmd), 0); err != nil {
				return err
			}

			if cmd.Bool("label-node") {
				name := cmd.String("node-name")
				if name == "" {
					name = node.CurrentName()
				}
				if name == "" {
					return fmt.Errorf("--label-node requires --node-name or NODE_NAME")
				}

				c, err := newKubeClient(cmd.String("kubeconfig"))
				if err != nil {
					return err
				}
				if err := node.Label(ctx, c, name, def); err != nil {
					return err
				}
			}

			return writeResult(ctx, cmd, cpu.NewHostReport(data, def, version))
		},
	}
}
