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

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/cpumap/pkg/cpu"
	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
	"github.com/NVIDIA/cpumap/pkg/header"
	"github.com/NVIDIA/cpumap/pkg/k8s/node"
)

// maxConcurrentLoads bounds parallel reads of baseline input files.
const maxConcurrentLoads = 8

func baselineCmd() *cli.Command {
	return &cli.Command{
		Name:      "baseline",
		Usage:     "Compute a guest CPU runnable on every given CPU",
		ArgsUsage: "[FILE|cm://namespace/name ...]",
		Description: `All CPUs must name the same model. Vendors, when given, must agree.

Inputs are CPU definition files, or the nodes of a cluster labeled by
"cpuctl host --label-node":

  cpuctl baseline host-a.yaml host-b.yaml
  cpuctl baseline --nodes node-role.kubernetes.io/worker=

Every selected node must carry a model. --skip-unlabeled leaves out nodes
that do not, so the result only covers the remaining ones.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "nodes",
				Usage: "Read the CPUs of the cluster nodes matching this label selector (\"*\" for all nodes)",
			},
			&cli.BoolFlag{
				Name:  "skip-unlabeled",
				Usage: "Leave out selected nodes that carry no CPU model instead of failing",
			},
			&cli.Int64Flag{
				Name:  "limit",
				Usage: "Maximum number of nodes to read (0 = no limit)",
			},
			allowedModelsFlag(),
			&cli.BoolFlag{
				Name:  "expand-features",
				Usage: "Request the full feature list of the model",
			},
			&cli.BoolFlag{
				Name:  "migratable",
				Usage: "Drop features that block migration",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cpus, err := baselineInputs(ctx, cmd)
			if err != nil {
				return err
			}

			arch := cpu.ArchNone
			if len(cpus) > 0 && cpus[0] != nil {
				arch = cpus[0].Arch
			}
			d, err := driverFor(cmd, arch)
			if err != nil {
				return err
			}

			var flags cpu.Flags
			if cmd.Bool("expand-features") {
				flags |= cpu.FlagExpandFeatures
			}
			if cmd.Bool("migratable") {
				flags |= cpu.FlagMigratable
			}

			def, err := d.Baseline(ctx, cpus, allowList(cmd), flags)
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, cpu.NewDefinitionReport(header.KindBaseline, def, version))
		},
	}
}

func baselineInputs(ctx context.Context, cmd *cli.Command) ([]*cpu.Definition, error) {
	selector := cmd.String("nodes")
	paths := cmd.Args().Slice()

	switch {
	case selector != "" && len(paths) > 0:
		return nil, fmt.Errorf("--nodes cannot be combined with input files")
	case selector != "":
		return nodeCPUs(ctx, cmd, selector)
	case len(paths) == 0:
		return nil, fmt.Errorf("at least one CPU definition file or --nodes is required")
	default:
		return loadDefinitions(ctx, paths, cmd.String("kubeconfig"))
	}
}

// loadDefinitions reads paths concurrently, keeping their order.
func loadDefinitions(ctx context.Context, paths []string, kubeconfig string) ([]*cpu.Definition, error) {
	defs := make([]*cpu.Definition, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			def, err := loadDefinition(path, kubeconfig)
			if err != nil {
				return err
			}
			defs[i] = def
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return defs, nil
}

func nodeCPUs(ctx context.Context, cmd *cli.Command, selector string) ([]*cpu.Definition, error) {
	if selector == "*" {
		selector = ""
	}

	c, err := newKubeClient(cmd.String("kubeconfig"))
	if err != nil {
		return nil, err
	}

	nodes, err := node.List(ctx, node.ListOptions{
		LabelSelector: selector,
		Limit:         cmd.Int64("limit"),
		Client:        c,
	})
	if err != nil {
		return nil, err
	}

	cpus, err := node.CPUs(nodes, cmd.Bool("skip-unlabeled"))
	if err != nil {
		return nil, err
	}
	slog.Debug("read node CPUs", "nodes", len(nodes), "labeled", len(cpus))
	if len(cpus) == 0 {
		return nil, cpuerrors.NewWithContext(cpuerrors.ErrCodeOperationFailed,
			fmt.Sprintf("none of the %d selected nodes carries a CPU model", len(nodes)),
			map[string]any{"selector": selector})
	}
	return cpus, nil
}
