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
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cpumap/pkg/cpu"
	"github.com/NVIDIA/cpumap/pkg/cpumap"
	"github.com/NVIDIA/cpumap/pkg/defaults"
	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
	"github.com/NVIDIA/cpumap/pkg/k8s/agent"
)

const defaultAgentName = "cpumap-agent"

func agentFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "deploy-agent",
			Usage: "Run on a cluster node as a Kubernetes Job instead of locally",
		},
		&cli.StringFlag{
			Name:    "namespace",
			Aliases: []string{"n"},
			Usage:   "Namespace for the agent Job and its report",
			Value:   "kube-system",
		},
		&cli.StringFlag{
			Name:    "image",
			Usage:   "Container image for the agent",
			Value:   agent.DefaultImage,
			Sources: cli.EnvVars("CPUMAP_IMAGE"),
		},
		&cli.StringSliceFlag{
			Name:  "image-pull-secret",
			Usage: "Image pull secret for the agent (repeatable)",
		},
		&cli.StringFlag{
			Name:  "job-name",
			Usage: "Name of the agent Job",
			Value: defaultAgentName,
		},
		&cli.StringFlag{
			Name:  "service-account-name",
			Usage: "ServiceAccount the agent runs as",
			Value: defaultAgentName,
		},
		&cli.StringFlag{
			Name:  "node",
			Usage: "Node to run the agent on",
		},
		&cli.StringSliceFlag{
			Name:  "node-selector",
			Usage: "Node selector for the agent, key=value (repeatable)",
		},
		&cli.StringSliceFlag{
			Name:  "toleration",
			Usage: "Toleration for the agent, key=value:effect (repeatable, default: all taints)",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "ConfigMap the agent writes its report to (default: cm://<namespace>/cpumap-host)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "How long to wait for the agent Job",
			Value: defaults.AgentJobTimeout,
		},
		&cli.BoolFlag{
			Name:  "cleanup",
			Usage: "Delete the agent Job when done",
			Value: true,
		},
		&cli.BoolFlag{
			Name:  "cleanup-rbac",
			Usage: "Also delete the agent RBAC resources when done",
		},
	}
}

// agentConfig maps the host command flags onto an agent configuration.
func agentConfig(cmd *cli.Command) (agent.Config, error) {
	selectors, err := agent.ParseNodeSelectors(cmd.StringSlice("node-selector"))
	if err != nil {
		return agent.Config{}, err
	}
	tolerations, err := agent.ParseTolerations(cmd.StringSlice("toleration"))
	if err != nil {
		return agent.Config{}, err
	}

	cpuMap := cmd.String("cpu-map")
	if cpuMap != "" && cpuMap != cpumap.EmbeddedSource && !strings.HasPrefix(cpuMap, cpumap.ConfigMapURIScheme) {
		return agent.Config{}, cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest,
			"agent cannot read local CPU map %q, use embedded or a cm:// URI", cpuMap)
	}

	ns := cmd.String("namespace")
	output := cmd.String("report")
	if output == "" {
		output = fmt.Sprintf("cm://%s/cpumap-host", ns)
	}

	return agent.Config{
		Namespace:          ns,
		ServiceAccountName: cmd.String("service-account-name"),
		JobName:            cmd.String("job-name"),
		Image:              cmd.String("image"),
		ImagePullSecrets:   cmd.StringSlice("image-pull-secret"),
		NodeName:           cmd.String("node"),
		NodeSelector:       selectors,
		Tolerations:        tolerations,
		Output:             output,
		CPUMap:             cpuMap,
		AllowedModels:      cmd.StringSlice("allowed-models"),
		LabelNode:          cmd.Bool("label-node"),
		LogLevel:           cmd.String("log-level"),
	}, nil
}

// runAgent deploys the agent, waits for it and writes its report.
func runAgent(ctx context.Context, cmd *cli.Command) error {
	cfg, err := agentConfig(cmd)
	if err != nil {
		return err
	}

	c, err := newKubeClient(cmd.String("kubeconfig"))
	if err != nil {
		return err
	}
	d := agent.NewDeployer(c, cfg)

	cleanup := agent.CleanupOptions{Enabled: cmd.Bool("cleanup"), RBAC: cmd.Bool("cleanup-rbac")}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaults.AgentCleanupTimeout)
		defer cancel()
		if err := d.Cleanup(cleanupCtx, cleanup); err != nil {
			slog.Warn("failed to clean up agent", "error", err)
		}
	}()

	slog.Info("deploying agent", "namespace", cfg.Namespace, "job", cfg.JobName, "node", cfg.NodeName)
	if err := d.Deploy(ctx); err != nil {
		return err
	}

	if err := d.WaitForCompletion(ctx, cmd.Duration("timeout")); err != nil {
		if logs, logErr := d.PodLogs(ctx); logErr == nil {
			slog.Error("agent failed", "job", cfg.JobName, "logs", logs)
		}
		return err
	}

	report, err := d.Report(ctx)
	if err != nil {
		return err
	}
	slog.Info("agent completed", "model", modelOf(report.CPU), "pvr", report.Data.PVR.String())
	return writeResult(ctx, cmd, report)
}

func modelOf(def *cpu.Definition) string {
	if def == nil {
		return ""
	}
	return def.Model
}
