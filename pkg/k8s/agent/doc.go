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

/*
Package agent runs "cpuctl host" as a Kubernetes Job so the host CPU of a
cluster node can be read without shell access to that node.

The Job writes its host report to a ConfigMap given by a cm://namespace/name
URI, and may label its node with the host CPU model. RBAC resources are
created idempotently and reused across runs. The Job itself is deleted and
recreated on every Deploy.

	d := agent.NewDeployer(clientset, agent.Config{
		Namespace:          "kube-system",
		ServiceAccountName: "cpumap-agent",
		JobName:            "cpumap-agent",
		NodeName:           "node-1",
		Tolerations:        agent.DefaultTolerations(),
		Output:             "cm://kube-system/cpumap-host",
	})
	if err := d.Deploy(ctx); err != nil {
		return err
	}
	if err := d.WaitForCompletion(ctx, 5*time.Minute); err != nil {
		return err
	}
	report, err := d.Report(ctx)

The caller needs permission to create the RBAC resources and the Job.
CheckPermissions reports every missing permission before anything is created.
*/
package agent
