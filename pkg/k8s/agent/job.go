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

package agent

import (
	"context"
	"fmt"
	"maps"
	"strings"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/cpumap/pkg/defaults"
)

// hostnameLabel is the well-known node label holding the node name.
const hostnameLabel = "kubernetes.io/hostname"

// ensureJob deletes any existing Job and creates a fresh one.
func (d *Deployer) ensureJob(ctx context.Context) error {
	err := d.deleteJob(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete existing Job: %w", err)
	}
	if err := d.waitForJobDeletion(ctx); err != nil {
		return fmt.Errorf("timeout waiting for Job deletion: %w", err)
	}

	_, err = d.clientset.BatchV1().Jobs(d.config.Namespace).Create(ctx, d.buildJob(), metav1.CreateOptions{})
	return err
}

// args returns the cpuctl arguments run by the agent.
func (d *Deployer) args() []string {
	args := []string{"--format", "yaml", "--output", d.config.Output}
	if d.config.LogLevel != "" {
		args = append(args, "--log-level", d.config.LogLevel)
	}
	if d.config.CPUMap != "" {
		args = append(args, "--cpu-map", d.config.CPUMap)
	}

	args = append(args, "host")
	if d.config.LabelNode {
		args = append(args, "--label-node")
	}
	if len(d.config.AllowedModels) > 0 {
		args = append(args, "--allowed-models", strings.Join(d.config.AllowedModels, ","))
	}
	return args
}

func (d *Deployer) nodeSelector() map[string]string {
	if d.config.NodeName == "" {
		return d.config.NodeSelector
	}
	selector := maps.Clone(d.config.NodeSelector)
	if selector == nil {
		selector = make(map[string]string, 1)
	}
	selector[hostnameLabel] = d.config.NodeName
	return selector
}

// buildJob constructs the Job. cpuinfo is readable without privileges, so
// the pod runs as non-root with a read-only root filesystem.
func (d *Deployer) buildJob() *batchv1.Job {
	labels := map[string]string{"app.kubernetes.io/name": appName}

	return &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      d.config.JobName,
			Namespace: d.config.Namespace,
			Labels:    labels,
		},
		Spec: batchv1.JobSpec{
			Completions:             ptr.To(int32(1)),
			Parallelism:             ptr.To(int32(1)),
			BackoffLimit:            ptr.To(int32(0)),
			TTLSecondsAfterFinished: ptr.To(int32(3600)),
			ActiveDeadlineSeconds:   ptr.To(int64(defaults.AgentJobDeadline.Seconds())),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					ServiceAccountName: d.config.ServiceAccountName,
					RestartPolicy:      corev1.RestartPolicyNever,
					NodeSelector:       d.nodeSelector(),
					Tolerations:        d.config.Tolerations,
					ImagePullSecrets:   toLocalObjectReferences(d.config.ImagePullSecrets),
					SecurityContext: &corev1.PodSecurityContext{
						RunAsNonRoot: ptr.To(true),
						RunAsUser:    ptr.To(int64(65532)),
						SeccompProfile: &corev1.SeccompProfile{
							Type: corev1.SeccompProfileTypeRuntimeDefault,
						},
					},
					Containers: []corev1.Container{
						{
							Name:    "cpuctl",
							Image:   d.config.Image,
							Command: []string{"cpuctl"},
							Args:    d.args(),
							Env: []corev1.EnvVar{
								{
									Name: "NODE_NAME",
									ValueFrom: &corev1.EnvVarSource{
										FieldRef: &corev1.ObjectFieldSelector{FieldPath: "spec.nodeName"},
									},
								},
							},
							Resources: corev1.ResourceRequirements{
								Requests: corev1.ResourceList{
									corev1.ResourceCPU:    resource.MustParse("50m"),
									corev1.ResourceMemory: resource.MustParse("64Mi"),
								},
								Limits: corev1.ResourceList{
									corev1.ResourceCPU:    resource.MustParse("200m"),
									corev1.ResourceMemory: resource.MustParse("128Mi"),
								},
							},
							SecurityContext: &corev1.SecurityContext{
								AllowPrivilegeEscalation: ptr.To(false),
								ReadOnlyRootFilesystem:   ptr.To(true),
								Capabilities: &corev1.Capabilities{
									Drop: []corev1.Capability{"ALL"},
								},
							},
						},
					},
				},
			},
		},
	}
}

func (d *Deployer) deleteJob(ctx context.Context) error {
	err := d.clientset.BatchV1().Jobs(d.config.Namespace).Delete(ctx, d.config.JobName,
		metav1.DeleteOptions{PropagationPolicy: ptr.To(metav1.DeletePropagationForeground)})
	return ignoreNotFound(err)
}

func (d *Deployer) waitForJobDeletion(ctx context.Context) error {
	return wait.PollUntilContextTimeout(ctx, d.pollInterval, defaults.AgentJobDeleteTimeout, true,
		func(ctx context.Context) (bool, error) {
			_, err := d.clientset.BatchV1().Jobs(d.config.Namespace).Get(ctx, d.config.JobName, metav1.GetOptions{})
			if errors.IsNotFound(err) {
				return true, nil
			}
			return false, err
		},
	)
}

func toLocalObjectReferences(names []string) []corev1.LocalObjectReference {
	if len(names) == 0 {
		return nil
	}
	refs := make([]corev1.LocalObjectReference, len(names))
	for i, name := range names {
		refs[i] = corev1.LocalObjectReference{Name: name}
	}
	return refs
}
