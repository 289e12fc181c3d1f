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
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/apimachinery/pkg/watch"

	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
)

// waitForJobCompletion watches the Job until it completes, fails or the
// timeout elapses.
func (d *Deployer) waitForJobCompletion(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	watcher, err := d.clientset.BatchV1().Jobs(d.config.Namespace).Watch(ctx, metav1.ListOptions{
		FieldSelector: fields.OneTermEqualSelector("metadata.name", d.config.JobName).String(),
	})
	if err != nil {
		return cpuerrors.Wrap(cpuerrors.ErrCodeInternal, "failed to watch agent Job", err)
	}
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return cpuerrors.NewWithContext(cpuerrors.ErrCodeTimeout, "timeout waiting for agent Job",
				map[string]any{"job": d.config.JobName, "timeout": timeout.String()})

		case event, ok := <-watcher.ResultChan():
			if !ok {
				return cpuerrors.New(cpuerrors.ErrCodeUnavailable, "agent Job watch closed unexpectedly")
			}
			if event.Type == watch.Error {
				return cpuerrors.Newf(cpuerrors.ErrCodeInternal, "agent Job watch error: %v", event.Object)
			}
			job, ok := event.Object.(*batchv1.Job)
			if !ok {
				continue
			}
			done, err := jobFinished(job)
			if done {
				return err
			}
		}
	}
}

// jobFinished reports whether the Job reached a terminal condition and,
// for a failed Job, the failure.
func jobFinished(job *batchv1.Job) (bool, error) {
	for _, c := range job.Status.Conditions {
		if c.Status != corev1.ConditionTrue {
			continue
		}
		switch c.Type {
		case batchv1.JobComplete:
			return true, nil
		case batchv1.JobFailed:
			return true, cpuerrors.NewWithContext(cpuerrors.ErrCodeOperationFailed, "agent Job failed",
				map[string]any{"job": job.Name, "reason": c.Reason, "message": c.Message})
		}
	}
	return false, nil
}

// PodLogs returns the logs of the agent pod, useful when the Job failed.
func (d *Deployer) PodLogs(ctx context.Context) (string, error) {
	pods, err := d.clientset.CoreV1().Pods(d.config.Namespace).List(ctx, metav1.ListOptions{
		LabelSelector: fmt.Sprintf("app.kubernetes.io/name=%s", appName),
	})
	if err != nil {
		return "", cpuerrors.Wrap(cpuerrors.ErrCodeInternal, "failed to list agent pods", err)
	}
	if len(pods.Items) == 0 {
		return "", cpuerrors.Newf(cpuerrors.ErrCodeNotFound, "no pods found for Job %s", d.config.JobName)
	}

	logs, err := d.clientset.CoreV1().Pods(d.config.Namespace).
		GetLogs(pods.Items[0].Name, &corev1.PodLogOptions{}).Stream(ctx)
	if err != nil {
		return "", cpuerrors.Wrap(cpuerrors.ErrCodeInternal, "failed to stream agent logs", err)
	}
	defer logs.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, logs); err != nil {
		return "", cpuerrors.Wrap(cpuerrors.ErrCodeInternal, "failed to read agent logs", err)
	}
	return buf.String(), nil
}
