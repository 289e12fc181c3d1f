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

package node

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/NVIDIA/cpumap/pkg/cpu"
	"github.com/NVIDIA/cpumap/pkg/defaults"
	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
	"github.com/NVIDIA/cpumap/pkg/k8s/client"
)

// Model and vendor names are stored verbatim in annotations. The labels of
// the same keys hold LabelValue of the names for use in label selectors.
const (
	// LabelModel carries the decoded CPU model of a node.
	LabelModel = "cpumap.nvidia.com/model"
	// LabelVendor carries the vendor of the node's CPU model.
	LabelVendor = "cpumap.nvidia.com/vendor"

	AnnotationModel  = LabelModel
	AnnotationVendor = LabelVendor
)

const (
	nodeListPageSize    int64 = 500
	nodeListAbsoluteMax int64 = 10000
)

// ListOptions selects the nodes to list.
type ListOptions struct {
	// Kubeconfig is the path to the kubeconfig file.
	Kubeconfig string
	// LabelSelector filters nodes by label.
	LabelSelector string
	// Limit caps the number of nodes returned. Zero means the hard cap.
	Limit int64
	// Client overrides the default client.
	Client client.Interface
}

// List returns the nodes matching opt, fetching them a page at a time.
func List(ctx context.Context, opt ListOptions) ([]*v1.Node, error) {
	c := opt.Client
	if c == nil {
		var err error
		c, _, err = client.GetKubeClientWithConfig(opt.Kubeconfig)
		if err != nil {
			return nil, cpuerrors.Wrap(cpuerrors.ErrCodeUnavailable, "failed to get kubernetes client", err)
		}
	}

	limit := opt.Limit
	if limit <= 0 || limit > nodeListAbsoluteMax {
		limit = nodeListAbsoluteMax
	}

	listCtx, cancel := context.WithTimeout(ctx, defaults.K8sNodeListTimeout)
	defer cancel()

	var nodes []*v1.Node
	token := ""
	for int64(len(nodes)) < limit {
		page := min(nodeListPageSize, limit-int64(len(nodes)))

		list, err := c.CoreV1().Nodes().List(listCtx, metav1.ListOptions{
			LabelSelector: opt.LabelSelector,
			Limit:         page,
			Continue:      token,
		})
		if err != nil {
			return nil, cpuerrors.Wrap(cpuerrors.ErrCodeUnavailable, "failed to list nodes", err)
		}

		for i := range list.Items {
			nodes = append(nodes, &list.Items[i])
		}

		slog.Debug("fetched nodes page",
			slog.Int("page", len(list.Items)),
			slog.Int("total", len(nodes)),
			slog.Bool("more", list.Continue != ""))

		token = list.Continue
		if token == "" || len(list.Items) == 0 {
			break
		}
	}

	if int64(len(nodes)) > limit {
		nodes = nodes[:limit]
	}
	return nodes, nil
}

// CPU returns the CPU definition recorded on n, or nil when n carries no
// model. The architecture comes from the node status.
func CPU(n *v1.Node) *cpu.Definition {
	model := recorded(n, AnnotationModel, LabelModel)
	if model == "" {
		return nil
	}

	def := &cpu.Definition{
		Type:   cpu.TypeHost,
		Model:  model,
		Vendor: recorded(n, AnnotationVendor, LabelVendor),
	}
	if arch, err := cpu.ParseArch(n.Status.NodeInfo.Architecture); err == nil {
		def.Arch = arch
	} else {
		slog.Debug("ignoring node architecture", "node", n.Name,
			"architecture", n.Status.NodeInfo.Architecture, "error", err)
	}
	return def
}

// recorded prefers the annotation; labels set by hand are read as names.
func recorded(n *v1.Node, annotation, label string) string {
	if v := n.Annotations[annotation]; v != "" {
		return v
	}
	return n.Labels[label]
}

// CPUs returns the CPU definitions of nodes. A node without a recorded
// model fails the whole call with OPERATION_FAILED naming every such node,
// unless skipUnlabeled is set, in which case those nodes are logged and
// left out.
func CPUs(nodes []*v1.Node, skipUnlabeled bool) ([]*cpu.Definition, error) {
	defs := make([]*cpu.Definition, 0, len(nodes))
	var unlabeled []string
	for _, n := range nodes {
		if def := CPU(n); def != nil {
			defs = append(defs, def)
			continue
		}
		unlabeled = append(unlabeled, n.Name)
	}

	if len(unlabeled) == 0 {
		return defs, nil
	}
	if !skipUnlabeled {
		return nil, cpuerrors.NewWithContext(cpuerrors.ErrCodeOperationFailed,
			"nodes without a recorded CPU model: "+strings.Join(unlabeled, ", "),
			map[string]any{"nodes": unlabeled, "label": LabelModel})
	}
	for _, name := range unlabeled {
		slog.Warn("skipping node without a recorded CPU model", "node", name)
	}
	return defs, nil
}

// LabelValue turns a model or vendor name into a valid label value.
// Characters a label value cannot hold become '-', except '+' which
// becomes "-plus", so POWER7+ is labeled POWER7-plus.
func LabelValue(name string) (string, error) {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '+':
			b.WriteString("-plus")
		case r == '-' || r == '_' || r == '.' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}

	value := strings.Trim(b.String(), "-_.")
	if len(value) > validation.LabelValueMaxLength {
		value = strings.TrimRight(value[:validation.LabelValueMaxLength], "-_.")
	}
	if value == "" {
		return "", cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest, "%q has no valid label value", name)
	}
	if errs := validation.IsValidLabelValue(value); len(errs) > 0 {
		return "", cpuerrors.NewWithContext(cpuerrors.ErrCodeInvalidRequest,
			"invalid label value for "+name, map[string]any{"value": value, "errors": errs})
	}
	return value, nil
}

// Label records def's model and vendor on node name, verbatim as
// annotations and as LabelValue labels. An empty vendor removes both
// vendor keys.
func Label(ctx context.Context, c client.Interface, name string, def *cpu.Definition) error {
	if def == nil || def.Model == "" {
		return cpuerrors.New(cpuerrors.ErrCodeInvalidRequest, "a CPU model is required to label a node")
	}

	modelLabel, err := LabelValue(def.Model)
	if err != nil {
		return err
	}
	labels := map[string]any{LabelModel: modelLabel, LabelVendor: nil}
	annotations := map[string]any{AnnotationModel: def.Model, AnnotationVendor: nil}
	if def.Vendor != "" {
		vendorLabel, err := LabelValue(def.Vendor)
		if err != nil {
			return err
		}
		labels[LabelVendor] = vendorLabel
		annotations[AnnotationVendor] = def.Vendor
	}

	patch, err := json.Marshal(map[string]any{
		"metadata": map[string]any{"labels": labels, "annotations": annotations},
	})
	if err != nil {
		return cpuerrors.Wrap(cpuerrors.ErrCodeInternal, "failed to build node patch", err)
	}

	patchCtx, cancel := context.WithTimeout(ctx, defaults.K8sNodePatchTimeout)
	defer cancel()

	if _, err := c.CoreV1().Nodes().Patch(patchCtx, name, types.StrategicMergePatchType, patch, metav1.PatchOptions{}); err != nil {
		return cpuerrors.WrapWithContext(cpuerrors.ErrCodeUnavailable, "failed to label node", err,
			map[string]any{"node": name})
	}

	slog.Info("labeled node", "node", name, "model", def.Model, "vendor", def.Vendor)
	return nil
}

// CurrentName returns the name of the node this process runs on, taken
// from NODE_NAME (set through the Downward API) or KUBERNETES_NODE_NAME.
func CurrentName() string {
	if name := os.Getenv("NODE_NAME"); name != "" {
		return name
	}
	return os.Getenv("KUBERNETES_NODE_NAME")
}
