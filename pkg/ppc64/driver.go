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

package ppc64

import (
	"context"

	"github.com/NVIDIA/cpumap/pkg/cpu"
	"github.com/NVIDIA/cpumap/pkg/cpumap"
	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
)

const driverName = "ppc64"

var arches = []cpu.Arch{cpu.ArchPPC64, cpu.ArchPPC64LE}

// Driver implements cpu.Driver for the 64-bit POWER family.
//
// Every operation that needs the CPU map loads it from the source, uses it
// and drops it before returning. Nothing is cached between calls, so a
// Driver is safe for concurrent use as long as its source is.
type Driver struct {
	source   cpumap.Source
	procRoot string
}

var _ cpu.Driver = (*Driver)(nil)

// Option is a functional option for configuring Driver instances.
type Option func(*Driver)

// WithSource sets the CPU map source. Defaults to the embedded map.
func WithSource(src cpumap.Source) Option {
	return func(d *Driver) {
		if src != nil {
			d.source = src
		}
	}
}

// WithProcRoot sets the procfs mount used by NodeData. Defaults to /proc.
func WithProcRoot(root string) Option {
	return func(d *Driver) {
		d.procRoot = root
	}
}

// New creates a Driver with the provided options.
func New(opts ...Option) *Driver {
	d := &Driver{procRoot: defaultProcRoot}
	for _, opt := range opts {
		opt(d)
	}
	if d.source == nil {
		d.source = cpumap.Embedded()
	}
	return d
}

// Name implements cpu.Driver.
func (d *Driver) Name() string {
	return driverName
}

// Arches implements cpu.Driver.
func (d *Driver) Arches() []cpu.Arch {
	return append([]cpu.Arch(nil), arches...)
}

// Compare reports whether cpu names the host's model. It never loads the
// CPU map and ignores vendors.
func (d *Driver) Compare(host, guest *cpu.Definition, failIncompatible bool) cpu.Comparison {
	if host == nil || guest == nil {
		return cpu.Failed(cpuerrors.New(cpuerrors.ErrCodeInvalidRequest, "host and cpu definitions are required"))
	}

	if (guest.Arch == cpu.ArchNone || host.Arch == guest.Arch) && host.Model == guest.Model {
		observe("compare", string(cpu.ResultIdentical))
		return cpu.Identical(nil)
	}

	if failIncompatible {
		observe("compare", string(cpu.ResultError))
		return cpu.Failed(cpuerrors.New(cpuerrors.ErrCodeIncompatible, "the CPU is incompatible with host CPU"))
	}
	observe("compare", string(cpu.ResultIncompatible))
	return cpu.Comparison{Result: cpu.ResultIncompatible}
}

// Compute checks guest against host using the CPU map. When wantData is
// set and the result is identical, the comparison carries the hardware
// data of guest's model.
func (d *Driver) Compute(ctx context.Context, host, guest *cpu.Definition, wantData bool) cpu.Comparison {
	c := d.compute(ctx, host, guest, wantData)
	observe("compute", string(c.Result))
	return c
}

func (d *Driver) compute(ctx context.Context, host, guest *cpu.Definition, wantData bool) cpu.Comparison {
	if host == nil || guest == nil {
		return cpu.Failed(cpuerrors.New(cpuerrors.ErrCodeInvalidRequest, "host and cpu definitions are required"))
	}

	arch := host.Arch
	if guest.Arch != cpu.ArchNone {
		if !cpu.Supports(d, guest.Arch) {
			return cpu.Incompatible("CPU arch " + guest.Arch.String() + " does not match host arch")
		}
		arch = guest.Arch
	}

	if guest.Vendor != "" && (host.Vendor == "" || host.Vendor != guest.Vendor) {
		return cpu.Incompatible("host CPU vendor does not match required CPU vendor " + guest.Vendor)
	}

	m, err := loadMap(ctx, d.source)
	if err != nil {
		return cpu.Failed(err)
	}

	hostModel, err := m.modelByName(host.Model)
	if err != nil {
		return cpu.Failed(err)
	}
	guestModel, err := m.modelByName(guest.Model)
	if err != nil {
		return cpu.Failed(err)
	}

	if !wantData {
		return cpu.Identical(nil)
	}

	if guest.Type == cpu.TypeGuest &&
		guest.Match == cpu.MatchStrict &&
		guestModel.name != hostModel.name {
		return cpu.Incompatible("host CPU model does not match required CPU model " + guestModel.name)
	}

	return cpu.Identical(&cpu.Data{Arch: arch, PVR: guestModel.pvr})
}

// GuestData is Compute with the guest's hardware data requested.
func (d *Driver) GuestData(ctx context.Context, host, guest *cpu.Definition) cpu.Comparison {
	return d.Compute(ctx, host, guest, true)
}

// Decode resolves data's PVR to a model and stores the model name, and its
// vendor when it has one, in def. Other fields of def are left alone.
// A non-empty allowed list restricts the models Decode may return.
func (d *Driver) Decode(ctx context.Context, def *cpu.Definition, data *cpu.Data, allowed *cpu.AllowList, flags cpu.Flags) error {
	err := d.decode(ctx, def, data, allowed, flags)
	observeErr("decode", err)
	return err
}

func (d *Driver) decode(ctx context.Context, def *cpu.Definition, data *cpu.Data, allowed *cpu.AllowList, flags cpu.Flags) error {
	if err := cpu.CheckFlags(flags, cpu.FlagExpandFeatures); err != nil {
		return err
	}
	if def == nil || data == nil {
		return cpuerrors.New(cpuerrors.ErrCodeInvalidRequest, "cpu definition and data are required")
	}

	m, err := loadMap(ctx, d.source)
	if err != nil {
		return err
	}

	mod, err := m.modelByPVR(data.PVR)
	if err != nil {
		return cpuerrors.NewWithContext(cpuerrors.ErrCodeNoModelForIdentifier,
			"Cannot find CPU model with PVR "+data.PVR.String(),
			map[string]any{"pvr": data.PVR.String()})
	}

	if !allowed.Allows(mod.name) {
		return cpuerrors.NewWithContext(cpuerrors.ErrCodeConfigUnsupported,
			"CPU model "+mod.name+" is not supported by hypervisor",
			map[string]any{"model": mod.name, "allowed": allowed.Models()})
	}

	def.Model = mod.name
	if v := m.vendorName(mod); v != "" {
		def.Vendor = v
	}
	return nil
}

// Baseline computes the guest CPU every CPU in cpus can run. All entries
// must name the same model; vendors, where given, must agree with each
// other and with the model's own vendor. The result carries a vendor only
// when some entry named one. allowed is not consulted.
func (d *Driver) Baseline(ctx context.Context, cpus []*cpu.Definition, allowed *cpu.AllowList, flags cpu.Flags) (*cpu.Definition, error) {
	def, err := d.baseline(ctx, cpus, flags)
	observeErr("baseline", err)
	return def, err
}

func (d *Driver) baseline(ctx context.Context, cpus []*cpu.Definition, flags cpu.Flags) (*cpu.Definition, error) {
	if err := cpu.CheckFlags(flags, cpu.FlagExpandFeatures|cpu.FlagMigratable); err != nil {
		return nil, err
	}
	if len(cpus) == 0 {
		return nil, cpuerrors.New(cpuerrors.ErrCodeInvalidRequest, "nothing to baseline: no CPUs given")
	}
	for i, c := range cpus {
		if c == nil {
			return nil, cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest, "CPU definition %d is nil", i)
		}
	}

	m, err := loadMap(ctx, d.source)
	if err != nil {
		return nil, err
	}

	ref, err := m.modelByName(cpus[0].Model)
	if err != nil {
		return nil, err
	}
	refVendor := m.vendorName(ref)

	var consensus string
	for _, c := range cpus {
		if c.Model != ref.name {
			return nil, cpuerrors.New(cpuerrors.ErrCodeOperationFailed, "CPUs are incompatible")
		}

		if c.Vendor == "" {
			continue
		}

		v, ok := m.findVendor(c.Vendor)
		if !ok {
			return nil, cpuerrors.Newf(cpuerrors.ErrCodeOperationFailed, "Unknown CPU vendor %s", c.Vendor)
		}

		switch {
		case refVendor != "":
			if v.name != refVendor {
				return nil, cpuerrors.Newf(cpuerrors.ErrCodeOperationFailed,
					"CPU vendor %s of model %s differs from vendor %s", refVendor, ref.name, v.name)
			}
			consensus = v.name
		case consensus != "":
			if v.name != consensus {
				return nil, cpuerrors.New(cpuerrors.ErrCodeOperationFailed, "CPU vendors do not match")
			}
		default:
			consensus = v.name
		}
	}

	return &cpu.Definition{
		Type:   cpu.TypeGuest,
		Match:  cpu.MatchExact,
		Model:  ref.name,
		Vendor: consensus,
	}, nil
}

// Update resolves a host-model or host-passthrough guest to a copy of the
// host's model with exact matching. Custom guests are left unchanged.
func (d *Driver) Update(guest, host *cpu.Definition) error {
	if guest == nil || host == nil {
		return cpuerrors.New(cpuerrors.ErrCodeInvalidRequest, "guest and host definitions are required")
	}

	switch guest.Mode {
	case cpu.ModeHostModel, cpu.ModeHostPassthrough:
		guest.Match = cpu.MatchExact
		guest.Model = host.Model
		guest.Vendor = host.Vendor
		return nil
	case cpu.ModeCustom, "":
		return nil
	}

	return cpuerrors.Newf(cpuerrors.ErrCodeInternal, "Unexpected CPU mode: %s", string(guest.Mode))
}

// Models lists the names of all models in the CPU map.
func (d *Driver) Models(ctx context.Context) ([]string, error) {
	m, err := loadMap(ctx, d.source)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(m.models))
	for i := range m.models {
		names = append(names, m.models[i].name)
	}
	return names, nil
}

// CountModels returns the number of models in the CPU map.
func (d *Driver) CountModels(ctx context.Context) (int, error) {
	m, err := loadMap(ctx, d.source)
	if err != nil {
		return 0, err
	}
	return len(m.models), nil
}
