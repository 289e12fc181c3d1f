// Package cpu defines the CPU descriptions, hardware data and comparison
// results exchanged between a virtualization control plane and the
// per-architecture CPU drivers.
//
// A Definition names a CPU model together with its architecture, vendor,
// mode, match policy and type. Data carries the raw Processor Version
// Register of a host. Drivers implement the Driver interface and return a
// Comparison from Compare and Compute:
//
//	c := drv.Compute(ctx, host, guest, true)
//	switch c.Result {
//	case cpu.ResultIdentical:
//	    use(c.Data)
//	case cpu.ResultIncompatible:
//	    slog.Info("guest does not fit", "reason", c.Message)
//	case cpu.ResultError:
//	    return c.Err
//	}
//
// An AllowList restricts Decode to models the hypervisor accepts; nil or
// empty means unrestricted.
package cpu
