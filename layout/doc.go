// Package layout derives root binding layouts from program reflection.
//
// Bindings are bucketed by register space and descriptor kind (CBV, SRV,
// UAV, Sampler). Within a bucket, registers that touch or overlap are
// merged into ranges. Each constant buffer register becomes a root
// descriptor costing 2 DWORDs and every other range becomes a descriptor
// table costing 1; the total must stay within the budget (64 by default).
//
// NativeCache turns layouts into bind group layouts and pipeline layouts
// on a gpucore.Device, sharing them between programs whose layouts are
// identical. Programs that bind nothing all share the Empty layout.
package layout
