// Package graph represents batched graph samples derived from 1-D profiles:
// one node per spatial position, node features from the input variables, and
// targets from the output variables. It also provides the loader that feeds
// the training loop and the reshaper that restores per-sample tensors from
// batch-concatenated node features.
package graph

// Device tags where a tensor's data lives. Placement is selected once at
// startup and threaded explicitly through constructors and call sites; there
// is no process-wide device singleton. All tensors participating in one
// operation must share a device.
type Device string

// CPU is the only device this build computes on; the tag exists so placement
// mismatches fail loudly instead of silently computing on the wrong data.
const CPU Device = "cpu"

// String returns the device tag.
func (d Device) String() string {
	return string(d)
}
