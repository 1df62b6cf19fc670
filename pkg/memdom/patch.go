package memdom

import "fmt"

// PatchOp is the type of recorded tree operation.
type PatchOp uint8

const (
	PatchSetText        PatchOp = 0x01 // Update text content
	PatchSetAttr        PatchOp = 0x02 // Set/update attribute
	PatchRemoveAttr     PatchOp = 0x03 // Remove attribute
	PatchInsertNode     PatchOp = 0x04 // Insert new node (HTML carries the subtree)
	PatchRemoveNode     PatchOp = 0x05 // Remove node
	PatchMoveNode       PatchOp = 0x06 // Move node to new position
	PatchSetProp        PatchOp = 0x07 // Set property
	PatchAddListener    PatchOp = 0x08 // Attach event listener
	PatchRemoveListener PatchOp = 0x09 // Detach event listener
)

// String returns the string representation of the PatchOp.
func (op PatchOp) String() string {
	switch op {
	case PatchSetText:
		return "SetText"
	case PatchSetAttr:
		return "SetAttr"
	case PatchRemoveAttr:
		return "RemoveAttr"
	case PatchInsertNode:
		return "InsertNode"
	case PatchRemoveNode:
		return "RemoveNode"
	case PatchMoveNode:
		return "MoveNode"
	case PatchSetProp:
		return "SetProp"
	case PatchAddListener:
		return "AddListener"
	case PatchRemoveListener:
		return "RemoveListener"
	default:
		return "Unknown"
	}
}

// Patch is a single recorded tree operation, targeting nodes by id. Patches
// are the wire unit live sessions stream to a thin client.
type Patch struct {
	Op     PatchOp `json:"op"`
	Node   uint64  `json:"node"`
	Parent uint64  `json:"parent,omitempty"`
	Ref    uint64  `json:"ref,omitempty"` // Insert/move before this sibling; 0 appends
	Name   string  `json:"name,omitempty"`
	Value  string  `json:"value,omitempty"`
	HTML   string  `json:"html,omitempty"`
}

// String returns a compact human-readable form for logs.
func (p Patch) String() string {
	switch p.Op {
	case PatchSetText:
		return fmt.Sprintf("SetText(%d, %q)", p.Node, p.Value)
	case PatchSetAttr:
		return fmt.Sprintf("SetAttr(%d, %s=%q)", p.Node, p.Name, p.Value)
	case PatchRemoveAttr:
		return fmt.Sprintf("RemoveAttr(%d, %s)", p.Node, p.Name)
	case PatchInsertNode:
		return fmt.Sprintf("InsertNode(%d -> %d before %d)", p.Node, p.Parent, p.Ref)
	case PatchRemoveNode:
		return fmt.Sprintf("RemoveNode(%d)", p.Node)
	case PatchMoveNode:
		return fmt.Sprintf("MoveNode(%d -> %d before %d)", p.Node, p.Parent, p.Ref)
	case PatchSetProp:
		return fmt.Sprintf("SetProp(%d, %s=%s)", p.Node, p.Name, p.Value)
	case PatchAddListener:
		return fmt.Sprintf("AddListener(%d, %s)", p.Node, p.Name)
	case PatchRemoveListener:
		return fmt.Sprintf("RemoveListener(%d, %s)", p.Node, p.Name)
	default:
		return fmt.Sprintf("Unknown(%d)", p.Node)
	}
}

// TakePatches drains and returns the recorded patches in order.
func (d *Document) TakePatches() []Patch {
	ps := d.patches
	d.patches = nil
	return ps
}

// PendingPatches returns the number of recorded, undrained patches.
func (d *Document) PendingPatches() int {
	return len(d.patches)
}

func stringifyProp(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
