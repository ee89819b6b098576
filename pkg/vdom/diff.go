package vdom

import "fmt"

// PatchOp represents the type of patch operation
type PatchOp uint8

const (
	// OpText replaces text node content
	OpText PatchOp = 0x01
	// OpSetAttr sets or replaces an attribute
	OpSetAttr PatchOp = 0x02
	// OpRemoveAttr removes an attribute
	OpRemoveAttr PatchOp = 0x03
	// OpRemove removes a node
	OpRemove PatchOp = 0x04
	// OpInsert inserts a new subtree
	OpInsert PatchOp = 0x05
	// OpMove moves a node to a new position among its siblings
	OpMove PatchOp = 0x06
	// OpEvents refreshes a node's event handlers
	OpEvents PatchOp = 0x07
)

// Patch represents a single mutation of the rendered tree
type Patch struct {
	Op       PatchOp
	NodeID   uint32
	ParentID uint32 // insert/move target
	BeforeID uint32 // insert/move position, 0 means append
	Key      string // attribute key
	Value    string // text content or attribute value
	Node     *VNode // subtree for inserts, handler source for event updates
}

// String returns a human-readable representation of the patch
func (p Patch) String() string {
	switch p.Op {
	case OpText:
		return fmt.Sprintf("Text(node=%d, %q)", p.NodeID, p.Value)
	case OpSetAttr:
		return fmt.Sprintf("SetAttr(node=%d, %s=%q)", p.NodeID, p.Key, p.Value)
	case OpRemoveAttr:
		return fmt.Sprintf("RemoveAttr(node=%d, %s)", p.NodeID, p.Key)
	case OpRemove:
		return fmt.Sprintf("Remove(node=%d)", p.NodeID)
	case OpInsert:
		return fmt.Sprintf("Insert(node=%d, parent=%d, before=%d)", p.NodeID, p.ParentID, p.BeforeID)
	case OpMove:
		return fmt.Sprintf("Move(node=%d, parent=%d, before=%d)", p.NodeID, p.ParentID, p.BeforeID)
	case OpEvents:
		return fmt.Sprintf("Events(node=%d)", p.NodeID)
	default:
		return fmt.Sprintf("Unknown(op=%d)", p.Op)
	}
}

type diffContext struct {
	patches []Patch
	nextID  uint32
	nodeIDs map[*VNode]uint32
}

func (ctx *diffContext) id(node *VNode) uint32 {
	if node == nil {
		return 0
	}
	if id, ok := ctx.nodeIDs[node]; ok {
		return id
	}
	id := ctx.nextID
	ctx.nextID++
	ctx.nodeIDs[node] = id
	return id
}

func (ctx *diffContext) add(p Patch) {
	ctx.patches = append(ctx.patches, p)
}

// Diff computes the patches needed to transform prev into next
func Diff(prev, next *VNode) []Patch {
	ctx := &diffContext{
		patches: make([]Patch, 0, 8),
		nextID:  1,
		nodeIDs: make(map[*VNode]uint32),
	}
	ctx.diffNode(prev, next, 0)
	return ctx.patches
}

func (ctx *diffContext) diffNode(prev, next *VNode, parentID uint32) {
	switch {
	case prev == nil && next == nil:
		return

	case next == nil:
		ctx.add(Patch{Op: OpRemove, NodeID: ctx.id(prev)})
		return

	case prev == nil:
		ctx.add(Patch{Op: OpInsert, NodeID: ctx.id(next), ParentID: parentID, Node: next})
		return
	}

	// Different kinds or tags: replace the whole subtree.
	if prev.Kind != next.Kind || (prev.Kind == KindElement && prev.Tag != next.Tag) {
		ctx.add(Patch{Op: OpRemove, NodeID: ctx.id(prev)})
		ctx.add(Patch{Op: OpInsert, NodeID: ctx.id(next), ParentID: parentID, Node: next})
		return
	}

	nodeID := ctx.id(prev)
	ctx.nodeIDs[next] = nodeID

	switch prev.Kind {
	case KindText:
		if prev.Text != next.Text {
			ctx.add(Patch{Op: OpText, NodeID: nodeID, Value: next.Text})
		}

	case KindElement:
		ctx.diffProps(nodeID, prev.Props, next.Props, next)
		ctx.diffKids(nodeID, prev.Kids, next.Kids)

	case KindFragment:
		ctx.diffKids(nodeID, prev.Kids, next.Kids)

	case KindPortal:
		if prev.PortalTarget != next.PortalTarget {
			ctx.add(Patch{Op: OpRemove, NodeID: nodeID})
			ctx.add(Patch{Op: OpInsert, NodeID: ctx.id(next), ParentID: parentID, Node: next})
			return
		}
		ctx.diffKids(nodeID, prev.Kids, next.Kids)
	}
}

func (ctx *diffContext) diffProps(nodeID uint32, prev, next Props, nextNode *VNode) {
	eventsChanged := false

	for key, prevVal := range prev {
		if key == "key" || key == "ref" {
			continue
		}
		if IsEventProp(key) {
			if _, stillThere := next[key]; !stillThere {
				eventsChanged = true
			}
			continue
		}
		nextVal, exists := next[key]
		if !exists {
			ctx.add(Patch{Op: OpRemoveAttr, NodeID: nodeID, Key: key})
		} else if propString(prevVal) != propString(nextVal) {
			ctx.add(Patch{Op: OpSetAttr, NodeID: nodeID, Key: key, Value: propString(nextVal)})
		}
	}

	for key, nextVal := range next {
		if key == "key" || key == "ref" {
			continue
		}
		if IsEventProp(key) {
			// Handler functions are not comparable; any present handler is
			// re-bound on each diff that touches events.
			if _, existed := prev[key]; !existed {
				eventsChanged = true
			}
			continue
		}
		if _, exists := prev[key]; !exists {
			ctx.add(Patch{Op: OpSetAttr, NodeID: nodeID, Key: key, Value: propString(nextVal)})
		}
	}

	if eventsChanged {
		ctx.add(Patch{Op: OpEvents, NodeID: nodeID, Node: nextNode})
	}
}

func (ctx *diffContext) diffKids(parentID uint32, prev, next []VNode) {
	if len(prev) == 0 && len(next) == 0 {
		return
	}

	hasKeys := false
	for i := range next {
		if next[i].GetKey() != "" {
			hasKeys = true
			break
		}
	}
	if hasKeys {
		ctx.diffKeyedKids(parentID, prev, next)
		return
	}

	min := len(prev)
	if len(next) < min {
		min = len(next)
	}
	for i := 0; i < min; i++ {
		ctx.diffNode(&prev[i], &next[i], parentID)
	}
	for i := min; i < len(prev); i++ {
		ctx.diffNode(&prev[i], nil, parentID)
	}
	for i := min; i < len(next); i++ {
		ctx.diffNode(nil, &next[i], parentID)
	}
}

func (ctx *diffContext) diffKeyedKids(parentID uint32, prev, next []VNode) {
	prevByKey := make(map[string]int, len(prev))
	for i := range prev {
		if key := prev[i].GetKey(); key != "" {
			prevByKey[key] = i
		}
	}

	matched := make([]bool, len(prev))
	type move struct {
		nodeID   uint32
		newIndex int
	}
	var moves []move

	for nextIdx := range next {
		key := next[nextIdx].GetKey()
		if key != "" {
			if prevIdx, found := prevByKey[key]; found {
				matched[prevIdx] = true
				nodeID := ctx.id(&prev[prevIdx])
				ctx.diffNode(&prev[prevIdx], &next[nextIdx], parentID)
				if prevIdx != nextIdx {
					moves = append(moves, move{nodeID: nodeID, newIndex: nextIdx})
				}
				continue
			}
			ctx.diffNode(nil, &next[nextIdx], parentID)
			continue
		}
		// Unkeyed child among keyed siblings: match by position.
		if nextIdx < len(prev) && prev[nextIdx].GetKey() == "" && !matched[nextIdx] {
			matched[nextIdx] = true
			ctx.diffNode(&prev[nextIdx], &next[nextIdx], parentID)
		} else {
			ctx.diffNode(nil, &next[nextIdx], parentID)
		}
	}

	for i, wasMatched := range matched {
		if !wasMatched {
			ctx.diffNode(&prev[i], nil, parentID)
		}
	}

	for _, m := range moves {
		var beforeID uint32
		if m.newIndex+1 < len(next) {
			beforeID = ctx.id(&next[m.newIndex+1])
		}
		ctx.add(Patch{Op: OpMove, NodeID: m.nodeID, ParentID: parentID, BeforeID: beforeID})
	}
}

func propString(v any) string {
	return fmt.Sprintf("%v", v)
}
