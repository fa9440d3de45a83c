// Package layout implements the binary split tree that assigns rectangular
// regions of a window to its panes.
package layout

// SplitDirection is the axis a Split node divides its area along.
type SplitDirection int

const (
	Vertical SplitDirection = iota
	Horizontal
)

// Rect is a rectangular region in character cells.
type Rect struct {
	X, Y, Width, Height uint16
}

// Node is a binary tree whose leaves are panes and whose internal nodes are
// weighted splits. The zero value is not valid; use NewLeaf.
type Node struct {
	// Pane leaf fields.
	isLeaf bool
	paneID int

	// Split internal fields.
	direction            SplitDirection
	left, right          *Node
	leftWeight, rightWeight uint32
}

// NewLeaf returns a leaf node holding a single pane id.
func NewLeaf(paneID int) *Node {
	return &Node{isLeaf: true, paneID: paneID}
}

// IsLeaf reports whether n is a Pane leaf.
func (n *Node) IsLeaf() bool { return n.isLeaf }

// PaneID returns the pane id of a leaf node. Panics if n is not a leaf.
func (n *Node) PaneID() int {
	if !n.isLeaf {
		panic("layout: PaneID called on split node")
	}
	return n.paneID
}

// AddSplit finds the leaf holding targetID and replaces it in place with a
// Split whose children are Pane{targetID} (left) and Pane{newID} (right),
// equally weighted. Returns true if the target was found and split.
func (n *Node) AddSplit(targetID, newID int, direction SplitDirection) bool {
	if n.isLeaf {
		if n.paneID != targetID {
			return false
		}
		left := NewLeaf(targetID)
		right := NewLeaf(newID)
		n.isLeaf = false
		n.paneID = 0
		n.direction = direction
		n.left = left
		n.right = right
		n.leftWeight = 1
		n.rightWeight = 1
		return true
	}
	if n.left.AddSplit(targetID, newID, direction) {
		return true
	}
	return n.right.AddSplit(targetID, newID, direction)
}

// RemoveNode deletes the leaf holding id and collapses its parent Split into
// the surviving sibling. Returns the (possibly new) root, or nil if id was
// the root leaf itself (nothing left to collapse into).
func RemoveNode(root *Node, id int) *Node {
	if root.isLeaf {
		if root.paneID == id {
			return nil
		}
		return root
	}
	if removed, sibling := removeChild(root, id); removed {
		return sibling
	}
	return root
}

// removeChild searches n's children for id; if found directly under n, it
// returns (true, survivingSibling). Otherwise it recurses.
func removeChild(n *Node, id int) (bool, *Node) {
	if n.left.isLeaf && n.left.paneID == id {
		return true, n.right
	}
	if n.right.isLeaf && n.right.paneID == id {
		return true, n.left
	}
	if !n.left.isLeaf {
		if ok, sibling := removeChild(n.left, id); ok {
			n.left = sibling
			return false, nil
		}
	}
	if !n.right.isLeaf {
		if ok, sibling := removeChild(n.right, id); ok {
			n.right = sibling
			return false, nil
		}
	}
	return false, nil
}

// CalculateLayout recursively assigns a rectangle to every leaf using the
// weight ratio of each split it descends through. Splitting widths before
// heights and rounding left/top down with right/bottom absorbing the
// remainder guarantees the children's rects always sum exactly to the
// parent's, regardless of integer rounding.
func (n *Node) CalculateLayout(area Rect, out map[int]Rect) {
	if n.isLeaf {
		out[n.paneID] = area
		return
	}

	total := n.leftWeight + n.rightWeight
	switch n.direction {
	case Vertical:
		leftWidth := uint16(uint32(area.Width) * n.leftWeight / total)
		rightWidth := area.Width - leftWidth

		leftRect := area
		leftRect.Width = leftWidth

		rightRect := area
		rightRect.Width = rightWidth
		rightRect.X = area.X + leftWidth

		n.left.CalculateLayout(leftRect, out)
		n.right.CalculateLayout(rightRect, out)
	case Horizontal:
		topHeight := uint16(uint32(area.Height) * n.leftWeight / total)
		bottomHeight := area.Height - topHeight

		topRect := area
		topRect.Height = topHeight

		bottomRect := area
		bottomRect.Height = bottomHeight
		bottomRect.Y = area.Y + topHeight

		n.left.CalculateLayout(topRect, out)
		n.right.CalculateLayout(bottomRect, out)
	}
}

// Leaves returns the set of pane ids at the leaves of n, in no particular
// order.
func (n *Node) Leaves() []int {
	if n.isLeaf {
		return []int{n.paneID}
	}
	return append(n.left.Leaves(), n.right.Leaves()...)
}
