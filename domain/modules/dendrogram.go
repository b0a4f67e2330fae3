package modules

// DendrogramNode is one merge record in the clustering tree. Leaves have
// Left == Right == -1 and Height 0; internal nodes reference arena indices of
// their children. The arena layout allows traversal without back-pointers.
type DendrogramNode struct {
	Left   int // arena index of left child, -1 for leaf
	Right  int // arena index of right child, -1 for leaf
	Leaf   int // gene index for leaves, -1 for internal nodes
	Height float64
	Size   int // number of leaves under this node
}

// Dendrogram is an arena of merge nodes. The first GeneCount entries are
// leaves in gene order; every merge appends one node. The last node is the
// root when clustering ran to completion.
type Dendrogram struct {
	Nodes []DendrogramNode
}

// LeafCount returns the number of leaf nodes.
func (d *Dendrogram) LeafCount() int {
	n := 0
	for _, node := range d.Nodes {
		if node.Leaf >= 0 {
			n++
		}
	}
	return n
}

// Root returns the index of the final merge node, or -1 for an empty tree.
func (d *Dendrogram) Root() int {
	if len(d.Nodes) == 0 {
		return -1
	}
	return len(d.Nodes) - 1
}

// LeavesUnder collects the gene indices beneath arena node idx.
func (d *Dendrogram) LeavesUnder(idx int) []int {
	var out []int
	var walk func(int)
	walk = func(i int) {
		n := d.Nodes[i]
		if n.Leaf >= 0 {
			out = append(out, n.Leaf)
			return
		}
		walk(n.Left)
		walk(n.Right)
	}
	walk(idx)
	return out
}
