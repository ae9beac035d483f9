package graph

import "fmt"

// Validate checks a graph rooted at the given sentinel before it is handed to
// the executor: parent/child links must be consistent, names must be unique,
// and the reachable subgraph must be acyclic. The executor itself assumes a
// valid graph; callers run this once after construction.
func Validate(root *Node) error {
	if root == nil {
		return nil
	}

	nodes := collect(root)

	seen := make(map[string]*Node, len(nodes))
	for _, n := range nodes {
		if prev, ok := seen[n.Name]; ok && prev != n {
			return fmt.Errorf("duplicate node name %q", n.Name)
		}
		seen[n.Name] = n
	}

	for _, n := range nodes {
		for _, child := range n.Children {
			if !contains(child.Parents, n) && n != root {
				return fmt.Errorf("node %q lists child %q, but the child does not list it as a parent", n.Name, child.Name)
			}
		}
		for _, parent := range n.Parents {
			if !contains(parent.Children, n) {
				return fmt.Errorf("node %q lists parent %q, but the parent does not list it as a child", n.Name, parent.Name)
			}
		}
	}

	// Classic depth-first search with three sets of nodes:
	// permanent: nodes fully visited and known not to be part of a cycle.
	// temporary: nodes currently in the recursion stack.
	// unvisited: all other nodes.
	permanent := make(map[*Node]bool)
	temporary := make(map[*Node]bool)

	var visit func(n *Node) error
	visit = func(n *Node) error {
		if permanent[n] {
			return nil
		}
		if temporary[n] {
			// A node already in the recursion stack means we found a cycle.
			return fmt.Errorf("cycle detected involving node %q", n.Name)
		}

		temporary[n] = true
		for _, child := range n.Children {
			if err := visit(child); err != nil {
				return err
			}
		}
		delete(temporary, n)
		permanent[n] = true
		return nil
	}

	for _, n := range nodes {
		if !permanent[n] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}

	return nil
}

// collect returns every node reachable from root's children, excluding the
// sentinel itself.
func collect(root *Node) []*Node {
	var nodes []*Node
	visited := make(map[*Node]bool)
	queue := append([]*Node(nil), root.Children...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if visited[n] {
			continue
		}
		visited[n] = true
		nodes = append(nodes, n)
		queue = append(queue, n.Children...)
	}
	return nodes
}

func contains(nodes []*Node, target *Node) bool {
	for _, n := range nodes {
		if n == target {
			return true
		}
	}
	return false
}
