// Package graph models the pre-partitioned computation graph handed to the
// execution engine: a DAG of named, device-bound functions rooted at a
// sentinel node. The engine treats each node as opaque work; this package only
// carries the structure, symbol tables, and device assignments produced by
// the partitioner.
package graph

import "sync/atomic"

// DeviceID identifies one device manager registered with the executor.
type DeviceID int

// Node is a single vertex in the computation graph, representing one
// device-executable function plus its parent/child relationships.
type Node struct {
	// Name is the function's name, unique within a run.
	Name string
	// Children are the nodes that consume this node's outputs.
	Children []*Node
	// Parents are the nodes whose outputs this node consumes. The engine
	// uses only the count of parents.
	Parents []*Node
	// Bundle carries the symbol table produced by compilation.
	Bundle *Bundle

	// devices lists the device replicas this node may run on.
	devices []DeviceID
	// deviceCursor round-robins across devices, one step per execution.
	deviceCursor atomic.Uint64
}

// NewNode creates a node with the given name, bundle, and device assignment.
// At least one device must be assigned.
func NewNode(name string, bundle *Bundle, devices ...DeviceID) *Node {
	if len(devices) == 0 {
		panic("graph: node created with no device assignment")
	}
	return &Node{
		Name:    name,
		Bundle:  bundle,
		devices: devices,
	}
}

// NewRoot creates the root sentinel for a run. The sentinel itself is never
// executed; only its children are scheduled. The children's parent lists are
// left untouched so they start with zero unmet parents.
func NewRoot(children ...*Node) *Node {
	return &Node{Name: "root", Children: children}
}

// AddChild wires child under n: the child is appended to n's children and n
// to the child's parents.
func AddChild(parent, child *Node) {
	parent.Children = append(parent.Children, child)
	child.Parents = append(child.Parents, parent)
}

// NextDevice returns the device the next execution of this node should run
// on, advancing the round-robin cursor. The engine calls this exactly once
// per node execution.
func (n *Node) NextDevice() DeviceID {
	i := n.deviceCursor.Add(1) - 1
	return n.devices[int(i%uint64(len(n.devices)))]
}
