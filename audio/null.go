package audio

import "sync"

// Stats is a snapshot of a NullEngine graph.
type Stats struct {
	Nodes   int
	Edges   int
	Started int
	Decoded int
}

// NullEngine builds the node graph without producing sound. Decoding
// goes through DecodeWAV, so a module that loads unsupported files still
// sees the failure.
type NullEngine struct {
	nodes   map[NodeRef]string
	edges   map[[2]NodeRef]struct{}
	next    NodeRef
	dest    NodeRef
	started int
	decoded int
	mu      sync.Mutex
}

// NewNullEngine creates a silent engine with a destination node.
func NewNullEngine() *NullEngine {
	e := &NullEngine{
		nodes: make(map[NodeRef]string),
		edges: make(map[[2]NodeRef]struct{}),
	}
	e.dest = e.add("destination")
	return e
}

func (e *NullEngine) add(kind string) NodeRef {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.next++
	e.nodes[e.next] = kind
	return e.next
}

func (e *NullEngine) Decode(data []byte) (*Buffer, error) {
	buf, err := DecodeWAV(data)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.decoded++
	e.mu.Unlock()
	return buf, nil
}

func (e *NullEngine) Gain(float32) NodeRef         { return e.add("gain") }
func (e *NullEngine) BufferSource(*Buffer) NodeRef { return e.add("source") }
func (e *NullEngine) Delay(float32) NodeRef        { return e.add("delay") }
func (e *NullEngine) Destination() NodeRef         { return e.dest }

func (e *NullEngine) Biquad(BiquadKind, float32, float32, float32) NodeRef {
	return e.add("biquad")
}

func (e *NullEngine) Connect(from, to NodeRef) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.edges[[2]NodeRef{from, to}] = struct{}{}
}

func (e *NullEngine) Disconnect(from, to NodeRef) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.edges, [2]NodeRef{from, to})
}

func (e *NullEngine) Start(NodeRef) {
	e.mu.Lock()
	e.started++
	e.mu.Unlock()
}

// Release drops n and every edge touching it.
func (e *NullEngine) Release(n NodeRef) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n == e.dest {
		return
	}
	delete(e.nodes, n)
	for edge := range e.edges {
		if edge[0] == n || edge[1] == n {
			delete(e.edges, edge)
		}
	}
}

// Connected reports whether an edge from -> to exists.
func (e *NullEngine) Connected(from, to NodeRef) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.edges[[2]NodeRef{from, to}]
	return ok
}

func (e *NullEngine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Nodes:   len(e.nodes) - 1,
		Edges:   len(e.edges),
		Started: e.started,
		Decoded: e.decoded,
	}
}

func (e *NullEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nodes = map[NodeRef]string{e.dest: "destination"}
	e.edges = make(map[[2]NodeRef]struct{})
	return nil
}

var _ Engine = (*NullEngine)(nil)
