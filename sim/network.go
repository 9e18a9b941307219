package sim

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

var (
	// ErrMissingRoute is returned when a reachable (node, class) has no routing entry.
	ErrMissingRoute = errors.New("missing routing entry")
	// ErrMissingService is returned when a reachable (node, class) has no service mean.
	ErrMissingService = errors.New("missing service mean")
	// ErrUnknownNode is returned when routing names a node that does not exist.
	ErrUnknownNode = errors.New("unknown node")
	// ErrNoExit is returned when a reachable (node, class) can never leave the network.
	ErrNoExit = errors.New("no path to exit")
)

// Key is a typed (node, class) routing state.
type Key struct {
	Node  NodeID  `yaml:"node"`
	Class ClassID `yaml:"class"`
}

func (k Key) String() string { return fmt.Sprintf("(%s,%d)", k.Node, k.Class) }

// Route is the outcome of a routing decision: the next state, or exit.
type Route struct {
	To   Key
	Exit bool
}

func (r Route) String() string {
	if r.Exit {
		return "EXIT"
	}
	return r.To.String()
}

type arc struct {
	route Route
	cdf   float64
}

// Network is the set of nodes plus the class-routing table.
type Network struct {
	nodes  map[NodeID]*Node
	names  []NodeID
	routes map[Key][]arc
	entry  Key
}

// NewNetwork builds the nodes and routing table from a validated config and
// checks, over every (node, class) reachable from the entry, that a route and
// a service mean exist and that the network can be left.
func NewNetwork(cfg *Config, sched *Scheduler) (*Network, error) {
	net := &Network{
		nodes:  make(map[NodeID]*Node, len(cfg.Nodes)),
		routes: make(map[Key][]arc, len(cfg.Routing)),
		entry:  cfg.Entry,
	}
	for name, nc := range cfg.Nodes {
		net.nodes[name] = newNode(name, nc, sched)
		net.names = append(net.names, name)
	}
	sort.Slice(net.names, func(i, j int) bool { return net.names[i] < net.names[j] })

	for _, rc := range cfg.Routing {
		if _, ok := net.nodes[rc.From.Node]; !ok {
			return nil, fmt.Errorf("routing from %s: %w", rc.From, ErrUnknownNode)
		}
		arcs, err := buildArcs(rc)
		if err != nil {
			return nil, err
		}
		for _, a := range arcs {
			if a.route.Exit {
				continue
			}
			if _, ok := net.nodes[a.route.To.Node]; !ok {
				return nil, fmt.Errorf("routing %s -> %s: %w", rc.From, a.route.To, ErrUnknownNode)
			}
		}
		net.routes[rc.From] = arcs
	}
	if _, ok := net.nodes[cfg.Entry.Node]; !ok {
		return nil, fmt.Errorf("entry %s: %w", cfg.Entry, ErrUnknownNode)
	}
	if err := net.checkReachable(); err != nil {
		return nil, err
	}
	logrus.Infof("Network built: %d nodes, %d routing entries, entry %s", len(net.nodes), len(net.routes), net.entry)
	return net, nil
}

func buildArcs(rc RouteConfig) ([]arc, error) {
	switch {
	case rc.Exit:
		return []arc{{route: Route{Exit: true}, cdf: 1}}, nil
	case rc.To != nil:
		return []arc{{route: Route{To: *rc.To}, cdf: 1}}, nil
	case len(rc.Arcs) > 0:
		arcs := make([]arc, len(rc.Arcs))
		var cum float64
		for i, ac := range rc.Arcs {
			cum += ac.P
			arcs[i] = arc{cdf: cum}
			if ac.Exit {
				arcs[i].route = Route{Exit: true}
			} else {
				arcs[i].route = Route{To: Key{Node: ac.Node, Class: ac.Class}}
			}
		}
		arcs[len(arcs)-1].cdf = 1
		return arcs, nil
	}
	return nil, fmt.Errorf("routing from %s has no destination: %w", rc.From, ErrMissingRoute)
}

// reversed exposes the predecessors of a directed graph as successors.
type reversed struct {
	g *simple.DirectedGraph
}

func (r reversed) From(id int64) graph.Nodes { return r.g.To(id) }
func (r reversed) Edge(uid, vid int64) graph.Edge { return r.g.Edge(vid, uid) }

// checkReachable walks the (node, class) state graph from the entry.
func (net *Network) checkReachable() error {
	ids := map[Key]int64{}
	var states []Key
	id := func(k Key) int64 {
		if v, ok := ids[k]; ok {
			return v
		}
		v := int64(len(states) + 1)
		ids[k] = v
		states = append(states, k)
		return v
	}
	const exitID = 0

	g := simple.NewDirectedGraph()
	g.AddNode(simple.Node(exitID))
	g.AddNode(simple.Node(id(net.entry)))
	for _, from := range net.sortedRouteKeys() {
		u := id(from)
		if g.Node(u) == nil {
			g.AddNode(simple.Node(u))
		}
		for _, a := range net.routes[from] {
			v := int64(exitID)
			if !a.route.Exit {
				v = id(a.route.To)
				if g.Node(v) == nil {
					g.AddNode(simple.Node(v))
				}
			}
			if u == v {
				continue
			}
			g.SetEdge(g.NewEdge(simple.Node(u), simple.Node(v)))
		}
	}

	var forward traverse.BreadthFirst
	forward.Walk(g, simple.Node(ids[net.entry]), nil)
	var backward traverse.BreadthFirst
	backward.Walk(reversed{g}, simple.Node(exitID), nil)

	var reachable []Key
	for _, k := range states {
		if k != net.entry && !forward.Visited(simple.Node(ids[k])) {
			if _, ok := net.routes[k]; ok {
				logrus.Warnf("Routing entry %s is unreachable from entry %s", k, net.entry)
			}
			continue
		}
		if _, ok := net.routes[k]; !ok {
			return fmt.Errorf("state %s: %w", k, ErrMissingRoute)
		}
		if _, ok := net.nodes[k.Node].ServiceMean(k.Class); !ok {
			return fmt.Errorf("state %s: %w", k, ErrMissingService)
		}
		reachable = append(reachable, k)
	}
	for _, k := range reachable {
		if !backward.Visited(simple.Node(ids[k])) {
			return fmt.Errorf("state %s: %w", k, ErrNoExit)
		}
	}
	return nil
}

func (net *Network) sortedRouteKeys() []Key {
	keys := make([]Key, 0, len(net.routes))
	for k := range net.routes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Node != keys[j].Node {
			return keys[i].Node < keys[j].Node
		}
		return keys[i].Class < keys[j].Class
	})
	return keys
}

// Entry returns the state external arrivals enter.
func (net *Network) Entry() Key { return net.entry }

// Node returns the named node.
func (net *Network) Node(name NodeID) (*Node, bool) {
	n, ok := net.nodes[name]
	return n, ok
}

// Nodes returns the node names in sorted order.
func (net *Network) Nodes() []NodeID { return net.names }

// Probabilistic reports whether the routing entry for from has several arcs.
func (net *Network) Probabilistic(from Key) bool { return len(net.routes[from]) > 1 }

// Next decides where a job of class leaving node goes. draw is consulted
// once, and only when the entry has more than one arc.
func (net *Network) Next(from Key, draw func() float64) (Route, error) {
	arcs, ok := net.routes[from]
	if !ok {
		return Route{}, fmt.Errorf("state %s: %w", from, ErrMissingRoute)
	}
	if len(arcs) == 1 {
		return arcs[0].route, nil
	}
	u := draw()
	for _, a := range arcs {
		if u < a.cdf {
			return a.route, nil
		}
	}
	return arcs[len(arcs)-1].route, nil
}
