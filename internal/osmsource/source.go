// Package osmsource loads the administrative boundary relations of an OSM
// PBF extract together with the ways and nodes they reference.
package osmsource

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
)

// Dataset is the in-memory subset of an extract needed to build admins.
type Dataset struct {
	Relations []*osm.Relation
	nodes     map[osm.NodeID]*osm.Node
	ways      map[osm.WayID]*osm.Way
}

// NewDataset assembles a dataset from already decoded objects.
func NewDataset(rels []*osm.Relation, ways []*osm.Way, nodes []*osm.Node) *Dataset {
	d := &Dataset{
		Relations: rels,
		nodes:     make(map[osm.NodeID]*osm.Node, len(nodes)),
		ways:      make(map[osm.WayID]*osm.Way, len(ways)),
	}
	for _, w := range ways {
		d.ways[w.ID] = w
	}
	for _, n := range nodes {
		d.nodes[n.ID] = n
	}
	return d
}

// Node implements extractor.Source.
func (d *Dataset) Node(id osm.NodeID) (*osm.Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Way implements extractor.Source.
func (d *Dataset) Way(id osm.WayID) (*osm.Way, bool) {
	w, ok := d.ways[id]
	return w, ok
}

// Counts returns the number of relations, ways and nodes held.
func (d *Dataset) Counts() (relations, ways, nodes int) {
	return len(d.Relations), len(d.ways), len(d.nodes)
}

// Progress is called while scanning with the pass number (1 to 3) and the
// number of bytes consumed so far in that pass.
type Progress func(pass int, scanned int64)

// Load reads r three times: admin relations first, then their member ways,
// then every referenced node.
func Load(ctx context.Context, r io.ReadSeeker, procs int, progress Progress) (*Dataset, error) {
	c := newCollector()

	passes := []struct {
		skipNodes, skipWays, skipRelations bool
	}{
		{skipNodes: true, skipWays: true},
		{skipNodes: true, skipRelations: true},
		{skipWays: true, skipRelations: true},
	}

	for i, p := range passes {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("osmsource: failed to rewind input: %w", err)
		}

		scanner := osmpbf.New(ctx, r, max(procs, 1))
		scanner.SkipNodes = p.skipNodes
		scanner.SkipWays = p.skipWays
		scanner.SkipRelations = p.skipRelations

		for scanner.Scan() {
			if progress != nil {
				progress(i+1, scanner.FullyScannedBytes())
			}
			c.collect(scanner.Object())
		}
		if err := passError(i+1, scanner.Err(), scanner.Close()); err != nil {
			return nil, err
		}
	}

	return c.dataset(), nil
}

// passError reports both a scan failure and a failure to release the
// scanner; either one fails the pass.
func passError(pass int, scanErr, closeErr error) error {
	if closeErr != nil {
		closeErr = fmt.Errorf("close: %w", closeErr)
	}
	if err := errors.Join(scanErr, closeErr); err != nil {
		return fmt.Errorf("osmsource: pass %d failed: %w", pass, err)
	}
	return nil
}

type collector struct {
	rels    []*osm.Relation
	wayIDs  map[osm.WayID]bool
	nodeIDs map[osm.NodeID]bool
	ways    []*osm.Way
	nodes   []*osm.Node
}

func newCollector() *collector {
	return &collector{
		wayIDs:  make(map[osm.WayID]bool),
		nodeIDs: make(map[osm.NodeID]bool),
	}
}

func (c *collector) collect(obj osm.Object) {
	switch o := obj.(type) {
	case *osm.Relation:
		if o.Tags.Find("boundary") != "administrative" {
			return
		}
		c.rels = append(c.rels, o)
		for _, m := range o.Members {
			switch m.Type {
			case osm.TypeWay:
				c.wayIDs[osm.WayID(m.Ref)] = true
			case osm.TypeNode:
				c.nodeIDs[osm.NodeID(m.Ref)] = true
			}
		}
	case *osm.Way:
		if !c.wayIDs[o.ID] {
			return
		}
		c.ways = append(c.ways, o)
		for _, wn := range o.Nodes {
			c.nodeIDs[wn.ID] = true
		}
	case *osm.Node:
		if c.nodeIDs[o.ID] {
			c.nodes = append(c.nodes, o)
		}
	}
}

func (c *collector) dataset() *Dataset {
	return NewDataset(c.rels, c.ways, c.nodes)
}
