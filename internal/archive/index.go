package archive

import (
	"context"
	"fmt"
	"sort"
)

// ExpansionState tracks whether a node's children have been loaded.
type ExpansionState int

const (
	Unloaded ExpansionState = iota
	Loaded
)

func (s ExpansionState) String() string {
	if s == Loaded {
		return "loaded"
	}
	return "unloaded"
}

// Expansion is the result of loading one node: its child buckets followed by
// the documents filed directly under it.
type Expansion struct {
	ParentID  string
	Children  []CatalogNode
	Documents []CatalogNode
}

// Nodes returns children and documents in presentation order.
func (e *Expansion) Nodes() []CatalogNode {
	nodes := make([]CatalogNode, 0, len(e.Children)+len(e.Documents))
	nodes = append(nodes, e.Children...)
	return append(nodes, e.Documents...)
}

// CatalogIndex holds the session's in-memory node table and expands it
// node by node. It is owned by one session and not safe for concurrent use.
type CatalogIndex struct {
	store  CatalogStore
	logger Logger

	loaded   bool
	nodes    []CatalogNode
	byID     map[string]int
	expanded map[string]*Expansion
}

// NewCatalogIndex creates an empty index over store.
func NewCatalogIndex(store CatalogStore, logger Logger) *CatalogIndex {
	return &CatalogIndex{
		store:    store,
		logger:   logger,
		byID:     make(map[string]int),
		expanded: make(map[string]*Expansion),
	}
}

// LoadRoot lists every known node from the store once and keeps the result as
// the authoritative table. Later calls return the top-level nodes of that
// table without querying again. On store failure the listing is empty and the
// error wraps ErrCatalogUnavailable.
func (ix *CatalogIndex) LoadRoot(ctx context.Context) ([]CatalogNode, error) {
	if ix.loaded {
		return ix.ChildrenOf(RootID), nil
	}

	rows, err := ix.store.ListNodes(ctx)
	if err != nil {
		ix.logger.Error("catalog listing failed", "error", err)
		return []CatalogNode{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	for _, row := range rows {
		ix.add(nodeFromRow(row))
	}
	ix.loaded = true

	roots := ix.ChildrenOf(RootID)
	ix.logger.Info("catalog loaded", "nodes", len(ix.nodes), "roots", len(roots))
	return roots, nil
}

// ChildrenOf returns the loaded nodes whose parent is parentID, in ascending
// rank. Equal ranks keep store row order. It never fetches: an unloaded
// parent simply has no children yet.
func (ix *CatalogIndex) ChildrenOf(parentID string) []CatalogNode {
	var children []CatalogNode
	for _, n := range ix.nodes {
		if n.ParentID == parentID {
			children = append(children, n)
		}
	}
	sortByRank(children)
	return children
}

// DocumentsUnder maps the document rows filed in the bucket parentID to
// DOCUMENT nodes. The id is parsed into up to four date components (missing
// ones are 0) and rows are kept when their timestamp matches all four.
// A malformed parentID yields no documents.
func (ix *CatalogIndex) DocumentsUnder(parentID string, rows []DocumentRow) []CatalogNode {
	id, err := ParseNodeID(parentID)
	if err != nil {
		ix.logger.Debug("ignoring malformed parent id", "parent_id", parentID, "error", err)
		return []CatalogNode{}
	}

	docs := []CatalogNode{}
	for _, row := range rows {
		if !id.Matches(row.Timestamp) {
			continue
		}
		docs = append(docs, documentNode(row, parentID))
	}
	sortByRank(docs)
	return docs
}

// Expand moves parentID from Unloaded to Loaded: the first call resolves its
// children and documents and records the document nodes in the table; later
// calls return the memoized expansion.
func (ix *CatalogIndex) Expand(parentID string, rows []DocumentRow) *Expansion {
	if exp, ok := ix.expanded[parentID]; ok {
		return exp
	}

	exp := &Expansion{
		ParentID:  parentID,
		Children:  ix.ChildrenOf(parentID),
		Documents: ix.DocumentsUnder(parentID, rows),
	}
	for _, doc := range exp.Documents {
		if _, exists := ix.byID[doc.ID]; !exists {
			ix.add(doc)
		}
	}
	ix.expanded[parentID] = exp

	ix.logger.Debug("node expanded", "id", parentID, "children", len(exp.Children), "documents", len(exp.Documents))
	return exp
}

// ExpansionState reports whether Expand has run for id.
func (ix *CatalogIndex) ExpansionState(id string) ExpansionState {
	if _, ok := ix.expanded[id]; ok {
		return Loaded
	}
	return Unloaded
}

// Node looks up a node of the table by id.
func (ix *CatalogIndex) Node(id string) (CatalogNode, bool) {
	i, ok := ix.byID[id]
	if !ok {
		return CatalogNode{}, false
	}
	return ix.nodes[i], true
}

// Len returns the number of nodes in the table.
func (ix *CatalogIndex) Len() int {
	return len(ix.nodes)
}

func (ix *CatalogIndex) add(n CatalogNode) {
	if _, dup := ix.byID[n.ID]; dup {
		ix.logger.Warn("duplicate node id in catalog", "id", n.ID)
		return
	}
	ix.byID[n.ID] = len(ix.nodes)
	ix.nodes = append(ix.nodes, n)
}

func sortByRank(nodes []CatalogNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Rank < nodes[j].Rank
	})
}

func nodeFromRow(row NodeRow) CatalogNode {
	n := CatalogNode{
		Table:       row.Table,
		OwnerID:     row.Owner,
		Key:         row.Key,
		Name:        row.Name,
		ImageID:     row.ImageID,
		ID:          row.ID,
		ParentID:    row.ParentID,
		Rank:        row.Rank,
		HasChildren: row.Table != TableDocument,
	}
	// The comparison flags only mean something on their own level.
	if row.Table == TableDay {
		n.DiaRes = row.DiaRes
	}
	if row.Table == TableHour {
		n.HourRes = row.HourRes
	}
	return n
}

func documentNode(row DocumentRow, parentID string) CatalogNode {
	ts := row.Timestamp
	return CatalogNode{
		Table:       TableDocument,
		OwnerID:     ts.Year() + int(ts.Month()) + ts.Day(),
		Key:         row.DocID,
		Name:        fmt.Sprintf("%s [%s]", row.Designation, row.Name),
		ImageID:     row.ImageID,
		ID:          DocumentID(row.DocID),
		ParentID:    parentID,
		Rank:        row.Rank,
		HasChildren: false,
		IsNew:       row.IsNew,
	}
}
