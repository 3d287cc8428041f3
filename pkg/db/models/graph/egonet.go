package graph

// EgonetNode is one entity drawn in an egonet. Amounts are native units.
type EgonetNode struct {
	ID       string   `json:"id"`
	NodeType NodeType `json:"nodeType"`
	Balance  int64    `json:"balance"`
	Received int64    `json:"received"`
}

type EgonetEdge struct {
	Source         string `json:"source"`
	Target         string `json:"target"`
	Transactions   uint32 `json:"transactions"`
	EstimatedValue Value  `json:"estimatedValue"`
}

// Egonet is an entity together with its direct neighbors and the edges to them.
type Egonet struct {
	FocusNode string       `json:"focusNode"`
	Nodes     []EgonetNode `json:"nodes"`
	Edges     []EgonetEdge `json:"edges"`
}

// NewEgonet draws focus and every relation in rels. The focus node comes
// first; a neighbor reached both ways is drawn once.
func NewEgonet(focus EgonetNode, rels ...[]Relation) *Egonet {
	g := &Egonet{
		FocusNode: focus.ID,
		Nodes:     []EgonetNode{focus},
		Edges:     []EgonetEdge{},
	}
	seen := map[string]bool{focus.ID: true}
	for _, group := range rels {
		for _, r := range group {
			if !seen[r.ID] {
				seen[r.ID] = true
				g.Nodes = append(g.Nodes, EgonetNode{
					ID:       r.ID,
					NodeType: r.NodeType,
					Balance:  r.Balance.Value,
					Received: r.Received.Value,
				})
			}
			g.Edges = append(g.Edges, EgonetEdge{
				Source:         r.Source,
				Target:         r.Target,
				Transactions:   r.NoTransactions,
				EstimatedValue: r.EstimatedValue,
			})
		}
	}
	return g
}
