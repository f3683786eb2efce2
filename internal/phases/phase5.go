package phases

import (
	"fmt"

	"github.com/ugent-pgx/knowledge-graph/internal/assembler"
	"github.com/ugent-pgx/knowledge-graph/internal/domain"
	"github.com/ugent-pgx/knowledge-graph/internal/eventbus"
)

// GeneKnowledgeGraphDocument is the per-gene JSON-LD rendering of a Phase 4
// arena (§6.3's `output/json/<gene>_knowledge_graph.jsonld`): the same
// @context every assembled document carries, plus the flat node/edge lists.
type GeneKnowledgeGraphDocument struct {
	Context map[string]string    `json:"@context"`
	Gene    string               `json:"gene"`
	Nodes   []domain.GraphNode   `json:"nodes"`
	Edges   []domain.GraphEdge   `json:"edges"`
}

// ExportGeneGraph implements the per-gene half of §4.4 Phase 5: it flattens
// one gene's KnowledgeGraph into a JSON-LD-ready document. The comprehensive
// per-patient envelope is a separate, later step — built by the orchestrator
// from every gene's enriched variants via internal/assembler once all genes
// have finished, not per gene here.
func ExportGeneGraph(geneSymbol string, g domain.KnowledgeGraph, bus *eventbus.Bus) GeneKnowledgeGraphDocument {
	bus.Emit(eventbus.StageReport, eventbus.SubstageExport, eventbus.LevelInfo,
		fmt.Sprintf("exporting knowledge graph for %s (%d nodes, %d edges)", geneSymbol, len(g.Nodes), len(g.Edges)), nil, nil)

	nodes := make([]domain.GraphNode, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, n)
	}

	return GeneKnowledgeGraphDocument{
		Context: assembler.CanonicalContext,
		Gene:    geneSymbol,
		Nodes:   nodes,
		Edges:   g.Edges,
	}
}
