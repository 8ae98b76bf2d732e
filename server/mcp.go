package server

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/ctxserve/extract"
	"github.com/hazyhaar/ctxserve/kit"
)

// RegisterMCP registers the context tools on an MCP server.
func (s *Server) RegisterMCP(srv *mcp.Server) {
	s.registerExtractTool(srv)
	s.registerSearchTool(srv)
	s.registerCorpusTool(srv)
}

// --- extract ---

type mcpExtractReq struct {
	DocumentID      string  `json:"document_id"`
	Query           string  `json:"query"`
	MaxTokens       int     `json:"max_tokens"`
	EnableTimeDecay bool    `json:"enable_time_decay"`
	DecayRate       float64 `json:"decay_rate"`
}

func (s *Server) registerExtractTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "ctx_extract",
		Description: "Extract ranked, token-budgeted context from a stored document.",
		InputSchema: kit.InputSchema(map[string]any{
			"document_id":       map[string]any{"type": "string", "description": "Stored document ID"},
			"query":             map[string]any{"type": "string", "description": "Optional query to boost matching sections"},
			"max_tokens":        map[string]any{"type": "integer", "description": "Token budget for the extracted context"},
			"enable_time_decay": map[string]any{"type": "boolean", "description": "Attenuate scores by document age"},
			"decay_rate":        map[string]any{"type": "number", "description": "Decay rate in 1/days"},
		}, []string{"document_id"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*mcpExtractReq)
		if r.MaxTokens == 0 {
			r.MaxTokens = s.cfg.Extract.DefaultMaxTokens
		}
		if r.EnableTimeDecay && r.DecayRate == 0 {
			r.DecayRate = s.cfg.Extract.DefaultDecayRate
		}
		text, meta, err := s.extractor.ExtractContext(r.DocumentID, extract.Options{
			Query:           r.Query,
			MaxTokens:       r.MaxTokens,
			EnableTimeDecay: r.EnableTimeDecay,
			DecayRate:       r.DecayRate,
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"context": text, "metadata": meta}, nil
	}

	decode := func(req *mcp.CallToolRequest) (any, error) {
		var r mcpExtractReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- search ---

type mcpSearchReq struct {
	Query           string  `json:"query"`
	EnableTimeDecay bool    `json:"enable_time_decay"`
	DecayRate       float64 `json:"decay_rate"`
}

func (s *Server) registerSearchTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "ctx_search",
		Description: "Search stored documents by title and content, optionally re-ranked by recency.",
		InputSchema: kit.InputSchema(map[string]any{
			"query":             map[string]any{"type": "string", "description": "Search query"},
			"enable_time_decay": map[string]any{"type": "boolean", "description": "Re-rank results by document age"},
			"decay_rate":        map[string]any{"type": "number", "description": "Decay rate in 1/days"},
		}, []string{"query"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*mcpSearchReq)
		rate := r.DecayRate
		if r.EnableTimeDecay && rate == 0 {
			rate = s.cfg.Extract.DefaultDecayRate
		}
		docs, err := s.store.Search(r.Query, r.EnableTimeDecay, rate)
		if err != nil {
			return nil, err
		}
		results := make([]map[string]any, 0, len(docs))
		for _, doc := range docs {
			sum := summarize(doc)
			sum["search_score"] = doc.Metadata.SearchScore
			results = append(results, sum)
		}
		return map[string]any{"results": results, "count": len(results)}, nil
	}

	decode := func(req *mcp.CallToolRequest) (any, error) {
		var r mcpSearchReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- corpus ---

func (s *Server) registerCorpusTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "ctx_corpus",
		Description: "Report corpus-wide analytics: type distribution, tier weights, common section titles.",
		InputSchema: kit.InputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return s.corpus.AnalyzeCorpus(), nil
	}

	decode := func(_ *mcp.CallToolRequest) (any, error) {
		return nil, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
