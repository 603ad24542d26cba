package models

// GroundingChunk is one map citation attached to a route analysis.
type GroundingChunk struct {
	SourceURI      string   `json:"sourceUri,omitempty"`
	Title          string   `json:"title,omitempty"`
	ReviewSnippets []string `json:"reviewSnippets,omitempty"`
}

type RouteAnalysis struct {
	Text            string           `json:"text"`
	GroundingChunks []GroundingChunk `json:"groundingChunks"`
}
