package query

import (
	"hammy/internal/graph"
	"hammy/internal/index"
	"hammy/internal/version"
)

// StatusResponse summarizes the index and the optional services around it.
type StatusResponse struct {
	Version     string                 `json:"version"`
	Root        string                 `json:"root"`
	Project     string                 `json:"project"`
	Snapshot    uint64                 `json:"snapshot"`
	Stats       graph.Stats            `json:"stats"`
	Index       *index.IndexMeta       `json:"index,omitempty"`
	Freshness   *index.FreshnessResult `json:"freshness,omitempty"`
	VectorStore bool                   `json:"vector_store"`
	VCS         bool                   `json:"vcs"`
}

// Status reports counts by language and type, the bridge count and, when
// index metadata is attached, whether the index is still fresh.
func (e *Engine) Status() *StatusResponse {
	snap := e.Snapshot()
	resp := &StatusResponse{
		Version:     version.Version,
		Root:        e.root,
		Project:     e.cfg.Project.Name,
		Snapshot:    snap.Version(),
		Stats:       snap.Stats(),
		Index:       e.meta,
		VectorStore: e.store != nil,
		VCS:         e.vcs != nil,
	}
	if e.meta != nil {
		fresh := e.meta.CheckFreshness(e.root, snap.Files())
		resp.Freshness = &fresh
	}
	return resp
}
