package query

import (
	"context"
	"time"

	"hammy/internal/hotspots"
)

// HotspotsRequest sizes and filters a hotspot ranking.
type HotspotsRequest struct {
	hotspots.Options
	// Trend attaches a score trend per row from the recorded history.
	Trend bool
}

// HotspotRow is a ranked symbol with its optional trend.
type HotspotRow struct {
	hotspots.Row
	Trend *hotspots.Trend `json:"trend,omitempty"`
}

// HotspotsResponse is a hotspot ranking.
type HotspotsResponse struct {
	ChurnSource string       `json:"churn_source"` // "supplied", "vcs" or "history"
	Hotspots    []HotspotRow `json:"hotspots"`
}

// Hotspots ranks symbols by callers and churn. Without supplied churn the
// VCS provider's window is used; when that is missing or fails, node
// history is. A failing trend lookup drops trends and keeps the ranking.
func (e *Engine) Hotspots(ctx context.Context, req HotspotsRequest) (*HotspotsResponse, error) {
	snap, a := e.analysis()
	opts := req.Options
	resp := &HotspotsResponse{ChurnSource: "supplied"}

	if opts.FileChurn == nil {
		resp.ChurnSource = "history"
		if e.vcs != nil {
			churn, err := e.vcs.Churn(ctx, e.cfg.VCS.ChurnWindowDays)
			switch {
			case err == nil:
				opts.FileChurn = churn
				resp.ChurnSource = "vcs"
			case ctx.Err() != nil:
				return nil, ctx.Err()
			default:
				e.logger.Warn("Churn lookup failed, using node history", "error", err.Error())
			}
		}
	}

	rows := hotspots.Compute(snap, a.Index(), opts)
	resp.Hotspots = make([]HotspotRow, len(rows))
	for i, r := range rows {
		resp.Hotspots[i] = HotspotRow{Row: r}
	}
	if !req.Trend || e.history == nil || len(rows) == 0 {
		return resp, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.NodeID
	}
	past, err := e.history.HotspotSamples(ctx, ids)
	if err != nil {
		e.logger.Warn("Hotspot history unavailable", "error", err.Error())
		return resp, nil
	}
	now := time.Now()
	for i, r := range rows {
		samples := past[r.NodeID]
		if len(samples) == 0 || now.After(samples[len(samples)-1].At) {
			samples = append(samples, hotspots.Sample{NodeID: r.NodeID, At: now, Score: r.Score})
		}
		resp.Hotspots[i].Trend = hotspots.CalculateTrend(samples)
	}
	return resp, nil
}
