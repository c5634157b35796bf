package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"hammy/internal/hotspots"
)

// maxSamplesPerNode bounds how many runs a trend looks back over.
const maxSamplesPerNode = 30

// RecordHotspots appends samples to the hotspot history and drops samples
// older than retain. A zero retain keeps everything.
func (db *DB) RecordHotspots(ctx context.Context, samples []hotspots.Sample, retain time.Duration) error {
	if len(samples) == 0 {
		return nil
	}
	return db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO hotspot_history (node_id, sampled_at, score)
			VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, s := range samples {
			if _, err := stmt.ExecContext(ctx, s.NodeID, s.At.UTC().Format(time.RFC3339Nano), s.Score); err != nil {
				return fmt.Errorf("recording hotspot %s: %w", s.NodeID, err)
			}
		}
		if retain > 0 {
			cutoff := samples[0].At.Add(-retain).UTC().Format(time.RFC3339Nano)
			if _, err := tx.ExecContext(ctx, "DELETE FROM hotspot_history WHERE sampled_at < ?", cutoff); err != nil {
				return fmt.Errorf("pruning hotspot history: %w", err)
			}
		}
		return nil
	})
}

// HotspotSamples returns the recorded samples of each id, oldest first,
// keeping at most the latest maxSamplesPerNode per id.
func (db *DB) HotspotSamples(ctx context.Context, ids []string) (map[string][]hotspots.Sample, error) {
	out := make(map[string][]hotspots.Sample, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `
		SELECT node_id, sampled_at, score FROM hotspot_history
		WHERE node_id IN (?` + strings.Repeat(", ?", len(ids)-1) + `)
		ORDER BY node_id, sampled_at`
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying hotspot history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s  hotspots.Sample
			at string
		)
		if err := rows.Scan(&s.NodeID, &at, &s.Score); err != nil {
			return nil, err
		}
		if s.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("hotspot sample %s: %w", s.NodeID, err)
		}
		out[s.NodeID] = append(out[s.NodeID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for id, ss := range out {
		if len(ss) > maxSamplesPerNode {
			out[id] = ss[len(ss)-maxSamplesPerNode:]
		}
	}
	return out, nil
}
