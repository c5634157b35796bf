package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	hammyerrors "hammy/internal/errors"
	"hammy/internal/grammar"
	"hammy/internal/graph"
)

// Header describes the stored snapshot.
type Header struct {
	SavedAt   time.Time `json:"saved_at"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
	FileCount int       `json:"file_count"`
}

// SaveSnapshot replaces the stored graph with s in one transaction.
func (db *DB) SaveSnapshot(ctx context.Context, s *graph.Snapshot) (Header, error) {
	start := time.Now()
	files := s.Files()
	h := Header{
		SavedAt:   start.UTC(),
		NodeCount: s.NodeCount(),
		EdgeCount: s.EdgeCount(),
		FileCount: len(files),
	}

	err := db.WithTx(func(tx *sql.Tx) error {
		for _, table := range []string{"edges", "nodes", "files", "snapshot"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}

		fileStmt, err := tx.PrepareContext(ctx, `INSERT INTO files (path, language, node_count, edge_count) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer fileStmt.Close()
		nodeStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO nodes (id, file, seq, type, name, language, start_line, data)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer nodeStmt.Close()
		edgeStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO edges (file, seq, source, target, relation, is_bridge, confidence, context)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer edgeStmt.Close()

		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			nodes := s.NodesInFile(f)
			edges := s.FileEdges(f)
			lang, _ := grammar.ForPath(f)
			if _, err := fileStmt.ExecContext(ctx, f, lang.String(), len(nodes), len(edges)); err != nil {
				return fmt.Errorf("inserting file %s: %w", f, err)
			}
			for i, n := range nodes {
				data, err := json.Marshal(n)
				if err != nil {
					return err
				}
				if _, err := nodeStmt.ExecContext(ctx, n.ID, f, i, string(n.Type), n.Name, n.Language, n.StartLine(), string(data)); err != nil {
					return fmt.Errorf("inserting node %s: %w", n.ID, err)
				}
			}
			if err := insertEdges(ctx, edgeStmt, f, edges); err != nil {
				return err
			}
		}
		if err := insertEdges(ctx, edgeStmt, "", s.Bridges()); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO snapshot (id, saved_at, node_count, edge_count, file_count)
			VALUES (1, ?, ?, ?, ?)`,
			h.SavedAt.Format(time.RFC3339Nano), h.NodeCount, h.EdgeCount, h.FileCount)
		return err
	})
	if err != nil {
		return Header{}, fmt.Errorf("saving snapshot: %w", err)
	}

	db.logger.Info("Saved snapshot",
		"files", h.FileCount,
		"nodes", h.NodeCount,
		"edges", h.EdgeCount,
		"duration", time.Since(start),
	)
	return h, nil
}

func insertEdges(ctx context.Context, stmt *sql.Stmt, file string, edges []graph.Edge) error {
	for i, e := range edges {
		_, err := stmt.ExecContext(ctx, file, i, e.Source, e.Target, string(e.Relation),
			e.Metadata.IsBridge, e.Metadata.Confidence, e.Metadata.Context)
		if err != nil {
			return fmt.Errorf("inserting edge %s -> %s: %w", e.Source, e.Target, err)
		}
	}
	return nil
}

// LoadHeader returns the stored snapshot header, or INDEX_NOT_FOUND when
// nothing has been saved.
func (db *DB) LoadHeader(ctx context.Context) (Header, error) {
	var h Header
	var savedAt string
	err := db.conn.QueryRowContext(ctx,
		"SELECT saved_at, node_count, edge_count, file_count FROM snapshot WHERE id = 1",
	).Scan(&savedAt, &h.NodeCount, &h.EdgeCount, &h.FileCount)
	if err == sql.ErrNoRows {
		return Header{}, hammyerrors.New(hammyerrors.IndexNotFound, "no saved index; run 'hammy index' first", nil)
	}
	if err != nil {
		return Header{}, err
	}
	h.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt)
	if err != nil {
		return Header{}, fmt.Errorf("parsing saved_at: %w", err)
	}
	return h, nil
}

// LoadGraph rebuilds the stored graph with its original file ownership.
func (db *DB) LoadGraph(ctx context.Context) (*graph.Graph, Header, error) {
	h, err := db.LoadHeader(ctx)
	if err != nil {
		return nil, Header{}, err
	}

	nodes, err := db.loadNodes(ctx)
	if err != nil {
		return nil, Header{}, err
	}
	edges, err := db.loadEdges(ctx)
	if err != nil {
		return nil, Header{}, err
	}

	rows, err := db.conn.QueryContext(ctx, "SELECT path FROM files ORDER BY path")
	if err != nil {
		return nil, Header{}, err
	}
	defer rows.Close()

	g := graph.New()
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, Header{}, err
		}
		g.AddFile(f, nodes[f], edges[f])
	}
	if err := rows.Err(); err != nil {
		return nil, Header{}, err
	}
	g.SetBridges(edges[""])

	db.logger.Debug("Loaded snapshot", "files", h.FileCount, "nodes", h.NodeCount)
	return g, h, nil
}

func (db *DB) loadNodes(ctx context.Context) (map[string][]*graph.Node, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT file, data FROM nodes ORDER BY file, seq")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]*graph.Node)
	for rows.Next() {
		var file, data string
		if err := rows.Scan(&file, &data); err != nil {
			return nil, err
		}
		var n graph.Node
		if err := json.Unmarshal([]byte(data), &n); err != nil {
			return nil, fmt.Errorf("decoding node in %s: %w", file, err)
		}
		out[file] = append(out[file], &n)
	}
	return out, rows.Err()
}

func (db *DB) loadEdges(ctx context.Context) (map[string][]graph.Edge, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT file, source, target, relation, is_bridge, confidence, context
		FROM edges ORDER BY file, seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]graph.Edge)
	for rows.Next() {
		var file, rel string
		var e graph.Edge
		if err := rows.Scan(&file, &e.Source, &e.Target, &rel, &e.Metadata.IsBridge, &e.Metadata.Confidence, &e.Metadata.Context); err != nil {
			return nil, err
		}
		e.Relation = graph.RelationType(rel)
		out[file] = append(out[file], e)
	}
	return out, rows.Err()
}

// FileSummary is one row of the files table.
type FileSummary struct {
	Path      string `json:"path"`
	Language  string `json:"language"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

// ListFiles returns the stored files whose path contains substr, sorted.
func (db *DB) ListFiles(ctx context.Context, substr string) ([]FileSummary, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT path, language, node_count, edge_count FROM files
		WHERE instr(lower(path), lower(?)) > 0
		ORDER BY path`, substr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []FileSummary{}
	for rows.Next() {
		var f FileSummary
		if err := rows.Scan(&f.Path, &f.Language, &f.NodeCount, &f.EdgeCount); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
