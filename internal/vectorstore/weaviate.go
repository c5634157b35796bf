package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"hammy/internal/config"
	"hammy/internal/graph"
)

// symbolClassSuffix is appended to the configured class prefix.
const symbolClassSuffix = "Symbol"

// objectNamespace scopes the deterministic object ids derived from node ids.
var objectNamespace = uuid.MustParse("6f1c2d0e-8b4a-5c57-9e3f-2a7d1b9c4e60")

// WeaviateStore keeps node vectors in a Weaviate class with no server-side
// vectorizer; vectors always come from the Embedder.
type WeaviateStore struct {
	client    *weaviate.Client
	embedder  Embedder
	className string
	batchSize int
	logger    *slog.Logger
}

// NewWeaviateStore connects to Weaviate using the vector config.
func NewWeaviateStore(cfg config.VectorConfig, embedder Embedder, logger *slog.Logger) (*WeaviateStore, error) {
	scheme, host := cfg.Scheme, cfg.Host
	if rest, ok := strings.CutPrefix(host, "https://"); ok {
		scheme, host = "https", rest
	} else if rest, ok := strings.CutPrefix(host, "http://"); ok {
		scheme, host = "http", rest
	}
	if scheme == "" {
		scheme = "http"
	}

	client, err := weaviate.NewClient(weaviate.Config{Host: host, Scheme: scheme})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	return &WeaviateStore{
		client:    client,
		embedder:  embedder,
		className: ClassName(cfg.ClassPrefix),
		batchSize: cfg.BatchSize,
		logger:    logger,
	}, nil
}

// ClassName returns the Weaviate class used for symbols under prefix.
func ClassName(prefix string) string {
	if prefix == "" {
		prefix = "Hammy"
	}
	return strings.ToUpper(prefix[:1]) + prefix[1:] + symbolClassSuffix
}

// ObjectID maps a node id to a stable Weaviate object id.
func ObjectID(nodeID string) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(objectNamespace, []byte(nodeID)).String())
}

func symbolClass(name string) *models.Class {
	filterable := new(bool)
	*filterable = true
	text := func(prop, desc string) *models.Property {
		return &models.Property{
			Name:            prop,
			DataType:        []string{"text"},
			Description:     desc,
			IndexFilterable: filterable,
			Tokenization:    "field",
		}
	}
	return &models.Class{
		Class:       name,
		Description: "Code symbols extracted by hammy",
		Vectorizer:  "none",
		Properties: []*models.Property{
			text("nodeId", "Graph node id"),
			text("type", "Node type"),
			text("name", "Qualified symbol name"),
			text("file", "Repository-relative file path"),
			text("language", "Source language"),
			text("summary", "Short summary"),
			text("visibility", "Declared visibility"),
			{Name: "startLine", DataType: []string{"int"}},
			{Name: "endLine", DataType: []string{"int"}},
			{Name: "isAsync", DataType: []string{"boolean"}},
		},
	}
}

// EnsureSchema creates the symbol class when it does not exist.
func (s *WeaviateStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.client.Schema().ClassGetter().WithClassName(s.className).Do(ctx); err == nil {
		return nil
	}
	s.logger.Info("Creating vector schema", "class", s.className)
	if err := s.client.Schema().ClassCreator().WithClass(symbolClass(s.className)).Do(ctx); err != nil {
		return fmt.Errorf("creating %s schema: %w", s.className, err)
	}
	return nil
}

// Upsert implements Store. Objects use ids derived from node ids, so
// re-upserting a node replaces its previous vector.
func (s *WeaviateStore) Upsert(ctx context.Context, nodes []*graph.Node) (int, error) {
	if len(nodes) == 0 {
		return 0, nil
	}
	if err := s.EnsureSchema(ctx); err != nil {
		return 0, err
	}

	batchSize := s.batchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	stored := 0
	for i := 0; i < len(nodes); i += batchSize {
		end := min(i+batchSize, len(nodes))
		batch := nodes[i:end]

		texts := make([]string, len(batch))
		for j, n := range batch {
			texts[j] = EmbeddingText(n)
		}
		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return stored, err
		}

		objects := make([]*models.Object, len(batch))
		for j, n := range batch {
			objects[j] = &models.Object{
				Class:  s.className,
				ID:     ObjectID(n.ID),
				Vector: vectors[j],
				Properties: map[string]interface{}{
					"nodeId":     n.ID,
					"type":       string(n.Type),
					"name":       n.Name,
					"file":       n.Loc.File,
					"language":   n.Language,
					"summary":    n.Summary,
					"visibility": n.Meta.Visibility,
					"startLine":  n.Loc.Lines[0],
					"endLine":    n.Loc.Lines[1],
					"isAsync":    n.Meta.IsAsync,
				},
			}
		}

		results, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
		if err != nil {
			return stored, fmt.Errorf("batch import failed: %w", err)
		}
		for _, r := range results {
			if r.Result == nil || r.Result.Errors == nil {
				stored++
				continue
			}
			s.logger.Warn("Vector object rejected", "id", r.ID)
		}
	}
	return stored, nil
}

// DeleteByFile implements Store.
func (s *WeaviateStore) DeleteByFile(ctx context.Context, path string) (int, error) {
	where := filters.Where().
		WithPath([]string{"file"}).
		WithOperator(filters.Equal).
		WithValueText(path)

	resp, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(s.className).
		WithWhere(where).
		WithOutput("minimal").
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("batch delete for %s: %w", path, err)
	}
	if resp == nil || resp.Results == nil {
		return 0, nil
	}
	return int(resp.Results.Successful), nil
}

// Search implements Store.
func (s *WeaviateStore) Search(ctx context.Context, query string, limit int, f Filters) ([]Hit, error) {
	hits, _, err := s.search(ctx, query, limit, f, false)
	if err != nil {
		return nil, err
	}
	out := make([]Hit, len(hits))
	for i, h := range hits {
		out[i] = h.Hit
	}
	return out, nil
}

// SearchWithVectors implements Store.
func (s *WeaviateStore) SearchWithVectors(ctx context.Context, query string, limit int, f Filters) ([]VectorHit, []float32, error) {
	return s.search(ctx, query, limit, f, true)
}

func (s *WeaviateStore) search(ctx context.Context, query string, limit int, f Filters, withVectors bool) ([]VectorHit, []float32, error) {
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, nil, err
	}
	if len(vecs) != 1 {
		return nil, nil, fmt.Errorf("embedding returned %d vectors for the query", len(vecs))
	}
	queryVec := vecs[0]

	additional := []graphql.Field{{Name: "certainty"}}
	if withVectors {
		additional = append(additional, graphql.Field{Name: "vector"})
	}
	fields := []graphql.Field{
		{Name: "nodeId"},
		{Name: "type"},
		{Name: "name"},
		{Name: "file"},
		{Name: "language"},
		{Name: "summary"},
		{Name: "visibility"},
		{Name: "startLine"},
		{Name: "endLine"},
		{Name: "isAsync"},
		{Name: "_additional", Fields: additional},
	}

	get := s.client.GraphQL().Get().
		WithClassName(s.className).
		WithFields(fields...).
		WithNearVector(s.client.GraphQL().NearVectorArgBuilder().WithVector(queryVec)).
		WithLimit(limit)
	if where := whereFilter(f); where != nil {
		get = get.WithWhere(where)
	}

	result, err := get.Do(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("weaviate search failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, nil, fmt.Errorf("weaviate search error: %s", result.Errors[0].Message)
	}
	return parseHits(result, s.className), queryVec, nil
}

func whereFilter(f Filters) *filters.WhereBuilder {
	var operands []*filters.WhereBuilder
	add := func(path, value string) {
		if value == "" {
			return
		}
		operands = append(operands, filters.Where().
			WithPath([]string{path}).
			WithOperator(filters.Equal).
			WithValueText(value))
	}
	add("language", strings.ToLower(f.Language))
	add("type", strings.ToLower(f.NodeType))
	add("file", f.File)

	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	}
	return filters.Where().WithOperator(filters.And).WithOperands(operands)
}

func parseHits(result *models.GraphQLResponse, className string) []VectorHit {
	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return []VectorHit{}
	}
	objects, ok := data[className].([]interface{})
	if !ok {
		return []VectorHit{}
	}

	hits := make([]VectorHit, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}
		p := Payload{
			NodeID:     getString(m, "nodeId"),
			Type:       getString(m, "type"),
			Name:       getString(m, "name"),
			File:       getString(m, "file"),
			Lines:      [2]int{getInt(m, "startLine"), getInt(m, "endLine")},
			Language:   getString(m, "language"),
			Summary:    getString(m, "summary"),
			Visibility: getString(m, "visibility"),
		}
		p.IsAsync, _ = m["isAsync"].(bool)

		hit := VectorHit{Hit: Hit{NodeID: p.NodeID, Payload: p}}
		if additional, ok := m["_additional"].(map[string]interface{}); ok {
			if certainty, ok := additional["certainty"].(float64); ok {
				hit.Score = certainty
			}
			if raw, ok := additional["vector"].([]interface{}); ok {
				hit.Vector = make([]float32, 0, len(raw))
				for _, v := range raw {
					if x, ok := v.(float64); ok {
						hit.Vector = append(hit.Vector, float32(x))
					}
				}
			}
		}
		hits = append(hits, hit)
	}
	return hits
}

func getString(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func getInt(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
