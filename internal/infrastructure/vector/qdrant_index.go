package vector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/infrastructure/embedding"
	"github.com/docmind/backend/internal/infrastructure/log"
	"github.com/qdrant/go-client/qdrant"
)

// 确保 QdrantIndex 实现了 document.VectorIndex 接口
var _ document.VectorIndex = (*QdrantIndex)(nil)

const payloadText = "text"

// QdrantIndex 基于 Qdrant 的向量索引
// 所有用户共享一个 Qdrant 集合，通过 user_id 载荷过滤隔离
type QdrantIndex struct {
	client   *qdrant.Client
	embedder embedding.Embedder
	logger   *slog.Logger

	mu      sync.Mutex
	ensured map[string]bool
}

// NewQdrantIndex 连接 Qdrant
func NewQdrantIndex(host string, port int, embedder embedding.Embedder) (*QdrantIndex, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}
	return &QdrantIndex{
		client:   client,
		embedder: embedder,
		logger:   log.NewModuleLogger("vector", "qdrant"),
		ensured:  make(map[string]bool),
	}, nil
}

// Close 关闭连接
func (x *QdrantIndex) Close() error {
	return x.client.Close()
}

// ensureCollection 确保集合存在
func (x *QdrantIndex) ensureCollection(ctx context.Context, name string, vectorSize uint64) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.ensured[name] {
		return nil
	}

	exists, err := x.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", name, err)
	}
	if !exists {
		err := x.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     vectorSize,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
		x.logger.Info("qdrant collection created", "collection", name, "vector_size", vectorSize)
	}
	x.ensured[name] = true
	return nil
}

// Add 向量化并写入文本，空白文本计为 skipped
func (x *QdrantIndex) Add(ctx context.Context, collection, userID string, texts []string, metadatas []map[string]string) (*document.AddResult, error) {
	if metadatas != nil && len(metadatas) != len(texts) {
		return nil, fmt.Errorf("got %d texts but %d metadatas", len(texts), len(metadatas))
	}

	result := &document.AddResult{}
	var kept []string
	var metas []map[string]string
	var positions []int
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			result.Skipped++
			continue
		}
		var meta map[string]string
		if metadatas != nil {
			meta = metadatas[i]
		}
		kept = append(kept, text)
		metas = append(metas, withUser(meta, userID))
		positions = append(positions, i)
	}
	if len(kept) == 0 {
		return result, nil
	}

	vectors, err := x.embedder.Embed(ctx, kept)
	if err != nil {
		return nil, fmt.Errorf("embed texts: %w", err)
	}
	if len(vectors) != len(kept) || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("invalid embedding result")
	}
	if err := x.ensureCollection(ctx, collection, uint64(len(vectors[0]))); err != nil {
		return nil, err
	}

	points := make([]*qdrant.PointStruct, len(kept))
	for i := range kept {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointKey(userID, metas[i], positions[i])),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(buildPayload(kept[i], metas[i])),
		}
	}

	if _, err := x.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
	}); err != nil {
		return nil, fmt.Errorf("failed to upsert points: %w", err)
	}
	result.Added = len(points)
	return result, nil
}

// Delete 删除文档的全部向量
func (x *QdrantIndex) Delete(ctx context.Context, collection, userID, documentID string) error {
	exists, err := x.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", collection, err)
	}
	if !exists {
		return nil
	}

	_, err = x.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: buildFilter(userID, map[string]string{MetaDocumentID: documentID}),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

// Query 检索，分数转换为距离 1 - score
func (x *QdrantIndex) Query(ctx context.Context, req document.QueryRequest) ([]document.QueryResult, error) {
	var texts []string
	for _, t := range req.QueryTexts {
		if strings.TrimSpace(t) != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return nil, nil
	}
	exists, err := x.client.CollectionExists(ctx, req.Collection)
	if err != nil || !exists {
		return nil, err
	}

	vectors, err := x.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	qlimit := uint64(limit)
	filter := buildFilter(req.UserID, req.Filter)

	var results []document.QueryResult
	for _, vec := range vectors {
		hits, err := x.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: req.Collection,
			Query:          qdrant.NewQuery(vec...),
			Limit:          &qlimit,
			Filter:         filter,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query qdrant: %w", err)
		}
		for _, hit := range hits {
			text, meta := payloadToMetadata(hit.GetPayload())
			results = append(results, document.QueryResult{
				Text:     text,
				Distance: 1 - hit.GetScore(),
				Metadata: meta,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// buildFilter 构建 user_id 加附加条件的过滤器
func buildFilter(userID string, extra map[string]string) *qdrant.Filter {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	must := []*qdrant.Condition{qdrant.NewMatch(MetaUserID, userID)}
	for _, k := range keys {
		if k == MetaUserID {
			continue
		}
		must = append(must, qdrant.NewMatch(k, extra[k]))
	}
	return &qdrant.Filter{Must: must}
}

func buildPayload(text string, meta map[string]string) map[string]interface{} {
	payload := make(map[string]interface{}, len(meta)+1)
	for k, v := range meta {
		payload[k] = v
	}
	payload[payloadText] = text
	return payload
}

// payloadToMetadata 拆出文本与字符串元数据
func payloadToMetadata(payload map[string]*qdrant.Value) (string, map[string]string) {
	meta := make(map[string]string, len(payload))
	var text string
	for k, v := range payload {
		if v == nil {
			continue
		}
		if k == payloadText {
			text = v.GetStringValue()
			continue
		}
		meta[k] = v.GetStringValue()
	}
	return text, meta
}
