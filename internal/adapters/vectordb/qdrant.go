package vectordb

import (
	"context"
	"fmt"
	"sync"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
	"github.com/0xcro3dile/privategpt-go/internal/logger"
)

const (
	collectionPrefix = "privategpt_"
	upsertBatchSize  = 100
)

// QdrantBuilder builds one Qdrant collection per document over gRPC.
type QdrantBuilder struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
}

var _ ports.IndexBuilder = (*QdrantBuilder)(nil)

// NewQdrantBuilder connects to the Qdrant gRPC endpoint at host:port.
func NewQdrantBuilder(host string, port int) (*QdrantBuilder, error) {
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = 6334
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant at %s: %w", addr, err)
	}

	b := newQdrantBuilder(qdrantclient.NewCollectionsClient(conn), qdrantclient.NewPointsClient(conn))
	b.conn = conn
	return b, nil
}

func newQdrantBuilder(collections qdrantclient.CollectionsClient, points qdrantclient.PointsClient) *QdrantBuilder {
	return &QdrantBuilder{collections: collections, points: points}
}

// Build recreates the document's collection and upserts its chunks.
func (b *QdrantBuilder) Build(ctx context.Context, doc *entities.Document, chunks []entities.Chunk) (ports.VectorIndex, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("building qdrant index: %w", entities.ErrEmptyDocument)
	}

	name := collectionPrefix + doc.ID
	log := logger.GetLogger().WithField("collection", name)

	if err := b.dropIfExists(ctx, name); err != nil {
		return nil, err
	}

	_, err := b.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: name,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     uint64(len(chunks[0].Embedding)),
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating collection %s: %w", name, err)
	}

	index := &QdrantIndex{
		collection:  name,
		source:      doc.Name,
		documentID:  doc.ID,
		collections: b.collections,
		points:      b.points,
		size:        len(chunks),
	}

	batch := make([]*qdrantclient.PointStruct, 0, upsertBatchSize)
	for i, chunk := range chunks {
		batch = append(batch, toPoint(chunk))
		if len(batch) < upsertBatchSize && i < len(chunks)-1 {
			continue
		}
		_, err := b.points.Upsert(ctx, &qdrantclient.UpsertPoints{
			CollectionName: name,
			Points:         batch,
		})
		if err != nil {
			index.Close(ctx)
			return nil, fmt.Errorf("upserting points: %w", err)
		}
		log.WithField("points", len(batch)).Debug("upserted batch")
		batch = batch[:0]
	}

	return index, nil
}

// Close closes the gRPC connection.
func (b *QdrantBuilder) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}

func (b *QdrantBuilder) dropIfExists(ctx context.Context, name string) error {
	list, err := b.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() != name {
			continue
		}
		if _, err := b.collections.Delete(ctx, &qdrantclient.DeleteCollection{CollectionName: name}); err != nil {
			return fmt.Errorf("deleting collection %s: %w", name, err)
		}
	}
	return nil
}

func toPoint(chunk entities.Chunk) *qdrantclient.PointStruct {
	return &qdrantclient.PointStruct{
		Id: &qdrantclient.PointId{
			PointIdOptions: &qdrantclient.PointId_Num{Num: uint64(chunk.Index) + 1},
		},
		Vectors: &qdrantclient.Vectors{
			VectorsOptions: &qdrantclient.Vectors_Vector{
				Vector: &qdrantclient.Vector{Data: chunk.Embedding},
			},
		},
		Payload: map[string]*qdrantclient.Value{
			"text":     {Kind: &qdrantclient.Value_StringValue{StringValue: chunk.Content}},
			"chunk_id": {Kind: &qdrantclient.Value_StringValue{StringValue: chunk.ID}},
			"index":    {Kind: &qdrantclient.Value_IntegerValue{IntegerValue: int64(chunk.Index)}},
		},
	}
}

// QdrantIndex searches one document's collection. Close drops the collection.
type QdrantIndex struct {
	collection  string
	source      string
	documentID  string
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	size        int

	mu     sync.Mutex
	closed bool
}

func (q *QdrantIndex) Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error) {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return nil, ErrIndexClosed
	}

	resp, err := q.points.Search(ctx, &qdrantclient.SearchPoints{
		CollectionName: q.collection,
		Vector:         embedding,
		Limit:          uint64(topK),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Include{
				Include: &qdrantclient.PayloadIncludeSelector{
					Fields: []string{"text", "chunk_id", "index"},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", q.collection, err)
	}

	results := make([]entities.QueryResult, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		chunk := entities.Chunk{DocumentID: q.documentID}
		if v, ok := point.Payload["text"]; ok {
			chunk.Content = v.GetStringValue()
		}
		if v, ok := point.Payload["chunk_id"]; ok {
			chunk.ID = v.GetStringValue()
		}
		if v, ok := point.Payload["index"]; ok {
			chunk.Index = int(v.GetIntegerValue())
		}
		results = append(results, entities.QueryResult{
			Chunk:     chunk,
			Score:     float64(point.GetScore()),
			SourceDoc: q.source,
		})
	}
	return results, nil
}

func (q *QdrantIndex) Len() int {
	return q.size
}

func (q *QdrantIndex) Close(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true

	if _, err := q.collections.Delete(ctx, &qdrantclient.DeleteCollection{CollectionName: q.collection}); err != nil {
		return fmt.Errorf("deleting collection %s: %w", q.collection, err)
	}
	return nil
}
