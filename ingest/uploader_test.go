package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"newsindex/pkg/chunking"
	"newsindex/pkg/embedding"
	"newsindex/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// wordChunker turns every whitespace-separated word into a chunk.
type wordChunker struct{}

func (wordChunker) Chunk(text string) ([]string, error) {
	return strings.Fields(text), nil
}

type fakeEmbedder struct {
	calls  [][]string
	failOn int // 1-based call number that fails, 0 = never
	dim    int
	short  bool // return one vector too few
}

func (f *fakeEmbedder) GetEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, append([]string(nil), texts...))
	if f.failOn == len(f.calls) {
		return nil, errors.Join(embedding.ErrEmbeddingService, errors.New("status 503"))
	}
	dim := f.dim
	if dim == 0 {
		dim = 3
	}
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = make([]float32, dim)
		out[i][0] = float32(len(f.calls))
	}
	return out, nil
}

type fakeWriter struct {
	batches [][]repository.NewsPoint
	failOn  int // 1-based upsert number that fails, 0 = never
	calls   int
}

var errStoreDown = errors.New("connection refused")

func (f *fakeWriter) Upsert(_ context.Context, points []repository.NewsPoint) error {
	f.calls++
	if f.failOn == f.calls {
		return errStoreDown
	}
	f.batches = append(f.batches, append([]repository.NewsPoint(nil), points...))
	return nil
}

func (f *fakeWriter) points() []repository.NewsPoint {
	var all []repository.NewsPoint
	for _, b := range f.batches {
		all = append(all, b...)
	}
	return all
}

func batchSizes(batches [][]repository.NewsPoint) []int {
	sizes := make([]int, len(batches))
	for i, b := range batches {
		sizes[i] = len(b)
	}
	return sizes
}

func article(n int, text string) repository.Article {
	url := "https://news.example.com/" + string(rune('a'+n))
	return repository.Article{ID: url, Title: "Story " + string(rune('A'+n)), Text: text, URL: url}
}

func newTestUploader(t *testing.T, chunker chunking.Client, e *fakeEmbedder, w *fakeWriter, opts ...Option) *Uploader {
	t.Helper()
	u, err := NewUploader(chunker, e, w, zap.NewNop(), opts...)
	require.NoError(t, err)
	return u
}

func TestUploader_Ingest_Empty(t *testing.T) {
	e, w := &fakeEmbedder{}, &fakeWriter{}
	u := newTestUploader(t, wordChunker{}, e, w)

	n, err := u.Ingest(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, e.calls)
	assert.Zero(t, w.calls)
}

func TestUploader_Ingest_BatchFlushes(t *testing.T) {
	docs := []repository.Article{
		article(0, "one two three"),
		article(1, ""),
		article(2, "four five"),
	}

	testCases := []struct {
		name      string
		batchSize int
		batches   []int
	}{
		{"FlushAtThreshold", 4, []int{5}},
		{"FlushEveryDocument", 2, []int{3, 2}},
		{"FinalFlushOnly", 32, []int{5}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, w := &fakeEmbedder{}, &fakeWriter{}
			u := newTestUploader(t, wordChunker{}, e, w, WithBatchSize(tc.batchSize))

			n, err := u.Ingest(context.Background(), docs)
			require.NoError(t, err)
			assert.Equal(t, 5, n)
			assert.Equal(t, tc.batches, batchSizes(w.batches))

			// The empty article is never sent to the embedder.
			assert.Equal(t, [][]string{{"one", "two", "three"}, {"four", "five"}}, e.calls)
		})
	}
}

func TestUploader_Ingest_PartialFinalBatch(t *testing.T) {
	docs := []repository.Article{article(0, "a"), article(1, "b"), article(2, "c")}
	e, w := &fakeEmbedder{}, &fakeWriter{}
	u := newTestUploader(t, wordChunker{}, e, w, WithBatchSize(2))

	n, err := u.Ingest(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int{2, 1}, batchSizes(w.batches))
}

func TestUploader_Ingest_Points(t *testing.T) {
	docs := []repository.Article{
		article(0, "one two three"),
		article(1, ""),
		article(2, "four five"),
	}
	e, w := &fakeEmbedder{}, &fakeWriter{}
	u := newTestUploader(t, wordChunker{}, e, w, WithBatchSize(4))

	_, err := u.Ingest(context.Background(), docs)
	require.NoError(t, err)

	points := w.points()
	require.Len(t, points, 5)

	texts := make([]string, len(points))
	for i, p := range points {
		assert.Equal(t, uint64(i), p.ID)
		texts[i] = p.Payload.Text
	}
	assert.Equal(t, []string{"one", "two", "three", "four", "five"}, texts)

	assert.Equal(t, docs[0].Title, points[0].Payload.Title)
	assert.Equal(t, docs[0].URL, points[2].Payload.URL)
	assert.Equal(t, docs[2].Title, points[3].Payload.Title)
	assert.Equal(t, docs[2].URL, points[4].Payload.URL)

	// Vectors come from the call made for their own article.
	assert.Equal(t, float32(1), points[0].Vector[0])
	assert.Equal(t, float32(2), points[4].Vector[0])
}

func TestUploader_Ingest_WindowChunker(t *testing.T) {
	chunker, err := chunking.NewWindowChunker()
	require.NoError(t, err)

	e, w := &fakeEmbedder{}, &fakeWriter{}
	u := newTestUploader(t, chunker, e, w)

	docs := []repository.Article{
		article(0, strings.Repeat("A", 1000)),
		article(1, "too short"),
	}
	n, err := u.Ingest(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, e.calls, 1)

	points := w.points()
	assert.Len(t, points[0].Payload.Text, 800)
	assert.Len(t, points[1].Payload.Text, 300)
}

func TestUploader_Ingest_EmbeddingFailureAborts(t *testing.T) {
	docs := []repository.Article{
		article(0, "one two"),
		article(1, "three four"),
		article(2, "five six"),
	}
	e, w := &fakeEmbedder{failOn: 2}, &fakeWriter{}
	u := newTestUploader(t, wordChunker{}, e, w, WithBatchSize(1))

	n, err := u.Ingest(context.Background(), docs)
	require.Error(t, err)
	assert.ErrorIs(t, err, embedding.ErrEmbeddingService)

	// D0 stays committed, D1 never reaches the store, D2 is never attempted.
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{2}, batchSizes(w.batches))
	assert.Len(t, e.calls, 2)
}

func TestUploader_Ingest_EmbeddingFailureDropsUnflushed(t *testing.T) {
	docs := []repository.Article{article(0, "one two"), article(1, "three")}
	e, w := &fakeEmbedder{failOn: 2}, &fakeWriter{}
	u := newTestUploader(t, wordChunker{}, e, w, WithBatchSize(10))

	n, err := u.Ingest(context.Background(), docs)
	assert.ErrorIs(t, err, embedding.ErrEmbeddingService)
	assert.Equal(t, 0, n)
	assert.Zero(t, w.calls)
}

func TestUploader_Ingest_StoreFailure(t *testing.T) {
	docs := []repository.Article{
		article(0, "one two"),
		article(1, "three four"),
		article(2, "five six"),
	}
	e, w := &fakeEmbedder{}, &fakeWriter{failOn: 2}
	u := newTestUploader(t, wordChunker{}, e, w, WithBatchSize(2))

	n, err := u.Ingest(context.Background(), docs)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreWrite)
	assert.ErrorIs(t, err, errStoreDown)

	assert.Equal(t, 2, n)
	assert.Equal(t, []int{2}, batchSizes(w.batches))
	assert.Len(t, e.calls, 2)
}

func TestUploader_Ingest_VectorCountMismatch(t *testing.T) {
	e, w := &fakeEmbedder{short: true}, &fakeWriter{}
	u := newTestUploader(t, wordChunker{}, e, w)

	_, err := u.Ingest(context.Background(), []repository.Article{article(0, "one two")})
	assert.ErrorIs(t, err, embedding.ErrEmbeddingService)
	assert.Zero(t, w.calls)
}

func TestUploader_Ingest_DimensionMismatch(t *testing.T) {
	e, w := &fakeEmbedder{dim: 3}, &fakeWriter{}
	u := newTestUploader(t, wordChunker{}, e, w, WithDimension(1024))

	_, err := u.Ingest(context.Background(), []repository.Article{article(0, "one")})
	assert.ErrorIs(t, err, embedding.ErrEmbeddingService)
	assert.Zero(t, w.calls)
}

func TestUploader_Ingest_StrideIDs(t *testing.T) {
	docs := []repository.Article{article(0, "a b"), article(1, ""), article(2, "c d e")}
	e, w := &fakeEmbedder{}, &fakeWriter{}
	u := newTestUploader(t, wordChunker{}, e, w, WithIDScheme(IDSchemeStride))

	_, err := u.Ingest(context.Background(), docs)
	require.NoError(t, err)

	var ids []uint64
	for _, p := range w.points() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []uint64{0, 1, 20, 21, 22}, ids)
}

func TestUploader_Ingest_StrideOverflow(t *testing.T) {
	docs := []repository.Article{
		article(0, "a b"),
		article(1, strings.Repeat("w ", 11)),
	}
	e, w := &fakeEmbedder{}, &fakeWriter{}
	u := newTestUploader(t, wordChunker{}, e, w, WithIDScheme(IDSchemeStride), WithBatchSize(1))

	n, err := u.Ingest(context.Background(), docs)
	assert.ErrorIs(t, err, ErrIDCollision)
	assert.Equal(t, 2, n)
}

func TestUploader_Ingest_HashedIDsStable(t *testing.T) {
	docs := []repository.Article{article(0, "a b c"), article(1, "d e")}

	run := func() []uint64 {
		e, w := &fakeEmbedder{}, &fakeWriter{}
		u := newTestUploader(t, wordChunker{}, e, w, WithIDScheme(IDSchemeHashed))
		_, err := u.Ingest(context.Background(), docs)
		require.NoError(t, err)
		var ids []uint64
		for _, p := range w.points() {
			ids = append(ids, p.ID)
		}
		return ids
	}

	first, second := run(), run()
	assert.Equal(t, first, second)
	assert.Equal(t, HashedPointID(docs[1].ID, 1), first[4])
}

func TestUploader_Ingest_SequentialRestartsPerRun(t *testing.T) {
	e, w := &fakeEmbedder{}, &fakeWriter{}
	u := newTestUploader(t, wordChunker{}, e, w)
	docs := []repository.Article{article(0, "a b")}

	_, err := u.Ingest(context.Background(), docs)
	require.NoError(t, err)
	_, err = u.Ingest(context.Background(), docs)
	require.NoError(t, err)

	points := w.points()
	require.Len(t, points, 4)
	assert.Equal(t, points[0].ID, points[2].ID)
}

func TestUploader_Ingest_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, w := &fakeEmbedder{}, &fakeWriter{}
	u := newTestUploader(t, wordChunker{}, e, w)

	n, err := u.Ingest(ctx, []repository.Article{article(0, "a")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, n)
	assert.Empty(t, e.calls)
}

func TestNewUploader_Validation(t *testing.T) {
	testCases := []struct {
		name string
		opts []Option
	}{
		{"ZeroBatch", []Option{WithBatchSize(0)}},
		{"NegativeDimension", []Option{WithDimension(-1)}},
		{"UnknownScheme", []Option{WithIDScheme("random")}},
		{"ZeroStride", []Option{WithIDScheme(IDSchemeStride), WithIDStride(0)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewUploader(wordChunker{}, &fakeEmbedder{}, &fakeWriter{}, zap.NewNop(), tc.opts...)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}
