package document

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	domainDoc "github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/infrastructure/docfs"
	"github.com/docmind/backend/internal/infrastructure/markdown"
	"github.com/docmind/backend/internal/infrastructure/storage"
	"github.com/docmind/backend/internal/infrastructure/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "u1"

// stubConverter 返回固定文本或错误
type stubConverter struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []domainDoc.ConvertRequest
}

func (c *stubConverter) Convert(ctx context.Context, req domainDoc.ConvertRequest) (<-chan domainDoc.ConvertChunk, error) {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	text, err := c.text, c.err
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	out := make(chan domainDoc.ConvertChunk, 1)
	out <- domainDoc.ConvertChunk{Text: text}
	close(out)
	return out, nil
}

// stubVectors 内存向量索引
type stubVectors struct {
	mu       sync.Mutex
	added    map[string][]string
	deleted  []string
	addErr   error
	queryErr error
	lastReq  domainDoc.QueryRequest
}

func newStubVectors() *stubVectors {
	return &stubVectors{added: make(map[string][]string)}
}

func (v *stubVectors) Add(_ context.Context, _, _ string, texts []string, metadatas []map[string]string) (*domainDoc.AddResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.addErr != nil {
		return nil, v.addErr
	}
	for i, md := range metadatas {
		v.added[md["document_id"]] = append(v.added[md["document_id"]], texts[i])
	}
	return &domainDoc.AddResult{Added: len(texts)}, nil
}

func (v *stubVectors) Delete(_ context.Context, _, _, documentID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.deleted = append(v.deleted, documentID)
	delete(v.added, documentID)
	return nil
}

func (v *stubVectors) Query(_ context.Context, req domainDoc.QueryRequest) ([]domainDoc.QueryResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastReq = req
	if v.queryErr != nil {
		return nil, v.queryErr
	}
	return []domainDoc.QueryResult{{Text: "hit", Metadata: map[string]string{"document_id": "d"}}}, nil
}

type fixture struct {
	svc       *Service
	layout    *docfs.Layout
	meta      *storage.MetadataStore
	converter *stubConverter
	vectors   *stubVectors
}

func newFixture(t *testing.T, mutate func(*Config), opts ...Option) *fixture {
	t.Helper()
	layout := docfs.NewLayout(docfs.NewPathResolver(t.TempDir()))
	meta := storage.NewMetadataStore(layout)
	conv := &stubConverter{text: "# converted\n\nbody"}
	vectors := newStubVectors()

	cfg := Config{
		MaxFileSize:         1 << 20,
		MaxTotalSizePerUser: 10 << 20,
		MaxVersions:         2,
		UploadChunkSize:     4,
		AllowedExtensions:   []string{".txt", ".md", ".pdf"},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	opts = append([]Option{
		WithClock(now),
		WithChunker(markdown.NewChunker(64, tokenizer.RuneCounter{})),
	}, opts...)

	return &fixture{
		svc:       NewService(cfg, layout, meta, conv, vectors, opts...),
		layout:    layout,
		meta:      meta,
		converter: conv,
		vectors:   vectors,
	}
}

func (f *fixture) upload(t *testing.T, name, content string) *domainDoc.Document {
	t.Helper()
	doc, err := f.svc.SaveDocument(context.Background(), testUser, Upload{
		FileName: name,
		Reader:   strings.NewReader(content),
	}, nil)
	require.NoError(t, err)
	return doc
}

func strPtr(s string) *string { return &s }

func TestDocumentLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	doc := f.upload(t, "hello.txt", "hello")
	assert.Equal(t, domainDoc.StateUploaded, doc.State)
	assert.Equal(t, int64(5), doc.Size)

	doc, err := f.svc.SaveMarkdown(ctx, testUser, doc.DocumentID, strPtr("# hi"))
	require.NoError(t, err)
	assert.Equal(t, domainDoc.StateMarkdowned, doc.State)
	assert.True(t, doc.HasMarkdown)
	assert.Empty(t, f.converter.calls, "调用方提供内容时不走转换器")

	doc, err = f.svc.SaveChunks(ctx, testUser, doc.DocumentID, []domainDoc.Chunk{{Content: "a"}, {Content: "b"}})
	require.NoError(t, err)
	assert.Equal(t, domainDoc.StateChunked, doc.State)
	assert.Len(t, doc.Chunks, 2)
	assert.True(t, doc.HasChunks)

	doc, err = f.svc.CreateDocumentIndex(ctx, testUser, doc.DocumentID, "")
	require.NoError(t, err)
	assert.Equal(t, domainDoc.StateEmbedded, doc.State)
	assert.True(t, doc.HasEmbeddings)
	assert.Equal(t, []string{"a", "b"}, f.vectors.added[doc.DocumentID])
	detail := doc.Detail(domainDoc.StageEmbedding)
	require.NotNil(t, detail)
	assert.Equal(t, domainDoc.StageCompleted, detail.State)
	assert.EqualValues(t, 2, detail.Details["indexed_chunks"])

	ok, err := f.svc.DeleteDocument(ctx, testUser, doc.DocumentID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, f.svc.DocumentExists(testUser, doc.DocumentID))

	metaPath, _ := f.layout.MetaPath(testUser, doc.DocumentID)
	assert.NoFileExists(t, metaPath)
	rawPath, _ := f.layout.RawPath(testUser, doc.DocumentID)
	assert.NoFileExists(t, rawPath)
	chunkDir, _ := f.layout.ChunkDir(testUser, doc.DocumentID)
	assert.NoDirExists(t, chunkDir)
	assert.Contains(t, f.vectors.deleted, doc.DocumentID)
}

func TestDerivedFlagsFollowState(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	doc := f.upload(t, "a.txt", "content")

	check := func(d *domainDoc.Document) {
		t.Helper()
		assert.Equal(t, domainDoc.DerivedFlags(d.SourceType, d.State), d.Flags(), "state %s", d.State)
		status := domainDoc.StatusActive
		if d.State.IsProcessing() {
			status = domainDoc.StatusProcessing
		}
		assert.Equal(t, status, d.Status)
	}
	check(doc)

	doc, err := f.svc.SaveMarkdown(ctx, testUser, doc.DocumentID, nil)
	require.NoError(t, err)
	check(doc)
	doc, err = f.svc.ChunkMarkdown(ctx, testUser, doc.DocumentID)
	require.NoError(t, err)
	check(doc)
	doc, err = f.svc.CreateDocumentIndex(ctx, testUser, doc.DocumentID, IndexSourceChunks)
	require.NoError(t, err)
	check(doc)
}

func TestSaveDocument_Validation(t *testing.T) {
	t.Run("扩展名不在白名单", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.SaveDocument(context.Background(), testUser, Upload{FileName: "x.exe", Reader: strings.NewReader("x")}, nil)
		assert.ErrorIs(t, err, domainDoc.ErrValidation)
	})

	t.Run("非法用户", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.SaveDocument(context.Background(), "../evil", Upload{FileName: "x.txt", Reader: strings.NewReader("x")}, nil)
		assert.ErrorIs(t, err, domainDoc.ErrValidation)
	})

	t.Run("单文件超限不留残余文件", func(t *testing.T) {
		f := newFixture(t, func(c *Config) { c.MaxFileSize = 4 })
		_, err := f.svc.SaveDocument(context.Background(), testUser, Upload{FileName: "x.txt", Reader: strings.NewReader("hello")}, nil)
		assert.ErrorIs(t, err, domainDoc.ErrValidation)

		rawDir := filepath.Join(f.layout.Resolver().BaseDir(), testUser, docfs.RawDir)
		entries, _ := os.ReadDir(rawDir)
		assert.Empty(t, entries)
		metaDir, _ := f.layout.MetaDirPath(testUser)
		entries, _ = os.ReadDir(metaDir)
		assert.Empty(t, entries)
	})

	t.Run("用户总量超限", func(t *testing.T) {
		f := newFixture(t, func(c *Config) { c.MaxTotalSizePerUser = 8 })
		f.upload(t, "a.txt", "hello")

		_, err := f.svc.SaveDocument(context.Background(), testUser, Upload{FileName: "b.txt", Reader: strings.NewReader("hello")}, nil)
		assert.ErrorIs(t, err, domainDoc.ErrQuotaExceeded)

		rawDir := filepath.Join(f.layout.Resolver().BaseDir(), testUser, docfs.RawDir)
		entries, _ := os.ReadDir(rawDir)
		assert.Len(t, entries, 1)

		usage, err := f.svc.CalculateStorageUsage(testUser)
		require.NoError(t, err)
		assert.Equal(t, int64(5), usage)
	})

	t.Run("配额已用尽时写入前拒绝", func(t *testing.T) {
		f := newFixture(t, func(c *Config) { c.MaxTotalSizePerUser = 5 })
		f.upload(t, "a.txt", "hello")

		reader := &countingReader{r: bytes.NewReader([]byte("x"))}
		_, err := f.svc.SaveDocument(context.Background(), testUser, Upload{FileName: "b.txt", Reader: reader}, nil)
		assert.ErrorIs(t, err, domainDoc.ErrQuotaExceeded)
		assert.Zero(t, reader.reads)
	})

	t.Run("已知大小超出剩余配额时写入前拒绝", func(t *testing.T) {
		f := newFixture(t, func(c *Config) { c.MaxTotalSizePerUser = 8 })
		f.upload(t, "a.txt", "hello")

		reader := &countingReader{r: bytes.NewReader([]byte("world"))}
		_, err := f.svc.SaveDocument(context.Background(), testUser, Upload{FileName: "b.txt", Reader: reader, Size: 5}, nil)
		assert.ErrorIs(t, err, domainDoc.ErrQuotaExceeded)
		assert.Zero(t, reader.reads)

		rawDir := filepath.Join(f.layout.Resolver().BaseDir(), testUser, docfs.RawDir)
		entries, _ := os.ReadDir(rawDir)
		assert.Len(t, entries, 1)
	})

	t.Run("已知大小超出单文件上限时不读取内容", func(t *testing.T) {
		f := newFixture(t, func(c *Config) { c.MaxFileSize = 4 })

		reader := &countingReader{r: bytes.NewReader([]byte("hello"))}
		_, err := f.svc.SaveDocument(context.Background(), testUser, Upload{FileName: "x.txt", Reader: reader, Size: 5}, nil)
		assert.ErrorIs(t, err, domainDoc.ErrValidation)
		assert.Zero(t, reader.reads)
	})
}

type countingReader struct {
	r     *bytes.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}

func TestSaveChunks_IllegalTransition(t *testing.T) {
	f := newFixture(t, nil)
	doc := f.upload(t, "a.txt", "x")

	_, err := f.svc.SaveChunks(context.Background(), testUser, doc.DocumentID, []domainDoc.Chunk{{Content: "a"}})
	assert.ErrorIs(t, err, domainDoc.ErrIllegalTransition)

	got, err := f.svc.GetDocument(testUser, doc.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, domainDoc.StateUploaded, got.State)
}

func TestSaveMarkdown_ConverterFailure(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	doc := f.upload(t, "a.pdf", "%PDF")

	f.converter.err = errors.New("converter down")
	got, err := f.svc.SaveMarkdown(ctx, testUser, doc.DocumentID, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainDoc.ErrStageFailed)
	require.NotNil(t, got, "失败时仍返回最新元数据")
	assert.Equal(t, domainDoc.StateMarkdownFailed, got.State)
	detail := got.Detail(domainDoc.StageMarkdown)
	require.NotNil(t, detail)
	assert.Equal(t, domainDoc.StageFailed, detail.State)
	assert.Contains(t, detail.Error, "converter down")
	require.NotNil(t, detail.Success)
	assert.False(t, *detail.Success)

	f.converter.err = nil
	got, err = f.svc.SaveMarkdown(ctx, testUser, doc.DocumentID, nil)
	require.NoError(t, err)
	assert.Equal(t, domainDoc.StateMarkdowned, got.State)

	require.Len(t, f.converter.calls, 2)
	assert.Equal(t, domainDoc.ContentBase64, f.converter.calls[1].ContentType)
	assert.Equal(t, "pdf", f.converter.calls[1].FileType)

	text, err := f.svc.ReadMarkdown(testUser, doc.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "# converted\n\nbody", text)
}

func TestSaveMarkdown_RemoteUsesURL(t *testing.T) {
	f := newFixture(t, nil)
	doc, err := f.svc.CreateRemoteDocument(context.Background(), testUser, "https://example.com/files/report.pdf", nil)
	require.NoError(t, err)
	assert.Equal(t, domainDoc.SourceRemote, doc.SourceType)
	assert.Equal(t, "report.pdf", doc.OriginalName)

	_, err = f.svc.SaveMarkdown(context.Background(), testUser, doc.DocumentID, nil)
	require.NoError(t, err)
	require.Len(t, f.converter.calls, 1)
	assert.Equal(t, domainDoc.ContentURL, f.converter.calls[0].ContentType)
	assert.Equal(t, "https://example.com/files/report.pdf", f.converter.calls[0].Content)

	_, err = f.svc.CreateRemoteDocument(context.Background(), testUser, "ftp://example.com/x", nil)
	assert.ErrorIs(t, err, domainDoc.ErrValidation)
}

func TestSaveMarkdown_RotatesBackups(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.MaxVersions = 1 })
	ctx := context.Background()
	doc := f.upload(t, "a.txt", "x")

	_, err := f.svc.SaveMarkdown(ctx, testUser, doc.DocumentID, strPtr("v1"))
	require.NoError(t, err)
	_, err = f.svc.SaveChunks(ctx, testUser, doc.DocumentID, []domainDoc.Chunk{{Content: "v1"}})
	require.NoError(t, err)
	_, err = f.svc.CreateDocumentIndex(ctx, testUser, doc.DocumentID, "")
	require.NoError(t, err)

	// embedded 之后可以重新生成 markdown
	_, err = f.svc.SaveMarkdown(ctx, testUser, doc.DocumentID, strPtr("v2"))
	require.NoError(t, err)

	dir, err := f.layout.BackupDir(testUser, docfs.MarkdownDir, doc.DocumentID)
	require.NoError(t, err)
	backups := docfs.ListBackups(dir, doc.DocumentID+".md")
	require.Len(t, backups, 1)
	data, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))
}

func TestChunkMarkdown_WritesChunkFiles(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	doc := f.upload(t, "a.md", "x")

	_, err := f.svc.SaveMarkdown(ctx, testUser, doc.DocumentID, strPtr("# One\n\nfirst\n\n# Two\n\nsecond"))
	require.NoError(t, err)
	doc, err = f.svc.ChunkMarkdown(ctx, testUser, doc.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, domainDoc.StateChunked, doc.State)
	require.NotEmpty(t, doc.Chunks)

	dir, _ := f.layout.ChunkDir(testUser, doc.DocumentID)
	assert.FileExists(t, filepath.Join(dir, "0000.md"))

	chunks, err := f.svc.GetChunks(testUser, doc.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, len(doc.Chunks), len(chunks))
}

func TestSaveChunks_RepairsMarkdownDrift(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	doc := f.upload(t, "a.txt", "x")

	// markdown 文件已写入但状态仍停在 uploaded，模拟进程中途退出
	mdPath, _ := f.layout.MarkdownPath(testUser, doc.DocumentID)
	require.NoError(t, docfs.WriteFileAtomic(mdPath, []byte("# hi"), 0644))

	got, err := f.svc.SaveChunks(ctx, testUser, doc.DocumentID, []domainDoc.Chunk{{Content: "a"}})
	require.NoError(t, err)
	assert.Equal(t, domainDoc.StateChunked, got.State)
}

func TestGetDocumentMachine_RepairsFlags(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	doc := f.upload(t, "a.txt", "x")
	_, err := f.svc.SaveMarkdown(ctx, testUser, doc.DocumentID, strPtr("# hi"))
	require.NoError(t, err)

	_, err = f.meta.Update(testUser, doc.DocumentID, map[string]interface{}{"has_markdown": false})
	require.NoError(t, err)
	_, _, err = f.svc.getDocumentMachine(ctx, testUser, doc.DocumentID)
	require.NoError(t, err)
	got, _ := f.svc.GetDocument(testUser, doc.DocumentID)
	assert.True(t, got.HasMarkdown)

	// 不可达状态按标记回退
	_, err = f.meta.Update(testUser, doc.DocumentID, map[string]interface{}{"state": "qa_extracted"})
	require.NoError(t, err)
	_, m, err := f.svc.getDocumentMachine(ctx, testUser, doc.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, domainDoc.StateMarkdowned, m.State())
}

func TestCreateDocumentIndex_WithoutVectorIndex(t *testing.T) {
	layout := docfs.NewLayout(docfs.NewPathResolver(t.TempDir()))
	svc := NewService(Config{AllowedExtensions: []string{".txt"}}, layout, storage.NewMetadataStore(layout), &stubConverter{}, nil)
	ctx := context.Background()

	doc, err := svc.SaveDocument(ctx, testUser, Upload{FileName: "a.txt", Reader: strings.NewReader("x")}, nil)
	require.NoError(t, err)
	_, err = svc.SaveMarkdown(ctx, testUser, doc.DocumentID, strPtr("# hi"))
	require.NoError(t, err)
	_, err = svc.SaveChunks(ctx, testUser, doc.DocumentID, []domainDoc.Chunk{{Content: "a"}})
	require.NoError(t, err)

	got, err := svc.CreateDocumentIndex(ctx, testUser, doc.DocumentID, "")
	assert.ErrorIs(t, err, domainDoc.ErrStageFailed)
	require.NotNil(t, got)
	assert.Equal(t, domainDoc.StateEmbeddingFailed, got.State)

	assert.Empty(t, svc.SearchDocuments(ctx, testUser, "query", "", 0))

	// 推进到需要向量索引的阶段时停止，不报错
	got, err = svc.AdvanceDocument(ctx, testUser, doc.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, domainDoc.StateEmbeddingFailed, got.State)
}

func TestCreateDocumentIndex_AddFailure(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	doc := f.upload(t, "a.txt", "x")
	_, err := f.svc.SaveMarkdown(ctx, testUser, doc.DocumentID, strPtr("# hi"))
	require.NoError(t, err)
	_, err = f.svc.SaveChunks(ctx, testUser, doc.DocumentID, []domainDoc.Chunk{{Content: "a"}})
	require.NoError(t, err)

	f.vectors.addErr = errors.New("index offline")
	got, err := f.svc.CreateDocumentIndex(ctx, testUser, doc.DocumentID, "")
	assert.ErrorIs(t, err, domainDoc.ErrStageFailed)
	assert.Equal(t, domainDoc.StateEmbeddingFailed, got.State)
	assert.Contains(t, got.Detail(domainDoc.StageEmbedding).Error, "index offline")

	// 失败后走 retry_embedding
	f.vectors.addErr = nil
	got, err = f.svc.CreateDocumentIndex(ctx, testUser, doc.DocumentID, "")
	require.NoError(t, err)
	assert.Equal(t, domainDoc.StateEmbedded, got.State)
}

func TestSearchDocuments(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	assert.Empty(t, f.svc.SearchDocuments(ctx, testUser, "  ", "", 5))

	results := f.svc.SearchDocuments(ctx, testUser, "hello", "doc-1", 0)
	require.Len(t, results, 1)
	assert.Equal(t, defaultSearchLimit, f.vectors.lastReq.Limit)
	assert.Equal(t, map[string]string{"document_id": "doc-1"}, f.vectors.lastReq.Filter)
	assert.Equal(t, testUser, f.vectors.lastReq.UserID)

	f.vectors.queryErr = errors.New("boom")
	assert.Empty(t, f.svc.SearchDocuments(ctx, testUser, "hello", "", 5))
}

func TestChatDocumentPipeline(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	messages := []domainDoc.ChatMessage{
		{Role: "system", Content: "be nice"},
		{Role: "user", Content: "what is go?"},
		{Role: "assistant", Content: "a language"},
		{Role: "user", Content: "who made it?"},
		{Role: "assistant", Content: "google"},
	}

	doc, err := f.svc.CreateChatDocument(ctx, testUser, messages, map[string]interface{}{"title": "go chat"})
	require.NoError(t, err)
	assert.Equal(t, domainDoc.StateSavedChat, doc.State)
	assert.Equal(t, "go chat", doc.OriginalName)
	assert.Equal(t, domainDoc.StageNotApplicable, doc.Detail(domainDoc.StageMarkdown).State)

	_, err = f.svc.SaveMarkdown(ctx, testUser, doc.DocumentID, strPtr("x"))
	assert.ErrorIs(t, err, domainDoc.ErrIllegalTransition)

	doc, err = f.svc.AdvanceDocument(ctx, testUser, doc.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, domainDoc.StateEmbedded, doc.State)
	assert.True(t, doc.HasQAPairs)
	assert.Equal(t, 2, doc.QAPairsCount)

	pairs, err := f.svc.GetQAPairs(testUser, doc.DocumentID)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "who made it?", pairs[1].Question)
	assert.Equal(t, []string{"Q: what is go?\nA: a language", "Q: who made it?\nA: google"}, f.vectors.added[doc.DocumentID])
}

func TestExtractQAPairs_NoPairs(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	doc, err := f.svc.CreateChatDocument(ctx, testUser, []domainDoc.ChatMessage{{Role: "user", Content: "hello?"}}, nil)
	require.NoError(t, err)

	got, err := f.svc.ExtractQAPairs(ctx, testUser, doc.DocumentID)
	assert.ErrorIs(t, err, domainDoc.ErrStageFailed)
	assert.Equal(t, domainDoc.StateQAExtractFailed, got.State)

	got, err = f.svc.SaveQAPairs(ctx, testUser, doc.DocumentID, []domainDoc.QAPair{{Question: "q", Answer: "a"}})
	require.NoError(t, err)
	assert.Equal(t, domainDoc.StateQAExtracted, got.State)
}

func TestPairMessages(t *testing.T) {
	tests := []struct {
		name     string
		messages []domainDoc.ChatMessage
		want     []domainDoc.QAPair
	}{
		{
			name: "一问一答",
			messages: []domainDoc.ChatMessage{
				{Role: "user", Content: "q"}, {Role: "assistant", Content: "a"},
			},
			want: []domainDoc.QAPair{{Question: "q", Answer: "a", Index: 0}},
		},
		{
			name: "连续提问与连续回答合并",
			messages: []domainDoc.ChatMessage{
				{Role: "user", Content: "q1"}, {Role: "user", Content: "q2"},
				{Role: "assistant", Content: "a1"}, {Role: "assistant", Content: "a2"},
			},
			want: []domainDoc.QAPair{{Question: "q1\n\nq2", Answer: "a1\n\na2", Index: 0}},
		},
		{
			name: "丢弃开头回复和结尾提问",
			messages: []domainDoc.ChatMessage{
				{Role: "assistant", Content: "hi"},
				{Role: "user", Content: "q"}, {Role: "system", Content: "s"}, {Role: "assistant", Content: "a"},
				{Role: "user", Content: "unanswered"},
			},
			want: []domainDoc.QAPair{{Question: "q", Answer: "a", Index: 0}},
		},
		{
			name:     "空对话",
			messages: nil,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PairMessages(tt.messages))
		})
	}
}

func TestDeleteDocument(t *testing.T) {
	t.Run("不存在", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.DeleteDocument(context.Background(), testUser, "missing")
		assert.ErrorIs(t, err, domainDoc.ErrNotFound)
	})

	t.Run("元数据丢失时仍清理原始文件", func(t *testing.T) {
		f := newFixture(t, nil)
		doc := f.upload(t, "a.txt", "x")
		require.NoError(t, f.meta.Delete(testUser, doc.DocumentID))

		ok, err := f.svc.DeleteDocument(context.Background(), testUser, doc.DocumentID)
		require.NoError(t, err)
		assert.True(t, ok)
		rawPath, _ := f.layout.RawPath(testUser, doc.DocumentID)
		assert.NoFileExists(t, rawPath)
	})
}

func TestAdvanceDocument(t *testing.T) {
	t.Run("从上传推进到向量化", func(t *testing.T) {
		f := newFixture(t, nil)
		doc := f.upload(t, "a.txt", "x")
		got, err := f.svc.AdvanceDocument(context.Background(), testUser, doc.DocumentID)
		require.NoError(t, err)
		assert.Equal(t, domainDoc.StateEmbedded, got.State)
	})

	t.Run("处理中断的文档先标记失败再重试", func(t *testing.T) {
		f := newFixture(t, nil)
		doc := f.upload(t, "a.txt", "x")
		_, err := f.meta.Update(testUser, doc.DocumentID, statePatch(domainDoc.SourceLocal, domainDoc.StateMarkdowning, time.Now()))
		require.NoError(t, err)

		got, err := f.svc.AdvanceDocument(context.Background(), testUser, doc.DocumentID)
		require.NoError(t, err)
		assert.Equal(t, domainDoc.StateEmbedded, got.State)
	})

	t.Run("遇到失败即停止", func(t *testing.T) {
		f := newFixture(t, nil)
		doc := f.upload(t, "a.txt", "x")
		f.converter.err = errors.New("down")
		got, err := f.svc.AdvanceDocument(context.Background(), testUser, doc.DocumentID)
		assert.ErrorIs(t, err, domainDoc.ErrStageFailed)
		assert.Equal(t, domainDoc.StateMarkdownFailed, got.State)
	})
}

func TestConcurrentSaveMarkdown_Serialized(t *testing.T) {
	f := newFixture(t, nil)
	doc := f.upload(t, "a.txt", "x")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.SaveMarkdown(context.Background(), testUser, doc.DocumentID, strPtr("# hi"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domainDoc.ErrIllegalTransition)
	}
	assert.Equal(t, 1, succeeded)

	got, err := f.svc.GetDocument(testUser, doc.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, domainDoc.StateMarkdowned, got.State)
	assert.Zero(t, f.svc.locks.size())
}

func TestListDocuments_InMemoryFilter(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.upload(t, "a.txt", "x")
	f.upload(t, "b.txt", "y")
	_, err := f.svc.CreateBookmarkDocument(ctx, testUser, "https://example.com", "Example", nil)
	require.NoError(t, err)
	_, err = f.svc.SaveMarkdown(ctx, testUser, a.DocumentID, strPtr("# a"))
	require.NoError(t, err)

	all, err := f.svc.ListDocuments(testUser, domainDoc.CatalogFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	web, err := f.svc.ListDocuments(testUser, domainDoc.CatalogFilter{SourceType: domainDoc.SourceWeb})
	require.NoError(t, err)
	require.Len(t, web, 1)
	assert.Equal(t, "Example", web[0].OriginalName)

	md, err := f.svc.ListDocuments(testUser, domainDoc.CatalogFilter{State: domainDoc.StateMarkdowned})
	require.NoError(t, err)
	require.Len(t, md, 1)
	assert.Equal(t, a.DocumentID, md[0].DocumentID)

	page, err := f.svc.ListDocuments(testUser, domainDoc.CatalogFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	counts, err := f.svc.StateCounts(testUser)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domainDoc.StateUploaded])
	assert.Equal(t, 1, counts[domainDoc.StateBookmarked])
	assert.Equal(t, 1, counts[domainDoc.StateMarkdowned])

	history, err := f.svc.GetDocumentHistory(testUser, a.DocumentID)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = f.svc.RebuildCatalog(testUser)
	assert.ErrorIs(t, err, domainDoc.ErrValidation)
}
