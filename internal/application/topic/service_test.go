package topic

import (
	"os"
	"path/filepath"
	"testing"

	domainTopic "github.com/docmind/backend/internal/domain/topic"
	"github.com/docmind/backend/internal/infrastructure/docfs"
	"github.com/docmind/backend/internal/infrastructure/index"
	"github.com/docmind/backend/internal/infrastructure/markdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "u1"

func newTestService(t *testing.T) (*Service, *docfs.PathResolver, *index.DocumentIndex) {
	t.Helper()
	resolver := docfs.NewPathResolver(t.TempDir())
	store := markdown.NewFrontMatterStore()
	idx := index.NewDocumentIndex(resolver, store)
	return NewService(resolver, idx, store), resolver, idx
}

func recordedTopic(t *testing.T, resolver *docfs.PathResolver, topicPath, id string) string {
	t.Helper()
	path, err := resolver.DocumentPath(testUser, topicPath, id)
	require.NoError(t, err)
	fm, _, err := markdown.ReadFile(path)
	require.NoError(t, err)
	require.NotNil(t, fm)
	return fm.TopicPath
}

func TestCreateAndReadDocument(t *testing.T) {
	svc, _, _ := newTestService(t)

	doc, err := svc.CreateDocument(testUser, "notes/go", "Goroutines", "body", map[string]interface{}{"tags": "go"})
	require.NoError(t, err)
	assert.Equal(t, "notes/go", doc.TopicPath)

	got, err := svc.ReadDocument(testUser, doc.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "Goroutines", got.Title)
	assert.Equal(t, "body", got.Content)
	assert.Equal(t, "go", got.Extra["tags"])

	_, err = svc.CreateDocument(testUser, "notes", "  ", "x", nil)
	assert.ErrorIs(t, err, domainTopic.ErrInvalidDocument)

	_, err = svc.ReadDocument(testUser, "missing")
	assert.ErrorIs(t, err, domainTopic.ErrDocumentNotFound)
}

func TestReadDocument_SelfHealsAfterExternalMove(t *testing.T) {
	svc, resolver, idx := newTestService(t)
	doc, err := svc.CreateDocument(testUser, "a", "T", "content", nil)
	require.NoError(t, err)

	// 绕过服务直接在磁盘上移动文件
	oldPath, _ := resolver.DocumentPath(testUser, "a", doc.DocumentID)
	newDir, err := resolver.GetTopicPath(testUser, "b/c")
	require.NoError(t, err)
	require.NoError(t, os.Rename(oldPath, filepath.Join(newDir, docfs.DocumentFileName(doc.DocumentID))))

	require.NoError(t, idx.RefreshIndex(testUser, true, ""))
	path, ok := idx.GetDocumentPath(testUser, doc.DocumentID)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(newDir, docfs.DocumentFileName(doc.DocumentID)), path)

	got, err := svc.ReadDocument(testUser, doc.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "b/c", got.TopicPath)
	assert.Equal(t, "content", got.Content)
	assert.Equal(t, "b/c", recordedTopic(t, resolver, "b/c", doc.DocumentID))
}

func TestRenameAndMoveTopic(t *testing.T) {
	svc, resolver, idx := newTestService(t)
	doc, err := svc.CreateDocument(testUser, "a/b", "T", "x", nil)
	require.NoError(t, err)

	newPath, err := svc.RenameTopic(testUser, "a/b", "c")
	require.NoError(t, err)
	assert.Equal(t, "a/c", newPath)
	entry, ok := idx.GetDocumentEntry(testUser, doc.DocumentID)
	require.True(t, ok)
	assert.Equal(t, "a/c", entry.TopicPath)
	assert.Equal(t, "a/c", recordedTopic(t, resolver, "a/c", doc.DocumentID))

	newPath, err = svc.MoveTopic(testUser, "a/c", "z")
	require.NoError(t, err)
	assert.Equal(t, "z/c", newPath)
	assert.Equal(t, "z/c", recordedTopic(t, resolver, "z/c", doc.DocumentID))

	_, err = svc.MoveTopic(testUser, "z", "z/c")
	assert.ErrorIs(t, err, domainTopic.ErrInvalidPath)

	_, err = svc.CreateTopic(testUser, "z/taken")
	require.NoError(t, err)
	_, err = svc.RenameTopic(testUser, "z/c", "taken")
	assert.ErrorIs(t, err, domainTopic.ErrTopicExists)

	_, err = svc.RenameTopic(testUser, "z/c", "x/y")
	assert.ErrorIs(t, err, domainTopic.ErrInvalidPath)

	_, err = svc.RenameTopic(testUser, "", "x")
	assert.ErrorIs(t, err, domainTopic.ErrRootTopic)

	_, err = svc.RenameTopic(testUser, "nope", "x")
	assert.ErrorIs(t, err, domainTopic.ErrTopicNotFound)
}

func TestCopyTopic_ReassignsIDs(t *testing.T) {
	svc, resolver, idx := newTestService(t)
	d1, err := svc.CreateDocument(testUser, "src", "one", "1", nil)
	require.NoError(t, err)
	d2, err := svc.CreateDocument(testUser, "src/sub", "two", "2", nil)
	require.NoError(t, err)

	dst, ids, err := svc.CopyTopic(testUser, "src", "dst")
	require.NoError(t, err)
	assert.Equal(t, "dst", dst)
	require.Len(t, ids, 2)
	assert.NotEqual(t, d1.DocumentID, ids[d1.DocumentID])

	// 原文档位置不变
	entry, ok := idx.GetDocumentEntry(testUser, d1.DocumentID)
	require.True(t, ok)
	assert.Equal(t, "src", entry.TopicPath)

	copied, err := svc.ReadDocument(testUser, ids[d2.DocumentID])
	require.NoError(t, err)
	assert.Equal(t, "dst/sub", copied.TopicPath)
	assert.Equal(t, "two", copied.Title)
	assert.Equal(t, "2", copied.Content)

	assert.ElementsMatch(t, []string{ids[d1.DocumentID], ids[d2.DocumentID]}, resolver.PhysicalDocumentIDs(testUser, "dst", true))

	_, _, err = svc.CopyTopic(testUser, "src", "dst")
	assert.ErrorIs(t, err, domainTopic.ErrTopicExists)
	_, _, err = svc.CopyTopic(testUser, "src", "src/inner")
	assert.ErrorIs(t, err, domainTopic.ErrInvalidPath)
}

func TestMergeTopics(t *testing.T) {
	svc, resolver, idx := newTestService(t)
	a, err := svc.CreateDocument(testUser, "src", "A", "a", nil)
	require.NoError(t, err)
	b, err := svc.CreateDocument(testUser, "dst", "B", "b", nil)
	require.NoError(t, err)

	require.NoError(t, svc.MergeTopics(testUser, "src", "dst", false))

	entry, ok := idx.GetDocumentEntry(testUser, a.DocumentID)
	require.True(t, ok)
	assert.Equal(t, "dst", entry.TopicPath)
	assert.Equal(t, "dst", recordedTopic(t, resolver, "dst", a.DocumentID))
	assert.ElementsMatch(t, []string{a.DocumentID, b.DocumentID}, idx.DocumentsInTopic(testUser, "dst", false))

	err = svc.MergeTopics(testUser, "src", "dst", false)
	assert.ErrorIs(t, err, domainTopic.ErrTopicNotFound)
}

func TestDeleteTopic(t *testing.T) {
	svc, _, idx := newTestService(t)
	doc, err := svc.CreateDocument(testUser, "a/b", "T", "x", nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTopic(testUser, "a"))
	assert.Empty(t, idx.DocumentsInTopic(testUser, "", true))
	_, err = svc.ReadDocument(testUser, doc.DocumentID)
	assert.ErrorIs(t, err, domainTopic.ErrDocumentNotFound)

	assert.ErrorIs(t, svc.DeleteTopic(testUser, ""), domainTopic.ErrRootTopic)
	assert.ErrorIs(t, svc.DeleteTopic(testUser, "a"), domainTopic.ErrTopicNotFound)
}

func TestListTopic(t *testing.T) {
	svc, _, _ := newTestService(t)
	doc, err := svc.CreateDocument(testUser, "a", "Title", "x", nil)
	require.NoError(t, err)
	_, err = svc.CreateTopic(testUser, "a/child")
	require.NoError(t, err)

	listing, err := svc.ListTopic(testUser, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"child"}, listing.Topics)
	require.Len(t, listing.Documents, 1)
	assert.Equal(t, doc.DocumentID, listing.Documents[0].DocumentID)
	assert.Equal(t, "Title", listing.Documents[0].Title)

	_, err = svc.ListTopic(testUser, "../x")
	assert.ErrorIs(t, err, domainTopic.ErrInvalidPath)
}

func TestUpdateMoveDeleteDocument(t *testing.T) {
	svc, _, idx := newTestService(t)
	doc, err := svc.CreateDocument(testUser, "a", "Old", "x", map[string]interface{}{"k": "v"})
	require.NoError(t, err)

	title, content := "New", "y"
	got, err := svc.UpdateDocument(testUser, doc.DocumentID, UpdateRequest{
		Title:   &title,
		Content: &content,
		Extra:   map[string]interface{}{"k": nil, "n": "m"},
	})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "y", got.Content)
	assert.NotContains(t, got.Extra, "k")
	assert.Equal(t, "m", got.Extra["n"])

	got, err = svc.MoveDocument(testUser, doc.DocumentID, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", got.TopicPath)
	entry, ok := idx.GetDocumentEntry(testUser, doc.DocumentID)
	require.True(t, ok)
	assert.Equal(t, "b", entry.TopicPath)

	require.NoError(t, svc.DeleteDocument(testUser, doc.DocumentID))
	_, err = svc.ReadDocument(testUser, doc.DocumentID)
	assert.ErrorIs(t, err, domainTopic.ErrDocumentNotFound)
}

func TestRepairTopic_Idempotent(t *testing.T) {
	svc, resolver, _ := newTestService(t)
	doc, err := svc.CreateDocument(testUser, "a", "T", "x", nil)
	require.NoError(t, err)

	// 手工写入错误的主题路径
	path, _ := resolver.DocumentPath(testUser, "a", doc.DocumentID)
	require.NoError(t, markdown.WriteFile(path, &markdown.FrontMatter{DocumentID: doc.DocumentID, Title: "T", TopicPath: "wrong"}, []byte("x")))

	report, err := svc.RepairTopic(testUser, "")
	require.NoError(t, err)
	assert.Equal(t, []string{doc.DocumentID}, report.Repaired)

	report, err = svc.RepairTopic(testUser, "")
	require.NoError(t, err)
	assert.Empty(t, report.Repaired)
	assert.Equal(t, 1, report.Scanned)
}
