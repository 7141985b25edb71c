package markdown

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_WithFrontMatter(t *testing.T) {
	src := []byte("---\ndocument_id: d1\ntitle: Hello\ntopic_path: a/b\ntags: [x, y]\n---\n# Body\ntext\n")

	fm, body, err := Parse(src)
	require.NoError(t, err)
	require.NotNil(t, fm)
	assert.Equal(t, "d1", fm.DocumentID)
	assert.Equal(t, "Hello", fm.Title)
	assert.Equal(t, "a/b", fm.TopicPath)
	assert.Equal(t, []interface{}{"x", "y"}, fm.Extra["tags"])
	assert.Equal(t, "# Body\ntext\n", string(body))
}

func TestParse_WithoutFrontMatter(t *testing.T) {
	src := []byte("# Just markdown\n\n---\nnot front matter\n")
	fm, body, err := Parse(src)
	require.NoError(t, err)
	assert.Nil(t, fm)
	assert.Equal(t, src, body)
}

func TestParse_Unterminated(t *testing.T) {
	_, _, err := Parse([]byte("---\ntitle: x\nno end"))
	assert.Error(t, err)
}

func TestParse_CRLF(t *testing.T) {
	fm, body, err := Parse([]byte("---\r\ntitle: win\r\n---\r\nbody"))
	require.NoError(t, err)
	assert.Equal(t, "win", fm.Title)
	assert.Equal(t, "body", string(body))
}

func TestRender_RoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	fm := &FrontMatter{
		DocumentID: "d1",
		Title:      "标题",
		TopicPath:  "x/y",
		CreatedAt:  created,
		UpdatedAt:  created,
		Extra:      map[string]interface{}{"author": "bob"},
	}
	data, err := Render(fm, []byte("content\n"))
	require.NoError(t, err)

	got, body, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "content\n", string(body))
	assert.Equal(t, fm.DocumentID, got.DocumentID)
	assert.Equal(t, fm.Title, got.Title)
	assert.Equal(t, fm.TopicPath, got.TopicPath)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, "bob", got.Extra["author"])
}

func TestFrontMatterStore(t *testing.T) {
	dir := t.TempDir()
	store := NewFrontMatterStore()

	t.Run("更新已有 front matter", func(t *testing.T) {
		path := filepath.Join(dir, "__id_d1__.md")
		require.NoError(t, WriteFile(path, &FrontMatter{DocumentID: "d1", Title: "T", TopicPath: "old"}, []byte("body")))

		topic, present, err := store.ReadTopicPath(path)
		require.NoError(t, err)
		assert.True(t, present)
		assert.Equal(t, "old", topic)

		require.NoError(t, store.WriteTopicPath(path, "new/place"))
		fm, body, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new/place", fm.TopicPath)
		assert.Equal(t, "T", fm.Title)
		assert.Equal(t, "body", string(body))
	})

	t.Run("补全缺失的 front matter", func(t *testing.T) {
		path := filepath.Join(dir, "__id_d2__.md")
		require.NoError(t, os.WriteFile(path, []byte("plain"), 0644))

		_, present, err := store.ReadTopicPath(path)
		require.NoError(t, err)
		assert.False(t, present)

		require.NoError(t, store.WriteTopicPath(path, ""))
		fm, body, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "d2", fm.DocumentID)
		assert.Equal(t, "", fm.TopicPath)
		assert.Equal(t, "plain", string(body))
	})

	t.Run("根目录写作点号", func(t *testing.T) {
		path := filepath.Join(dir, "__id_d3__.md")
		require.NoError(t, WriteFile(path, &FrontMatter{DocumentID: "d3", TopicPath: "."}, nil))
		topic, present, err := store.ReadTopicPath(path)
		require.NoError(t, err)
		assert.True(t, present)
		assert.Equal(t, "", topic)
	})
}
