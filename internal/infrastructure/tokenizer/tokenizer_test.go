package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Singleton(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestTiktoken_CountTokens(t *testing.T) {
	tk, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 0, tk.CountTokens(""))
	assert.Equal(t, 2, tk.CountTokens("hello world"))
	assert.Greater(t, tk.CountTokens("这是一段中文文本"), 0)
}

func TestTiktoken_SplitByTokens(t *testing.T) {
	tk, err := Default()
	require.NoError(t, err)

	text := strings.Repeat("alpha beta gamma delta ", 20)
	parts := tk.SplitByTokens(text, 10)
	require.Greater(t, len(parts), 1)
	for _, p := range parts {
		// 重新编码时边界可能略有偏差
		assert.LessOrEqual(t, tk.CountTokens(p), 12)
	}
	assert.Equal(t, text, strings.Join(parts, ""))

	assert.Equal(t, []string{"short"}, tk.SplitByTokens("short", 10))
	assert.Nil(t, tk.SplitByTokens("", 10))
}

func TestRuneCounter(t *testing.T) {
	assert.Equal(t, 0, RuneCounter{}.CountTokens(""))
	assert.Equal(t, 2, RuneCounter{}.CountTokens("abcdefg"))
	assert.Equal(t, 3, RuneCounter{CharsPerToken: 1}.CountTokens("中文字"))
}
