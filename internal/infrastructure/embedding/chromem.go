package embedding

import (
	"context"

	chromem "github.com/philippgille/chromem-go"
)

// Embedder 文本向量化接口
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ToChromemFunc 把 Embedder 转换为 chromem 使用的单文本向量化函数
func ToChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		results, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, nil
		}
		return results[0], nil
	}
}
