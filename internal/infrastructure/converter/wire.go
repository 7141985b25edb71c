package converter

import "github.com/google/wire"

// ProviderSet 文档转换 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideConverter,
)
