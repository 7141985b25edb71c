package topic

import "github.com/google/wire"

// ProviderSet 主题树应用服务 ProviderSet
var ProviderSet = wire.NewSet(
	NewService,
)
