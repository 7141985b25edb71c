package infrastructure

import (
	"github.com/docmind/backend/internal/infrastructure/config"
	"github.com/docmind/backend/internal/infrastructure/converter"
	"github.com/docmind/backend/internal/infrastructure/docfs"
	"github.com/docmind/backend/internal/infrastructure/embedding"
	"github.com/docmind/backend/internal/infrastructure/index"
	"github.com/docmind/backend/internal/infrastructure/markdown"
	"github.com/docmind/backend/internal/infrastructure/storage"
	"github.com/docmind/backend/internal/infrastructure/vector"
	"github.com/docmind/backend/internal/infrastructure/watcher"
	"github.com/docmind/backend/internal/infrastructure/websocket"
	"github.com/google/wire"
)

// ProviderSet Infrastructure 层总 ProviderSet
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	docfs.ProviderSet,
	storage.ProviderSet,
	markdown.ProviderSet,
	index.ProviderSet,
	embedding.ProviderSet,
	vector.ProviderSet,
	converter.ProviderSet,
	watcher.ProviderSet,
	websocket.ProviderSet,
)
