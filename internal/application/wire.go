package application

import (
	"github.com/docmind/backend/internal/application/document"
	"github.com/docmind/backend/internal/application/pipeline"
	"github.com/docmind/backend/internal/application/topic"
	"github.com/google/wire"
)

// ProviderSet Application 层总 ProviderSet
var ProviderSet = wire.NewSet(
	document.ProviderSet,
	topic.ProviderSet,
	pipeline.ProviderSet,
)
