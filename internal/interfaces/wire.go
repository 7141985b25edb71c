package interfaces

import (
	"github.com/docmind/backend/internal/interfaces/http"
	"github.com/docmind/backend/internal/interfaces/mcp"
	"github.com/google/wire"
)

// ProviderSet Interfaces 层总 ProviderSet
var ProviderSet = wire.NewSet(
	http.ProviderSet,
	mcp.ProviderSet,
)
