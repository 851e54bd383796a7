package cli

import (
	"context"

	"github.com/matzehuels/autotag/pkg/scene"
	"github.com/matzehuels/autotag/pkg/scene/script"
)

// loadSnapshot reads a snapshot file. Scene scripts (.tag, .lisp) are
// evaluated; .json and .yaml files are decoded.
func loadSnapshot(ctx context.Context, path string) (*scene.Snapshot, error) {
	logger := loggerFromContext(ctx)
	if script.IsScript(path) {
		logger.Debug("evaluating scene script", "path", path)
		return script.NewEvaluator().Load(ctx, path)
	}
	logger.Debug("reading snapshot", "path", path)
	return scene.Import(path)
}
