package engine

import (
	"context"
	"log/slog"

	"go.klb.dev/clipq/internal/model"
)

const previewLen = 120

// LogCapture logs a queue event at INFO (id, type, source) and DEBUG (text
// preview up to 120 chars, or the image path for images).
func LogCapture(event string, item model.Item) {
	slog.Info(event, "id", item.ID, "type", item.Type, "source", item.SourceAppName)

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	if item.Type == model.TypeImage {
		slog.Debug("clip", "id", item.ID, "image", item.ImagePath)
		return
	}
	preview := []rune(item.Content)
	if len(preview) > previewLen {
		preview = append(preview[:previewLen], '…')
	}
	slog.Debug("clip", "id", item.ID, "preview", string(preview))
}
