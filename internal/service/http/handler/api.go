package handler

import (
	"github.com/reusedev/batch-hub/internal/modules/batch"
)

var (
	orchestrator *batch.Coordinator
	uploader     batch.Uploader
)

// Init wires the handlers to the running coordinator. The uploader may
// be nil when storage is disabled, the upload endpoint rejects then.
func Init(coordinator *batch.Coordinator, up batch.Uploader) {
	orchestrator = coordinator
	uploader = up
}
