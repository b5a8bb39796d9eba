package response

import (
	"github.com/reusedev/batch-hub/internal/modules/batch"
)

type StartBatch struct {
	BatchStamp int64       `json:"batch_stamp"`
	Keys       []batch.Key `json:"keys"`
}

type Retried struct {
	Count int         `json:"count"`
	Keys  []batch.Key `json:"keys"`
}

type Cleared struct {
	Removed int `json:"removed"`
}

type Upload struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

type Enhance struct {
	Prompt string `json:"prompt"`
}
