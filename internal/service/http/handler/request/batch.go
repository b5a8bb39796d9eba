package request

import (
	"fmt"

	"github.com/reusedev/batch-hub/internal/consts"
	"github.com/reusedev/batch-hub/internal/modules/batch"
)

type StartBatch struct {
	Class     string   `json:"class"`
	ImageURLs []string `json:"image_urls"`
	ImageB64s []string `json:"image_b64s"`
	Prompts   []string `json:"prompts"`
	Quality   string   `json:"quality"`
	Size      string   `json:"size"`
	Duration  int      `json:"duration"`
}

func (s *StartBatch) Valid() error {
	if !consts.TaskClass(s.Class).Valid() {
		return fmt.Errorf("invalid class: %s, must be 'image' or 'video'", s.Class)
	}
	if len(s.ImageURLs)+len(s.ImageB64s) == 0 {
		return fmt.Errorf("must fill image_urls or image_b64s")
	}
	if len(s.Prompts) == 0 {
		return fmt.Errorf("must fill prompts")
	}
	for _, p := range s.Prompts {
		if p == "" {
			return fmt.Errorf("prompts must not contain empty entries")
		}
	}
	if s.Duration < 0 {
		return fmt.Errorf("invalid duration: %d, must be non-negative", s.Duration)
	}
	return nil
}

// ToBatchRequest lays sources out URL entries first, then decoded
// uploads, so source indexes stay stable for the caller.
func (s *StartBatch) ToBatchRequest() batch.BatchRequest {
	sources := make([]batch.SourceInput, 0, len(s.ImageURLs)+len(s.ImageB64s))
	for _, u := range s.ImageURLs {
		sources = append(sources, batch.SourceInput{URL: u})
	}
	for _, b := range s.ImageB64s {
		sources = append(sources, batch.SourceInput{B64: b})
	}
	return batch.BatchRequest{
		Class:   consts.TaskClass(s.Class),
		Sources: sources,
		Prompts: s.Prompts,
		Options: batch.TaskOptions{
			Quality:  s.Quality,
			Size:     s.Size,
			Duration: s.Duration,
		},
	}
}
