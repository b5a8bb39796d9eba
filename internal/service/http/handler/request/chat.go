package request

import "fmt"

type Enhance struct {
	Idea string `json:"idea"`
}

func (e *Enhance) Valid() error {
	if e.Idea == "" {
		return fmt.Errorf("must fill idea")
	}
	return nil
}
