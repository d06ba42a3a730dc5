package storage

import "fmt"

// MissingInputError reports an expected artifact that is absent from the data directory
type MissingInputError struct {
	Artifact string
	Path     string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing input %s: %s does not exist", e.Artifact, e.Path)
}
