package media

import (
	"os"
	"sync"
)

// Artifact is a transient audio file downloaded for one pipeline run.
// The run that created it owns it exclusively and must call Release
// when the transcriber is done with it, whatever the outcome.
type Artifact struct {
	Path        string
	ContentType string

	once sync.Once
	err  error
}

// Release deletes the artifact from disk. Safe to call more than once;
// only the first call removes the file.
func (a *Artifact) Release() error {
	a.once.Do(func() {
		err := os.Remove(a.Path)
		if err != nil && !os.IsNotExist(err) {
			a.err = err
		}
	})
	return a.err
}

// Exists reports whether the artifact file is still on disk.
func (a *Artifact) Exists() bool {
	_, err := os.Stat(a.Path)
	return err == nil
}
