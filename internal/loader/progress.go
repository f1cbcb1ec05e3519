package loader

import "github.com/clinicaldwh/drwh/internal/types"

// Stage names a step of a load run.
type Stage string

const (
	StageRead      Stage = "read"
	StageCluster   Stage = "cluster"
	StageReset     Stage = "reset"
	StagePatients  Stage = "patients"
	StageHistory   Stage = "history"
	StageDocuments Stage = "documents"
)

// Progress receives run events as they happen. Implementations are called
// from the goroutine running the load and need no locking of their own.
type Progress interface {
	StageStarted(stage Stage)
	StageFinished(stage Stage, count int)
	DocumentLinked(doc types.Document)
}

// NopProgress ignores every event.
type NopProgress struct{}

func (NopProgress) StageStarted(Stage)            {}
func (NopProgress) StageFinished(Stage, int)      {}
func (NopProgress) DocumentLinked(types.Document) {}
