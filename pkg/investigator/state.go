package investigator

// State is the investigation's progress through its fixed pipeline.
type State string

const (
	Unstarted        State = "unstarted"
	RootScanned      State = "root_scanned"
	TreeBuilt        State = "tree_built"
	EvidenceComputed State = "evidence_computed"
	Done             State = "done"
	Failed           State = "failed"
)
