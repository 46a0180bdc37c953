package watcher

// ReloadPlan describes what the host needs to reload for a change batch.
type ReloadPlan struct {
	ReloadDataset   bool // rebuild the model from the dataset file
	ReloadPositions bool // reapply stored positions to the current model
	ChangedFiles    []string
}

// PlanReload maps a debounced change event to the work it requires. A
// dataset change implies reloading positions too, since the rebuilt model
// starts from the stored layout.
func PlanReload(event ChangeEvent) ReloadPlan {
	plan := ReloadPlan{ChangedFiles: event.Paths}
	switch event.Type {
	case ChangeDataset:
		plan.ReloadDataset = true
		plan.ReloadPositions = true
	case ChangePositions:
		plan.ReloadPositions = true
	}
	return plan
}
