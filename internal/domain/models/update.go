package models

// UpdateStatus is the outcome of one symbol update.
type UpdateStatus string

const (
	UpdateStatusUpdated  UpdateStatus = "updated"
	UpdateStatusUpToDate UpdateStatus = "up_to_date"
	UpdateStatusFailed   UpdateStatus = "failed"
)

// UpdateResult describes what UpdateOne did for one symbol.
type UpdateResult struct {
	Symbol string       `json:"symbol"`
	Status UpdateStatus `json:"status"`
	Points int          `json:"points"`
	From   string       `json:"from,omitempty"`
	To     string       `json:"to,omitempty"`
	Reason string       `json:"reason,omitempty"`
}

// Success reports whether the update counts as a success.
func (r UpdateResult) Success() bool { return r.Status != UpdateStatusFailed }

// BatchSummary is the completion summary of UpdateMany.
type BatchSummary struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Results   []UpdateResult `json:"results"`
}

// Add folds one result into the summary.
func (s *BatchSummary) Add(r UpdateResult) {
	s.Results = append(s.Results, r)
	if r.Success() {
		s.Succeeded++
	} else {
		s.Failed++
	}
}

// Stats are operator-facing store counts.
type Stats struct {
	Symbols     int64 `json:"symbols"`
	PricePoints int64 `json:"price_points"`
}
