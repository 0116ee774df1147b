package plate

// Candidate is one plate reading with its provenance and correction score.
type Candidate struct {
	RawText       string `json:"raw_text"`
	StrategyLabel string `json:"strategy_label"`
	CorrectedText string `json:"corrected_text"`
	IsValid       bool   `json:"is_valid"`
	Score         int    `json:"score"`
}

// Scored is a corrected text and the score of the correction that produced it.
type Scored struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
}
