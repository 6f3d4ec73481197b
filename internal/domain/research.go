package domain

// SubQuestion is one independently researchable part of a decomposed query.
// Index preserves the decomposer's ordering through the parallel fan-out.
type SubQuestion struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
}

// Source is a cited catalog item with its retrieval similarity.
type Source struct {
	ItemID     string  `json:"item_id"`
	Similarity float64 `json:"similarity"`
}

// Finding is the contained outcome of researching one sub-question.
// Failed findings carry a placeholder answer and no sources; they are data,
// not a control-flow signal.
type Finding struct {
	SubQuestion SubQuestion `json:"sub_question"`
	Answer      string      `json:"answer"`
	Sources     []Source    `json:"sources"`
	Failed      bool        `json:"failed"`
}

// Decomposition is the decomposer's output. Degraded marks the fallback path
// where the original query became the single sub-question.
type Decomposition struct {
	SubQuestions []string `json:"sub_questions"`
	Rationale    string   `json:"rationale"`
	Degraded     bool     `json:"degraded"`
}

// SynthesisResult is the combined final answer with usage statistics.
type SynthesisResult struct {
	Answer             string `json:"answer"`
	Confidence         int    `json:"confidence"`
	SubQuestionCount   int    `json:"sub_question_count"`
	DistinctItemsCited int    `json:"distinct_items_cited"`
	TotalSourcesUsed   int    `json:"total_sources_used"`
	UsedFallback       bool   `json:"used_fallback"`
}

// ResearchMetadata summarizes a deep-research run.
type ResearchMetadata struct {
	ResearchID         string `json:"research_id"`
	DurationMs         int64  `json:"duration_ms"`
	StepCount          int    `json:"step_count"`
	DistinctItemsCited int    `json:"distinct_items_cited"`
	Confidence         int    `json:"confidence"`
}

// ResearchReport is the full deep-research response.
type ResearchReport struct {
	Query         string           `json:"query"`
	Decomposition Decomposition    `json:"decomposition"`
	Findings      []Finding        `json:"findings"`
	Synthesis     SynthesisResult  `json:"synthesis"`
	Metadata      ResearchMetadata `json:"metadata"`
}
