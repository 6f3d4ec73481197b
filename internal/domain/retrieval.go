package domain

// RetrievalResult is a single scored catalog hit.
type RetrievalResult struct {
	Item       Item    `json:"item"`
	Similarity float64 `json:"similarity"`
	Rank       int     `json:"rank"`
}
