package dto

import "github.com/signverse/signverse-backend/internal/signs"

// MaxBatchWords caps one batch lookup.
const MaxBatchWords = 100

type BatchSignsRequest struct {
	Words []string `json:"words"`
}

type BatchSignsResponse struct {
	Results map[string]*signs.Sign `json:"results"`
}

type HasSignResponse struct {
	Word  string `json:"word"`
	Found bool   `json:"found"`
}

type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

type WordsResponse struct {
	Words []string `json:"words"`
	Count int      `json:"count"`
}

type TranslateRequest struct {
	Image string `json:"image"`
}

// TranslateErrorResponse mirrors the ML service error shape so the client
// handles relayed and local failures alike.
type TranslateErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}
