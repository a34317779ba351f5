package llm

import "journal-ai/internal/emotion"

// AnalyzeRequest is the request body shared by the embedding and emotion services.
// Paragraphs must be a non-empty list of non-empty strings.
type AnalyzeRequest struct {
	Paragraphs []string `json:"paragraphs"`
	AnalyzePgs bool     `json:"analyzePgs"`
}

// EmbeddedText is a text with its embedding.
type EmbeddedText struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// EmbeddedParagraph is a paragraph embedding aligned to the request by Index.
type EmbeddedParagraph struct {
	Index     int       `json:"index"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// EmbeddingResponse is the embedding service response.
// Paragraphs is set only when the request had AnalyzePgs.
type EmbeddingResponse struct {
	FullText   EmbeddedText        `json:"fullText"`
	Paragraphs []EmbeddedParagraph `json:"paragraphs,omitempty"`
}

// EmotionText is a text with its classifier output.
type EmotionText struct {
	Text    string          `json:"text"`
	Emotion []emotion.Score `json:"emotion"`
}

// EmotionParagraph is a paragraph classification aligned to the request by Index.
type EmotionParagraph struct {
	Index   int             `json:"index"`
	Text    string          `json:"text"`
	Emotion []emotion.Score `json:"emotion"`
}

// EmotionResponse is the emotion service response.
// Paragraphs is set only when the request had AnalyzePgs.
type EmotionResponse struct {
	FullText   EmotionText        `json:"fullText"`
	Paragraphs []EmotionParagraph `json:"paragraphs,omitempty"`
}
