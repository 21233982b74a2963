package domain

// ChatRequest is the request sent to the inference service
type ChatRequest struct {
	SessionID          string  `json:"session_id"`
	Question           string  `json:"question"`
	UseRerankOnUnknown bool    `json:"use_rerank_on_unknown,omitempty"`
	TopKFirst          int     `json:"top_k_first,omitempty"`
	TopKRerank1        int     `json:"top_k_rerank1,omitempty"`
	TopKRerank2        int     `json:"top_k_rerank2,omitempty"`
	Temperature        float64 `json:"temperature"`
}

// ChatResponse is the decoded payload returned by the inference service
type ChatResponse struct {
	SessionID      string          `json:"session_id"`
	Text           []string        `json:"text"`
	Images         []ImageItem     `json:"images,omitempty"`
	Videos         []VideoItem     `json:"videos,omitempty"`
	Citations      []Citation      `json:"citations,omitempty"`
	MediaCitations []MediaCitation `json:"media_citations,omitempty"`
	IsUnknown      bool            `json:"is_unknown,omitempty"`
}

// ImageItem is an image attached to an answer
type ImageItem struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	ID    string `json:"id"`
}

// VideoItem is a video attached to an answer
type VideoItem struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	ID           string `json:"id"`
}

// Citation links answer sentences to a source document chunk.
// Sentences holds zero-based indices into the response Text slice.
type Citation struct {
	DocID     string `json:"doc_id"`
	ChunkID   string `json:"chunk_id"`
	Sentences []int  `json:"sentences"`
}

// MediaCitation attaches a citation to a specific image or video,
// matched against the media item's ID
type MediaCitation struct {
	MediaID          string `json:"media_id"`
	Type             string `json:"type"` // image, video
	ChunkID          string `json:"chunk_id"`
	DocID            string `json:"doc_id,omitempty"`
	RelatedSentences []int  `json:"related_sentences,omitempty"`
}
