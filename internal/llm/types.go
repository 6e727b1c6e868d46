package llm

// ContentPart is one part of a multimodal chat message.
type ContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an image as a data URL or remote URL.
type ImageURL struct {
	URL string `json:"url"`
}

// Message is one chat message. Content is either a plain string or a list
// of content parts for multimodal requests.
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// ChatRequest is an OpenAI-compatible chat completions request.
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ResponseFormat requests structured model output.
type ResponseFormat struct {
	Type string `json:"type"` // "json_object"
}

// ChatResponse is an OpenAI-compatible chat completions response.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Identification is the structured record both backends are instructed to
// return. Found=false is the explicit "not found" sentinel.
type Identification struct {
	Found      bool   `json:"found"`
	Title      string `json:"title"`
	MediaKind  string `json:"mediaKind"` // "movie", "series", "documentary", "video"
	Year       int    `json:"year"`
	Confidence string `json:"confidence"` // "high", "medium", "low"
	Synopsis   string `json:"synopsis"`
}
