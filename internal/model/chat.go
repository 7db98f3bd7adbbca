package model

// Wire types shared by the chat relay and the advisory client.

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	SystemPrompt string        `json:"systemPrompt,omitempty"`
	Messages     []ChatMessage `json:"messages"`
}

type ChatChoice struct {
	Message ChatMessage `json:"message"`
}

type ChatResponse struct {
	Choices []ChatChoice `json:"choices"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
