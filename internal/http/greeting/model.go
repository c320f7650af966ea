package greeting

// Message models the greeting response payload.
type Message struct {
	ID      int64  `json:"id" doc:"Process-wide identifier, increasing with every successful greeting" example:"1"`
	Content string `json:"content" doc:"Greeting text" example:"Hello, World!"`
}
