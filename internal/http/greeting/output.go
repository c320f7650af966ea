package greeting

// GreetingOutput for every GET /greeting/* operation.
type GreetingOutput struct {
	Body Message
}
