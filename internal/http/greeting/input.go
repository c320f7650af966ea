package greeting

// GreetingInput is shared by every greeting operation.
type GreetingInput struct {
	Name string `query:"name" default:"World" maxLength:"100" doc:"Name to greet" example:"Alice"`
}
