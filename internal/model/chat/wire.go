package chat

// Request is the body POSTed to the remote chat endpoint.
type Request struct {
	Message   string `json:"message"`
	Character string `json:"character"`
}

// Response is the body returned by the remote chat endpoint.
type Response struct {
	Response *string `json:"response"`
}
