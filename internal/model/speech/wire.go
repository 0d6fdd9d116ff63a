package speech

// Request is the body POSTed to the remote speech endpoint.
type Request struct {
	Text string `json:"text"`
}

// Response is the body returned by the remote speech endpoint.
type Response struct {
	AudioURL string `json:"audio_url"`
}

// AudioRef is an opaque reference the host audio subsystem can play.
type AudioRef struct {
	URL string `json:"url"`
}

// Empty reports whether the reference points nowhere.
func (a AudioRef) Empty() bool {
	return a.URL == ""
}
