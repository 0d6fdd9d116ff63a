package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatclient "github.com/zhouzirui/persona-chat/internal/client/chat"
	speechclient "github.com/zhouzirui/persona-chat/internal/client/speech"
	aiService "github.com/zhouzirui/persona-chat/internal/service/ai"
	speechService "github.com/zhouzirui/persona-chat/internal/service/speech"
)

type fixedGenerator struct {
	reply string
	err   error
}

func (g fixedGenerator) Reply(_ context.Context, characterID, message string) (string, error) {
	return g.reply, g.err
}

type fakeTTS struct {
	err error
}

func (f fakeTTS) Synthesize(_ context.Context, text string) (speechService.Audio, error) {
	if f.err != nil {
		return speechService.Audio{}, f.err
	}
	return speechService.Audio{Data: []byte("mp3:" + text), Format: "mp3"}, nil
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

func TestChatPlaceholder(t *testing.T) {
	h := NewRouter(New(Options{}))

	rec := post(t, h, "/api/chat/", `{"message":"hi","character":"louis-litt"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"I understand."}`, rec.Body.String())

	rec = post(t, h, "/api/chat/", `{"message":"hi","character":"dexter"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Response string `json:"response"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, aiService.PlaceholderLines("dexter"), body.Response)
}

func TestChatValidation(t *testing.T) {
	h := NewRouter(New(Options{}))
	assert.Equal(t, http.StatusBadRequest, post(t, h, "/api/chat/", `nope`).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, h, "/api/chat/", `{"message":" ","character":"dexter"}`).Code)
}

func TestChatGeneratorFailure(t *testing.T) {
	h := NewRouter(New(Options{Generator: fixedGenerator{err: errors.New("model down")}}))
	assert.Equal(t, http.StatusBadGateway, post(t, h, "/api/chat/", `{"message":"hi","character":"dexter"}`).Code)
}

func TestSpeakUnavailable(t *testing.T) {
	h := NewRouter(New(Options{}))
	assert.Equal(t, http.StatusServiceUnavailable, post(t, h, "/api/speak/", `{"text":"hi"}`).Code)
}

func TestSpeakStoresClip(t *testing.T) {
	clips := speechService.NewClipStore(4)
	h := NewRouter(New(Options{TTS: fakeTTS{}, Clips: clips, PublicURL: "http://localhost:8000/"}))

	rec := post(t, h, "/api/speak/", `{"text":"Say my name."}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		AudioURL string `json:"audio_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, strings.HasPrefix(body.AudioURL, "http://localhost:8000/audio/"), body.AudioURL)

	id := strings.TrimPrefix(body.AudioURL, "http://localhost:8000/audio/")
	get := httptest.NewRecorder()
	h.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/audio/"+id, nil))
	require.Equal(t, http.StatusOK, get.Code)
	assert.Equal(t, "audio/mpeg", get.Header().Get("Content-Type"))
	assert.Equal(t, "mp3:Say my name.", get.Body.String())

	missing := httptest.NewRecorder()
	h.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/audio/unknown", nil))
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestSpeakFailure(t *testing.T) {
	h := NewRouter(New(Options{TTS: fakeTTS{err: errors.New("quota")}}))
	assert.Equal(t, http.StatusBadGateway, post(t, h, "/api/speak/", `{"text":"hi"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, h, "/api/speak/", `{"text":""}`).Code)
}

// The remote clients and the reference service agree on the wire format.
func TestClientsAgainstUpstream(t *testing.T) {
	srv := httptest.NewServer(NewRouter(New(Options{
		Generator: fixedGenerator{reply: "By order of the Peaky Blinders."},
		TTS:       fakeTTS{},
	})))
	defer srv.Close()

	chat, err := chatclient.New(srv.URL)
	require.NoError(t, err)
	reply, err := chat.Send(context.Background(), "hello", "thomas-shelby")
	require.NoError(t, err)
	assert.Equal(t, "By order of the Peaky Blinders.", reply)

	speech, err := speechclient.New(srv.URL)
	require.NoError(t, err)
	ref, err := speech.Synthesize(context.Background(), "hello")
	require.NoError(t, err)
	// PublicURL is empty, so the relative url resolves against the client base.
	assert.True(t, strings.HasPrefix(ref.URL, srv.URL+"/audio/"), ref.URL)

	resp, err := http.Get(ref.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
