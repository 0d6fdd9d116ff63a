package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/persona-chat/internal/config"
)

func TestFrameRoundTripWithEvent(t *testing.T) {
	in := &Frame{
		Header: Header{
			HeaderSize:    1,
			MessageType:   FullServerResponse,
			Flags:         WithEvent,
			Serialization: JSONSerialization,
		},
		Event:     EventTypeSessionFinished,
		SessionID: "sess-1",
		Payload:   []byte(`{"code":0}`),
	}

	out, err := DecodeFrame(bytes.NewReader(in.Encode()))
	require.NoError(t, err)
	assert.Equal(t, in.Header, out.Header)
	assert.Equal(t, EventTypeSessionFinished, out.Event)
	assert.Equal(t, "sess-1", out.SessionID)
	assert.Equal(t, in.Payload, out.Payload)
}

func TestFrameConnectEventsCarryConnectID(t *testing.T) {
	in := &Frame{
		Header:    Header{MessageType: FullServerResponse, Flags: WithEvent},
		Event:     EventTypeConnectionFailed,
		ConnectID: "conn-9",
	}
	out, err := DecodeFrame(bytes.NewReader(in.Encode()))
	require.NoError(t, err)
	assert.Empty(t, out.SessionID)
	assert.Equal(t, "conn-9", out.ConnectID)
}

func TestFrameSequenceAndError(t *testing.T) {
	last := &Frame{Header: Header{MessageType: AudioOnlyServerResponse, Flags: NegativeSequenceNumber}, Sequence: -3, Payload: []byte{1, 2}}
	out, err := DecodeFrame(bytes.NewReader(last.Encode()))
	require.NoError(t, err)
	assert.Equal(t, int32(-3), out.Sequence)
	assert.True(t, out.Last())

	failure := &Frame{Header: Header{MessageType: ErrorMessage}, ErrorCode: 45000001, Payload: []byte("bad")}
	out, err = DecodeFrame(bytes.NewReader(failure.Encode()))
	require.NoError(t, err)
	assert.Equal(t, uint32(45000001), out.ErrorCode)
	assert.Equal(t, "bad", string(out.Payload))
}

func TestFrameRejectsVersionAndTruncation(t *testing.T) {
	_, err := DecodeFrame(bytes.NewReader([]byte{0x21, 0x10, 0x10, 0x00}))
	assert.Error(t, err)

	data := NewClientRequest([]byte("hello"), NoCompression).Encode()
	_, err = DecodeFrame(bytes.NewReader(data[:len(data)-2]))
	assert.Error(t, err)
}

func TestFrameGzipBody(t *testing.T) {
	zipped, err := Gzip([]byte(`{"text":"hi"}`))
	require.NoError(t, err)

	f := NewClientRequest(zipped, GzipCompression)
	out, err := DecodeFrame(bytes.NewReader(f.Encode()))
	require.NoError(t, err)

	body, err := out.Body()
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hi"}`, string(body))
}

func TestResourceCandidates(t *testing.T) {
	assert.Equal(t, []string{defaultResource, seedResource}, resourceCandidates(""))
	assert.Equal(t, []string{megaResource}, resourceCandidates("S_clone_speaker"))
	assert.Equal(t, []string{seedResource, defaultResource}, resourceCandidates("en_female_amy_jupiter_bigtts"))
	assert.Equal(t, []string{defaultResource, seedResource}, resourceCandidates("en_male_organizer"))
}

func TestSpeakerCandidates(t *testing.T) {
	assert.Equal(t, []string{DefaultSpeaker}, speakerCandidates(""))
	assert.Equal(t, []string{DefaultSpeaker}, speakerCandidates("default"))
	assert.Equal(t, []string{"en_female_amy_jupiter_bigtts", DefaultSpeaker}, speakerCandidates("EN_FEMALE"))
}

func TestClipStoreEvictsOldest(t *testing.T) {
	store := NewClipStore(2)
	a := store.Put(Audio{Data: []byte("a")})
	b := store.Put(Audio{Data: []byte("b")})
	c := store.Put(Audio{Data: []byte("c")})

	assert.Equal(t, 2, store.Len())
	_, ok := store.Get(a.ID)
	assert.False(t, ok)

	got, ok := store.Get(b.ID)
	require.True(t, ok)
	assert.Equal(t, []byte("b"), got.Audio.Data)
	_, ok = store.Get(c.ID)
	assert.True(t, ok)
}

func TestNewVolcengineTTSRequiresCredentials(t *testing.T) {
	_, err := NewVolcengineTTS(config.SpeechConfig{AppID: "app"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// fakeTTS plays the server side of the streaming protocol.
func fakeTTS(t *testing.T, handle func(conn *websocket.Conn, r *http.Request, req ttsRequest)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		frame, err := DecodeFrame(bytes.NewReader(data))
		if err != nil {
			return
		}
		var req ttsRequest
		_ = json.Unmarshal(frame.Payload, &req)
		handle(conn, r, req)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func send(conn *websocket.Conn, f *Frame) {
	_ = conn.WriteMessage(websocket.BinaryMessage, f.Encode())
}

func newTestTTS(t *testing.T, endpoint, voice string) *VolcengineTTS {
	t.Helper()
	tts, err := NewVolcengineTTS(config.SpeechConfig{AppID: "app", AccessToken: "token", Voice: voice, Timeout: 5}, WithEndpoint(endpoint))
	require.NoError(t, err)
	return tts
}

func TestSynthesizeCollectsAudio(t *testing.T) {
	var (
		mu         sync.Mutex
		gotHeaders http.Header
		gotReq     ttsRequest
	)
	endpoint := fakeTTS(t, func(conn *websocket.Conn, r *http.Request, req ttsRequest) {
		mu.Lock()
		gotHeaders = r.Header.Clone()
		gotReq = req
		mu.Unlock()
		send(conn, &Frame{Header: Header{MessageType: AudioOnlyServerResponse}, Payload: []byte("ID3")})

		chunk, _ := json.Marshal(ttsServerMessage{ReqID: "req-1", Data: base64.StdEncoding.EncodeToString([]byte("-more"))})
		send(conn, &Frame{Header: Header{MessageType: FullServerResponse, Serialization: JSONSerialization}, Payload: chunk})
		send(conn, &Frame{Header: Header{MessageType: FullServerResponse, Flags: WithEvent}, Event: EventTypeSessionFinished, SessionID: "s"})
	})

	audio, err := newTestTTS(t, endpoint, "").Synthesize(context.Background(), "Say my name.")
	require.NoError(t, err)

	assert.Equal(t, "ID3-more", string(audio.Data))
	assert.Equal(t, "req-1", audio.RequestID)
	assert.Equal(t, "audio/mpeg", audio.ContentType())

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, "app", gotHeaders.Get("X-Api-App-Key"))
	assert.Equal(t, "token", gotHeaders.Get("X-Api-Access-Key"))
	assert.Equal(t, seedResource, gotHeaders.Get("X-Api-Resource-Id"))
	assert.Equal(t, "Say my name.", gotReq.ReqParams.Text)
	assert.Equal(t, DefaultSpeaker, gotReq.ReqParams.Speaker)
}

func TestSynthesizeFallsBackOnResourceMismatch(t *testing.T) {
	var (
		mu        sync.Mutex
		resources []string
	)
	endpoint := fakeTTS(t, func(conn *websocket.Conn, r *http.Request, req ttsRequest) {
		resource := r.Header.Get("X-Api-Resource-Id")
		mu.Lock()
		resources = append(resources, resource)
		mu.Unlock()
		if resource == seedResource {
			send(conn, &Frame{Header: Header{MessageType: ErrorMessage}, ErrorCode: 1, Payload: []byte("resource ID is mismatched with speaker related resource")})
			return
		}
		send(conn, &Frame{Header: Header{MessageType: AudioOnlyServerResponse, Flags: LastPacketNoSequence}, Payload: []byte("ok")})
	})

	audio, err := newTestTTS(t, endpoint, "").Synthesize(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(audio.Data))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{seedResource, defaultResource}, resources)
}

func TestSynthesizeAPIError(t *testing.T) {
	endpoint := fakeTTS(t, func(conn *websocket.Conn, r *http.Request, req ttsRequest) {
		body, _ := json.Marshal(ttsServerMessage{Code: 40000, Message: "quota exceeded"})
		send(conn, &Frame{Header: Header{MessageType: FullServerResponse}, Payload: body})
	})

	_, err := newTestTTS(t, endpoint, "").Synthesize(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestSynthesizeEmptyAudio(t *testing.T) {
	endpoint := fakeTTS(t, func(conn *websocket.Conn, r *http.Request, req ttsRequest) {
		send(conn, &Frame{Header: Header{MessageType: FullServerResponse, Flags: WithEvent}, Event: EventTypeSessionFinished})
	})

	_, err := newTestTTS(t, endpoint, "").Synthesize(context.Background(), "hello")
	assert.Error(t, err)
}

func TestSynthesizeHonoursContext(t *testing.T) {
	endpoint := fakeTTS(t, func(conn *websocket.Conn, r *http.Request, req ttsRequest) {
		time.Sleep(2 * time.Second)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := newTestTTS(t, endpoint, "").Synthesize(ctx, "hello")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSynthesizeRejectsBlankText(t *testing.T) {
	_, err := newTestTTS(t, "ws://127.0.0.1:1", "").Synthesize(context.Background(), "  ")
	assert.Error(t, err)
}

func TestBuildRequestEmotion(t *testing.T) {
	cfg := config.SpeechConfig{AppID: "app", AccessToken: "token", Speed: 1, Volume: 1.5, Language: "en-US"}

	plain, err := NewVolcengineTTS(cfg)
	require.NoError(t, err)
	req := plain.buildRequest("Listen to me. Remember the rule.", DefaultSpeaker)
	assert.Empty(t, req.ReqParams.AudioParams.Emotion)
	assert.Zero(t, req.ReqParams.AudioParams.SpeedRatio)
	assert.Equal(t, float32(1.5), req.ReqParams.AudioParams.VolumeRatio)

	cfg.Emotion = true
	toned, err := NewVolcengineTTS(cfg)
	require.NoError(t, err)
	req = toned.buildRequest("Listen to me. Remember the rule.", DefaultSpeaker)
	assert.Equal(t, "magnetic", req.ReqParams.AudioParams.Emotion)
	assert.InDelta(t, 4.0, req.ReqParams.AudioParams.EmotionScale, 0.01)

	req = toned.buildRequest("The car is parked outside.", DefaultSpeaker)
	assert.Empty(t, req.ReqParams.AudioParams.Emotion)
}
