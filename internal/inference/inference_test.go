package inference

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factchecker/factlens/internal/httputil"
	"github.com/factchecker/factlens/internal/models"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func newTestHF(t *testing.T, handler http.HandlerFunc) *HFClient {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	c, err := NewHFClient("hf-key", ts.URL, 0)
	require.NoError(t, err)
	return c
}

func TestStanceFromLabel(t *testing.T) {
	assert.Equal(t, models.StanceSupports, StanceFromLabel("entailment"))
	assert.Equal(t, models.StanceRefutes, StanceFromLabel("CONTRADICTION"))
	assert.Equal(t, models.StanceNeutral, StanceFromLabel("neutral"))
	assert.Equal(t, models.StanceNeutral, StanceFromLabel("LABEL_7"))
}

func TestNLIClassifier(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     models.StanceResult
	}{
		{
			name:     "nested response",
			response: `[[{"label":"entailment","score":0.9671},{"label":"neutral","score":0.02},{"label":"contradiction","score":0.0129}]]`,
			want:     models.StanceResult{Evidence: "The tower is in Paris.", Stance: models.StanceSupports, Score: 0.97},
		},
		{
			name:     "flat unordered response",
			response: `[{"label":"neutral","score":0.1},{"label":"contradiction","score":0.884}]`,
			want:     models.StanceResult{Evidence: "The tower is in Paris.", Stance: models.StanceRefutes, Score: 0.88},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestHF(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/MoritzLaurer/nli", r.URL.Path)
				assert.Equal(t, "Bearer hf-key", r.Header.Get("Authorization"))
				var body struct {
					Inputs nliInputs `json:"inputs"`
				}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "The tower is in Paris.", body.Inputs.Text)
				assert.Equal(t, "The Eiffel Tower is in Paris.", body.Inputs.TextPair)
				w.Write([]byte(tt.response))
			})

			got, err := NewNLIClassifier(c, "MoritzLaurer/nli").Classify(context.Background(), "The Eiffel Tower is in Paris.", "The tower is in Paris.")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNLIClassifierHTTPError(t *testing.T) {
	c := newTestHF(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad input"}`))
	})

	_, err := NewNLIClassifier(c, "m").Classify(context.Background(), "c", "e")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestHFCaptioner(t *testing.T) {
	c := newTestHF(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
		data, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte("jpeg"), data)
		w.Write([]byte(`[{"generated_text":" a tall metal tower in a city "}]`))
	})

	caption, err := NewHFCaptioner(c, "blip").Caption(context.Background(), models.Image{Data: []byte("jpeg"), ContentType: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, "a tall metal tower in a city", caption)
}

func TestAuthenticityPolicyDecide(t *testing.T) {
	p := AuthenticityPolicy{Threshold: 0.75, RealLabel: "human", FakeLabel: "artificial"}

	tests := []struct {
		name   string
		scores map[string]float64
		want   models.AuthenticityReport
	}{
		{
			name:   "confident real",
			scores: map[string]float64{"human": 0.912, "artificial": 0.088},
			want:   models.AuthenticityReport{Verdict: models.AuthenticityReal, Confidence: 0.91, RawScoreReal: 0.91, RawScoreFake: 0.09},
		},
		{
			name:   "confident fake",
			scores: map[string]float64{"human": 0.2, "artificial": 0.8},
			want:   models.AuthenticityReport{Verdict: models.AuthenticityFake, Confidence: 0.8, RawScoreReal: 0.2, RawScoreFake: 0.8},
		},
		{
			name:   "below threshold",
			scores: map[string]float64{"human": 0.6, "artificial": 0.4},
			want:   models.AuthenticityReport{Verdict: models.AuthenticityUncertain, Confidence: 0.6, RawScoreReal: 0.6, RawScoreFake: 0.4},
		},
		{
			name:   "threshold is inclusive",
			scores: map[string]float64{"human": 0.25, "artificial": 0.75},
			want:   models.AuthenticityReport{Verdict: models.AuthenticityFake, Confidence: 0.75, RawScoreReal: 0.25, RawScoreFake: 0.75},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Decide(tt.scores)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := p.Decide(nil)
	assert.Error(t, err)
}

func TestHFAuthenticityClassifierNormalizesLabels(t *testing.T) {
	c := newTestHF(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"label":"Artificial","score":0.97},{"label":"Human","score":0.03}]`))
	})

	clf := NewHFAuthenticityClassifier(c, "detector", AuthenticityPolicy{Threshold: 0.75, RealLabel: "Human", FakeLabel: "artificial"})
	got, err := clf.Classify(context.Background(), models.Image{Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, models.AuthenticityFake, got.Verdict)
	assert.Equal(t, 0.97, got.RawScoreFake)
	assert.Equal(t, 0.03, got.RawScoreReal)
}

func TestOCRSpaceExtractText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ocr-key", r.Header.Get("apikey"))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "meme.png", header.Filename)
		assert.Equal(t, "eng", r.FormValue("language"))
		assert.Equal(t, "true", r.FormValue("scale"))
		w.Write([]byte(`{"ParsedResults":[{"ParsedText":"BREAKING:\r\nCelebrity\r\n"},{"ParsedText":"dies at 52!"}],"IsErroredOnProcessing":false}`))
	}))
	defer ts.Close()

	c, err := NewOCRSpaceClient("ocr-key", ts.URL, 0)
	require.NoError(t, err)

	text, err := c.ExtractText(context.Background(), models.Image{Data: []byte("png"), Filename: "meme.png"})
	require.NoError(t, err)
	assert.Equal(t, "BREAKING:\r\nCelebrity dies at 52!", text)
	assert.Equal(t, "BREAKING Celebrity dies at 52", CleanOCRText(text))
}

func TestOCRSpaceProcessingError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"IsErroredOnProcessing":true,"ErrorMessage":["File failed validation","Unsupported type"]}`))
	}))
	defer ts.Close()

	c, err := NewOCRSpaceClient("k", ts.URL, 0)
	require.NoError(t, err)

	_, err = c.ExtractText(context.Background(), models.Image{Data: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "File failed validation; Unsupported type")
}

func TestCleanOCRText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Hello,   World!! ", "Hello World"},
		{"R.I.P\n\n1970 - 2024", "RIP 1970 2024"},
		{"", ""},
		{"$$$", ""},
		{"café", "caf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanOCRText(tt.in), tt.in)
	}
}
