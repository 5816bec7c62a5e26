package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"groupchat/domain"
	"groupchat/errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOpenAIProvider_Fetch(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/v1/chat/completions", r.URL.Path)
		req.Equal("Bearer key", r.Header.Get("Authorization"))

		var body chatCompletionRequest
		req.NoError(json.NewDecoder(r.Body).Decode(&body))
		req.Equal(DefaultAIModel, body.Model)
		req.Equal(aiMaxTokens, body.MaxTokens)
		req.Len(body.Messages, 2)
		req.Equal("system", body.Messages[0].Role)
		req.Equal("川农在哪里", body.Messages[1].Content)

		_, _ = fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"在雅安、成都和都江堰！"}}]}`)
	}))
	defer server.Close()

	provider := NewOpenAIProvider(server.Client(), server.URL+"/v1/", "key", "")
	answer, err := provider.Fetch(context.Background(), "川农在哪里")
	req.NoError(err)
	req.Equal("在雅安、成都和都江堰！", answer)
}

func TestOpenAIProvider_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"server error", http.StatusInternalServerError, `{}`},
		{"no choice", http.StatusOK, `{"choices":[]}`},
		{"garbage", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.payload)
			}))
			defer server.Close()

			_, err := NewOpenAIProvider(server.Client(), server.URL, "", "m").Fetch(context.Background(), "q")
			req.ErrorIs(err, errors.ErrProviderFailure)
		})
	}
}

func TestOpenAIProvider_Timeout(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewOpenAIProvider(server.Client(), server.URL, "", "").Fetch(ctx, "q")
	req.ErrorIs(err, errors.ErrProviderFailure)
}

func TestWeatherProvider_Fetch(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/成都", r.URL.Path)
		req.Equal("j1", r.URL.Query().Get("format"))
		_, _ = fmt.Fprint(w, `{"current_condition":[{"temp_C":"21","FeelsLikeC":"20","humidity":"60","weatherCode":"113",
			"weatherDesc":[{"value":"Sunny"}],"lang_zh":[{"value":"晴天"}]}]}`)
	}))
	defer server.Close()

	report, err := NewWeatherProvider(server.Client(), server.URL).Fetch(context.Background(), "成都")
	req.NoError(err)
	req.Equal(ConditionSunny, report.Condition)
	req.Contains(report.Text, "成都：晴天")
	req.Contains(report.Text, "21°C")
}

func TestWeatherProvider_Empty(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"current_condition":[]}`)
	}))
	defer server.Close()

	_, err := NewWeatherProvider(server.Client(), server.URL).Fetch(context.Background(), "Atlantis")
	req.ErrorIs(err, errors.ErrProviderFailure)
}

func TestCondition(t *testing.T) {
	req := require.New(t)
	req.Equal(ConditionSunny, Condition("113"))
	req.Equal(ConditionCloudy, Condition("122"))
	req.Equal(ConditionSnow, Condition("338"))
	req.Equal(ConditionThunder, Condition("389"))
	req.Equal(ConditionFog, Condition("248"))
	req.Equal(ConditionRain, Condition("302"))
}

func TestMovieProvider_Fetch(t *testing.T) {
	req := require.New(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/search/", func(w http.ResponseWriter, r *http.Request) {
		req.Equal("流浪地球", r.URL.Query().Get("wd"))
		_, _ = fmt.Fprint(w, `<html><body>
			<a class="other" href="/nope.html">x</a>
			<a class="fed-list-pics fed-lazy" href="/detail/42.html">流浪地球</a>
		</body></html>`)
	})
	mux.HandleFunc("/detail/42.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<html><head>
			<script>var player = {};</script>
			<script>var vid = 'https://cdn.example/42.m3u8';</script>
		</head></html>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	provider, err := NewMovieProvider(server.Client(), server.URL)
	req.NoError(err)
	stream, err := provider.Fetch(context.Background(), "流浪地球")
	req.NoError(err)
	req.Equal("https://cdn.example/42.m3u8", stream)
}

func TestMovieProvider_No_Result(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<html><body><p>没有找到</p></body></html>`)
	}))
	defer server.Close()

	provider, err := NewMovieProvider(server.Client(), server.URL)
	req.NoError(err)
	_, err = provider.Fetch(context.Background(), "does-not-exist")
	req.ErrorIs(err, errors.ErrProviderFailure)
}

func TestMusicProvider_Fetch(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/api/search/get/web", r.URL.Path)
		req.Equal("晴天", r.URL.Query().Get("s"))
		_, _ = fmt.Fprint(w, `{"result":{"songs":[{"id":186016,"name":"晴天","fee":8,"artists":[{"name":"周杰伦"}]}]}}`)
	}))
	defer server.Close()

	track, err := NewMusicProvider(server.Client(), server.URL).Fetch(context.Background(), "晴天")
	req.NoError(err)
	req.Equal(domain.MusicTrack{
		SongName: "晴天",
		Artist:   "周杰伦",
		PlayURL:  "https://music.163.com/song/media/outer/url?id=186016.mp3",
	}, track)
}

func TestMusicProvider_No_Song(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"result":{"songs":[]}}`)
	}))
	defer server.Close()

	_, err := NewMusicProvider(server.Client(), server.URL).Fetch(context.Background(), "zzz")
	req.ErrorIs(err, errors.ErrProviderFailure)
}

func TestNewsProvider_Fetch(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/v2/top-headlines", r.URL.Path)
		req.Equal("key", r.Header.Get("X-Api-Key"))
		_, _ = fmt.Fprint(w, `{"status":"ok","articles":[
			{"title":"t1","url":"u1","urlToImage":"i1"},
			{"title":"","url":"u2"},
			{"title":"t3","url":"u3"}]}`)
	}))
	defer server.Close()

	items, err := NewNewsProvider(server.Client(), server.URL, "key", "").Fetch(context.Background(), "")
	req.NoError(err)
	req.Equal([]domain.NewsItem{
		{Title: "t1", ImageURL: "i1", URL: "u1"},
		{Title: "t3", URL: "u3"},
	}, items)
}

func TestNewsProvider_Not_Configured(t *testing.T) {
	req := require.New(t)
	_, err := NewNewsProvider(http.DefaultClient, "", "", "").Fetch(context.Background(), "")
	req.ErrorIs(err, errors.ErrProviderNotConfigured)
}

func TestGeminiProvider_Requires_Key(t *testing.T) {
	req := require.New(t)
	_, err := NewGeminiProvider(context.Background(), "", "")
	req.ErrorIs(err, errors.ErrProviderNotConfigured)
}
