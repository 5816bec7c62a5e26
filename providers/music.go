package providers

import (
	"context"
	"fmt"
	"groupchat/domain"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"
)

const (
	DefaultMusicURL = "https://music.163.com"
	playURLTemplate = "https://music.163.com/song/media/outer/url?id=%d.mp3"
)

type musicArtist struct {
	Name string `json:"name"`
}

type musicSearchResponse struct {
	Result struct {
		Songs []struct {
			ID      int64         `json:"id"`
			Name    string        `json:"name"`
			Fee     int           `json:"fee"`
			Artists []musicArtist `json:"artists"`
		} `json:"songs"`
	} `json:"result"`
}

// MusicProvider returns the first hit of a NetEase style song search.
type MusicProvider struct {
	client  *http.Client
	baseURL string
}

func NewMusicProvider(client *http.Client, baseURL string) *MusicProvider {
	if baseURL == "" {
		baseURL = DefaultMusicURL
	}
	return &MusicProvider{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *MusicProvider) Fetch(ctx context.Context, query string) (domain.MusicTrack, error) {
	params := url.Values{}
	params.Set("s", query)
	params.Set("type", "1")
	params.Set("limit", "1")
	endpoint := p.baseURL + "/api/search/get/web?" + params.Encode()

	header := http.Header{}
	header.Set("Referer", DefaultMusicURL)

	var resp musicSearchResponse
	if err := getJSON(ctx, p.client, endpoint, header, &resp); err != nil {
		return domain.MusicTrack{}, err
	}
	if len(resp.Result.Songs) == 0 {
		return domain.MusicTrack{}, failure("no song for %q", query)
	}

	song := resp.Result.Songs[0]
	artists := lo.Map(song.Artists, func(a musicArtist, _ int) string {
		return a.Name
	})
	return domain.MusicTrack{
		SongName: song.Name,
		Artist:   strings.Join(artists, "/"),
		PlayURL:  fmt.Sprintf(playURLTemplate, song.ID),
		// fee 1 and 4 are paid tracks, the outer link does not stream them
		IsUnplayable: song.Fee == 1 || song.Fee == 4,
	}, nil
}
