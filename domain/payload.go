package domain

import "encoding/json"

// WeatherReport is what a weather lookup yields: the text shown in the chat
// and a coarse condition used by clients to pick an icon.
type WeatherReport struct {
	Text      string
	Condition string
}

// NewsItem is one headline of a news digest.
type NewsItem struct {
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	URL      string `json:"url"`
}

// MusicTrack is the first hit of a music search.
type MusicTrack struct {
	SongName     string `json:"song_name"`
	Artist       string `json:"artist"`
	PlayURL      string `json:"play_url"`
	IsUnplayable bool   `json:"is_unplayable"`
}

// EncodeNews turns a digest into the string payload decoded client-side.
func EncodeNews(items []NewsItem) (string, error) {
	if items == nil {
		items = []NewsItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func DecodeNews(payload string) ([]NewsItem, error) {
	var items []NewsItem
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// EncodeMusic turns a track into the string payload decoded client-side.
func EncodeMusic(track MusicTrack) (string, error) {
	b, err := json.Marshal(track)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func DecodeMusic(payload string) (MusicTrack, error) {
	var track MusicTrack
	err := json.Unmarshal([]byte(payload), &track)
	return track, err
}
