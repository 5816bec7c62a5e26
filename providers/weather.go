package providers

import (
	"context"
	"fmt"
	"groupchat/domain"
	"net/http"
	"net/url"
	"strings"
)

const DefaultWeatherURL = "https://wttr.in"

// Coarse conditions sent as weather_type, clients map them to an icon.
const (
	ConditionSunny   = "sunny"
	ConditionCloudy  = "cloudy"
	ConditionRain    = "rain"
	ConditionSnow    = "snow"
	ConditionFog     = "fog"
	ConditionThunder = "thunder"
)

var conditionByCode = map[string]string{
	"113": ConditionSunny,
	"116": ConditionCloudy, "119": ConditionCloudy, "122": ConditionCloudy,
	"143": ConditionFog, "248": ConditionFog, "260": ConditionFog,
	"200": ConditionThunder, "386": ConditionThunder, "389": ConditionThunder,
	"392": ConditionThunder, "395": ConditionThunder,
	"179": ConditionSnow, "182": ConditionSnow, "185": ConditionSnow, "227": ConditionSnow,
	"230": ConditionSnow, "317": ConditionSnow, "320": ConditionSnow, "323": ConditionSnow,
	"326": ConditionSnow, "329": ConditionSnow, "332": ConditionSnow, "335": ConditionSnow,
	"338": ConditionSnow, "350": ConditionSnow, "362": ConditionSnow, "365": ConditionSnow,
	"368": ConditionSnow, "371": ConditionSnow, "374": ConditionSnow, "377": ConditionSnow,
}

type wttrValue struct {
	Value string `json:"value"`
}

type wttrResponse struct {
	CurrentCondition []struct {
		TempC       string      `json:"temp_C"`
		FeelsLikeC  string      `json:"FeelsLikeC"`
		Humidity    string      `json:"humidity"`
		WeatherCode string      `json:"weatherCode"`
		WeatherDesc []wttrValue `json:"weatherDesc"`
		LangZh      []wttrValue `json:"lang_zh"`
	} `json:"current_condition"`
}

// WeatherProvider reads the current condition from a wttr.in compatible API.
type WeatherProvider struct {
	client  *http.Client
	baseURL string
}

func NewWeatherProvider(client *http.Client, baseURL string) *WeatherProvider {
	if baseURL == "" {
		baseURL = DefaultWeatherURL
	}
	return &WeatherProvider{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *WeatherProvider) Fetch(ctx context.Context, city string) (domain.WeatherReport, error) {
	endpoint := fmt.Sprintf("%s/%s?format=j1&lang=zh", p.baseURL, url.PathEscape(city))

	var resp wttrResponse
	if err := getJSON(ctx, p.client, endpoint, nil, &resp); err != nil {
		return domain.WeatherReport{}, err
	}
	if len(resp.CurrentCondition) == 0 {
		return domain.WeatherReport{}, failure("no weather for %q", city)
	}

	current := resp.CurrentCondition[0]
	desc := firstValue(current.LangZh)
	if desc == "" {
		desc = firstValue(current.WeatherDesc)
	}
	return domain.WeatherReport{
		Text:      fmt.Sprintf("%s：%s，气温 %s°C（体感 %s°C），湿度 %s%%", city, desc, current.TempC, current.FeelsLikeC, current.Humidity),
		Condition: Condition(current.WeatherCode),
	}, nil
}

// Condition maps a wttr.in weather code, anything unknown but wet is rain.
func Condition(code string) string {
	if c, ok := conditionByCode[code]; ok {
		return c
	}
	return ConditionRain
}

func firstValue(values []wttrValue) string {
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}
