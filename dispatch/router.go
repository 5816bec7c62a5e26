package dispatch

import (
	"context"
	"fmt"
	"groupchat/contract"
	"groupchat/domain"
	"groupchat/moderation"
	"groupchat/repositories"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
)

const (
	DefaultMovieRedirector = "https://jx.xmflv.com/?url=%s"
	DefaultProviderTimeout = 10 * time.Second

	defaultGreeting = "你好"
	dismissiveReply = "🙄"

	weatherUsage  = "用法：@weather 城市名"
	musicUsage    = "用法：@music 歌曲名"
	weatherFailed = "查询%s的天气失败了，请稍后再试"
	musicFailed   = "没有找到与“%s”相关的歌曲"
	newsFailed    = "获取新闻失败了，请稍后再试"
	aiFailed      = "川小农现在有点累了，连接大脑失败啦... 错误信息：%v"
	aiCampus      = "收到关于“%s”的提问。作为川小农，我永远爱着这片土地！🌾"
	aiDefault     = "我是川小农，专注于回答四川农业大学相关问题。关于“%s”，建议咨询相关部门哦。"
)

var noticePhrases = []string{"活动通知", "生成通知"}

// Providers groups the command capabilities. A nil AI provider switches the
// assistant to canned replies, any other nil provider fails its command.
type Providers struct {
	AI      contract.Fetcher[string]
	Weather contract.Fetcher[domain.WeatherReport]
	Movie   contract.Fetcher[string]
	Music   contract.Fetcher[domain.MusicTrack]
	News    contract.Fetcher[[]domain.NewsItem]
}

type Router struct {
	log             *slog.Logger
	history         repositories.IHistoryRepository
	providers       Providers
	denylist        *moderation.KeywordMatcher
	providerTimeout time.Duration
	movieRedirector string
	now             func() time.Time
}

type Option func(*Router)

func WithProviderTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.providerTimeout = d
		}
	}
}

// WithMovieRedirector sets the fmt template wrapping stream urls, it must hold one %s.
func WithMovieRedirector(template string) Option {
	return func(r *Router) {
		if strings.Contains(template, "%s") {
			r.movieRedirector = template
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

func NewRouter(log *slog.Logger, history repositories.IHistoryRepository, providers Providers,
	denylist *moderation.KeywordMatcher, opts ...Option) *Router {
	r := &Router{
		log:             log,
		history:         history,
		providers:       providers,
		denylist:        denylist,
		providerTimeout: DefaultProviderTimeout,
		movieRedirector: DefaultMovieRedirector,
		now:             domain.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route classifies raw, resolves the command, persists exactly one message
// and returns what must be broadcast. Provider failures only degrade the
// payload, the only error returned is a storage failure.
func (r *Router) Route(ctx context.Context, nickname, raw string) (domain.Emission, error) {
	kind, arg := Classify(raw)
	r.log.Debug("Message classified", "nickname", nickname, "type", kind)

	record := domain.Record{Nickname: nickname, Type: kind, Original: raw}
	switch kind {
	case domain.TypeWeather:
		record.Payload, record.WeatherType = r.weather(ctx, arg)
	case domain.TypeMovie:
		record.Payload = r.movie(ctx, arg)
	case domain.TypeAI:
		record.Payload = r.assistant(ctx, arg)
	case domain.TypeNews:
		record.Payload = r.news(ctx)
	case domain.TypeMusic:
		record.Payload = r.music(ctx, arg)
	default:
		record.Payload = raw
	}

	record.At = r.now().In(domain.Zone)
	id, err := r.history.Append(repositories.DiskMessage{
		Nickname: record.Nickname,
		Payload:  record.Payload,
		Type:     string(record.Type),
		At:       record.At,
	})
	if err != nil {
		return nil, err
	}
	record.ID = id

	if kind != domain.TypeAI {
		return domain.Emission{record}, nil
	}
	echo := record
	echo.Payload = raw
	reply := record
	reply.Nickname = domain.BotNickname
	return domain.Emission{echo, reply}, nil
}

func (r *Router) weather(ctx context.Context, city string) (string, string) {
	if city == "" {
		return weatherUsage, ""
	}
	if r.providers.Weather == nil {
		r.log.Warn("Weather provider not configured")
		return fmt.Sprintf(weatherFailed, city), ""
	}
	ctx, cancel := context.WithTimeout(ctx, r.providerTimeout)
	defer cancel()
	report, err := r.providers.Weather.Fetch(ctx, city)
	if err != nil {
		r.log.Warn("Provider failure", "type", domain.TypeWeather, "query", city, "error", err)
		return fmt.Sprintf(weatherFailed, city), ""
	}
	return report.Text, report.Condition
}

// movie never fails: an unresolved title yields an empty payload.
func (r *Router) movie(ctx context.Context, arg string) string {
	if arg == "" {
		return ""
	}
	if isAbsoluteURL(arg) {
		return fmt.Sprintf(r.movieRedirector, arg)
	}
	if r.providers.Movie == nil {
		r.log.Warn("Movie provider not configured")
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, r.providerTimeout)
	defer cancel()
	stream, err := r.providers.Movie.Fetch(ctx, arg)
	if err != nil || stream == "" {
		r.log.Warn("Provider failure", "type", domain.TypeMovie, "query", arg, "error", err)
		return ""
	}
	return fmt.Sprintf(r.movieRedirector, stream)
}

func (r *Router) assistant(ctx context.Context, query string) string {
	if query == "" {
		query = defaultGreeting
	}
	if r.denylist != nil {
		if hits := r.denylist.Matches(query); len(hits) > 0 {
			r.log.Info("Assistant declined", "keywords", lo.Uniq(hits))
			return dismissiveReply
		}
	}
	for _, phrase := range noticePhrases {
		if strings.Contains(query, phrase) {
			return notice(query)
		}
	}
	if r.providers.AI == nil {
		if strings.Contains(query, "川农") || strings.Contains(query, "四川农业大学") {
			return fmt.Sprintf(aiCampus, query)
		}
		return fmt.Sprintf(aiDefault, query)
	}

	ctx, cancel := context.WithTimeout(ctx, r.providerTimeout)
	defer cancel()
	answer, err := r.providers.AI.Fetch(ctx, query)
	if err != nil {
		r.log.Warn("Provider failure", "type", domain.TypeAI, "error", err)
		return fmt.Sprintf(aiFailed, err)
	}
	return answer
}

func (r *Router) news(ctx context.Context) string {
	if r.providers.News == nil {
		r.log.Warn("News provider not configured")
		return newsFailed
	}
	ctx, cancel := context.WithTimeout(ctx, r.providerTimeout)
	defer cancel()
	items, err := r.providers.News.Fetch(ctx, "")
	if err != nil || len(items) == 0 {
		r.log.Warn("Provider failure", "type", domain.TypeNews, "error", err)
		return newsFailed
	}
	payload, err := domain.EncodeNews(items)
	if err != nil {
		r.log.Warn("Encoding failure", "type", domain.TypeNews, "error", err)
		return newsFailed
	}
	return payload
}

func (r *Router) music(ctx context.Context, query string) string {
	if query == "" {
		return musicUsage
	}
	if r.providers.Music == nil {
		r.log.Warn("Music provider not configured")
		return fmt.Sprintf(musicFailed, query)
	}
	ctx, cancel := context.WithTimeout(ctx, r.providerTimeout)
	defer cancel()
	track, err := r.providers.Music.Fetch(ctx, query)
	if err != nil {
		r.log.Warn("Provider failure", "type", domain.TypeMusic, "query", query, "error", err)
		return fmt.Sprintf(musicFailed, query)
	}
	payload, err := domain.EncodeMusic(track)
	if err != nil {
		r.log.Warn("Encoding failure", "type", domain.TypeMusic, "error", err)
		return fmt.Sprintf(musicFailed, query)
	}
	return payload
}

// notice renders the event announcement around the user's own text.
func notice(query string) string {
	body := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(query, "生成活动通知", ""), "活动通知", ""))
	return fmt.Sprintf(`
📢 **【川农活动通知】** 📢

同学你好！你需要的活动通知已生成：

----------------------------------
%s
----------------------------------

欢迎各位川农学子踊跃参加！
🌾 369，川农牛！ 🌾
`, body)
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
