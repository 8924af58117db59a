package signals

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/credence/internal/cache"
	"github.com/ppiankov/credence/internal/llm"
	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/util"
	"github.com/ppiankov/credence/internal/worker"
)

// Options carries the shared pieces used to build providers
type Options struct {
	LLM     llm.Provider // required by kind "llm"
	Cache   cache.Cache  // nil disables caching
	TTL     time.Duration
	Backoff time.Duration
	Log     logrus.FieldLogger
}

// Build creates the provider set described by cfg. Content and fake-news
// providers are required; an emotion provider with no kind is left nil.
func Build(cfg model.ProvidersConfig, llmCfg model.LLMConfig, opts Options) (Set, error) {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.Backoff == 0 {
		opts.Backoff = 2 * time.Second
	}

	limiter := worker.NewLimiter(0, 1)

	content, err := buildOne(cfg.Content, TaskContent, llmCfg, opts, limiter,
		func(p llm.Provider, m string) Provider[ContentLabel] { return NewLLMContentClassifier(p, m) },
		func(c *HTTPClient) Provider[ContentLabel] { return HTTPContentClassifier{c} })
	if err != nil {
		return Set{}, err
	}
	if content == nil {
		return Set{}, fmt.Errorf("providers.content: kind is required")
	}

	fake, err := buildOne(cfg.FakeNews, TaskFakeNews, llmCfg, opts, limiter,
		func(p llm.Provider, m string) Provider[FakeNewsVerdict] { return NewLLMFakeNewsDetector(p, m) },
		func(c *HTTPClient) Provider[FakeNewsVerdict] { return HTTPFakeNewsDetector{c} })
	if err != nil {
		return Set{}, err
	}
	if fake == nil {
		return Set{}, fmt.Errorf("providers.fake_news: kind is required")
	}

	emotion, err := buildOne(cfg.Emotion, TaskEmotion, llmCfg, opts, limiter,
		func(p llm.Provider, m string) Provider[model.EmotionProfile] { return NewLLMEmotionClassifier(p, m) },
		func(c *HTTPClient) Provider[model.EmotionProfile] { return HTTPEmotionClassifier{c} })
	if err != nil {
		return Set{}, err
	}

	return Set{Content: content, FakeNews: fake, Emotion: emotion}, nil
}

func buildOne[T any](
	pc model.ProviderConfig,
	task string,
	llmCfg model.LLMConfig,
	opts Options,
	limiter *worker.Limiter,
	fromLLM func(llm.Provider, string) Provider[T],
	fromHTTP func(*HTTPClient) Provider[T],
) (Provider[T], error) {
	var base Provider[T]

	switch strings.ToLower(pc.Kind) {
	case "":
		return nil, nil
	case "llm":
		if opts.LLM == nil {
			return nil, fmt.Errorf("providers.%s: kind llm needs llm.provider", task)
		}
		base = fromLLM(opts.LLM, pc.Model)
	case "http":
		if pc.Endpoint == "" {
			return nil, fmt.Errorf("providers.%s: kind http needs an endpoint", task)
		}
		client := util.NewHTTPClient(pc.Timeout, llmCfg.HTTPProxy, llmCfg.HTTPSProxy, llmCfg.NoProxy)
		base = fromHTTP(NewHTTPClient(pc.Endpoint, pc.APIKey, client))
	default:
		return nil, fmt.Errorf("providers.%s: unknown kind %q (supported: llm, http)", task, pc.Kind)
	}

	limiter.SetRate(task, pc.RequestsPerSecond, pc.Burst)

	var p Provider[T] = NewRateLimited(base, task, limiter)
	if pc.MaxRetries > 0 {
		p = NewRetrying(p, pc.MaxRetries, opts.Backoff, opts.Log.WithField("task", task))
	}
	if opts.Cache != nil {
		p = NewCached(p, task, opts.Cache, opts.TTL, opts.Log)
	}
	return p, nil
}
