package transit

import (
	"github.com/rs/zerolog"

	"tarediiran-industries.com/transit-dashboard/internal/common"
	"tarediiran-industries.com/transit-dashboard/internal/config"
	"tarediiran-industries.com/transit-dashboard/internal/fetch"
)

// NewSources builds the API client and, when a feed url is configured, the
// realtime feed client. Both share the logger and metrics.
func NewSources(cfg config.Config, log zerolog.Logger, metrics *common.Metrics) (Sources, error) {
	shared := []fetch.Option{
		fetch.WithTimeout(cfg.API.Timeout.Duration),
		fetch.WithUserAgent(cfg.API.UserAgent),
		fetch.WithLogger(log),
		fetch.WithMetrics(metrics),
	}

	api, err := fetch.NewClient(cfg.API.BaseURL, shared...)
	if err != nil {
		return Sources{}, err
	}
	src := Sources{API: api, Location: cfg.Location()}

	if cfg.Realtime.FeedURL != "" {
		feedOpts := append(append([]fetch.Option(nil), shared...), fetch.WithAccept("application/x-protobuf"))
		src.Feed, err = fetch.NewClient(cfg.Realtime.FeedURL, feedOpts...)
		if err != nil {
			return Sources{}, err
		}
	}
	return src, nil
}
