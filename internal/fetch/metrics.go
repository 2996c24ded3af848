package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// staticFetches counts pages retrieved through the static HTTP path.
	staticFetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviewer_static_fetches_total",
		Help: "The total number of static HTTP fetch attempts.",
	})
	// headlessFetches counts pages retrieved through headless Chrome.
	headlessFetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviewer_headless_fetches_total",
		Help: "The total number of headless browser fetch attempts.",
	})
	// insecureRetries counts fetches that fell back to a non-verifying transport.
	insecureRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviewer_insecure_tls_retries_total",
		Help: "The total number of fetches retried without certificate verification.",
	})
	// fetchRetries counts attempts beyond the first inside the throttled wrapper.
	fetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviewer_fetch_retries_total",
		Help: "The total number of fetch retries after transient failures.",
	})
	// challengeBlocks counts documents classified as bot-protection challenges.
	challengeBlocks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviewer_challenge_blocks_total",
		Help: "The total number of fetched pages classified as WAF challenges.",
	})
	// renderPromotions counts static results flagged as needing a headless render.
	renderPromotions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviewer_render_promotions_total",
		Help: "The total number of static fetches promoted to headless rendering.",
	})
)
