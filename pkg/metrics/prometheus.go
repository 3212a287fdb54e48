package metrics

/* derived from https://github.com/zsais/go-gin-prometheus
edits:
- logger is the zap sugared logger (or anything with Errorf)
- no push gateway, no basic auth, no sidecar url label
- registerer is injectable
- url label defaults to the matched route template
*/

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Standard HTTP metrics recorded by the gin middleware.
var reqCnt = &Metric{
	ID:          "reqCnt",
	Name:        "req_total",
	Description: "How many HTTP requests processed, partitioned by status code and HTTP method.",
	Type:        KindCounterVec,
	Args:        []string{"code", "method", "url", "ref"}}

var reqDur = &Metric{
	ID:          "reqDur",
	Name:        "req_dur_ms",
	Description: "The HTTP request latencies in milliseconds.",
	Type:        KindHistogramVec,
	Args:        []string{"code", "method", "url", "ref"},
}

var resSz = &Metric{
	ID:          "resSz",
	Name:        "resp_sz_bytes",
	Description: "The HTTP response sizes in bytes.",
	Type:        KindSummaryVec,
	Args:        []string{"code", "method", "url", "ref"},
}

var reqSz = &Metric{
	ID:          "reqSz",
	Name:        "req_sz_bytes",
	Description: "The HTTP request sizes in bytes.",
	Type:        KindSummaryVec,
	Args:        []string{"code", "method", "url", "ref"},
}

var standardMetrics = []*Metric{
	reqCnt,
	reqDur,
	resSz,
	reqSz,
}

var defaultMetricPath = "/metrics"

type Logger interface {
	Errorf(format string, v ...interface{})
}

// RequestCounterURLLabelMappingFn controls the cardinality of the "url"
// label. The default uses the route template, so "/api/v1/payments/ORD-1"
// is counted as "/api/v1/payments/:order_id".
type RequestCounterURLLabelMappingFn func(c *gin.Context) string

func routeTemplate(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	// Unmatched paths would otherwise create a series per probe URL.
	return "unmatched"
}

// Prometheus contains the metrics gathered by the instance and its path
type Prometheus struct {
	reqCnt        *prometheus.CounterVec
	reqDur        *prometheus.HistogramVec
	reqSz, resSz  *prometheus.SummaryVec
	router        *gin.Engine
	listenAddress string
	registerer    prometheus.Registerer
	gatherer      prometheus.Gatherer

	MetricsList []*Metric
	MetricsPath string

	ReqCntURLLabelMappingFn RequestCounterURLLabelMappingFn

	logger Logger
}

type NewPrometheusOptions struct {
	Subsystem               string
	MetricsList             []*Metric
	MetricsPath             string
	ReqCntURLLabelMappingFn func(c *gin.Context) string
	Logger                  Logger
	// Registry defaults to the global prometheus registry.
	Registry *prometheus.Registry
}

// NewPrometheus generates a new set of metrics with a certain subsystem name
func NewPrometheus(options NewPrometheusOptions) *Prometheus {
	metricsList := make([]*Metric, 0, len(options.MetricsList)+len(standardMetrics))
	metricsList = append(metricsList, options.MetricsList...)

	p := &Prometheus{
		MetricsList:             append(metricsList, standardMetrics...),
		MetricsPath:             options.MetricsPath,
		ReqCntURLLabelMappingFn: options.ReqCntURLLabelMappingFn,
		logger:                  options.Logger,
		registerer:              prometheus.DefaultRegisterer,
		gatherer:                prometheus.DefaultGatherer,
	}
	if options.Registry != nil {
		p.registerer = options.Registry
		p.gatherer = options.Registry
	}
	if p.MetricsPath == "" {
		p.MetricsPath = defaultMetricPath
	}
	if p.ReqCntURLLabelMappingFn == nil {
		p.ReqCntURLLabelMappingFn = routeTemplate
	}
	if p.logger == nil {
		p.logger = zap.NewNop().Sugar()
	}

	p.registerMetrics(options.Subsystem)

	return p
}

// SetListenAddress exposes metrics on a separate address, keeping scrapes out
// of the API access log. If not set, metrics share the API engine.
func (p *Prometheus) SetListenAddress(address string) {
	p.listenAddress = address
	if p.listenAddress != "" {
		p.router = gin.New()
		p.router.Use(gin.Recovery())
	}
}

// SetMetricsPath set metrics paths
func (p *Prometheus) SetMetricsPath(e *gin.Engine) {
	h := p.metricsHandler()
	if p.listenAddress != "" {
		p.router.GET(p.MetricsPath, h)
		p.runServer()
	} else {
		e.GET(p.MetricsPath, h)
	}
}

func (p *Prometheus) metricsHandler() gin.HandlerFunc {
	h := promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func (p *Prometheus) runServer() {
	go func() {
		if err := p.router.Run(p.listenAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Errorf("metrics server on %s stopped: %v", p.listenAddress, err)
		}
	}()
}

func (p *Prometheus) registerMetrics(subsystem string) {
	for _, metricDef := range p.MetricsList {
		metric := NewMetric(metricDef, subsystem)
		if metric == nil {
			p.logger.Errorf("%s has unsupported metric type %q", metricDef.Name, metricDef.Type)
			continue
		}
		if err := p.registerer.Register(metric); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				p.logger.Errorf("%s could not be registered in Prometheus, err=%v", metricDef.Name, err)
				continue
			}
			metric = are.ExistingCollector
		}
		switch metricDef {
		case reqCnt:
			p.reqCnt = metric.(*prometheus.CounterVec)
		case reqDur:
			p.reqDur = metric.(*prometheus.HistogramVec)
		case resSz:
			p.resSz = metric.(*prometheus.SummaryVec)
		case reqSz:
			p.reqSz = metric.(*prometheus.SummaryVec)
		}
		metricDef.MetricCollector = metric
	}
}

// Use adds the middleware to a gin engine.
func (p *Prometheus) Use(e *gin.Engine) {
	e.Use(p.HandlerFunc())
	p.SetMetricsPath(e)
}

// HandlerFunc defines handler function for middleware
func (p *Prometheus) HandlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == p.MetricsPath || p.reqCnt == nil {
			c.Next()
			return
		}

		start := time.Now()
		reqSz := computeApproximateRequestSize(c.Request)

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		elapsed := MillisecondsSince(start)
		resSz := float64(c.Writer.Size())
		url := p.ReqCntURLLabelMappingFn(c)
		ref := c.Request.Header.Get(RefererKey)

		p.reqDur.WithLabelValues(status, c.Request.Method, url, ref).Observe(elapsed)
		p.reqCnt.WithLabelValues(status, c.Request.Method, url, ref).Inc()
		p.reqSz.WithLabelValues(status, c.Request.Method, url, ref).Observe(float64(reqSz))
		p.resSz.WithLabelValues(status, c.Request.Method, url, ref).Observe(resSz)
	}
}
