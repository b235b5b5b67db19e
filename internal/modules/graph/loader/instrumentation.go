package loader

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// InstrumentRoundTripperDuration mirrors promhttp's helper but also
// partitions by requested host, since the endpoint is configurable.
func InstrumentRoundTripperDuration(obs prometheus.ObserverVec, next http.RoundTripper) promhttp.RoundTripperFunc {
	if next == nil {
		next = http.DefaultTransport
	}
	return promhttp.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(r)
		if err == nil {
			obs.With(
				prometheus.Labels{
					"code":   strconv.Itoa(resp.StatusCode),
					"method": r.Method,
					"host":   r.URL.Host,
				},
			).Observe(time.Since(start).Seconds())
		}
		return resp, err
	})
}
