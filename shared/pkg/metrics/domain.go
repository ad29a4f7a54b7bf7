package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SignupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_signups_total",
		Help: "Accounts created, by role",
	}, []string{"role"})
	SignInsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_signins_total",
		Help: "Sign-in attempts, by result",
	}, []string{"result"})
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "auth_cached_sessions",
		Help: "Sessions currently held by the session store",
	})
	OrdersCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders placed by customers",
	})
	OrderTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transitions, by target status and result",
	}, []string{"to", "result"})
	GeocodeLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geocode_lookups_total",
		Help: "Forward geocoding lookups, by source",
	}, []string{"source"})
)

func init() {
	prometheus.MustRegister(
		SignupsTotal,
		SignInsTotal,
		ActiveSessions,
		OrdersCreatedTotal,
		OrderTransitionsTotal,
		GeocodeLookupsTotal,
	)
}
