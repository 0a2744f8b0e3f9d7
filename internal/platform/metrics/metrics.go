package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	UsersRegistered         prometheus.Counter
	LoginsTotal             *prometheus.CounterVec
	RecipesCreated          prometheus.Counter
	RecipesDeleted          prometheus.Counter
	FavoritesAdded          prometheus.Counter
	CartItemsAdded          prometheus.Counter
	SubscriptionsCreated    prometheus.Counter
	ShoppingListsDownloaded prometheus.Counter
	EventsPublished         *prometheus.CounterVec
	HTTPRequestDuration     *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on reg.
// Pass prometheus.DefaultRegisterer in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UsersRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "foodgram_users_registered_total",
			Help: "Total number of users registered",
		}),
		LoginsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "foodgram_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		RecipesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "foodgram_recipes_created_total",
			Help: "Total number of recipes created",
		}),
		RecipesDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "foodgram_recipes_deleted_total",
			Help: "Total number of recipes deleted",
		}),
		FavoritesAdded: f.NewCounter(prometheus.CounterOpts{
			Name: "foodgram_favorites_added_total",
			Help: "Total number of recipes added to favorites",
		}),
		CartItemsAdded: f.NewCounter(prometheus.CounterOpts{
			Name: "foodgram_cart_items_added_total",
			Help: "Total number of recipes added to shopping carts",
		}),
		SubscriptionsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "foodgram_subscriptions_created_total",
			Help: "Total number of author subscriptions created",
		}),
		ShoppingListsDownloaded: f.NewCounter(prometheus.CounterOpts{
			Name: "foodgram_shopping_lists_downloaded_total",
			Help: "Total number of shopping lists downloaded",
		}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "foodgram_events_published_total",
			Help: "Domain events handed to the broker by outcome",
		}, []string{"outcome"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route pattern and status class",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
	}
}

// ObserveRequest records the duration of a finished HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
}

// IncrementUsersRegistered records a successful registration.
func (m *Metrics) IncrementUsersRegistered() {
	if m != nil {
		m.UsersRegistered.Inc()
	}
}

// IncrementLogin records a login attempt with its outcome (success, failure).
func (m *Metrics) IncrementLogin(outcome string) {
	if m != nil {
		m.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementRecipesCreated() {
	if m != nil {
		m.RecipesCreated.Inc()
	}
}

func (m *Metrics) IncrementRecipesDeleted() {
	if m != nil {
		m.RecipesDeleted.Inc()
	}
}

func (m *Metrics) IncrementFavoritesAdded() {
	if m != nil {
		m.FavoritesAdded.Inc()
	}
}

func (m *Metrics) IncrementCartItemsAdded() {
	if m != nil {
		m.CartItemsAdded.Inc()
	}
}

func (m *Metrics) IncrementSubscriptionsCreated() {
	if m != nil {
		m.SubscriptionsCreated.Inc()
	}
}

func (m *Metrics) IncrementShoppingListsDownloaded() {
	if m != nil {
		m.ShoppingListsDownloaded.Inc()
	}
}

// IncrementEventsPublished records a publish attempt (published, dropped, failed).
func (m *Metrics) IncrementEventsPublished(outcome string) {
	if m != nil {
		m.EventsPublished.WithLabelValues(outcome).Inc()
	}
}
