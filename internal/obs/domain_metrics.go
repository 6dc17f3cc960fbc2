package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PriceQuotesTotal counts resolved price quotes by pricing type and availability.
	PriceQuotesTotal *prometheus.CounterVec
	// BookingsTotal counts booking attempts by outcome.
	BookingsTotal *prometheus.CounterVec
	// BulkPriceConfigItemsTotal counts items rewritten by bulk pricing updates.
	BulkPriceConfigItemsTotal *prometheus.CounterVec
	// DeactivationCascadeRowsTotal counts child rows touched by cascading deactivation.
	DeactivationCascadeRowsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PriceQuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_quotes_total",
			Help:      "Count of resolved price quotes.",
		}, []string{"pricing_type", "available"})
		BookingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Count of booking attempts by outcome.",
		}, []string{"result"})
		BulkPriceConfigItemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_price_config_items_total",
			Help:      "Number of items updated by bulk pricing configuration.",
		}, []string{"pricing_type"})
		DeactivationCascadeRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deactivation_cascade_rows_total",
			Help:      "Rows deactivated as a side effect of a parent deactivation.",
		}, []string{"entity"})

		mustRegisterCollector(reg, PriceQuotesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PriceQuotesTotal = v
			}
		})
		mustRegisterCollector(reg, BookingsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BookingsTotal = v
			}
		})
		mustRegisterCollector(reg, BulkPriceConfigItemsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BulkPriceConfigItemsTotal = v
			}
		})
		mustRegisterCollector(reg, DeactivationCascadeRowsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DeactivationCascadeRowsTotal = v
			}
		})
	})
}

// ObservePriceQuote is a nil-safe helper for the quote counter.
func ObservePriceQuote(pricingType string, available bool) {
	if PriceQuotesTotal == nil {
		return
	}
	label := "false"
	if available {
		label = "true"
	}
	PriceQuotesTotal.WithLabelValues(pricingType, label).Inc()
}

// ObserveBooking records a booking outcome such as created, conflict or outside_hours.
func ObserveBooking(result string) {
	if BookingsTotal == nil {
		return
	}
	BookingsTotal.WithLabelValues(result).Inc()
}

// ObserveBulkPriceConfig adds n updated items for the pricing type.
func ObserveBulkPriceConfig(pricingType string, n int) {
	if BulkPriceConfigItemsTotal == nil || n <= 0 {
		return
	}
	BulkPriceConfigItemsTotal.WithLabelValues(pricingType).Add(float64(n))
}

// ObserveCascade adds n rows deactivated for entity (subcategory, item).
func ObserveCascade(entity string, n int64) {
	if DeactivationCascadeRowsTotal == nil || n <= 0 {
		return
	}
	DeactivationCascadeRowsTotal.WithLabelValues(entity).Add(float64(n))
}

// ObserveBookingsCompleted adds n bookings closed by the expiry sweep.
func ObserveBookingsCompleted(n int64) {
	if BookingsTotal == nil || n <= 0 {
		return
	}
	BookingsTotal.WithLabelValues("completed").Add(float64(n))
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
