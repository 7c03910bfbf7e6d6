package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	bidsPlaced       metric.Int64Counter
	auctionsSettled  metric.Int64Counter
	ordersAdvanced   metric.Int64Counter
	listingsCreated  metric.Int64Counter
	rateLimitAllowed metric.Int64Counter
	rateLimitDenied  metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the marketplace metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "rastro"
	}
	meter := provider.Meter(name)

	bidsPlaced, err := meter.Int64Counter("rastro_bids_placed_total")
	if err != nil {
		return nil, err
	}
	auctionsSettled, err := meter.Int64Counter("rastro_auctions_settled_total")
	if err != nil {
		return nil, err
	}
	ordersAdvanced, err := meter.Int64Counter("rastro_orders_advanced_total")
	if err != nil {
		return nil, err
	}
	listingsCreated, err := meter.Int64Counter("rastro_listings_created_total")
	if err != nil {
		return nil, err
	}
	rateLimitAllowed, err := meter.Int64Counter("rastro_rate_limit_allowed_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("rastro_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		bidsPlaced:       bidsPlaced,
		auctionsSettled:  auctionsSettled,
		ordersAdvanced:   ordersAdvanced,
		listingsCreated:  listingsCreated,
		rateLimitAllowed: rateLimitAllowed,
		rateLimitDenied:  rateLimitDenied,
	}, nil
}

// RecordBidPlaced increments accepted bid counts.
func (m *Metrics) RecordBidPlaced(ctx context.Context, listingType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("listing_type", strings.TrimSpace(listingType)))
	m.bidsPlaced.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAuctionSettled increments settled auction counts by outcome.
func (m *Metrics) RecordAuctionSettled(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.auctionsSettled.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordOrderAdvanced increments order transition counts.
func (m *Metrics) RecordOrderAdvanced(ctx context.Context, toStatus string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("to_status", strings.TrimSpace(toStatus)))
	m.ordersAdvanced.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordListingCreated increments created listing counts.
func (m *Metrics) RecordListingCreated(ctx context.Context, listingType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("listing_type", strings.TrimSpace(listingType)))
	m.listingsCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitAllowed increments rate limit allow counts.
func (m *Metrics) RecordRateLimitAllowed(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("endpoint", strings.TrimSpace(endpoint)))
	m.rateLimitAllowed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied increments rate limit deny counts.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"endpoint":     {},
	"status_code":  {},
	"listing_type": {},
	"outcome":      {},
	"to_status":    {},
	"reason":       {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
