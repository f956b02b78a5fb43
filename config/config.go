package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port      int    `env:"PORT" envDefault:"3000"`
	PgURL     string `env:"PG_URL" required:"true"`
	PgPoolMax int    `env:"PG_POOL_MAX" envDefault:"10"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	CatalogBaseURL           string        `env:"CATALOG_BASE_URL" required:"true"`
	CatalogValidatePath      string        `env:"CATALOG_VALIDATE_PATH" envDefault:"/products/validate"`
	HTTPCatalogClientTimeout time.Duration `env:"HTTP_CATALOG_CLIENT_TIMEOUT" envDefault:"5s"`

	PaymentsBaseURL           string        `env:"PAYMENTS_BASE_URL" required:"true"`
	PaymentsSessionPath       string        `env:"PAYMENTS_SESSION_PATH" envDefault:"/payments/sessions"`
	HTTPPaymentsClientTimeout time.Duration `env:"HTTP_PAYMENTS_CLIENT_TIMEOUT" envDefault:"10s"`

	// Settlement currency sent to the payment gateway for every session.
	PaymentCurrency string `env:"PAYMENT_CURRENCY" envDefault:"usd"`

	// Kafka configuration
	KafkaBrokers               []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaPaymentsTopic         string   `env:"KAFKA_PAYMENTS_TOPIC" envDefault:"payments.succeeded"`
	KafkaPaymentsDLQTopic      string   `env:"KAFKA_PAYMENTS_DLQ_TOPIC" envDefault:"payments.succeeded.dlq"`
	KafkaPaymentsConsumerGroup string   `env:"KAFKA_PAYMENTS_CONSUMER_GROUP" envDefault:"ordersvc-payments"`

	// OpenSearch audit sink; the Postgres sink is used when no URLs are configured.
	OpensearchUrls        []string `env:"OPENSEARCH_URLS" envSeparator:","`
	OpensearchIndexOrders string   `env:"OPENSEARCH_INDEX_ORDERS" envDefault:"order-events"`
}

func New() (Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}

	return c, nil
}
