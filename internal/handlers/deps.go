package handlers

import (
	"github.com/rs/zerolog"

	"github.com/kosarica/catalog-service/config"
	"github.com/kosarica/catalog-service/internal/attributes"
	"github.com/kosarica/catalog-service/internal/media"
	"github.com/kosarica/catalog-service/internal/storage"
	"github.com/kosarica/catalog-service/internal/telemetry"
)

var (
	registry      *attributes.Registry
	mediaResolver media.Resolver
	store         storage.Storage
	metrics       *telemetry.PipelineMetrics
	logger        zerolog.Logger
	importCfg     config.ImportConfig
)

// Setup wires the handler package dependencies. Call once at startup,
// before any route is served.
func Setup(
	reg *attributes.Registry,
	resolver media.Resolver,
	st storage.Storage,
	m *telemetry.PipelineMetrics,
	log zerolog.Logger,
	imp config.ImportConfig,
) {
	registry = reg
	mediaResolver = resolver
	store = st
	metrics = m
	logger = log
	importCfg = imp
}
