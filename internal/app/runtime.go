package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"varehus/internal/config"
	"varehus/internal/db"
	"varehus/internal/document"
)

// Runtime is everything a process entry point needs once configuration has
// been loaded: the open connector, the core services and the facade over them.
type Runtime struct {
	Config   *config.Config
	Conn     db.Connector
	Services Services
	App      ApplicationService
}

// Open connects to the configured database, applies pending migrations when
// auto-migrate is on, and wires the services with the PDF renderer.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Runtime, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Database.AutoMigrate {
		res, err := db.Migrate(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if res.Applied {
			log.Info("schema migrated", "from", res.From, "to", res.To)
		}
	}

	renderer, err := document.NewPDFRenderer(cfg.Invoice, cfg.Company)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice configuration: %w", err)
	}

	conn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	log.Info("database connected", "driver", cfg.Database.Driver)

	svc := NewServices(conn, renderer, log)
	return &Runtime{
		Config:   cfg,
		Conn:     conn,
		Services: svc,
		App:      NewAppService(conn, cfg.Database, svc),
	}, nil
}

// Close releases the database connection.
func (r *Runtime) Close() error {
	return r.Conn.Close()
}
