package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pysugar/hubspot-property-sync/internal/api/handlers"
	"github.com/pysugar/hubspot-property-sync/internal/api/middleware"
	"github.com/pysugar/hubspot-property-sync/internal/auth/oauth"
	"github.com/pysugar/hubspot-property-sync/internal/auth/token"
	"github.com/pysugar/hubspot-property-sync/internal/config"
	"github.com/pysugar/hubspot-property-sync/internal/db"
	"github.com/pysugar/hubspot-property-sync/internal/hubspot"
	"github.com/pysugar/hubspot-property-sync/internal/logging"
	"github.com/pysugar/hubspot-property-sync/internal/properties"
	"github.com/pysugar/hubspot-property-sync/internal/schema"
	"github.com/pysugar/hubspot-property-sync/internal/store"
	"github.com/pysugar/hubspot-property-sync/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	database, err := db.InitDB(db.Options{URL: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close(database)

	if cfg.IsTest() {
		log.Printf("🧪 NODE_ENV=test, skipping seed data")
	} else if err := db.Seed(context.Background(), database); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	catalog, err := schema.LoadCatalog(cfg.RequiredSchemaFile)
	if err != nil {
		log.Fatalf("Failed to load required schema: %v", err)
	}

	crm := hubspot.NewClient(cfg.HubSpotAPIBase)
	oauthConfig := oauth.NewConfig(oauth.Settings{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		AuthURL:      cfg.HubSpotAuthURL,
		APIBase:      cfg.HubSpotAPIBase,
	})

	// Tokens come from the local store unless a separate OAuth service owns them
	var tokens token.Provider
	var manager *token.Manager
	if cfg.OAuthServiceURL != "" {
		tokens = token.NewRemoteProvider(cfg.OAuthServiceURL)
		log.Printf("🔑 Access tokens delegated to %s", cfg.OAuthServiceURL)
	} else {
		manager = token.NewManager(database, oauthConfig, crm)
		tokens = manager
	}

	reconciler := schema.NewReconciler(database, crm, catalog)
	cache := properties.NewCache(database, tokens, crm)
	nativeProps := store.NewProperties(database)
	mappings := store.NewMappings(database)

	// Create router
	r := chi.NewRouter()
	r.Use(logging.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Customer(cfg.DefaultCustomerID))

	r.Get("/api/install", handlers.InstallHandler(oauthConfig))
	if manager != nil {
		r.Get("/oauth-callback", handlers.OAuthCallbackHandler(manager, reconciler, cfg.AppURL))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/hubspot-properties", handlers.HubSpotPropertiesHandler(cache, oauthConfig, false))
		r.Get("/hubspot-properties-skip-cache", handlers.HubSpotPropertiesHandler(cache, oauthConfig, true))

		r.Get("/native-properties", handlers.NativePropertiesHandler(nativeProps))
		r.Post("/native-properties", handlers.CreateNativePropertyHandler(nativeProps))
		r.Get("/native-properties-with-mappings", handlers.NativePropertiesWithMappingsHandler(nativeProps))

		r.Get("/mappings", handlers.MappingsHandler(mappings))
		r.Post("/mappings", handlers.SaveMappingHandler(mappings))
		r.Delete("/mappings/{mappingId}", handlers.DeleteMappingHandler(mappings))

		r.Post("/schema/reconcile", handlers.ReconcileSchemaHandler(tokens, reconciler, oauthConfig))

		r.Get("/version", handlers.VersionHandler())
	})

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		backend := "sqlite"
		if cfg.UsesPostgres() {
			backend = "postgres"
		}
		log.Printf("🚀 HubSpot property sync %s starting on http://%s (%s)", version.Version, cfg.Addr(), backend)
		log.Printf("🔌 Install URL: http://%s/api/install", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("🛑 Shutting down (timeout %s)", cfg.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  Graceful shutdown failed: %v", err)
	}
}
