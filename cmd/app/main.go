package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"server-auditor/internal/billing"
	"server-auditor/internal/config"
	"server-auditor/internal/handlers"
	"server-auditor/internal/portal"
	"server-auditor/internal/services"
)

func main() {
	// 0. Local .env (no-op in production, where Swarm secrets win)
	if err := godotenv.Load(); err == nil {
		fmt.Println("📄 Loaded .env file")
	}

	// 1. Credentials: fail here, before any network call
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Config: ", err)
	}

	// 2. Dependency wiring, bottom-up
	billingClient := billing.NewClient(cfg.BillingAPIURL, cfg.BillingIdentifier, cfg.BillingSecret)

	sessions := portal.NewSessionManager(portal.Credentials{
		LoginURL: cfg.LoginURL,
		Username: cfg.PortalUser,
		Password: cfg.PortalPass,
	})
	fetcher, err := portal.NewPageFetcher(sessions)
	if err != nil {
		log.Fatal("Portal: ", err)
	}

	auditService := services.NewAuditService(billingClient, sessions, fetcher)

	authHandler := handlers.NewAuthHandler(cfg.UIPasswordHash)
	auditHandler := handlers.NewAuditHandler(auditService, authHandler)

	// 3. Front-end (one form, one field)
	fs := http.FileServer(http.Dir("./static"))
	http.Handle("/", fs)

	// 4. API routes
	http.HandleFunc("/api/login", authHandler.Login)
	http.HandleFunc("/api/audit", auditHandler.Audit)

	// 5. Serve
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Println("🔥 Server Auditor running on port:", port)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}
