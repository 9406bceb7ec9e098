// @title           Facturador API
// @version         1.0
// @description     API de facturación para pequeñas empresas. Importes decimales exactos; numeración YYYY-NNNN por usuario y año.
// @BasePath        /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token>
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/shopspring/decimal"
	"github.com/swaggo/swag"

	"github.com/jhoicas/facturador-api/docs"
	appanalytics "github.com/jhoicas/facturador-api/internal/application/analytics"
	"github.com/jhoicas/facturador-api/internal/application/auth"
	"github.com/jhoicas/facturador-api/internal/application/billing"
	"github.com/jhoicas/facturador-api/internal/application/usecase"
	infrapdf "github.com/jhoicas/facturador-api/internal/infrastructure/pdf"
	"github.com/jhoicas/facturador-api/internal/infrastructure/postgres"
	infraubl "github.com/jhoicas/facturador-api/internal/infrastructure/ubl"
	infraxlsx "github.com/jhoicas/facturador-api/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/facturador-api/internal/interfaces/http"
	"github.com/jhoicas/facturador-api/pkg/config"
	"github.com/jhoicas/facturador-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	itemRepo := postgres.NewItemRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	analyticsRepo := postgres.NewAnalyticsRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	defaults := billing.Defaults{
		Currency:      cfg.Invoice.DefaultCurrency,
		PaymentTerms:  cfg.Invoice.DefaultPaymentTerms,
		UnitLabel:     cfg.Invoice.DefaultUnitLabel,
		TaxRate:       decimal.Zero,
		NumberRetries: cfg.Invoice.NumberRetries,
	}

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, defaults.Currency)
	settingsUC := usecase.NewSettingsUseCase(userRepo, defaults.Currency)
	clientUC := billing.NewClientUseCase(clientRepo, defaults.PaymentTerms)
	itemUC := usecase.NewItemUseCase(itemRepo, defaults.UnitLabel)
	invoiceUC := billing.NewInvoiceUseCase(txRunner, invoiceRepo, clientRepo, itemRepo, userRepo, defaults)

	// Documentos: PDF (Maroto), UBL 2.1 (etree + C14N), registro XLSX (excelize)
	documentUC := billing.NewDocumentUseCase(
		invoiceRepo, clientRepo, userRepo,
		infrapdf.NewMarotoPDFGenerator(), infraubl.NewXMLBuilder(),
	)
	exportUC := billing.NewExportUseCase(invoiceRepo, clientRepo, infraxlsx.NewRegisterExporter(), time.Now)
	dashboardUC := appanalytics.NewDashboardUseCase(analyticsRepo, invoiceRepo, clientRepo, itemRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.HTTP.IdleTimeout) * time.Second,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestContext())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturador API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/openapi.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(doc)
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		SettingsUC:  settingsUC,
		ClientUC:    clientUC,
		ItemUC:      itemUC,
		InvoiceUC:   invoiceUC,
		DocumentUC:  documentUC,
		ExportUC:    exportUC,
		DashboardUC: dashboardUC,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
