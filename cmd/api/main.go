package main

import (
	"context"
	"fmt"
	common_api "go-opsdesk/internal/common/api"
	"go-opsdesk/internal/config"
	"go-opsdesk/internal/database"
	"go-opsdesk/internal/events"
	"go-opsdesk/internal/features/audit"
	"go-opsdesk/internal/features/automation"
	"go-opsdesk/internal/features/booking"
	"go-opsdesk/internal/features/conversation"
	"go-opsdesk/internal/features/email"
	"go-opsdesk/internal/features/form"
	"go-opsdesk/internal/features/notification"
	"go-opsdesk/internal/features/settings"
	"go-opsdesk/internal/features/sms"
	"go-opsdesk/internal/features/system"
	"go-opsdesk/internal/features/webhook"
	"go-opsdesk/internal/logger"
	"go-opsdesk/internal/middleware"
	"go-opsdesk/pkg/utils"
	"log"

	_ "go-opsdesk/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Use custom CORS middleware
	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
	log.Printf("Registered %d routes\n", len(routes))
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			utils.SetSecret(cfg.JWTSecret)
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// WireDispatch subscribes the automation dispatcher and the webhook bridge to
// the event bus before the server accepts traffic.
func WireDispatch(bus *events.Bus, automationService automation.AutomationService, bridge *webhook.Bridge) {
	automationService.Subscribe(bus)
	bridge.Subscribe(bus)
}

// StartScheduler runs the periodic automation scan for the process lifetime.
func StartScheduler(lc fx.Lifecycle, scheduler *automation.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return scheduler.Start()
		},
		OnStop: func(ctx context.Context) error {
			scheduler.Stop()
			return nil
		},
	})
}

// @title           OpsDesk API
// @version         1.0
// @description     Automation engine and webhook delivery for the OpsDesk platform.

// @host            localhost:8080
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Event bus
			events.NewBus,

			// Initialize Repository
			audit.NewAuditRepository,
			settings.NewSettingsRepository,
			email.NewEmailRepository,
			booking.NewBookingRepository,
			form.NewSubmissionRepository,
			conversation.NewConversationRepository,
			notification.NewAlertRepository,
			automation.NewRuleRepository,
			automation.NewExecutionLogRepository,
			webhook.NewWebhookRepository,
			webhook.NewDeliveryLogRepository,

			audit.NewAuditService,
			settings.NewSettingsService,
			email.NewEmailService,
			sms.NewSMSService,
			notification.NewNotificationService,
			automation.NewAutomationService,
			automation.NewScheduler,
			webhook.NewWebhookService,
			webhook.NewBridge,
			system.NewHub,

			// Interface Adapters to satisfy Fx
			func(s notification.NotificationService) notification.Gateway { return s },
			func(h *system.Hub) notification.Broadcaster { return h },

			// Initialize Controller
			audit.NewAuditController,
			settings.NewSettingsController,
			notification.NewNotificationController,
			automation.NewAutomationController,
			webhook.NewWebhookController,
			system.NewWebSocketController,

			// Initialize API Routes
			AsRoute(audit.NewAuditApi),
			AsRoute(settings.NewSettingsApi),
			AsRoute(notification.NewNotificationApi),
			AsRoute(automation.NewAutomationApi),
			AsRoute(webhook.NewWebhookApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewSwaggerApi),
			AsRoute(system.NewWebSocketApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			WireDispatch,
			StartServer,
			StartScheduler,
		),
	)

	app.Run()
}
