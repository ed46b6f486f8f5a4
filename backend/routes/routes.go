package routes

import (
	"errors"
	"mentor/backend/config"
	"mentor/backend/controllers"
	"mentor/backend/middleware"
	"mentor/backend/services"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const bodyLimit = 12 << 20

// Dependencies are the external services handlers talk to. Gateway may be
// nil when no AI gateway key is configured.
type Dependencies struct {
	Logger   *zap.Logger
	Gateway  services.Gateway
	Executor services.Executor
	Store    services.FileStore
	Feedback *services.FeedbackWriter
	Tracker  *services.FootfallTracker
}

// NewApp builds the Fiber app with the global middleware stack.
func NewApp(cfg *config.Config, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "mentor",
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	return app
}

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, deps Dependencies) {
	if deps.Tracker == nil {
		deps.Tracker = services.NewFootfallTracker(db, deps.Logger)
	}

	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(db)
	aiLimiter := aiRateLimiter(cfg)

	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Local uploads
	if (cfg.StorageDriver == "" || cfg.StorageDriver == "local") && strings.HasPrefix(cfg.StoragePublicURL, "/") {
		app.Static(cfg.StoragePublicURL, cfg.StorageDir)
	}

	// Auth routes
	authController := controllers.NewAuthController(db, cfg, deps.Logger)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)
	app.Put("/api/auth/password", authMiddleware, authController.ChangePassword)
	app.Get("/api/auth/me", authMiddleware, authController.Me)

	// Profile routes
	profileController := controllers.NewProfileController(db, cfg, deps.Store, deps.Logger)
	profile := app.Group("/api/profile", authMiddleware)
	profile.Get("/", profileController.GetProfile)
	profile.Put("/", profileController.UpdateProfile)
	profile.Post("/picture", profileController.UploadPicture)

	// Progress routes
	progressController := controllers.NewProgressController(db, cfg)
	app.Get("/api/progress", authMiddleware, progressController.GetProgress)
	app.Get("/api/progress/overview", authMiddleware, progressController.GetProgressOverview)

	// Exam routes
	examsController := controllers.NewExamsController(db, cfg, deps.Gateway, deps.Feedback, deps.Logger)
	exams := app.Group("/api/exams", authMiddleware)
	exams.Post("/generate", aiLimiter, examsController.GenerateExam)
	exams.Get("/", examsController.ListExams)
	exams.Get("/:id", examsController.GetExam)
	exams.Post("/:id/answers", examsController.SubmitAnswers)
	exams.Post("/:id/evaluate", examsController.EvaluateExam)
	exams.Get("/:id/results", examsController.GetResults)

	// Analytics routes
	analyticsController := controllers.NewAnalyticsController(db, cfg, deps.Tracker, deps.Logger)
	app.Post("/api/track", middleware.OptionalAuth(cfg), analyticsController.TrackVisit)
	app.Get("/api/analytics", authMiddleware, adminMiddleware, analyticsController.GetFootfall)

	// Admin routes
	adminController := controllers.NewAdminController(db, cfg, deps.Logger)
	app.Get("/api/admin/setup", adminController.SetupStatus)
	app.Post("/api/admin/setup", adminController.Setup)
	admin := app.Group("/api/admin", authMiddleware, adminMiddleware)
	admin.Get("/dashboard", adminController.Dashboard)
	admin.Post("/roles", adminController.AssignRole)

	// Finance routes
	financeController := controllers.NewFinanceController(db, cfg, deps.Gateway, deps.Logger)
	finance := app.Group("/api/finance", authMiddleware)
	finance.Get("/profile", financeController.GetProfile)
	finance.Put("/profile", financeController.UpsertProfile)
	finance.Get("/expenses", financeController.ListExpenses)
	finance.Post("/expenses", financeController.CreateExpense)
	finance.Delete("/expenses/:id", financeController.DeleteExpense)
	finance.Get("/budget", financeController.GetBudget)
	finance.Put("/budget", financeController.UpsertBudget)
	finance.Get("/goals", financeController.ListGoals)
	finance.Post("/goals", financeController.CreateGoal)
	finance.Post("/goals/:id/contribute", financeController.Contribute)
	finance.Get("/investments", financeController.ListInvestments)
	finance.Post("/investments", financeController.CreateInvestment)
	finance.Delete("/investments/:id", financeController.DeleteInvestment)
	finance.Get("/dashboard", financeController.Dashboard)
	finance.Post("/advice", aiLimiter, financeController.Advice)

	// Playground routes
	playgroundController := controllers.NewPlaygroundController(db, cfg, deps.Executor, deps.Gateway, deps.Logger)
	playground := app.Group("/api/playground", authMiddleware)
	playground.Get("/snippets", playgroundController.ListSnippets)
	playground.Post("/snippets", playgroundController.CreateSnippet)
	playground.Put("/snippets/:id", playgroundController.UpdateSnippet)
	playground.Delete("/snippets/:id", playgroundController.DeleteSnippet)
	playground.Post("/execute", playgroundController.Execute)
	playground.Post("/assist", aiLimiter, playgroundController.Assist)

	// Resume routes
	resumeController := controllers.NewResumeController(db, cfg, deps.Store, deps.Gateway, deps.Logger)
	app.Post("/api/resume/analyze", authMiddleware, aiLimiter, resumeController.Analyze)
}

// aiRateLimiter caps AI calls per user, or per IP for anonymous callers.
func aiRateLimiter(cfg *config.Config) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.AIRateLimitPerMinute,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID, ok := middleware.UserID(c); ok {
				return "user:" + strconv.FormatUint(uint64(userID), 10)
			}
			return "ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded. Please try again later.",
			})
		},
	})
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}
