package handlers

import (
	"RuralCare/internal/emergency"
	"RuralCare/internal/models"
	"RuralCare/pkg/cache"
	"RuralCare/pkg/config"
	"RuralCare/pkg/metrics"
	"RuralCare/pkg/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const sessionName = "ruralcare_session"

type Handlers struct {
	db      *gorm.DB
	svc     *emergency.Service
	store   cache.Cache
	metrics *metrics.Metrics
	limiter *middleware.RateLimiter
	geo     middleware.GeoLocator
}

type Option func(*Handlers)

// WithCache 幂等键存储
func WithCache(store cache.Cache) Option { return func(h *Handlers) { h.store = store } }

func WithMetrics(m *metrics.Metrics) Option { return func(h *Handlers) { h.metrics = m } }

// WithRateLimiter 作用于登录、注册和创建警报
func WithRateLimiter(l *middleware.RateLimiter) Option { return func(h *Handlers) { h.limiter = l } }

// WithGeoLocator 审计日志的 IP 归属地
func WithGeoLocator(g middleware.GeoLocator) Option { return func(h *Handlers) { h.geo = g } }

func NewHandlers(db *gorm.DB, svc *emergency.Service, opts ...Option) *Handlers {
	h := &Handlers{db: db, svc: svc}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handlers) Register(engine *gin.Engine) {
	cfg := config.GlobalConfig

	if h.metrics != nil && cfg.MonitorPrefix != "" {
		engine.GET(cfg.MonitorPrefix+"/metrics", gin.WrapH(h.metrics.Handler()))
	}

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionExpireDays * 24 * 3600,
		HttpOnly: true,
		Secure:   cfg.Mode == "production",
	})

	r := engine.Group(cfg.APIPrefix)
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(h.loadPrincipal)
	r.Use(middleware.OperationLogMiddleware(h.db, h.geo))

	h.registerSystemRoutes(r)
	h.registerAuthRoutes(r)
	h.registerWorkerRoutes(r)
	h.registerPatientRoutes(r)
	h.registerAlertRoutes(r)
	h.registerDoctorRoutes(r)
	h.registerAmbulanceRoutes(r)
}

// System Module
func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	system := r.Group("/system")
	{
		system.GET("/health", h.HealthCheck)
		system.GET("/availability", AuthRequired, RoleRequired(models.RoleDoctor), h.handleAvailability)
		system.GET("/operations", AuthRequired, RoleRequired(models.RoleDoctor), h.handleOperationLogs)
	}
}

// Auth Module
func (h *Handlers) registerAuthRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.rateLimit(), h.handleRegister)
		auth.POST("/login", h.rateLimit(), h.handleLogin)
		auth.POST("/logout", AuthRequired, h.handleLogout)
		auth.GET("/me", AuthRequired, h.handleMe)
	}
}

// Worker Module
func (h *Handlers) registerWorkerRoutes(r *gin.RouterGroup) {
	worker := r.Group("/worker", AuthRequired, RoleRequired(models.RoleWorker))
	{
		worker.GET("/profile", h.handleWorkerProfile)
		worker.PUT("/location", h.handleWorkerLocation)
	}
	r.GET("/doctors/recommended", AuthRequired, RoleRequired(models.RoleWorker), h.handleRecommendedDoctors)
}

// Patient Module
func (h *Handlers) registerPatientRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients", AuthRequired)
	{
		patients.POST("", RoleRequired(models.RoleWorker), h.handleCreatePatient)
		patients.GET("", RoleRequired(models.RoleWorker), h.handleSearchPatients)
		patients.GET("/:id", h.handleGetPatient)
		patients.POST("/:id/records", RoleRequired(models.RoleWorker, models.RoleDoctor), h.handleAddRecord)
	}
}

// Alert Module
func (h *Handlers) registerAlertRoutes(r *gin.RouterGroup) {
	alerts := r.Group("/alerts", AuthRequired)
	{
		alerts.POST("", RoleRequired(models.RoleWorker), h.rateLimit(), h.idempotent(), h.handleCreateAlert)
		alerts.GET("/:id", h.handleGetAlert)
		alerts.POST("/:id/treatment", RoleRequired(models.RoleWorker), h.handleSubmitTreatment)
		alerts.POST("/:id/escalate", RoleRequired(models.RoleWorker), h.handleEscalate)
		alerts.POST("/:id/dispatch", RoleRequired(models.RoleDoctor), h.idempotent(h.boundAmbulance), h.handleDispatch)
		alerts.POST("/:id/resolve", RoleRequired(models.RoleDoctor), h.handleResolve)
		alerts.GET("/:id/notes", h.handleGetNotes)
		alerts.POST("/:id/notes", RoleRequired(models.RoleWorker, models.RoleDoctor), h.handleAddNote)
	}
}

// Doctor Module
func (h *Handlers) registerDoctorRoutes(r *gin.RouterGroup) {
	doctor := r.Group("/doctor", AuthRequired, RoleRequired(models.RoleDoctor))
	{
		doctor.GET("/alerts", h.handleDoctorAlerts)
		doctor.GET("/profile", h.handleDoctorProfile)
		doctor.PUT("/location", h.handleDoctorLocation)
	}
}

// Ambulance Module
func (h *Handlers) registerAmbulanceRoutes(r *gin.RouterGroup) {
	amb := r.Group("/ambulance", AuthRequired, RoleRequired(models.RoleAmbulance))
	{
		amb.GET("/tasks", h.handleAmbulanceTasks)
		amb.GET("/history", h.handleAmbulanceHistory)
		amb.PUT("/tasks/:id/status", h.handleTaskStatus)
		amb.PUT("/location", h.handleAmbulanceLocation)
	}
}

func (h *Handlers) rateLimit() gin.HandlerFunc {
	if h.limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return h.limiter.Middleware()
}

func (h *Handlers) idempotent(scope ...func(c *gin.Context) string) gin.HandlerFunc {
	cfg := middleware.IdempotencyConfig{
		TTL:   config.GlobalConfig.IdempotencyTTL,
		Store: h.store,
	}
	if len(scope) > 0 {
		cfg.Scope = scope[0]
	}
	return middleware.IdempotencyMiddleware(cfg)
}

// boundAmbulance 派车请求没有请求体，以当前绑定的车辆区分重复点击和再次派车
func (h *Handlers) boundAmbulance(c *gin.Context) string {
	id, err := models.BoundAmbulanceID(h.db.WithContext(c.Request.Context()), c.Param("id"))
	if err != nil {
		return ""
	}
	return id
}
