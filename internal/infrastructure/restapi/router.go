package restapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RouterConfig holds what SetupRouter needs besides the handler.
type RouterConfig struct {
	AllowedOrigins []string
	// ConnectPerMinute and ConnectBurst limit POST /connection/connect.
	ConnectPerMinute int
	ConnectBurst     int
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler
}

// SetupRouter настраивает и возвращает экземпляр Gin роутера.
func SetupRouter(h *ConnectionHandler, zapLogger *zap.Logger, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsConfig.ExposeHeaders = []string{"X-Pairing-URI"}
	router.Use(cors.New(corsConfig))

	router.Use(ZapLoggerMiddleware(zapLogger))
	router.Use(gin.Recovery())

	perMinute := cfg.ConnectPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	burst := cfg.ConnectBurst
	if burst <= 0 {
		burst = 1
	}
	connectLimiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)

	// Группа для API v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/networks", h.GetNetworks)

		conn := v1.Group("/connection")
		conn.GET("", h.GetConnection)
		conn.GET("/events", h.StreamEvents)
		conn.POST("/dialog", h.SetDialog)
		conn.POST("/reset", h.Reset)
		conn.POST("/network", h.SelectNetwork)
		conn.POST("/wallet", h.SelectWallet)
		conn.POST("/connect", RateLimitMiddleware(connectLimiter), h.Connect)
		conn.POST("/disconnect", h.Disconnect)

		v1.GET("/pairing/qr", h.GetPairingQR)
	}

	router.GET("/healthz", h.Healthz)
	if cfg.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	return router
}
