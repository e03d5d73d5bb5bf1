package config

import (
	"context"
	"fmt"

	"pms/services/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
	"github.com/robfig/cron/v3"
)

// InitApp connects storage and builds the router, websocket hub and scheduler.
func InitApp(ctx context.Context, log logger.Logger) (*gin.Engine, *melody.Melody, *cron.Cron, error) {
	if GetEnv("ENV", "local") == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	configCors := cors.DefaultConfig()
	configCors.AddAllowHeaders("Authorization", "X-Property-ID", "X-Business-Date", "X-Base-Currency", "X-Request-ID")
	configCors.AddExposeHeaders("X-Request-ID")
	configCors.AllowCredentials = true
	configCors.AllowAllOrigins = false
	configCors.AllowOriginFunc = func(origin string) bool {
		return true
	}
	router.Use(cors.New(configCors))

	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, nil, nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	if err := initComponents(ctx, log); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	m := melody.New()
	c := cron.New()

	return router, m, c, nil
}

func initComponents(ctx context.Context, log logger.Logger) error {
	db, err := ConnectDB()
	if err != nil {
		return err
	}
	if GetEnvBool("DB_AUTO_MIGRATE", true) {
		if err := Migrate(db); err != nil {
			return err
		}
	}

	if _, err := ConnectRedis(ctx); err != nil {
		return err
	}

	log.Info("All components initialized successfully")
	return nil
}

func InitWebSocket(router *gin.Engine, m *melody.Melody, log logger.Logger) {
	m.HandleConnect(func(s *melody.Session) {
		log.Debug("websocket client connected from %s", s.Request.RemoteAddr)
	})
	m.HandleDisconnect(func(s *melody.Session) {
		log.Debug("websocket client disconnected from %s", s.Request.RemoteAddr)
	})
	router.GET("/ws", func(c *gin.Context) {
		if err := m.HandleRequest(c.Writer, c.Request); err != nil {
			log.Error("websocket upgrade: %v", err)
		}
	})
	log.Info("WebSocket initialized successfully")
}
