package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-presence/internal/infrastructure/auth"
	qport "go-presence/internal/infrastructure/queue/port"
	chatrepo "go-presence/internal/pkg/chat/persistence/repository/port"
	chatcontroller "go-presence/internal/pkg/chat/presentation/controller"
	chatHandler "go-presence/internal/pkg/chat/presentation/http"
	presencerepo "go-presence/internal/pkg/presence/persistence/repository/port"
	presenceHandler "go-presence/internal/pkg/presence/presentation/http"
)

// Pinger is any dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries everything the v1 routes are built from.
type Deps struct {
	Verifier *auth.Verifier
	Repo     chatrepo.ChatRepository
	Queue    qport.Client
	Online   presencerepo.OnlineSet
	Socket   *chatcontroller.ChatSocketController
	Health   map[string]Pinger
}

// RegisterRoutes mounts the health check and all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/healthz", healthz(d.Health))

	v1 := r.Group("/api/v1", auth.Middleware(d.Verifier))
	chatHandler.RegisterRoutes(v1, d.Repo, d.Queue, d.Socket)
	presenceHandler.RegisterRoutes(v1, d.Online)
}

func healthz(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := gin.H{}
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}
		results["status"] = http.StatusText(status)
		c.JSON(status, results)
	}
}
