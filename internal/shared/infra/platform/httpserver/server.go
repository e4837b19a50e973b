package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"github.com/davicafu/skidash/pkg/utils"
)

const shutdownTimeout = 10 * time.Second

// NewRouter crea el engine de gin con recuperación, cabeceras de seguridad y log de peticiones.
func NewRouter(log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log), Secure(secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	})))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

// Secure adapta unrolled/secure a un middleware de gin.
func Secure(s *secure.Secure) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.Process(c.Writer, c.Request); err != nil {
			// secure ya escribió la respuesta (host no permitido, redirección SSL)
			c.Abort()
			return
		}
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestLogger registra cada petición con zap al terminar.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Debug("request", fields...)
		}
	}
}

// RateLimit limita por IP las peticiones por minuto. perMinute <= 0 lo desactiva.
func RateLimit(handler http.Handler, perMinute int) http.Handler {
	if perMinute <= 0 {
		return handler
	}
	limiter := httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			utils.WriteError(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
		}),
	)
	return limiter(handler)
}

// New construye el servidor HTTP con el limitador delante del router.
func New(addr string, handler http.Handler, ratePerMinute int) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           RateLimit(handler, ratePerMinute),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Run sirve hasta que se cancele el contexto y entonces apaga el servidor
// esperando a las peticiones en curso. Las peticiones heredan ctx, así que los
// streams largos (SSE) terminan en cuanto empieza el apagado.
func Run(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	srv.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		log.Info("🚀 Server running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info("🛑 Apagando servidor HTTP")
	return srv.Shutdown(shutdownCtx)
}
