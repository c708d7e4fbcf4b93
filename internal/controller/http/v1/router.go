package v1

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"voice_conversion/entity"
	"voice_conversion/internal/session"
	"voice_conversion/pkg/logger"
)

const (
	traceName = "http-v1"

	downloadName = "converted_audio.wav"
	audioMIME    = "audio/wav"

	archiveNameHeader = "X-Archive-Name"
)

//go:embed templates/index.html
var templatesFS embed.FS

// Converter is the session controller the routes drive.
type Converter interface {
	LoadModel(ctx context.Context, s *session.Session, art entity.ModelArtifact) (entity.LoadOutcome, error)
	Convert(ctx context.Context, s *session.Session, audio entity.AudioArtifact, params entity.ConversionParameters) ([]byte, error)
	FetchArchived(ctx context.Context, s *session.Session, name string) ([]byte, error)
}

// RouterOptions -.
type RouterOptions struct {
	CookieName     string
	MaxUploadBytes int64
	// Gatherer backs /metrics; nil hides the endpoint.
	Gatherer prometheus.Gatherer
	// Swagger mounts the API docs under /swagger.
	Swagger bool
}

// NewRouter -.
func NewRouter(handler *gin.Engine, l logger.Interface, uc Converter, reg *session.Registry, opts RouterOptions) error {
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return err
	}

	// Options
	handler.Use(gin.Logger())
	handler.Use(gin.Recovery())
	handler.SetHTMLTemplate(tmpl)

	// Swagger
	if opts.Swagger {
		handler.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// K8s liveness
	handler.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	// Prometheus metrics
	if opts.Gatherer != nil {
		handler.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	sessioned := handler.Group("/", uploadLimit(opts.MaxUploadBytes), sessionMiddleware(reg, opts.CookieName))
	{
		newPageRoutes(sessioned, uc, l)
	}

	h := sessioned.Group("/v1")
	{
		newVoiceRoutes(h, uc, l)
	}

	return nil
}
