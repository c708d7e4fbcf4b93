package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"voice_conversion/entity"
	"voice_conversion/internal/session"
	"voice_conversion/pkg/logger"
)

type pageRoutes struct {
	uc Converter
	l  logger.Interface
}

type pageData struct {
	Params        entity.ConversionParameters
	Methods       []entity.Method
	ModelExt      string
	AudioAccept   string
	MinPitch      int
	MaxPitch      int
	MinFilter     int
	MaxFilter     int
	ModelLoaded   bool
	ModelName     string
	HasOutput     bool
	OutputVersion int64
	DownloadName  string
	Success       string
	Error         string
}

func newPageRoutes(handler *gin.RouterGroup, uc Converter, l logger.Interface) {
	r := &pageRoutes{uc, l}

	handler.GET("/", r.index)
	handler.POST("/model", r.loadModel)
	handler.POST("/convert", r.convert)
	handler.GET("/result", r.result)
	handler.GET("/result/download", r.download)
}

func (r *pageRoutes) render(c *gin.Context, status int, s *session.Session, params entity.ConversionParameters, success, failure string) {
	modelName, identity, output := snapshot(s)

	c.HTML(status, "index.html", pageData{
		Params:        params,
		Methods:       entity.Methods,
		ModelExt:      entity.ModelExt,
		AudioAccept:   ".wav,.mp3",
		MinPitch:      entity.MinPitchShift,
		MaxPitch:      entity.MaxPitchShift,
		MinFilter:     entity.MinFilterRadius,
		MaxFilter:     entity.MaxFilterRadius,
		ModelLoaded:   identity != "",
		ModelName:     modelName,
		HasOutput:     len(output) > 0,
		OutputVersion: time.Now().UnixNano(),
		DownloadName:  downloadName,
		Success:       success,
		Error:         failure,
	})
}

func (r *pageRoutes) index(c *gin.Context) {
	r.render(c, http.StatusOK, sessionFrom(c), entity.DefaultParameters(), "", "")
}

func (r *pageRoutes) loadModel(c *gin.Context) {
	ctx, span := otel.Tracer(traceName).Start(c.Request.Context(), "page-load-model")
	defer span.End()

	s := sessionFrom(c)
	params := entity.DefaultParameters()

	if err := parseForm(c); err != nil {
		r.render(c, statusFor(err), s, params, "", err.Error())
		return
	}

	art, err := readUpload(c, fieldModel, true, entity.ModelExt)
	if err != nil {
		r.render(c, statusFor(err), s, params, "", err.Error())
		return
	}

	outcome, err := r.uc.LoadModel(ctx, s, entity.ModelArtifact{Artifact: art})
	if err != nil {
		r.render(c, statusFor(err), s, params, "", err.Error())
		return
	}

	msg := "Model loaded successfully!"
	if outcome == entity.LoadUnchanged {
		msg = "Model already loaded."
	}
	r.render(c, http.StatusOK, s, params, msg, "")
}

func (r *pageRoutes) convert(c *gin.Context) {
	ctx, span := otel.Tracer(traceName).Start(c.Request.Context(), "page-convert")
	defer span.End()

	s := sessionFrom(c)

	if err := parseForm(c); err != nil {
		r.render(c, statusFor(err), s, entity.DefaultParameters(), "", err.Error())
		return
	}

	params, err := parseParameters(c.PostForm)
	if err != nil {
		r.render(c, statusFor(err), s, entity.DefaultParameters(), "", err.Error())
		return
	}

	// A model posted alongside the audio is loaded first; the same file
	// posted again is a no-op.
	modelArt, err := readUpload(c, fieldModel, false, entity.ModelExt)
	if err != nil {
		r.render(c, statusFor(err), s, params, "", err.Error())
		return
	}
	if len(modelArt.Filename) > 0 {
		if _, err := r.uc.LoadModel(ctx, s, entity.ModelArtifact{Artifact: modelArt}); err != nil {
			r.render(c, statusFor(err), s, params, "", err.Error())
			return
		}
	}

	audioArt, err := readUpload(c, fieldAudio, true, entity.AudioExts...)
	if err != nil {
		r.render(c, statusFor(err), s, params, "", err.Error())
		return
	}

	if _, err := r.uc.Convert(ctx, s, entity.AudioArtifact{Artifact: audioArt}, params); err != nil {
		r.l.Error("http - page - convert: %v", err)
		r.render(c, statusFor(err), s, params, "", err.Error())
		return
	}

	r.render(c, http.StatusOK, s, params, "Conversion finished.", "")
}

func (r *pageRoutes) result(c *gin.Context) {
	serveOutput(c, sessionFrom(c), false)
}

func (r *pageRoutes) download(c *gin.Context) {
	serveOutput(c, sessionFrom(c), true)
}

// serveOutput writes the session's last converted audio, inline for the
// player or as a converted_audio.wav attachment.
func serveOutput(c *gin.Context, s *session.Session, attachment bool) {
	_, _, output := snapshot(s)
	if len(output) == 0 {
		errorResponse(c, http.StatusNotFound, "no converted audio available")
		return
	}

	disposition := "inline"
	if attachment {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", disposition+`; filename="`+downloadName+`"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, audioMIME, output)
}
