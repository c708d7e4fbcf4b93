package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"voice_conversion/entity"
	"voice_conversion/pkg/logger"
)

type voiceRoutes struct {
	uc Converter
	l  logger.Interface
}

type modelResponse struct {
	Status        string `json:"status"         example:"loaded"`
	ModelName     string `json:"model_name"     example:"voice.pth"`
	ModelIdentity string `json:"model_identity" example:"9f86d081884c7d65..."`
}

type sessionResponse struct {
	SessionID     string                      `json:"session_id"`
	ModelLoaded   bool                        `json:"model_loaded"`
	ModelName     string                      `json:"model_name,omitempty"`
	ModelIdentity string                      `json:"model_identity,omitempty"`
	HasOutput     bool                        `json:"has_output"`
	LastArchive   string                      `json:"last_archive,omitempty"`
	Defaults      entity.ConversionParameters `json:"defaults"`
	Methods       []entity.Method             `json:"methods"`
}

func newVoiceRoutes(handler *gin.RouterGroup, uc Converter, l logger.Interface) {
	r := &voiceRoutes{uc, l}

	handler.GET("/session", r.session)
	handler.POST("/model", r.loadModel)
	handler.POST("/convert", r.convert)
	handler.GET("/result", r.download)
	handler.GET("/archive/:name", r.archived)
}

// @Summary     Session state
// @Description Show the loaded model, whether output is available and the parameter defaults
// @ID          session
// @Tags  	    voice
// @Produce     json
// @Success     200 {object} sessionResponse
// @Router      /session [get]
func (r *voiceRoutes) session(c *gin.Context) {
	s := sessionFrom(c)
	name, identity, output := snapshot(s)

	c.JSON(http.StatusOK, sessionResponse{
		SessionID:     s.ID,
		ModelLoaded:   identity != "",
		ModelName:     name,
		ModelIdentity: identity,
		HasOutput:     len(output) > 0,
		LastArchive:   lastArchive(s),
		Defaults:      entity.DefaultParameters(),
		Methods:       entity.Methods,
	})
}

// @Summary     Load model
// @Description Upload a .pth model into the session engine; the same file twice is a no-op
// @ID          load-model
// @Tags  	    voice
// @Accept      mpfd
// @Produce     json
// @Param       model formData file true "model file (.pth)"
// @Success     200 {object} modelResponse
// @Failure     400 {object} response
// @Failure     422 {object} response
// @Router      /model [post]
func (r *voiceRoutes) loadModel(c *gin.Context) {
	ctx, span := otel.Tracer(traceName).Start(c.Request.Context(), "load-model-api")
	defer span.End()

	s := sessionFrom(c)

	if err := parseForm(c); err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	art, err := readUpload(c, fieldModel, true, entity.ModelExt)
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	model := entity.ModelArtifact{Artifact: art}
	outcome, err := r.uc.LoadModel(ctx, s, model)
	if err != nil {
		r.l.Error("http - v1 - loadModel: %v", err)
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	name, identity, _ := snapshot(s)
	c.JSON(http.StatusOK, modelResponse{Status: outcome.String(), ModelName: name, ModelIdentity: identity})
}

// @Summary     Convert audio
// @Description Convert an uploaded clip with the session model and return converted_audio.wav
// @ID          convert
// @Tags  	    voice
// @Accept      mpfd
// @Produce     audio/wav
// @Param       audio         formData file   true  "audio file (.wav or .mp3)"
// @Param       model         formData file   false "model file (.pth), loaded first when present"
// @Param       pitch         formData int    false "pitch shift in semitones [-12, 12]" default(0)
// @Param       protect       formData number false "voiceless consonant protection [0, 1]" default(0.33)
// @Param       index_rate    formData number false "feature retrieval ratio [0, 1]" default(0.5)
// @Param       filter_radius formData int    false "median filter radius [0, 7]" default(3)
// @Param       rms_mix_rate  formData number false "volume envelope mix rate [0, 1]" default(0.25)
// @Param       f0_method     formData string false "pitch extraction method" Enums(harvest, crepe, rmvpe, pm) default(harvest)
// @Success     200 {file} file
// @Failure     400 {object} response
// @Failure     422 {object} response
// @Router      /convert [post]
func (r *voiceRoutes) convert(c *gin.Context) {
	ctx, span := otel.Tracer(traceName).Start(c.Request.Context(), "convert-api")
	defer span.End()

	s := sessionFrom(c)

	if err := parseForm(c); err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	params, err := parseParameters(c.PostForm)
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	modelArt, err := readUpload(c, fieldModel, false, entity.ModelExt)
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}
	if len(modelArt.Filename) > 0 {
		if _, err := r.uc.LoadModel(ctx, s, entity.ModelArtifact{Artifact: modelArt}); err != nil {
			errorResponse(c, statusFor(err), err.Error())
			return
		}
	}

	audioArt, err := readUpload(c, fieldAudio, true, entity.AudioExts...)
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	output, err := r.uc.Convert(ctx, s, entity.AudioArtifact{Artifact: audioArt}, params)
	if err != nil {
		r.l.Error("http - v1 - convert: %v", err)
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	if name := lastArchive(s); name != "" {
		c.Header(archiveNameHeader, name)
	}
	c.Header("Content-Disposition", `attachment; filename="`+downloadName+`"`)
	c.Data(http.StatusOK, audioMIME, output)
}

// @Summary     Last converted audio
// @Description Download the session's last successful conversion
// @ID          result
// @Tags  	    voice
// @Produce     audio/wav
// @Success     200 {file} file
// @Failure     404 {object} response
// @Router      /result [get]
func (r *voiceRoutes) download(c *gin.Context) {
	serveOutput(c, sessionFrom(c), true)
}

// @Summary     Archived conversion
// @Description Download one of the session's archived conversions by the name given in X-Archive-Name
// @ID          archive
// @Tags  	    voice
// @Produce     audio/wav
// @Param       name path string true "archived object name"
// @Success     200 {file} file
// @Failure     404 {object} response
// @Router      /archive/{name} [get]
func (r *voiceRoutes) archived(c *gin.Context) {
	ctx, span := otel.Tracer(traceName).Start(c.Request.Context(), "archive-api")
	defer span.End()

	body, err := r.uc.FetchArchived(ctx, sessionFrom(c), c.Param("name"))
	if err != nil {
		if statusFor(err) != http.StatusNotFound {
			r.l.Error("http - v1 - archived: %v", err)
		}
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+downloadName+`"`)
	c.Data(http.StatusOK, audioMIME, body)
}
