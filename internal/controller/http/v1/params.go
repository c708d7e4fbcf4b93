package v1

import (
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"voice_conversion/entity"
)

// Form field names shared by the page and the API.
const (
	fieldModel        = "model"
	fieldAudio        = "audio"
	fieldPitch        = "pitch"
	fieldProtect      = "protect"
	fieldIndexRate    = "index_rate"
	fieldFilterRadius = "filter_radius"
	fieldRMSMixRate   = "rms_mix_rate"
	fieldMethod       = "f0_method"
)

// parseParameters reads the six tuning fields the way the sliders deliver
// them: absent fields keep their default and numbers are clamped to the
// slider range. Anything that is not a number, or an unknown method, is a
// form error.
func parseParameters(get func(string) string) (entity.ConversionParameters, error) {
	p := entity.DefaultParameters()
	var err error

	if p.PitchShift, err = intField(get, fieldPitch, p.PitchShift, entity.MinPitchShift, entity.MaxPitchShift); err != nil {
		return p, err
	}
	if p.Protect, err = ratioField(get, fieldProtect, p.Protect); err != nil {
		return p, err
	}
	if p.IndexRate, err = ratioField(get, fieldIndexRate, p.IndexRate); err != nil {
		return p, err
	}
	if p.FilterRadius, err = intField(get, fieldFilterRadius, p.FilterRadius, entity.MinFilterRadius, entity.MaxFilterRadius); err != nil {
		return p, err
	}
	if p.RMSMixRate, err = ratioField(get, fieldRMSMixRate, p.RMSMixRate); err != nil {
		return p, err
	}

	if raw := strings.TrimSpace(get(fieldMethod)); raw != "" {
		m, ok := entity.ParseMethod(strings.ToLower(raw))
		if !ok {
			return p, badForm(fmt.Sprintf("%s must be one of %v", fieldMethod, entity.Methods))
		}
		p.Method = m
	}

	return p, nil
}

func intField(get func(string) string, name string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, badForm(name + " must be an integer")
	}
	return min(max(v, lo), hi), nil
}

func ratioField(get func(string) string, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return def, badForm(name + " must be a number between 0 and 1")
	}
	return math.Min(math.Max(v, 0), 1), nil
}

// parseForm reads the multipart body once so an oversized upload surfaces
// as an error instead of as missing fields.
func parseForm(c *gin.Context) error {
	_, err := c.MultipartForm()
	switch {
	case err == nil, errors.Is(err, http.ErrNotMultipart):
		return nil
	case statusFor(err) == http.StatusRequestEntityTooLarge:
		return err
	default:
		return badForm("malformed form: " + err.Error())
	}
}

// readUpload returns the file posted as field. required=false lets an absent
// file through as a zero Artifact.
func readUpload(c *gin.Context, field string, required bool, exts ...string) (entity.Artifact, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if statusFor(err) == http.StatusRequestEntityTooLarge {
			return entity.Artifact{}, err
		}
		if !required {
			return entity.Artifact{}, nil
		}
		return entity.Artifact{}, badForm("missing file field " + field)
	}

	a := entity.Artifact{Filename: fh.Filename}
	if !extAllowed(a.Ext(), exts) {
		return entity.Artifact{}, badForm(fmt.Sprintf("%s: unsupported file type %q, expected one of %v", field, a.Ext(), exts))
	}

	a.Body, err = readFileHeader(fh)
	if err != nil {
		return entity.Artifact{}, err
	}
	return a, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	return io.ReadAll(f)
}

func extAllowed(ext string, exts []string) bool {
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
