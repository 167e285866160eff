// Package handlers is made to handle requests
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"datamosh/config"
	"datamosh/container"
	"datamosh/models"
	"datamosh/mosh"
	"datamosh/quality"
)

const (
	Version        = "1.0.0"
	maxUploadBytes = 256 << 20
)

type MoshHandler struct {
	logger zerolog.Logger
}

func NewMoshHandler(logger zerolog.Logger) *MoshHandler {
	return &MoshHandler{logger: logger}
}

func (h *MoshHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Message: "Datamosh API is running",
		Version: Version,
	})
}

// Mosh corrupts an uploaded video and streams the result back
func (h *MoshHandler) Mosh(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		fail(c, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
		return
	}

	format, err := container.ParseFormat(c.PostForm("format"))
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	videoFile, videoHeader, err := c.Request.FormFile("video_file")
	if err != nil {
		fail(c, http.StatusBadRequest, "Video file is required")
		return
	}
	defer videoFile.Close()

	if !format.MatchesExtension(videoHeader.Filename) {
		fail(c, http.StatusBadRequest, fmt.Sprintf("Invalid video file. Expected a .%s file", format))
		return
	}

	data, err := io.ReadAll(videoFile)
	if err != nil {
		fail(c, http.StatusInternalServerError, fmt.Sprintf("Failed to read video file: %v", err))
		return
	}
	original := append([]byte(nil), data...)

	cfg := models.MoshConfig{Seed: time.Now().UnixNano()}
	if raw := strings.TrimSpace(c.PostForm("seed")); raw != "" {
		cfg.Seed = mosh.ResolveSeed(raw)
	}
	if raw := c.PostForm("profile"); raw != "" {
		stages, err := parseProfile(raw, format)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		cfg.Stages = stages
	}

	requestID := uuid.NewString()
	logger := h.logger.With().Str("request", requestID).Str("file", videoHeader.Filename).Logger()

	family, err := container.ForFormat(format)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	session := mosh.NewSession(data, family, mosh.NewSource(cfg.Seed),
		mosh.WithSeed(cfg.Seed),
		mosh.WithStages(cfg.Stages),
		mosh.WithLogger(logger),
	)
	report, err := session.Run()
	if err != nil {
		if !errors.Is(err, container.ErrMalformedContainer) {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		logger.Warn().Err(err).Msg("returning input unchanged")
	}

	psnr := quality.CalculatePSNR(original, data)

	baseFilename := strings.TrimSuffix(videoHeader.Filename, filepath.Ext(videoHeader.Filename))
	outputFilename := fmt.Sprintf("%s_moshed.%s", baseFilename, format)
	contentType := map[container.Format]string{
		container.FormatAVI: "video/x-msvideo",
		container.FormatMP4: "video/mp4",
	}[format]

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputFilename))
	c.Header("X-Request-ID", requestID)
	c.Header("X-Mosh-PSNR", quality.FormatPSNR(psnr))
	c.Header("X-Mosh-Seed", strconv.FormatInt(cfg.Seed, 10))
	c.Header("X-Mosh-Frames", strconv.Itoa(report.FrameCount))
	c.Header("X-Mosh-Glitches", strconv.Itoa(report.TotalGlitches))

	c.Data(http.StatusOK, contentType, data)
}

// parseProfile reads an inline JSONC stage profile
func parseProfile(raw string, format container.Format) ([]models.Stage, error) {
	p, err := config.ParseJSONC([]byte(raw))
	if err != nil {
		return nil, err
	}
	if err := config.ValidateStages(p.Stages); err != nil {
		return nil, err
	}
	if p.Format != "" && !strings.EqualFold(p.Format, string(format)) {
		return nil, fmt.Errorf("%w: profile is for %s", config.ErrInvalidProfile, p.Format)
	}
	return p.Stages, nil
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, models.MoshResponse{Success: false, Message: message})
}
