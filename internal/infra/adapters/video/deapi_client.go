package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ai-reel-studio/internal/domain"
	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/domain/ports/adapter"
	"ai-reel-studio/internal/infra/metrics"
)

// Compile-time check
var _ adapter.VideoGenerator = (*DEAPIClient)(nil)

type DEAPIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Width        int           `yaml:"width"`
	Height       int           `yaml:"height"`
	FPS          int           `yaml:"fps"`
	Frames       int           `yaml:"frames"`
	Steps        int           `yaml:"steps"`
	Guidance     int           `yaml:"guidance"`
	Model        string        `yaml:"model"`
	Motion       string        `yaml:"motion"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

func (c *DEAPIConfig) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.deapi.ai/api/v1/client"
	}
	if c.Width <= 0 {
		c.Width = 432
	}
	if c.Height <= 0 {
		c.Height = 768
	}
	if c.FPS <= 0 {
		c.FPS = 30
	}
	if c.Frames <= 0 {
		c.Frames = 120
	}
	if c.Steps <= 0 {
		c.Steps = 1
	}
	if c.Guidance <= 0 {
		c.Guidance = 8
	}
	if c.Model == "" {
		c.Model = "Ltxv_13B_0_9_8_Distilled_FP8"
	}
	if c.Motion == "" {
		c.Motion = "cinematic"
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
}

// DEAPIClient talks to the DEAPI img2video endpoints: one multipart submit,
// then a fixed-interval status poll until the artifact URL appears.
// The active credential is read from the keyring per request, so a rotation
// between attempts takes effect without reconstructing the client.
type DEAPIClient struct {
	cfg  DEAPIConfig
	keys adapter.Keyring
	hc   *http.Client
	log  *zerolog.Logger
	seed func() int
}

func NewDEAPIClient(cfg DEAPIConfig, keys adapter.Keyring, logger *zerolog.Logger) *DEAPIClient {
	cfg.applyDefaults()
	return &DEAPIClient{
		cfg:  cfg,
		keys: keys,
		hc:   &http.Client{Timeout: 60 * time.Second},
		log:  logger,
		seed: func() int { return rand.Intn(99999999) + 1 },
	}
}

func (c *DEAPIClient) Generate(ctx context.Context, job model.SceneJob) error {
	requestID, err := c.submit(ctx, job)
	if err != nil {
		return err
	}
	c.log.Debug().Str("scene", string(job.Slot)).Str("request_id", requestID).Msg("scene job submitted")

	resultURL, err := c.poll(ctx, requestID)
	if err != nil {
		return err
	}
	return c.download(ctx, resultURL, job.OutputPath)
}

func (c *DEAPIClient) submit(ctx context.Context, job model.SceneJob) (string, error) {
	f, err := os.Open(job.ImagePath)
	if err != nil {
		return "", fmt.Errorf("open source image: %w", err)
	}
	defer f.Close()

	body := &strings.Builder{}
	mw := multipart.NewWriter(body)
	fields := map[string]string{
		"prompt":   job.Prompt,
		"width":    strconv.Itoa(c.cfg.Width),
		"height":   strconv.Itoa(c.cfg.Height),
		"fps":      strconv.Itoa(c.cfg.FPS),
		"frames":   strconv.Itoa(c.cfg.Frames),
		"steps":    strconv.Itoa(c.cfg.Steps),
		"guidance": strconv.Itoa(c.cfg.Guidance),
		"seed":     strconv.Itoa(c.seed()),
		"model":    c.cfg.Model,
		"motion":   c.cfg.Motion,
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return "", err
		}
	}
	fw, err := mw.CreateFormFile("first_frame_image", job.ImagePath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/img2video", strings.NewReader(body.String()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.keys.Active())

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return "", err
	}
	var out struct {
		Data struct {
			RequestID string `json:"request_id"`
		} `json:"data"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if out.Data.RequestID == "" {
		if out.Message != "" {
			return "", classifyMessage(out.Message)
		}
		return "", errors.New("deapi: missing request_id in response")
	}
	return out.Data.RequestID, nil
}

func (c *DEAPIClient) poll(ctx context.Context, requestID string) (string, error) {
	for {
		progress, resultURL, err := c.status(ctx, requestID)
		if err != nil {
			return "", err
		}
		if progress >= 100 && resultURL != "" {
			return resultURL, nil
		}
		metrics.ObserveScenePoll(progress)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}
}

func (c *DEAPIClient) status(ctx context.Context, requestID string) (float64, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/request-status/"+requestID, nil)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.keys.Active())

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return 0, "", err
	}
	var out struct {
		Data struct {
			Progress  float64 `json:"progress"`
			ResultURL string  `json:"result_url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, "", fmt.Errorf("decode status response: %w", err)
	}
	return out.Data.Progress, out.Data.ResultURL, nil
}

func (c *DEAPIClient) download(ctx context.Context, url, outPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deapi: artifact download http %d", resp.StatusCode)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		// Never leave a truncated artifact behind.
		os.Remove(outPath)
		return err
	}
	return nil
}

func classifyStatus(code int) error {
	switch {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("deapi: http %d: %w", code, domain.ErrRateLimited)
	case code >= 300:
		return fmt.Errorf("deapi: http %d", code)
	default:
		return nil
	}
}

// classifyMessage maps vendor error strings onto domain errors. The vendor
// reports throttling either as HTTP 429 or as a "Too Many Attempts" message
// inside a 200 envelope.
func classifyMessage(msg string) error {
	if strings.Contains(msg, "Too Many Attempts") || strings.Contains(msg, "429") {
		return fmt.Errorf("deapi: %s: %w", msg, domain.ErrRateLimited)
	}
	return fmt.Errorf("deapi: %s", msg)
}
