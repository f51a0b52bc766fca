package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Telegram pushes messages and documents through the Telegram Bot API.
type Telegram struct {
	botToken string
	chatIDs  []string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegram constructs a Telegram notifier fanning out to chatIDs.
func NewTelegram(botToken string, chatIDs []string, baseURL string, timeout time.Duration, logger zerolog.Logger) *Telegram {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &Telegram{
		botToken: botToken,
		chatIDs:  chatIDs,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "telegram").Logger(),
	}
}

// SendText delivers text to every configured chat. Per-recipient failures
// are logged and collected; remaining recipients are still attempted.
func (t *Telegram) SendText(ctx context.Context, text string) error {
	var errs []error
	for _, chatID := range t.chatIDs {
		if err := t.sendMessage(ctx, chatID, text); err != nil {
			t.logger.Error().Err(err).Str("chat_id", chatID).Msg("sendMessage failed")
			errs = append(errs, fmt.Errorf("chat %s: %w", chatID, err))
			continue
		}
	}
	return errors.Join(errs...)
}

// SendFile uploads a document with a caption to every configured chat.
func (t *Telegram) SendFile(ctx context.Context, path, caption string) error {
	var errs []error
	for _, chatID := range t.chatIDs {
		if err := t.sendDocument(ctx, chatID, path, caption); err != nil {
			t.logger.Error().Err(err).Str("chat_id", chatID).Str("file", path).Msg("sendDocument failed")
			errs = append(errs, fmt.Errorf("chat %s: %w", chatID, err))
			continue
		}
	}
	return errors.Join(errs...)
}

func (t *Telegram) sendMessage(ctx context.Context, chatID, text string) error {
	payload := map[string]string{
		"chat_id": chatID,
		"text":    text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return t.execute(req)
}

func (t *Telegram) sendDocument(ctx context.Context, chatID, path, caption string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	if err := form.WriteField("chat_id", chatID); err != nil {
		return err
	}
	if caption != "" {
		if err := form.WriteField("caption", caption); err != nil {
			return err
		}
	}
	part, err := form.CreateFormFile("document", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy document: %w", err)
	}
	if err := form.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL("sendDocument"), body)
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	return t.execute(req)
}

func (t *Telegram) execute(req *http.Request) error {
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram status %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}
	return nil
}

func (t *Telegram) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.botToken, method)
}

var _ Notifier = (*Telegram)(nil)
