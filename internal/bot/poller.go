// Package bot polls the messaging channel for operator pull commands.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Handler reacts to the two supported pull commands.
type Handler interface {
	// HandleReport regenerates and delivers the report artifacts.
	HandleReport(ctx context.Context) error
	// HandleStatus delivers the latest-position snapshot.
	HandleStatus(ctx context.Context) error
}

// Options parameterise the command poller.
type Options struct {
	BotToken    string
	BaseURL     string
	AllowedIDs  []string
	PollTimeout time.Duration
}

// Poller long-polls getUpdates and dispatches /report and /status issued by
// authorized chats. It is a thin adapter; every failure is logged and the
// loop keeps polling.
type Poller struct {
	opts    Options
	handler Handler
	allowed map[string]struct{}
	client  *http.Client
	baseURL string
	logger  zerolog.Logger
	offset  int64
}

// NewPoller constructs a command poller.
func NewPoller(opts Options, handler Handler, logger zerolog.Logger) *Poller {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 25 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	allowed := make(map[string]struct{}, len(opts.AllowedIDs))
	for _, id := range opts.AllowedIDs {
		allowed[id] = struct{}{}
	}

	return &Poller{
		opts:    opts,
		handler: handler,
		allowed: allowed,
		client:  &http.Client{Timeout: opts.PollTimeout + 10*time.Second},
		baseURL: baseURL,
		logger:  logger.With().Str("component", "command_poller").Logger(),
	}
}

// Run blocks, polling for commands until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := p.fetchUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn().Err(err).Msg("getUpdates failed; retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			p.offset = update.UpdateID + 1
			p.dispatch(ctx, update)
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, update update) {
	if update.Message == nil {
		return
	}

	chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
	if _, ok := p.allowed[chatID]; !ok {
		p.logger.Debug().Str("chat_id", chatID).Msg("command from unauthorized chat ignored")
		return
	}

	command := strings.TrimSpace(update.Message.Text)
	if idx := strings.Index(command, "@"); idx > 0 {
		command = command[:idx]
	}

	var err error
	switch command {
	case "/report":
		err = p.handler.HandleReport(ctx)
	case "/status":
		err = p.handler.HandleStatus(ctx)
	default:
		return
	}

	if err != nil {
		p.logger.Error().Err(err).Str("command", command).Str("chat_id", chatID).Msg("command handling failed")
	}
}

func (p *Poller) fetchUpdates(ctx context.Context) ([]update, error) {
	params := url.Values{}
	params.Set("timeout", strconv.Itoa(int(p.opts.PollTimeout/time.Second)))
	params.Set("allowed_updates", `["message"]`)
	if p.offset > 0 {
		params.Set("offset", strconv.FormatInt(p.offset, 10))
	}

	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", p.baseURL, p.opts.BotToken, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("getUpdates status %d", resp.StatusCode)
	}

	var payload struct {
		OK     bool     `json:"ok"`
		Result []update `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode getUpdates payload: %w", err)
	}
	if !payload.OK {
		return nil, fmt.Errorf("getUpdates returned ok=false")
	}
	return payload.Result, nil
}

type update struct {
	UpdateID int64    `json:"update_id"`
	Message  *message `json:"message"`
}

type message struct {
	Text string `json:"text"`
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
}
