package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// WebhookPath is the path Telegram posts updates to. The token in the path
// is the only check that an update really comes from Telegram.
func WebhookPath(token string) string {
	return "/telegram/" + token + "/"
}

// RegisterWebhook replaces any existing webhook with appURL + WebhookPath.
// When certPath is set, the self-signed certificate is uploaded along with it.
func (g *Gateway) RegisterWebhook(ctx context.Context, appURL, certPath string) error {
	if _, err := g.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("telegram: delete webhook: %w", err)
	}

	// Telegram rejects a new webhook issued right after deletion.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(500 * time.Millisecond):
	}

	link := strings.TrimRight(appURL, "/") + WebhookPath(g.token)

	var (
		wh  tgbotapi.WebhookConfig
		err error
	)
	if certPath != "" {
		wh, err = tgbotapi.NewWebhookWithCert(link, tgbotapi.FilePath(certPath))
	} else {
		wh, err = tgbotapi.NewWebhook(link)
	}
	if err != nil {
		return fmt.Errorf("telegram: build webhook: %w", err)
	}

	if _, err := g.api.Request(wh); err != nil {
		return fmt.Errorf("telegram: set webhook: %w", err)
	}

	g.log.InfoContext(ctx, "webhook registered",
		slog.String("host", wh.URL.Host),
		slog.Bool("certificate", certPath != ""),
	)
	return nil
}
