// Package telegram implements the messaging gateway on top of the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/heartmarshall/objectdetect/internal/config"
	"github.com/heartmarshall/objectdetect/internal/domain"
	"github.com/heartmarshall/objectdetect/pkg/ctxutil"
)

// botAPI is the subset of *tgbotapi.BotAPI the gateway uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
}

// Gateway sends messages to chats and downloads photos users sent.
type Gateway struct {
	api          botAPI
	token        string
	fileEndpoint string
	httpClient   *http.Client
	log          *slog.Logger
}

// NewGateway connects to the Bot API with cfg.Token. It fails if the token is rejected.
func NewGateway(cfg config.TelegramConfig, logger *slog.Logger) (*Gateway, error) {
	httpClient := &http.Client{Timeout: 60 * time.Second}

	apiEndpoint := tgbotapi.APIEndpoint
	fileEndpoint := tgbotapi.FileEndpoint
	if cfg.APIURL != "" {
		apiEndpoint = cfg.APIURL + "/bot%s/%s"
		fileEndpoint = cfg.APIURL + "/file/bot%s/%s"
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, apiEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	bot.Debug = cfg.Debug

	logger.Info("telegram bot authorized", slog.String("username", bot.Self.UserName))

	return newGateway(bot, cfg.Token, fileEndpoint, httpClient, logger), nil
}

func newGateway(api botAPI, token, fileEndpoint string, httpClient *http.Client, logger *slog.Logger) *Gateway {
	return &Gateway{
		api:          api,
		token:        token,
		fileEndpoint: fileEndpoint,
		httpClient:   httpClient,
		log:          logger.With("adapter", "telegram"),
	}
}

// SendText sends text to chatID.
func (g *Gateway) SendText(ctx context.Context, chatID int64, text string) error {
	return g.send(ctx, tgbotapi.NewMessage(chatID, text))
}

// SendTextWithQuote sends text to chatID as a reply to message replyTo.
func (g *Gateway) SendTextWithQuote(ctx context.Context, chatID int64, text string, replyTo int) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	return g.send(ctx, msg)
}

// SendPhoto uploads the image at localPath to chatID.
func (g *Gateway) SendPhoto(ctx context.Context, chatID int64, localPath string) error {
	if _, err := os.Stat(localPath); err != nil {
		return fmt.Errorf("telegram: send photo: %w", err)
	}
	return g.send(ctx, tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(localPath)))
}

func (g *Gateway) send(ctx context.Context, c tgbotapi.Chattable) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	if _, err := g.api.Send(c); err != nil {
		if chatID, ok := ctxutil.ChatIDFromCtx(ctx); ok {
			g.log.WarnContext(ctx, "send failed",
				slog.Int64("chat_id", chatID),
				slog.String("error", err.Error()),
			)
		}
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}

// DownloadPhoto fetches the file fileID into dir and returns the local asset.
// The asset name is the base name of the Bot API file path.
func (g *Gateway) DownloadPhoto(ctx context.Context, fileID, dir string) (domain.ImageAsset, error) {
	file, err := g.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return domain.ImageAsset{}, fmt.Errorf("telegram: get file: %w", err)
	}
	if file.FilePath == "" {
		return domain.ImageAsset{}, fmt.Errorf("telegram: get file %s: empty file path", fileID)
	}

	name := path.Base(file.FilePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.ImageAsset{}, fmt.Errorf("telegram: create download dir: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(g.fileEndpoint, g.token, file.FilePath), nil)
	if err != nil {
		return domain.ImageAsset{}, fmt.Errorf("telegram: create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return domain.ImageAsset{}, fmt.Errorf("telegram: download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ImageAsset{}, fmt.Errorf("telegram: download file: unexpected status %d", resp.StatusCode)
	}

	// The same file may be in flight for several chats at once, so every
	// download gets its own local path. Name stays the object key.
	out, err := os.CreateTemp(dir, "*_"+name)
	if err != nil {
		return domain.ImageAsset{}, fmt.Errorf("telegram: create file: %w", err)
	}
	localPath := out.Name()
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(localPath)
		return domain.ImageAsset{}, fmt.Errorf("telegram: write file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(localPath)
		return domain.ImageAsset{}, fmt.Errorf("telegram: write file: %w", err)
	}

	g.log.DebugContext(ctx, "photo downloaded",
		slog.String("file_id", fileID),
		slog.String("path", localPath),
	)

	return domain.ImageAsset{Name: name, LocalPath: localPath}, nil
}
