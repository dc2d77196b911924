package discord

import (
	"context"
	"fmt"
	"time"

	"arbmonitor/internal/domain"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/webhook"
)

const (
	colorProfitable = 0x00ff00
	colorTriangular = 0x3498db
)

type WebhookNotifier struct {
	client webhook.Client
}

func NewWebhookNotifier(webhookURL string) (*WebhookNotifier, error) {
	client, err := webhook.NewWithURL(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord webhook client: %w", err)
	}
	return &WebhookNotifier{client: client}, nil
}

func (n *WebhookNotifier) NotifySpread(ctx context.Context, spread domain.Spread) error {
	if _, err := n.client.CreateEmbeds([]discord.Embed{SpreadEmbed(spread)}, rest.WithCtx(ctx)); err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	return nil
}

func (n *WebhookNotifier) NotifyTriSpread(ctx context.Context, spread domain.TriSpread) error {
	if _, err := n.client.CreateEmbeds([]discord.Embed{TriSpreadEmbed(spread)}, rest.WithCtx(ctx)); err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	return nil
}

func (n *WebhookNotifier) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	n.client.Close(ctx)
}

func SpreadEmbed(s domain.Spread) discord.Embed {
	return discord.NewEmbedBuilder().
		SetTitle("Arbitrage opportunity found").
		SetColor(colorProfitable).
		AddField("Buy On", s.Buy.Exchange, true).
		AddField("Sell On", s.Sell.Exchange, true).
		AddField("Pair", s.Pair.String(), true).
		AddField("\u200B", "\u200B", false).
		AddField("Buy Price", fmt.Sprintf("%f", s.BuyPrice()), true).
		AddField("Sell Price", fmt.Sprintf("%f", s.SellPrice()), true).
		AddField("Spread", fmt.Sprintf("%f", s.Value), true).
		SetTimestamp(s.RecordedAt).
		Build()
}

func TriSpreadEmbed(s domain.TriSpread) discord.Embed {
	b := discord.NewEmbedBuilder().
		SetTitle("Triangular opportunity found").
		SetColor(colorTriangular).
		AddField("Exchange", s.Route.Exchange, true).
		AddField("Route", s.Route.String(), true).
		AddField("\u200B", "\u200B", false).
		AddField("Direct Rate", fmt.Sprintf("%.10f", s.DirectRate), true).
		AddField("Via Rate", fmt.Sprintf("%.10f", s.ViaRate), true).
		AddField("Spread", fmt.Sprintf("%.10f", s.Value), true).
		SetTimestamp(s.RecordedAt)
	if s.Leg2Fallback {
		b.SetFooterText("leg 2 ask unavailable, sentinel price used")
	}
	return b.Build()
}
