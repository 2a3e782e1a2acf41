package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"newsalpha/internal/alpha"
	"newsalpha/internal/repository"
)

const relatedMarketLimit = 4

// DiscordNotifier posts news packages as rich embeds through a bot session.
type DiscordNotifier struct {
	Session *discordgo.Session
	Logger  *zap.Logger
}

// NewDiscordNotifier opens a bot session with the given token. The session
// only issues REST calls, no gateway connection is needed for posting.
func NewDiscordNotifier(token string, logger *zap.Logger) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &DiscordNotifier{Session: session, Logger: logger}, nil
}

func (n *DiscordNotifier) Send(ctx context.Context, channelID string, pkg alpha.Package) error {
	embed := buildEmbed(pkg)
	_, err := n.Session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return classify(err)
	}
	return nil
}

// classify maps transport errors onto the notifier error taxonomy. A 403 or
// 404 is a problem with one channel; a 401 means the token itself is bad.
func classify(err error) error {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		switch rest.Response.StatusCode {
		case http.StatusForbidden, http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrChannelGone, err)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrAuth, err)
		}
	}
	return err
}

func buildEmbed(pkg alpha.Package) *discordgo.MessageEmbed {
	top := pkg.Correlations[0]

	embed := &discordgo.MessageEmbed{
		Title:       top.Question,
		URL:         top.MarketURL,
		Description: buildDescription(pkg, top),
		Color:       0x5865F2,
		Author: &discordgo.MessageEmbedAuthor{
			Name: pkg.TweetAuthor,
			URL:  pkg.TweetURL,
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("alpha %.2f", pkg.Alpha),
		},
	}
	if top.ImageURL != nil && *top.ImageURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: *top.ImageURL}
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "Odds",
		Value:  fmt.Sprintf("Yes %s · No %s", percent(top.YesPrice), percent(top.NoPrice)),
		Inline: true,
	})
	if related := buildRelated(pkg.Correlations[1:]); related != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Related markets",
			Value: related,
		})
	}
	return embed
}

func buildDescription(pkg alpha.Package, top repository.CorrelationRow) string {
	var b strings.Builder
	b.WriteString(pkg.TweetText)
	if top.RelevanceReason != "" {
		b.WriteString("\n\n**Why:** ")
		b.WriteString(top.RelevanceReason)
	}
	if top.UrgencyReason != "" {
		b.WriteString("\n**Timing:** ")
		b.WriteString(top.UrgencyReason)
	}
	return b.String()
}

func buildRelated(rest []repository.CorrelationRow) string {
	if len(rest) == 0 {
		return ""
	}
	if len(rest) > relatedMarketLimit {
		rest = rest[:relatedMarketLimit]
	}
	lines := make([]string, 0, len(rest))
	for _, row := range rest {
		lines = append(lines, fmt.Sprintf("[%s](%s) · Yes %s", row.Question, row.MarketURL, percent(row.YesPrice)))
	}
	return strings.Join(lines, "\n")
}

func percent(price decimal.Decimal) string {
	return price.Mul(decimal.NewFromInt(100)).StringFixed(0) + "%"
}
