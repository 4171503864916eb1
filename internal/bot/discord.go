package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Sender delivers messages to a channel. *discordgo.Session satisfies it.
type Sender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordOptions configures the Discord transport.
type DiscordOptions struct {
	Token          string
	Dispatcher     *Dispatcher
	HandlerTimeout time.Duration
	Logger         *slog.Logger
}

// Discord connects a Dispatcher to a Discord gateway session.
type Discord struct {
	session    *discordgo.Session
	sender     Sender
	dispatcher *Dispatcher
	timeout    time.Duration
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewDiscord creates the transport. The connection is opened by Open.
func NewDiscord(opts DiscordOptions) (*Discord, error) {
	if opts.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, fmt.Errorf("discord token is required")
	}
	if !strings.HasPrefix(token, "Bot ") {
		token = "Bot " + token
	}

	session, err := discordgo.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	d := newDiscord(session, opts)
	session.AddHandler(d.onMessageCreate)
	return d, nil
}

func newDiscord(sender Sender, opts DiscordOptions) *Discord {
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Discord{
		sender:     sender,
		dispatcher: opts.Dispatcher,
		timeout:    opts.HandlerTimeout,
		logger:     opts.Logger,
		ctx:        ctx,
		cancel:     cancel,
	}
	if s, ok := sender.(*discordgo.Session); ok {
		d.session = s
	}
	return d
}

// Open connects to the gateway.
func (d *Discord) Open() error {
	if d.session == nil {
		return fmt.Errorf("no discord session")
	}
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	d.logger.Info("discord connected")
	return nil
}

// Close cancels in-flight handlers and disconnects.
func (d *Discord) Close() error {
	d.cancel()
	if d.session == nil {
		return nil
	}
	return d.session.Close()
}

func (d *Discord) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	selfID := ""
	if s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}
	d.handleMessage(selfID, m.Message)
}

func (d *Discord) handleMessage(selfID string, m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.ID == selfID || m.Author.Bot {
		return
	}

	ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()

	reply, err := d.dispatcher.Handle(ctx, "discord:"+m.ChannelID, m.Content)
	if err != nil {
		d.logger.Error("failed to handle message", "channel", m.ChannelID, "error", err)
		return
	}
	if reply.Empty() {
		return
	}
	if err := d.deliver(m.ChannelID, reply); err != nil {
		d.logger.Error("failed to send reply", "channel", m.ChannelID, "error", err)
	}
}

func (d *Discord) deliver(channelID string, reply *Reply) error {
	for _, embed := range reply.Embeds {
		if _, err := d.sender.ChannelMessageSendEmbed(channelID, embed); err != nil {
			return fmt.Errorf("send embed %q: %w", embed.Title, err)
		}
	}
	if reply.Text != "" {
		if _, err := d.sender.ChannelMessageSend(channelID, reply.Text); err != nil {
			return fmt.Errorf("send text: %w", err)
		}
	}
	return nil
}
