package enrich

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"

	"github.com/lueurxax/tgway/internal/link"
	"github.com/lueurxax/tgway/internal/platform/config"
)

// ErrClientNotReady indicates the MTProto client has not connected yet.
var ErrClientNotReady = errors.New("telegram client not ready")

// ErrEntityNotFound indicates the username resolved to nothing usable.
var ErrEntityNotFound = errors.New("entity not found")

// ErrMessageNotFound indicates the requested post does not exist.
var ErrMessageNotFound = errors.New("message not found")

// ErrUnexpectedResponse indicates the API returned a shape we cannot use.
var ErrUnexpectedResponse = errors.New("unexpected API response")

const logKeyIdentifier = "identifier"

// TelegramSource obtains preview metadata through authenticated MTProto
// lookups, consulting the on-disk metadata cache first. Photos are
// downloaded over MTProto straight into the image cache.
type TelegramSource struct {
	cfg    *config.Config
	cache  *MetadataCache
	images *ImageCache
	logger *zerolog.Logger

	mu     sync.RWMutex
	client *telegram.Client
}

func NewTelegramSource(cfg *config.Config, cache *MetadataCache, images *ImageCache, logger *zerolog.Logger) *TelegramSource {
	return &TelegramSource{
		cfg:    cfg,
		cache:  cache,
		images: images,
		logger: logger,
	}
}

// Run connects the MTProto client and blocks until ctx is done. Lookups fail
// with ErrClientNotReady until the bot login completes.
func (s *TelegramSource) Run(ctx context.Context) error {
	opts := telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{
			Path: s.cfg.TGSessionPath,
		},
	}

	if s.cfg.MTProxyHost != "" {
		resolver, err := s.mtproxyResolver()
		if err != nil {
			return err
		}

		opts.Resolver = resolver
	}

	client := telegram.NewClient(s.cfg.TGAPIID, s.cfg.TGAPIHash, opts)

	return client.Run(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("auth status: %w", err)
		}

		if !status.Authorized {
			if _, err := client.Auth().Bot(ctx, s.cfg.TGBotToken); err != nil {
				return fmt.Errorf("bot login: %w", err)
			}
		}

		s.mu.Lock()
		s.client = client
		s.mu.Unlock()

		s.logger.Info().Msg("telegram client authenticated")

		<-ctx.Done()

		return ctx.Err()
	})
}

func (s *TelegramSource) mtproxyResolver() (dcs.Resolver, error) {
	secret, err := hex.DecodeString(s.cfg.MTProxySecret)
	if err != nil {
		return nil, fmt.Errorf("decode mtproxy secret: %w", err)
	}

	addr := net.JoinHostPort(s.cfg.MTProxyHost, strconv.Itoa(s.cfg.MTProxyPort))

	resolver, err := dcs.MTProxy(addr, secret, dcs.MTProxyOptions{})
	if err != nil {
		return nil, fmt.Errorf("mtproxy resolver: %w", err)
	}

	return resolver, nil
}

func (s *TelegramSource) api() (*tg.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.client == nil {
		return nil, ErrClientNotReady
	}

	return tg.NewClient(s.client), nil
}

func (s *TelegramSource) Preview(ctx context.Context, target *link.Target) (*Preview, error) {
	key := CacheKey(target)

	if entry, ok := s.cache.Get(key); ok {
		return s.previewFromEntry(target, entry), nil
	}

	api, err := s.api()
	if err != nil {
		return nil, err
	}

	entry, photo, err := s.fetchEntry(ctx, api, target)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Put(key, entry); err != nil {
		// Best effort: a failed cache write only costs a refetch next time.
		failuresTotal.WithLabelValues(stageCache).Inc()
		s.logger.Warn().Err(err).Str(logKeyIdentifier, target.Identifier).Msg("failed to persist cache entry")
	}

	s.downloadPhoto(ctx, api, target.Identifier, photo)

	return s.previewFromEntry(target, entry), nil
}

func (s *TelegramSource) fetchEntry(ctx context.Context, api *tg.Client, target *link.Target) (*CacheEntry, tg.InputFileLocationClass, error) {
	switch target.Kind {
	case link.KindJoinChat:
		return s.fetchInvite(ctx, api, target.Identifier)
	case link.KindAddStickers:
		return s.fetchStickerSet(ctx, api, target.Identifier)
	case link.KindPost:
		return s.fetchPost(ctx, api, target.Identifier, target.PostID)
	default:
		return s.fetchAccount(ctx, api, target.Identifier)
	}
}

func (s *TelegramSource) fetchAccount(ctx context.Context, api *tg.Client, username string) (*CacheEntry, tg.InputFileLocationClass, error) {
	resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
	if err != nil {
		return nil, nil, fmt.Errorf("resolve username: %w", err)
	}

	switch peer := resolved.Peer.(type) {
	case *tg.PeerUser:
		user := findUser(resolved.Users, peer.UserID)
		if user == nil {
			return nil, nil, ErrEntityNotFound
		}

		return s.userEntry(ctx, api, user)
	case *tg.PeerChannel:
		channel := findChannel(resolved.Chats, peer.ChannelID)
		if channel == nil {
			return nil, nil, ErrEntityNotFound
		}

		return s.channelEntry(ctx, api, channel)
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrEntityNotFound, username)
	}
}

func (s *TelegramSource) userEntry(ctx context.Context, api *tg.Client, user *tg.User) (*CacheEntry, tg.InputFileLocationClass, error) {
	kind := EntityUser
	if user.Bot {
		kind = EntityBot
	}

	entry := &CacheEntry{
		Kind:      kind,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
	}

	// About requires a second call; skip it silently when unavailable.
	if full, err := api.UsersGetFullUser(ctx, &tg.InputUser{UserID: user.ID, AccessHash: user.AccessHash}); err == nil {
		entry.About = full.FullUser.About
	} else {
		s.logger.Debug().Err(err).Str(logKeyIdentifier, user.Username).Msg("failed to fetch full user")
	}

	var photo tg.InputFileLocationClass

	if p, ok := user.Photo.(*tg.UserProfilePhoto); ok {
		entry.HasPhoto = true
		photo = &tg.InputPeerPhotoFileLocation{
			Big:     true,
			Peer:    &tg.InputPeerUser{UserID: user.ID, AccessHash: user.AccessHash},
			PhotoID: p.PhotoID,
		}
	}

	return entry, photo, nil
}

func (s *TelegramSource) channelEntry(ctx context.Context, api *tg.Client, channel *tg.Channel) (*CacheEntry, tg.InputFileLocationClass, error) {
	entry := &CacheEntry{
		Kind:      EntityChannel,
		Title:     channel.Title,
		Username:  channel.Username,
		Broadcast: channel.Broadcast,
	}

	if full, err := api.ChannelsGetFullChannel(ctx, &tg.InputChannel{
		ChannelID:  channel.ID,
		AccessHash: channel.AccessHash,
	}); err == nil {
		if fc, ok := full.FullChat.(*tg.ChannelFull); ok {
			entry.About = fc.About
			entry.Members = fc.ParticipantsCount
		}
	} else {
		s.logger.Debug().Err(err).Str(logKeyIdentifier, channel.Username).Msg("failed to fetch full channel")
	}

	var photo tg.InputFileLocationClass

	if p, ok := channel.Photo.(*tg.ChatPhoto); ok {
		entry.HasPhoto = true
		photo = &tg.InputPeerPhotoFileLocation{
			Big:     true,
			Peer:    &tg.InputPeerChannel{ChannelID: channel.ID, AccessHash: channel.AccessHash},
			PhotoID: p.PhotoID,
		}
	}

	return entry, photo, nil
}

func (s *TelegramSource) fetchInvite(ctx context.Context, api *tg.Client, code string) (*CacheEntry, tg.InputFileLocationClass, error) {
	invite, err := api.MessagesCheckChatInvite(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("check chat invite: %w", err)
	}

	switch i := invite.(type) {
	case *tg.ChatInvite:
		entry := &CacheEntry{
			Kind:      EntityChat,
			Title:     i.Title,
			About:     i.About,
			Broadcast: i.Broadcast,
			Members:   i.ParticipantsCount,
		}

		photo := photoLocation(i.Photo)
		entry.HasPhoto = photo != nil

		return entry, photo, nil
	case *tg.ChatInviteAlready:
		if channel, ok := i.Chat.(*tg.Channel); ok {
			return s.channelEntry(ctx, api, channel)
		}

		return nil, nil, ErrUnexpectedResponse
	case *tg.ChatInvitePeek:
		if channel, ok := i.Chat.(*tg.Channel); ok {
			return s.channelEntry(ctx, api, channel)
		}

		return nil, nil, ErrUnexpectedResponse
	default:
		return nil, nil, ErrUnexpectedResponse
	}
}

func (s *TelegramSource) fetchStickerSet(ctx context.Context, api *tg.Client, shortName string) (*CacheEntry, tg.InputFileLocationClass, error) {
	set, err := api.MessagesGetStickerSet(ctx, &tg.MessagesGetStickerSetRequest{
		Stickerset: &tg.InputStickerSetShortName{ShortName: shortName},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("get sticker set: %w", err)
	}

	result, ok := set.(*tg.MessagesStickerSet)
	if !ok {
		return nil, nil, ErrUnexpectedResponse
	}

	return &CacheEntry{
		Kind:     EntityStickerSet,
		Title:    result.Set.Title,
		Username: result.Set.ShortName,
		Stickers: result.Set.Count,
	}, nil, nil
}

func (s *TelegramSource) fetchPost(ctx context.Context, api *tg.Client, username string, postID int) (*CacheEntry, tg.InputFileLocationClass, error) {
	resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
	if err != nil {
		return nil, nil, fmt.Errorf("resolve username: %w", err)
	}

	peer, ok := resolved.Peer.(*tg.PeerChannel)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s is not a channel", ErrEntityNotFound, username)
	}

	channel := findChannel(resolved.Chats, peer.ChannelID)
	if channel == nil {
		return nil, nil, ErrEntityNotFound
	}

	messages, err := api.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
		Channel: &tg.InputChannel{ChannelID: channel.ID, AccessHash: channel.AccessHash},
		ID:      []tg.InputMessageClass{&tg.InputMessageID{ID: postID}},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("get message: %w", err)
	}

	channelMessages, ok := messages.(*tg.MessagesChannelMessages)
	if !ok || len(channelMessages.Messages) == 0 {
		return nil, nil, ErrMessageNotFound
	}

	msg, ok := channelMessages.Messages[0].(*tg.Message)
	if !ok {
		return nil, nil, ErrMessageNotFound
	}

	entry := &CacheEntry{
		Kind:        EntityChannel,
		Title:       channel.Title,
		Username:    channel.Username,
		Broadcast:   channel.Broadcast,
		MessageText: msg.Message,
	}

	var photo tg.InputFileLocationClass

	if p, ok := channel.Photo.(*tg.ChatPhoto); ok {
		entry.HasPhoto = true
		photo = &tg.InputPeerPhotoFileLocation{
			Big:     true,
			Peer:    &tg.InputPeerChannel{ChannelID: channel.ID, AccessHash: channel.AccessHash},
			PhotoID: p.PhotoID,
		}
	}

	return entry, photo, nil
}

// downloadPhoto streams the profile photo into the image cache. Failures are
// logged and the preview simply omits the image.
func (s *TelegramSource) downloadPhoto(ctx context.Context, api *tg.Client, key string, photo tg.InputFileLocationClass) {
	if photo == nil || s.images == nil || s.images.File(key) != "" {
		return
	}

	buf := new(bytes.Buffer)

	if _, err := downloader.NewDownloader().Download(api, photo).Stream(ctx, buf); err != nil {
		failuresTotal.WithLabelValues(stageImage).Inc()
		s.logger.Warn().Err(err).Str(logKeyIdentifier, key).Msg("failed to download profile photo")

		return
	}

	if _, err := s.images.Store(key, buf); err != nil {
		failuresTotal.WithLabelValues(stageImage).Inc()
		s.logger.Warn().Err(err).Str(logKeyIdentifier, key).Msg("failed to store profile photo")
	}
}

func (s *TelegramSource) previewFromEntry(target *link.Target, entry *CacheEntry) *Preview {
	preview := &Preview{DisplayName: displayName(entry)}

	if entry.About != "" {
		preview.StatusHTML = LinkifyMentions(entry.About)
	}

	if target.Kind == link.KindPost && entry.MessageText != "" {
		preview.MessageHTML = LinkifyMentions(entry.MessageText)
	}

	preview.ExtraHTML = extraText(entry)

	if s.images != nil {
		preview.ImageFile = s.images.File(target.Identifier)
	}

	return preview
}

// displayName resolves the human-readable name: title for anything carrying
// a broadcast/channel marker, otherwise first and last name joined by a
// single space, falling back to the handle.
func displayName(entry *CacheEntry) string {
	if entry.Broadcast || entry.Title != "" {
		return entry.Title
	}

	var parts []string

	if entry.FirstName != "" {
		parts = append(parts, entry.FirstName)
	}

	if entry.LastName != "" {
		parts = append(parts, entry.LastName)
	}

	if name := strings.Join(parts, " "); name != "" {
		return name
	}

	return entry.Username
}

func extraText(entry *CacheEntry) string {
	switch {
	case entry.Members > 0:
		return fmt.Sprintf("%d members", entry.Members)
	case entry.Stickers > 0:
		return fmt.Sprintf("%d stickers", entry.Stickers)
	default:
		return ""
	}
}

func findUser(users []tg.UserClass, id int64) *tg.User {
	for _, u := range users {
		if user, ok := u.(*tg.User); ok && user.ID == id {
			return user
		}
	}

	return nil
}

func findChannel(chats []tg.ChatClass, id int64) *tg.Channel {
	for _, c := range chats {
		if channel, ok := c.(*tg.Channel); ok && channel.ID == id {
			return channel
		}
	}

	return nil
}

// photoLocation picks the largest size of a full photo object, the way chat
// invite previews expose their photo.
func photoLocation(p tg.PhotoClass) tg.InputFileLocationClass {
	photo, ok := p.(*tg.Photo)
	if !ok {
		return nil
	}

	var (
		thumbType string
		maxArea   int
	)

	for _, size := range photo.Sizes {
		switch sz := size.(type) {
		case *tg.PhotoSize:
			if sz.W*sz.H > maxArea {
				maxArea = sz.W * sz.H
				thumbType = sz.Type
			}
		case *tg.PhotoSizeProgressive:
			if sz.W*sz.H > maxArea {
				maxArea = sz.W * sz.H
				thumbType = sz.Type
			}
		}
	}

	if thumbType == "" {
		return nil
	}

	return &tg.InputPhotoFileLocation{
		ID:            photo.ID,
		AccessHash:    photo.AccessHash,
		FileReference: photo.FileReference,
		ThumbSize:     thumbType,
	}
}
