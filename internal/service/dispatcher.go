package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
	"github.com/grouphunt/groupsearch-bot/internal/biz/repo"
	"github.com/grouphunt/groupsearch-bot/internal/biz/usecase"
)

// DispatcherConfig contains dispatcher configuration
type DispatcherConfig struct {
	SearchLimit  int // Total results requested from the aggregator
	DisplayLimit int // Results shown in one reply
	Trending     []TrendingEntry
	Categories   []CategoryEntry
	Debug        bool
}

// DefaultDispatcherConfig is used for zero-valued limits
var DefaultDispatcherConfig = DispatcherConfig{
	SearchLimit:  15,
	DisplayLimit: 8,
}

// TrendingEntry is one line of the trending list
type TrendingEntry struct {
	Title    string
	Username string
	Members  string
	Category string
}

// CategoryEntry is one category button
type CategoryEntry struct {
	Key     string
	Label   string
	Keyword string
}

// Command is an inbound slash command
type Command struct {
	Chat   domain.ChatRef
	UserID string // Platform-prefixed, e.g. "telegram:42"
	Name   string // Lower case, without slash or bot suffix
	Args   string
}

// Callback is an inbound button press
type Callback struct {
	Chat       domain.ChatRef
	UserID     string
	CallbackID string
	MessageID  string // Message carrying the pressed button
	Data       string
}

// Dispatcher maps commands and button presses to intents and renders replies
type Dispatcher struct {
	aggregatorUC *usecase.AggregatorUsecase
	groupUC      *usecase.GroupUsecase
	suggestRepo  repo.SuggestRepo
	chats        map[domain.Platform]repo.ChatRepo
	config       DispatcherConfig

	// In-flight request per user per chat
	inflight   map[string]*inflightRequest
	inflightMu sync.Mutex
}

type inflightRequest struct {
	id     string
	key    string
	cancel context.CancelFunc
}

// NewDispatcher creates a new dispatcher. suggestRepo may be nil.
func NewDispatcher(
	aggregatorUC *usecase.AggregatorUsecase,
	groupUC *usecase.GroupUsecase,
	suggestRepo repo.SuggestRepo,
	config DispatcherConfig,
) *Dispatcher {
	if config.SearchLimit <= 0 {
		config.SearchLimit = DefaultDispatcherConfig.SearchLimit
	}
	if config.DisplayLimit <= 0 {
		config.DisplayLimit = DefaultDispatcherConfig.DisplayLimit
	}
	return &Dispatcher{
		aggregatorUC: aggregatorUC,
		groupUC:      groupUC,
		suggestRepo:  suggestRepo,
		chats:        make(map[domain.Platform]repo.ChatRepo),
		config:       config,
		inflight:     make(map[string]*inflightRequest),
	}
}

// RegisterChat sets the outbound repo for a platform. Call before serving.
func (d *Dispatcher) RegisterChat(platform domain.Platform, chat repo.ChatRepo) {
	d.chats[platform] = chat
}

// HandleCommand processes one command to completion
func (d *Dispatcher) HandleCommand(ctx context.Context, cmd *Command) error {
	chat, err := d.chatRepo(cmd.Chat)
	if err != nil {
		return err
	}

	name := strings.ToLower(strings.TrimPrefix(cmd.Name, "/"))
	args := strings.TrimSpace(cmd.Args)

	// Usage replies leave any in-flight request untouched
	switch name {
	case "search", "cerca":
		if args == "" {
			return d.send(ctx, chat, cmd.Chat, usageReply("search"))
		}
	case "info", "saved":
		if args == "" {
			return d.send(ctx, chat, cmd.Chat, usageReply(name))
		}
	case "start", "help", "trending", "categories", "categorie", "history":
	default:
		if d.config.Debug {
			fmt.Printf("[Dispatcher] Ignoring unknown command /%s in %s\n", name, cmd.Chat)
		}
		return nil
	}

	reqCtx, req, done := d.begin(ctx, cmd.Chat, cmd.UserID)
	defer done()

	switch name {
	case "start":
		return d.send(reqCtx, chat, cmd.Chat, welcomeReply())
	case "help":
		return d.send(reqCtx, chat, cmd.Chat, helpReply())
	case "search", "cerca":
		return d.runSearch(reqCtx, chat, cmd.Chat, cmd.UserID, req, args, "")
	case "info":
		return d.runInfo(reqCtx, chat, cmd.Chat, req, strings.Fields(args)[0])
	case "trending":
		return d.send(reqCtx, chat, cmd.Chat, trendingReply(d.config.Trending))
	case "categories", "categorie":
		return d.send(reqCtx, chat, cmd.Chat, categoriesReply(d.config.Categories))
	case "history":
		return d.runHistory(reqCtx, chat, cmd.Chat, cmd.UserID, req)
	default: // saved
		return d.runSaved(reqCtx, chat, cmd.Chat, req, args)
	}
}

// HandleCallback processes one button press to completion
func (d *Dispatcher) HandleCallback(ctx context.Context, cb *Callback) error {
	chat, err := d.chatRepo(cb.Chat)
	if err != nil {
		return err
	}

	reqCtx, req, done := d.begin(ctx, cb.Chat, cb.UserID)
	defer done()

	data := cb.Data

	// save_group answers with its own outcome
	if strings.HasPrefix(data, CallbackSaveGroupPrefix) {
		return d.saveGroup(reqCtx, chat, cb, strings.TrimPrefix(data, CallbackSaveGroupPrefix))
	}

	if err := chat.AnswerCallback(reqCtx, cb.CallbackID, ""); err != nil {
		fmt.Printf("[Dispatcher] Failed to answer callback: %v\n", err)
	}

	switch {
	case data == CallbackSearchPrompt:
		return d.edit(reqCtx, chat, cb.Chat, cb.MessageID, searchPromptReply())
	case data == CallbackCategories:
		return d.edit(reqCtx, chat, cb.Chat, cb.MessageID, categoriesReply(d.config.Categories))
	case data == CallbackTrending:
		return d.edit(reqCtx, chat, cb.Chat, cb.MessageID, trendingReply(d.config.Trending))
	case data == CallbackHelp:
		return d.edit(reqCtx, chat, cb.Chat, cb.MessageID, helpReply())
	case data == CallbackStartMenu:
		return d.edit(reqCtx, chat, cb.Chat, cb.MessageID, welcomeReply())
	case strings.HasPrefix(data, CallbackCategoryPrefix):
		category := d.category(strings.TrimPrefix(data, CallbackCategoryPrefix))
		if category.Keyword == "" {
			return nil
		}
		if err := d.edit(reqCtx, chat, cb.Chat, cb.MessageID, categorySearchingReply(category.Label)); err != nil {
			return err
		}
		return d.runSearch(reqCtx, chat, cb.Chat, cb.UserID, req, category.Keyword, cb.MessageID)
	case strings.HasPrefix(data, CallbackSaveSearchPrefix):
		query := strings.TrimSpace(strings.TrimPrefix(data, CallbackSaveSearchPrefix))
		if query == "" {
			return nil
		}
		return d.runSaved(reqCtx, chat, cb.Chat, req, query)
	default:
		fmt.Printf("[Dispatcher] Unknown callback %q in %s\n", data, cb.Chat)
		return nil
	}
}

// runSearch aggregates, persists and renders one search. When messageID is
// empty a placeholder message is sent first, otherwise that message is edited.
func (d *Dispatcher) runSearch(ctx context.Context, chat repo.ChatRepo, ref domain.ChatRef, userID string, req *inflightRequest, query, messageID string) error {
	if messageID == "" {
		id, err := chat.Send(ctx, ref, searchingReply())
		if err != nil {
			fmt.Printf("[Dispatcher] Failed to send placeholder to %s: %v\n", ref, err)
			return err
		}
		messageID = id
	}

	groups, stats, err := d.aggregatorUC.SearchWithStats(ctx, query, d.config.SearchLimit)
	if !d.isCurrent(req) {
		fmt.Printf("[Dispatcher] Discarding superseded search %q in %s\n", query, ref)
		return d.cancelled(ctx, chat, ref, messageID)
	}
	if err != nil {
		fmt.Printf("[Dispatcher] Search %q failed: %v\n", query, err)
		return d.edit(ctx, chat, ref, messageID, errorReply())
	}
	fmt.Printf("[Dispatcher] Search %q: sources=%d failed=%d raw=%d unique=%d\n",
		query, stats.Sources, stats.Failed, stats.Raw, stats.Unique)

	if saved, err := d.groupUC.SaveResults(ctx, groups); err != nil {
		fmt.Printf("[Dispatcher] Saved %d/%d results for %q: %v\n", saved, len(groups), query, err)
	}
	if err := d.groupUC.RecordSearch(ctx, userID, query, len(groups)); err != nil {
		fmt.Printf("[Dispatcher] Failed to record search for %s: %v\n", userID, err)
	}

	if len(groups) == 0 {
		return d.edit(ctx, chat, ref, messageID, noResultsReply(query, d.suggest(ctx, query)))
	}
	return d.edit(ctx, chat, ref, messageID, resultsReply(query, groups, d.config.DisplayLimit))
}

// runInfo resolves and renders group details
func (d *Dispatcher) runInfo(ctx context.Context, chat repo.ChatRepo, ref domain.ChatRef, req *inflightRequest, identifier string) error {
	if _, ok := domain.ParseHandle(identifier); !ok {
		return d.send(ctx, chat, ref, invalidHandleReply(identifier))
	}

	messageID, err := chat.Send(ctx, ref, loadingInfoReply())
	if err != nil {
		fmt.Printf("[Dispatcher] Failed to send placeholder to %s: %v\n", ref, err)
		return err
	}

	group, err := d.groupUC.Info(ctx, identifier)
	if !d.isCurrent(req) {
		return d.cancelled(ctx, chat, ref, messageID)
	}
	if err != nil {
		fmt.Printf("[Dispatcher] Info %q failed: %v\n", identifier, err)
		return d.edit(ctx, chat, ref, messageID, errorReply())
	}
	if group == nil {
		return d.edit(ctx, chat, ref, messageID, infoNotFoundReply(identifier))
	}
	return d.edit(ctx, chat, ref, messageID, infoReply(group))
}

// runHistory renders the caller's recent searches
func (d *Dispatcher) runHistory(ctx context.Context, chat repo.ChatRepo, ref domain.ChatRef, userID string, req *inflightRequest) error {
	events, total, err := d.groupUC.History(ctx, userID, 10)
	if !d.isCurrent(req) {
		return nil
	}
	if err != nil {
		fmt.Printf("[Dispatcher] History for %s failed: %v\n", userID, err)
		return d.send(ctx, chat, ref, errorReply())
	}
	return d.send(ctx, chat, ref, historyReply(events, total))
}

// runSaved renders stored groups matching the query
func (d *Dispatcher) runSaved(ctx context.Context, chat repo.ChatRepo, ref domain.ChatRef, req *inflightRequest, query string) error {
	groups, err := d.groupUC.Saved(ctx, query, usecase.DefaultSavedLimit)
	if !d.isCurrent(req) {
		return nil
	}

	reply := savedReply(query, groups, d.config.DisplayLimit)
	if err != nil {
		fmt.Printf("[Dispatcher] Saved %q failed: %v\n", query, err)
		reply = errorReply()
	}
	return d.send(ctx, chat, ref, reply)
}

// saveGroup resolves and stores a group, answering the button press with the outcome
func (d *Dispatcher) saveGroup(ctx context.Context, chat repo.ChatRepo, cb *Callback, handle string) error {
	answer := "❌ Something went wrong, please try again."
	group, err := d.groupUC.SaveByHandle(ctx, handle)
	switch {
	case errors.Is(err, domain.ErrInvalidHandle):
		answer = "❌ Invalid group username"
	case err != nil:
		fmt.Printf("[Dispatcher] Save group %q failed: %v\n", handle, err)
	case group == nil:
		answer = "❌ Group not found"
	default:
		answer = groupSavedText(group)
	}

	if err := chat.AnswerCallback(ctx, cb.CallbackID, answer); err != nil {
		fmt.Printf("[Dispatcher] Failed to answer callback: %v\n", err)
		return err
	}
	return nil
}

// suggest asks the suggest repo for alternatives, failing soft
func (d *Dispatcher) suggest(ctx context.Context, query string) []string {
	if d.suggestRepo == nil {
		return nil
	}
	suggestions, err := d.suggestRepo.Suggest(ctx, query)
	if err != nil {
		fmt.Printf("[Dispatcher] Suggestions for %q failed: %v\n", query, err)
		return nil
	}
	return suggestions
}

// category finds a category by key; unknown keys search for the key itself
func (d *Dispatcher) category(key string) CategoryEntry {
	key = strings.TrimSpace(key)
	for _, c := range d.config.Categories {
		if strings.EqualFold(c.Key, key) {
			if c.Keyword == "" {
				c.Keyword = c.Key
			}
			return c
		}
	}
	return CategoryEntry{Key: key, Label: key, Keyword: key}
}

func (d *Dispatcher) chatRepo(ref domain.ChatRef) (repo.ChatRepo, error) {
	chat, ok := d.chats[ref.Platform]
	if !ok {
		return nil, fmt.Errorf("no chat repo for platform %q", ref.Platform)
	}
	return chat, nil
}

func (d *Dispatcher) send(ctx context.Context, chat repo.ChatRepo, ref domain.ChatRef, reply *domain.Reply) error {
	if _, err := chat.Send(ctx, ref, reply); err != nil {
		fmt.Printf("[Dispatcher] Failed to send to %s: %v\n", ref, err)
		return err
	}
	return nil
}

func (d *Dispatcher) edit(ctx context.Context, chat repo.ChatRepo, ref domain.ChatRef, messageID string, reply *domain.Reply) error {
	if messageID == "" {
		return d.send(ctx, chat, ref, reply)
	}
	if err := chat.Edit(ctx, ref, messageID, reply); err != nil {
		fmt.Printf("[Dispatcher] Failed to edit %s in %s: %v\n", messageID, ref, err)
		return err
	}
	return nil
}

// requestKey scopes in-flight requests to one user in one chat
func requestKey(ref domain.ChatRef, userID string) string {
	return ref.String() + "|" + userID
}

// begin registers a new request for the user in the chat, cancelling the
// one it supersedes
func (d *Dispatcher) begin(ctx context.Context, ref domain.ChatRef, userID string) (context.Context, *inflightRequest, func()) {
	reqCtx, cancel := context.WithCancel(ctx)
	req := &inflightRequest{id: uuid.NewString(), key: requestKey(ref, userID), cancel: cancel}

	d.inflightMu.Lock()
	if prev, ok := d.inflight[req.key]; ok {
		prev.cancel()
	}
	d.inflight[req.key] = req
	d.inflightMu.Unlock()

	done := func() {
		d.inflightMu.Lock()
		if cur, ok := d.inflight[req.key]; ok && cur.id == req.id {
			delete(d.inflight, req.key)
		}
		d.inflightMu.Unlock()
		cancel()
	}
	return reqCtx, req, done
}

// isCurrent reports whether req is still the latest request of its user in its chat
func (d *Dispatcher) isCurrent(req *inflightRequest) bool {
	d.inflightMu.Lock()
	defer d.inflightMu.Unlock()
	cur, ok := d.inflight[req.key]
	return ok && cur.id == req.id
}

// cancelled replaces a superseded request's placeholder. The request context
// is already cancelled, so the edit runs without it.
func (d *Dispatcher) cancelled(ctx context.Context, chat repo.ChatRepo, ref domain.ChatRef, messageID string) error {
	return d.edit(context.WithoutCancel(ctx), chat, ref, messageID, cancelledReply())
}
