package cli

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/grouphunt/groupsearch-bot/internal/api"
	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
	"github.com/grouphunt/groupsearch-bot/internal/data"
	"github.com/grouphunt/groupsearch-bot/internal/infra/feishu"
	"github.com/grouphunt/groupsearch-bot/internal/infra/telegram"
	"github.com/grouphunt/groupsearch-bot/internal/server"
	"github.com/grouphunt/groupsearch-bot/internal/service"
)

// Execute runs the bot until SIGINT or SIGTERM.
func (c *BotCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	repos, uc, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	fmt.Printf("[Bot] Group DB: %s\n", cfg.Store.DBPath)
	fmt.Printf("[Bot] %d sources registered\n", len(repos.Sources))
	if repos.Suggest != nil {
		fmt.Println("[Bot] Keyword suggestions enabled")
	}

	dispatcher := service.NewDispatcher(uc.Aggregator, uc.Group, repos.Suggest, cfg.ToDispatcherConfig())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	errCh := make(chan error, 3)

	if cfg.Telegram.BotToken != "" {
		client, err := telegram.NewClient(cfg.Telegram.BotToken)
		if err != nil {
			return err
		}
		dispatcher.RegisterChat(domain.PlatformTelegram, data.NewTelegramRepo(client))
		srv := server.NewTelegramServer(client, dispatcher)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Start(ctx); err != nil {
				errCh <- fmt.Errorf("telegram: %w", err)
			}
		}()
	}

	if cfg.Feishu.Enabled() {
		client := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret)
		dispatcher.RegisterChat(domain.PlatformFeishu, data.NewFeishuRepo(client))
		srv := server.NewFeishuServer(client, dispatcher)

		// The websocket client has no context, so stop it on shutdown
		go func() {
			<-ctx.Done()
			srv.Stop()
		}()
		go func() {
			if err := srv.Start(ctx); err != nil && ctx.Err() == nil {
				errCh <- fmt.Errorf("feishu: %w", err)
			}
		}()
	}

	if cfg.API.Port > 0 {
		apiServer := api.NewServer(uc.Aggregator, uc.Group, cfg.API.Port)
		go func() {
			if err := apiServer.Start(); err != nil && ctx.Err() == nil {
				fmt.Printf("[Bot] API server error: %v\n", err)
			}
		}()
		defer apiServer.Stop()
		fmt.Printf("[Bot] HTTP API on 127.0.0.1:%d\n", apiServer.GetPort())
	}

	fmt.Println("Starting group search bot...")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		stop()
		wg.Wait()
		return err
	}

	fmt.Println("\nShutting down...")
	wg.Wait()
	return nil
}
