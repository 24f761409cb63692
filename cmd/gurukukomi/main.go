package main

import (
	"context"
	"fmt"
	"os"

	"github.com/isidman/gurukukomi/internal/config"
	"github.com/isidman/gurukukomi/internal/gateway"
	"github.com/isidman/gurukukomi/internal/memory"
	"github.com/isidman/gurukukomi/internal/research"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gurukukomi",
	Short: "gurukukomi - curious AI companion",
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with Gurukukomi on the command line",
	RunE:  runChat,
}

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the full gateway (channels + cron)",
	RunE:  runGateway,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize config and data directory",
	RunE:  runOnboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show gurukukomi status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(chatCmd, gatewayCmd, onboardCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gw, err := gateway.New(cfg)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	return gw.Run(context.Background())
}

func runOnboard(cmd *cobra.Command, args []string) error {
	cfgDir := config.ConfigDir()
	cfgPath := config.ConfigPath()

	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.SaveConfig(config.DefaultConfig()); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Created config: %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists: %s\n", cfgPath)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	fmt.Printf("Data directory ready: %s\n", cfg.DataDir)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'gurukukomi chat' to start talking")
	fmt.Printf("  2. Edit %s to enable telegram or the web UI\n", cfgPath)

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	fmt.Printf("Data dir: %s\n", cfg.DataDir)
	fmt.Printf("Telegram: enabled=%v\n", cfg.Channels.Telegram.Enabled)
	fmt.Printf("Web UI: enabled=%v (port %d)\n", cfg.Channels.WebUI.Enabled, cfg.Gateway.Port)
	fmt.Printf("Search: %d queries x %d results, %ds timeout\n",
		cfg.Search.MaxQueries, cfg.Search.ResultsPerQuery, cfg.Search.TimeoutSeconds)

	if mem, err := memory.NewStore(cfg.Memory.DBPath); err == nil {
		if stats, err := mem.Stats(""); err == nil {
			fmt.Printf("Memories: %d stored, %d consent entries\n", stats.MemoriesStored, stats.ConsentEntries)
		}
		_ = mem.Close()
	} else {
		fmt.Printf("Memory store: unavailable (%v)\n", err)
	}

	if res, err := research.NewStore(cfg.Research.DBPath); err == nil {
		if stats, err := res.Stats(); err == nil {
			fmt.Printf("Research: %d searches on %d topics, accessed %d times\n",
				stats.SavedSearches, stats.UniqueTopics, stats.TotalAccessCount)
		}
		_ = res.Close()
	} else {
		fmt.Printf("Research store: unavailable (%v)\n", err)
	}

	return nil
}
