package main

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/ramonehamilton/palico-bot/internal/config"
)

// botProgram implements service.Interface
type botProgram struct {
	cfg    *config.Config
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Start implements service.Interface
func (p *botProgram) Start(s service.Service) error {
	log.Println("Starting palico-bot service...")
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.wg.Add(1)
	go p.run(ctx)
	return nil
}

// run executes the bot until stopped
func (p *botProgram) run(ctx context.Context) {
	defer p.wg.Done()
	if err := runServe(ctx, p.cfg); err != nil {
		log.Printf("palico-bot stopped: %v", err)
	}
}

// Stop implements service.Interface
func (p *botProgram) Stop(s service.Service) error {
	log.Println("Stopping palico-bot service...")
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

// getServiceConfig returns the service configuration
func getServiceConfig() *service.Config {
	args := []string{"service", "run"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	return &service.Config{
		Name:        "PalicoBot",
		DisplayName: "Palico Bot",
		Description: "Answers Monster Hunter: World armor queries on Discord and HTTP",
		Arguments:   args,
	}
}

var serviceCmd = &cobra.Command{
	Use:       "service <install|uninstall|start|stop|restart|status|run>",
	Short:     "Manage palico-bot as a system service",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"install", "uninstall", "start", "stop", "restart", "status", "run"},
	RunE:      runServiceCommand,
}

// runServiceCommand handles service management commands
func runServiceCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	prg := &botProgram{cfg: cfg}
	svcConfig := getServiceConfig()
	s, err := service.New(prg, svcConfig)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	out := cmd.OutOrStdout()
	switch action := args[0]; action {
	case "run":
		return s.Run()

	case "install":
		if err := s.Install(); err != nil {
			return fmt.Errorf("failed to install service: %w", err)
		}
		fmt.Fprintln(out, "✓ Service installed successfully")
		fmt.Fprintln(out, "\nNext steps:")
		fmt.Fprintln(out, "  1. Start the service: palico-bot service start")
		fmt.Fprintln(out, "  2. Verify it's running: palico-bot service status")
		if service.Platform() == "linux-systemd" {
			fmt.Fprintln(out, "  3. View logs: journalctl -u PalicoBot -f")
		}

	case "uninstall":
		if err := s.Uninstall(); err != nil {
			return fmt.Errorf("failed to uninstall service: %w", err)
		}
		fmt.Fprintln(out, "✓ Service uninstalled successfully")

	case "start":
		if err := s.Start(); err != nil {
			return fmt.Errorf("failed to start service: %w", err)
		}
		fmt.Fprintln(out, "✓ Service started successfully")

	case "stop":
		if err := s.Stop(); err != nil {
			return fmt.Errorf("failed to stop service: %w", err)
		}
		fmt.Fprintln(out, "✓ Service stopped successfully")

	case "restart":
		if err := s.Restart(); err != nil {
			return fmt.Errorf("failed to restart service: %w", err)
		}
		fmt.Fprintln(out, "✓ Service restarted successfully")

	case "status":
		status, err := s.Status()
		if err != nil {
			return fmt.Errorf("failed to get service status: %w", err)
		}
		fmt.Fprintln(out, "Service Status:")
		switch status {
		case service.StatusRunning:
			fmt.Fprintln(out, "  Status: ✓ Running")
		case service.StatusStopped:
			fmt.Fprintln(out, "  Status: ● Stopped")
		default:
			fmt.Fprintln(out, "  Status: ? Unknown")
		}
		fmt.Fprintf(out, "  Name: %s\n", svcConfig.Name)

	default:
		return fmt.Errorf("unknown service command: %s", action)
	}
	return nil
}
