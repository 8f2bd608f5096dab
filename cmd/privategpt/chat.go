package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/privategpt-go/internal/logger"
	"github.com/0xcro3dile/privategpt-go/internal/tui"
)

const chatLogFile = "privategpt.log"

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// the terminal belongs to the UI; logs go to a file under the cache root
	logOut, err := openChatLog(cfg.Cache.Root)
	if err != nil {
		return err
	}
	defer logOut.Close()
	logger.SetOutput(logOut)
	defer logger.SetOutput(os.Stderr)

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.GetLogger().WithError(err).Warn("closing session")
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var openPath string
	if len(args) == 1 {
		openPath = args[0]
	}

	p := tea.NewProgram(tui.New(ctx, a.session, openPath), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running chat: %w", err)
	}
	return nil
}

func openChatLog(root string) (io.WriteCloser, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache root: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(root, chatLogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
