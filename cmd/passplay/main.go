// cmd/passplay/main.go
package main

import (
	"errors"
	"os"

	"github.com/jason-s-yu/undercover/internal/config"
	"github.com/jason-s-yu/undercover/internal/game"
	"github.com/jason-s-yu/undercover/internal/words"
	_ "github.com/joho/godotenv/autoload"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()
	// the terminal belongs to the players
	if cfg.LogLevel == "" {
		logger.SetLevel(logrus.WarnLevel)
	}

	dir := game.NewDirectory(game.DirectoryOptions{
		Bank:            words.DefaultBank(cfg.DefaultLanguage),
		DefaultLanguage: cfg.DefaultLanguage,
		Logger:          logger,
	})
	sess, err := dir.CreateLocal(cfg.DefaultLanguage, cfg.DefaultTheme)
	if err != nil {
		logger.Fatalf("create session: %v", err)
	}
	defer dir.Shutdown()

	fd := os.Stdout.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)

	if err := newTable(sess, os.Stdin, os.Stdout, tty).run(); err != nil && !errors.Is(err, errQuit) {
		logger.Fatalf("passplay: %v", err)
	}
}
