package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"

	"github.com/pholanek/paperbend/internal/config"
	"github.com/pholanek/paperbend/internal/game"
	"github.com/pholanek/paperbend/internal/httpapi"
	"github.com/pholanek/paperbend/internal/netutil"
	"github.com/pholanek/paperbend/internal/ws"
)

const version = "v1.0.0"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`Paperbend - pass-the-paper party game server

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  PORT        Port to listen on (default: 8080)
  PUBLIC_URL  Base URL used in join links and QR codes (default: LAN address)

Players join from their phones over the local network; the server prints
the address to share when it starts.
`, os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Paperbend %s\n", version)
		return
	}

	// .env is optional, real env always wins
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}
	if *portFlag != "" {
		cfg.Port = *portFlag
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		zerologlog.Info().Str("path", path).Int("status", c.Writer.Status()).Dur("dur", time.Since(start)).Msg("http")
	})

	// Socket gateway and game registry reference each other: the registry
	// pushes events through the gateway, the gateway turns disconnects
	// into leaves.
	sock := ws.New()
	reg := game.NewRegistry(sock, game.Questions)
	sock.SetRegistry(reg)
	io := sock.Mount(r)
	defer io.Close()

	api := httpapi.New(reg, cfg)
	api.Register(r)

	zerologlog.Info().Str("addr", fmt.Sprintf("http://%s:%s", netutil.LocalIP(), cfg.Port)).Msg("players can join at")
	log.Printf("listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
