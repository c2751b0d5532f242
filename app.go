package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"afripay-text-bot/internal/audit"
	"afripay-text-bot/internal/auth"
	"afripay-text-bot/internal/backend"
	"afripay-text-bot/internal/bot"
	"afripay-text-bot/internal/config"
	"afripay-text-bot/internal/logger"
	"afripay-text-bot/internal/session"
	"afripay-text-bot/internal/telegram"
	"afripay-text-bot/internal/texts"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gopkg.in/fsnotify.v1"
)

func main() {
	var (
		cnf = &config.Conf{}

		configFile = flag.String("config", "./config/config.yml", "Usage: -config=<config_file>")
		debug      = flag.Bool("debug", false, "Print debug information on stderr")
	)

	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on real environment")
	}

	config.GetConfig(*configFile, cnf)
	cnf.RunInDebug = *debug

	logFile := logger.InitLogger(*debug, cnf.LoggerConfig)
	if logFile != nil {
		defer logFile.Close()
	}
	logger.Info("Application starting...")

	if *debug {
		logger.Debug("Config:", cnf)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := session.NewStore(ctx)
	if err != nil {
		logger.Crit("Session store init failed:", err)
	}

	botTexts := texts.InitTexts(cnf.TextsFile)

	api := backend.New(cnf.Backend.Addr, cnf.Backend.BotKey)
	recorder := audit.New(api, store)
	gateway := auth.New(api, store)

	transport, err := telegram.NewBot(cnf.Telegram.Token)
	if err != nil {
		logger.Crit("Telegram connection failed:", err)
	}

	// Every message the flows send goes through the audit decorator.
	sender := audit.NewSendRecorder(transport, recorder)
	dispatcher := bot.New(sender, transport, api, gateway, recorder, store, botTexts)

	go dispatcher.Run(ctx, transport.Updates())

	app := gin.Default()
	app.Use(config.Inject("cnf", cnf))
	app.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ok":      true,
			"service": "afripay-text-bot",
			"polling": true,
		})
	})

	srv := &http.Server{
		Addr:    cnf.Server.Listen,
		Handler: app,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Listen: %s\n", err)
		}
	}()

	// Watch the bot texts file so operators can edit replies live.
	if cnf.TextsFile != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			logger.Crit(err)
		}
		defer watcher.Close()

		go func() {
			for {
				select {
				case event, ok := <-watcher.Events:
					if !ok {
						return
					}
					if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
						if err := botTexts.UpdateTexts(cnf.TextsFile); err != nil {
							logger.Warning("Bot texts reload failed:", err)
						} else {
							logger.Info("Bot texts reloaded")
						}
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return
					}
					logger.Warning("Texts watcher error:", err)
				}
			}
		}()

		if err := watcher.Add(cnf.TextsFile); err != nil {
			logger.Warning("Cannot watch texts file:", err)
		}
	}

	logger.Info("Application started")

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT)

	quit := make(chan int)

	go func() {
		for {
			sig := <-signals
			switch sig {
			// kill -SIGHUP XXXX
			// kill -SIGINT XXXX or Ctrl+c
			case syscall.SIGHUP, syscall.SIGINT:
				logger.Info("Catch OS signal! Exiting...")

				transport.StopPolling()
				cancel()

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()

				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Fatal("App forced to shutdown:", err)
				}

				logger.Info("Application stopped correctly!")

				quit <- 0
			default:
				logger.Warning("Unknown signal")
			}
		}
	}()

	code := <-quit

	os.Exit(code)
}
