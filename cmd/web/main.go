package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rossesmond/src-bot/pkg/models"
	"github.com/rossesmond/src-bot/web"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	logger := log.Sugar()

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file loaded")
	}

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "src-bot.db"
	}
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		logger.Fatal(err)
	}
	db.AutoMigrate(&models.WebGuild{})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	callback := os.Getenv("CALLBACK_URL")
	if callback == "" {
		callback = "http://localhost:" + port + "/api/callback/google"
	}
	static := os.Getenv("STATIC_DIR")
	if static == "" {
		static = "static/"
	}

	server, err := web.NewServer(logger, db, web.Config{
		Addr:          ":" + port,
		SessionSecret: os.Getenv("SESSION_SECRET"),
		GoogleKey:     os.Getenv("GOOGLE_KEY"),
		GoogleSecret:  os.Getenv("GOOGLE_SECRET"),
		CallbackURL:   callback,
		EmailPattern:  os.Getenv("EMAIL_PATTERN"),
		StaticDir:     static,
	})
	if err != nil {
		logger.Fatal(err)
	}

	logger.Infof("listening on localhost:%s", port)
	logger.Fatal(http.ListenAndServe(":"+port, server.Router()))
}
