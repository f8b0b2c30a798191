package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rossesmond/src-bot/pkg"
	"github.com/rossesmond/src-bot/pkg/commands"
	"github.com/rossesmond/src-bot/pkg/invites"
	"github.com/rossesmond/src-bot/pkg/models"
	"github.com/rossesmond/src-bot/pkg/reconcile"
	"github.com/rossesmond/src-bot/pkg/search"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

// resyncDelay debounces registration re-renders and record-driven reconciles
// so a burst of button clicks or CRUD commands produces one pass.
const resyncDelay = 30 * time.Second

const pendingTTL = 15 * time.Minute

func LoadConfig(config_file string) (*pkg.Config, error) {
	config_f, err := os.Open(config_file)

	if err != nil {
		return nil, err
	}

	defer config_f.Close()

	config := &pkg.Config{}
	err = json.NewDecoder(config_f).Decode(config)

	if err != nil {
		return nil, err
	}

	err = config.Validate()

	if err != nil {
		return nil, err
	}

	return config, nil

}

func main() {
	args := os.Args

	zapConfig := zap.NewProductionConfig()

	zapConfig.Encoding = "console"
	zapConfig.EncoderConfig = zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.FullCallerEncoder,
	}

	config_file := "config.json"

	for i, arg := range args {
		if arg == "--config" {
			config_file = args[i+1]
		}
	}

	log, err := zapConfig.Build()

	if err != nil {
		panic(err)
	}
	defer log.Sync()

	logger := log.Sugar()

	config, err := LoadConfig(config_file)

	if err != nil {
		logger.Fatal(err)
	}

	db, err := gorm.Open(sqlite.Open(config.DatabaseName), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		logger.Fatal(err)
	}

	db.AutoMigrate(
		&models.Class{},
		&models.ClassChannel{},
		&models.Instructor{},
		&models.ClassVisibility{},
		&models.Invite{},
		&models.File{},
		&models.WebGuild{},
	)

	discord, err := discordgo.New("Bot " + config.BotToken)

	if err != nil {
		logger.Fatal(err)
	}

	discord.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildInvites |
		discordgo.IntentsGuildPresences |
		discordgo.IntentsGuildMembers

	index := search.NewIndex()
	reconciler := reconcile.New(logger, db, discord, index, config.ManagerRolePrefix)

	regSync := reconcile.NewScheduler(logger, resyncDelay, func(guildID string) error {
		return reconciler.RenderRegistration(guildID, nil)
	})
	resync := reconcile.NewScheduler(logger, resyncDelay, func(guildID string) error {
		return reconciler.Reconcile(guildID, false, nil)
	})

	guildIDs := func() []string {
		ids := make([]string, 0, len(discord.State.Guilds))
		for _, g := range discord.State.Guilds {
			ids = append(ids, g.ID)
		}
		return ids
	}
	tracker := invites.NewTracker(logger, db, discord, guildIDs, config.InvitePoll_d)

	deps := &commands.Deps{
		Log:        logger,
		DB:         db,
		Reconciler: reconciler,
		RegSync:    regSync,
		Resync:     resync,
		Campaigns:  commands.NewPendingStore(pendingTTL),
		Removals:   commands.NewPendingStore(pendingTTL),
	}
	registry := commands.NewRegistry(deps)

	discord.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		registry.HandleInteraction(s, i)
	})

	discord.AddHandler(func(s *discordgo.Session, e *discordgo.GuildMemberAdd) {
		go func() {
			if err := tracker.HandleMemberAdd(e.GuildID, e.User.ID); err != nil {
				logger.Errorf("Error attributing new member %s in guild %s: %v", e.User.ID, e.GuildID, err)
			}
		}()
	})

	discord.AddHandler(func(s *discordgo.Session, e *discordgo.InviteCreate) {
		tracker.HandleInviteCreate(e.GuildID, e.Code, e.Uses)
	})

	err = discord.Open()

	if err != nil {
		logger.Fatal(err)
	}

	logger.Infof("Bot Started and Logged In As: %s#%s", discord.State.User.Username, discord.State.User.Discriminator)

	for _, schema := range registry.ApplicationCommands() {
		_, err := discord.ApplicationCommandCreate(discord.State.User.ID, config.DevGuildID, schema)
		if err != nil {
			logger.Panicf("Cannot create '%v' command: %v", schema.Name, err)
		}
	}

	tracker.Start()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt)
	<-sigch

	tracker.Stop()
	regSync.Stop()
	resync.Stop()

	err = discord.Close()
	if err != nil {
		logger.Fatal(err)
	}
}
