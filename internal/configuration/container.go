package configuration

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/KrushnaHarde/ChatNexus/internal/db"
	"github.com/KrushnaHarde/ChatNexus/internal/handler"
	"github.com/KrushnaHarde/ChatNexus/internal/hub"
	"github.com/KrushnaHarde/ChatNexus/internal/model"
	"github.com/KrushnaHarde/ChatNexus/internal/repo"
	"github.com/KrushnaHarde/ChatNexus/internal/service"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const defaultConfigPath = "config.json"

type Container struct {
	UserHandler    handler.UserHandler
	MessageHandler handler.MessageHandler
	MonitorHandler handler.MonitorHandler
	Hub            *hub.Hub
	Config         Config
	Logger         *zap.Logger

	// private - for cleanup
	mongoClient *mongo.Database
}

func BuildContainer() (*Container, error) {
	configPath := os.Getenv("CHATNEXUS_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	con, err := db.OpenConnection(config.Chat.Uri, config.Chat.Database)
	if err != nil {
		return nil, err
	}

	logger, _ := zap.NewProduction()

	messageStore := db.NewRepository[model.Message](con, config.Chat.MessagesCollection)
	roomStore := db.NewRepository[model.Room](con, config.Chat.RoomsCollection)
	userStore := db.NewRepository[model.User](con, config.Chat.UsersCollection)

	messageRepo := repo.NewMessageRepository(messageStore, logger)
	roomRepo := repo.NewRoomRepository(roomStore, logger)
	userRepo := repo.NewUserRepository(userStore, logger)

	// The hub is the publisher the services notify through, and the hub
	// drives the services on inbound websocket events, so it is built first
	// and the services attached after.
	fanout := hub.NewHub(logger, config.Server.AllowedOrigins)

	presenceService := service.NewPresenceService(userRepo, fanout, logger)
	messageService := service.NewMessageService(messageRepo, roomRepo, presenceService, fanout, logger)
	fanout.Attach(messageService, presenceService)

	monitorService := hub.NewMonitorService(fanout)

	return &Container{
		UserHandler:    handler.NewUserHandler(presenceService),
		MessageHandler: handler.NewMessageHandler(messageService),
		MonitorHandler: handler.NewMonitorHandler(monitorService),
		Hub:            fanout,
		Config:         *config,
		Logger:         logger,
		mongoClient:    con,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoClient.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
