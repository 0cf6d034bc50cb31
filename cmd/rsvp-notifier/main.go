package main

import (
	"context"
	"fmt"
	"ms-rsvp/internal/config"
	"ms-rsvp/internal/kafka"
	"ms-rsvp/internal/logger"
	"ms-rsvp/internal/models"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	logger := logger.NewLogger("rsvp-notifier")
	defer logger.Close()

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("CONFIG", fmt.Sprintf("Failed to load configuration: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	topic := cfg.Kafka.Topics.RSVPSubmitted
	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{topic}, logger); err != nil {
		logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topic, cfg.Kafka.GroupID, logger)
	defer consumer.Close()

	var attending, guests int
	logger.Info("APP", fmt.Sprintf("Listening for new RSVPs on %s", topic))
	err = consumer.Start(ctx, func(event models.RSVPSubmittedEvent) {
		if event.Attendance == models.AttendanceYes {
			attending++
			guests += event.Guests
		}
		logger.LogRSVP("NOTIFY", event.ID, fmt.Sprintf("%s replied %s with %d guests (session: %d attending, %d guests)",
			event.Name, event.Attendance, event.Guests, attending, guests))
	})
	if err != nil {
		logger.Fatal("KAFKA", fmt.Sprintf("Consumer stopped: %v", err))
	}
	logger.Info("APP", "✅ Notifier shutdown complete")
}
