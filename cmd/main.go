package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/injuryshield/ppe-monitor/internal/alerts"
	"github.com/injuryshield/ppe-monitor/internal/api"
	"github.com/injuryshield/ppe-monitor/internal/config"
	"github.com/injuryshield/ppe-monitor/internal/database"
	"github.com/injuryshield/ppe-monitor/internal/kafka"
	"github.com/injuryshield/ppe-monitor/internal/pipeline"
	"github.com/injuryshield/ppe-monitor/internal/s3"
	"github.com/injuryshield/ppe-monitor/internal/services/detection"
	"github.com/injuryshield/ppe-monitor/internal/services/notify"
)

func main() {
	log.Println("Main: init...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Чтение конфига
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}

	// Инициализация базы данных
	db, err := database.New(cfg.Postgres.DSN)
	if err != nil {
		log.Fatal(err)
	}
	if err = db.Init(); err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Инициализация s3
	s3Client, err := s3.NewMinioClient(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.SnapshotBucket)
	if err != nil {
		log.Fatalf("Failed connect to MinIO: %v", err)
	}

	// Kafka: команды потоков и heartbeats
	consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.StreamTopic)
	if err != nil {
		log.Fatalf("Failed to create Kafka consumer: %v", err)
	}
	defer consumer.Close()
	consumer.StartListening(ctx)

	heartbeatProducer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.HeartbeatTopic)
	if err != nil {
		log.Fatalf("Failed to create Kafka producer: %v", err)
	}
	defer heartbeatProducer.Close()

	commandProducer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.StreamTopic)
	if err != nil {
		log.Fatalf("Failed to create Kafka producer: %v", err)
	}
	defer commandProducer.Close()

	detectClient := detection.NewClient(cfg.Detection.Endpoint, cfg.Detection.ConfidenceThreshold)

	smsClient := notify.NewClient(
		cfg.Notify.Endpoint,
		cfg.Notify.AccountSID,
		cfg.Notify.AuthToken,
		cfg.Notify.From,
		cfg.Notify.Recipient,
	)
	dispatcher := alerts.NewDispatcher(cfg.AlertCooldown(), smsClient)
	defer dispatcher.Close()

	monitor := pipeline.NewMonitor(cfg, db, s3Client, detectClient, consumer, heartbeatProducer, dispatcher)
	go monitor.ListenAndRun(ctx)
	go monitor.ProcessStopEvents(ctx)

	// Настройка роутера
	r := mux.NewRouter()
	handlers := api.NewHandlers(db, commandProducer)

	// Регистрация обработчиков
	r.HandleFunc("/stream", handlers.StartStreamHandler).Methods("POST")
	r.HandleFunc("/stream/{stream_id}", handlers.GetStreamHandler).Methods("GET")
	r.HandleFunc("/stream/{stream_id}/stop", handlers.StopStreamHandler).Methods("POST")
	r.HandleFunc("/compliance", handlers.GetComplianceLogsHandler).Methods("GET")
	r.HandleFunc("/violations", handlers.GetViolationsHandler).Methods("GET")
	r.HandleFunc("/violations/{id}/resolve", handlers.ResolveViolationHandler).Methods("POST")

	// Запуск сервера
	go func() {
		log.Printf("Starting monitor API server on %s", cfg.API.Addr)
		if err := http.ListenAndServe(cfg.API.Addr, r); err != nil {
			log.Fatalf("API server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	log.Println("Завершение работы...")
	cancel() // Stop goroutines
}
