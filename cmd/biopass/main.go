package main

import (
	"log"
	"log/slog"
	"os"

	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"

	"github.com/abdasg25/BioPass/adapters/cipher"
	"github.com/abdasg25/BioPass/adapters/events"
	"github.com/abdasg25/BioPass/adapters/qr"
	"github.com/abdasg25/BioPass/adapters/store"
	"github.com/abdasg25/BioPass/adapters/tokenizer"
	"github.com/abdasg25/BioPass/adapters/verifier"
	"github.com/abdasg25/BioPass/service"
	"github.com/abdasg25/BioPass/transport/http"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Generate a new ECDSA key pair (you would normally load this from somewhere secure)
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		panic(err)
	}

	payloadKey, err := cfg.DecodePayloadKey()
	if err != nil {
		log.Fatalf("Failed to read payload key: %v", err)
	}
	if payloadKey == nil {
		payloadKey = make([]byte, cipher.KeySize)
		if _, err := rand.Read(payloadKey); err != nil {
			log.Fatalf("Failed to generate payload key: %v", err)
		}
		slog.Warn("QR_PAYLOAD_KEY not set, generated an ephemeral key")
	}

	payloadCipher, err := cipher.NewAESGCM(payloadKey)
	if err != nil {
		log.Fatalf("Failed to initialize payload cipher: %v", err)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opts)

	logger := watermill.NewStdLogger(false, false)
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		logger,
	)
	if err != nil {
		log.Fatalf("Failed to create Redis publisher: %v", err)
	}

	assertionVerifier, err := verifier.New(cfg.RPID, cfg.RPDisplayName, cfg.RPOrigins)
	if err != nil {
		log.Fatalf("Failed to initialize WebAuthn: %v", err)
	}

	jwtTokenizer := tokenizer.NewJWTTokenizer(privateKey)
	redisStore := store.NewRedisStore(redisClient)
	eventPub := events.NewWatermillPublisher(publisher)

	qrService := service.NewQRSessionService(
		redisStore, redisStore, redisStore,
		jwtTokenizer,
		assertionVerifier,
		payloadCipher,
		qr.NewPNGEncoder(cfg.QRSize),
		eventPub,
	)
	accountService := service.NewAccountService(redisStore, jwtTokenizer)

	router := http.SetupRouter(qrService, accountService, jwtTokenizer)

	slog.Info("starting server", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
