package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"sticket-backend/broker"
	"sticket-backend/checkin"
	"sticket-backend/config"
	"sticket-backend/contracts"
	"sticket-backend/handlers"
	"sticket-backend/metadata"
	"sticket-backend/models"
	"sticket-backend/monitoring"
	"sticket-backend/services"
	"sticket-backend/store"
	"sticket-backend/wallet"
)

// app holds everything the server and the CLI commands share.
type app struct {
	cfg       *config.Config
	ethClient *ethclient.Client
	pool      *pgxpool.Pool
	redis     *redis.Client
	publisher broker.Publisher
	auditLog  *store.CheckinLog

	session *wallet.Session
	manager *checkin.Manager
	events  *services.EventService
}

func connectToEthereum(rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum client: %w", err)
	}

	log.Println("Successfully connected to Ethereum node!")
	return client, nil
}

// newApp connects to the chain and to whichever of Postgres, Redis and NATS are
// configured, then wires the wallet session, check-in manager and event service.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, publisher: &broker.NoopPublisher{}}

	ethClient, err := connectToEthereum(cfg.RPCURL)
	if err != nil {
		return nil, err
	}
	a.ethClient = ethClient

	if cfg.DatabaseURL != "" {
		pool, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		a.pool = pool
		a.auditLog = store.NewCheckinLogFromPool(pool)
		if err := a.auditLog.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	if cfg.RedisURL != "" {
		client, err := store.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
	}

	if cfg.NATSURL != "" {
		publisher, err := broker.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		log.Printf("Publishing check-in events to %s", cfg.NATSURL)
		a.publisher = publisher
	}

	monitor := monitoring.NewMonitor()

	keystoreDir, err := filepath.Abs(cfg.KeystoreDir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("invalid keystore dir: %w", err)
	}
	ks := keystore.NewKeyStore(keystoreDir, keystore.StandardScryptN, keystore.StandardScryptP)
	ext := wallet.NewKeystoreExtension(ks, wallet.KeystoreConfig{
		Address:    cfg.WalletAddress,
		Passphrase: cfg.WalletPassphrase,
		ChainID:    cfg.ChainID,
		Network: models.NetworkDetails{
			Network:           cfg.NetworkName,
			NetworkURL:        cfg.RPCURL,
			NetworkPassphrase: cfg.NetworkPassphrase,
			RPCURL:            cfg.RPCURL,
		},
	})

	var flags wallet.FlagStore
	if a.redis != nil {
		flags = wallet.NewRedisFlagStore(a.redis)
	}
	a.session = wallet.NewSession(ext, flags, wallet.Options{
		PollInterval:   cfg.WalletPollInterval,
		ConnectTimeout: cfg.WalletConnectTimeout,
		Observer:       monitor,
	})

	factory := contracts.NewClientFactory(ethClient, a.session, cfg.FactoryAddress)

	sinks := []checkin.Sink{broker.NewCheckInSink(a.publisher)}
	if a.auditLog != nil {
		sinks = append(sinks, a.auditLog)
	}
	a.manager = checkin.NewManager(a.session, checkin.NewContractDialer(factory), checkin.Options{
		HistoryLimit:  cfg.CheckInHistoryLimit,
		SubmitTimeout: cfg.CheckInSubmitTimeout,
		Sinks:         sinks,
		Metrics:       monitor,
	})

	var cache services.Cache
	if a.redis != nil {
		cache = store.NewEventCache(a.redis, cfg.EventCacheTTL)
	}
	fetcher := metadata.NewFetcher(cfg.IPFSGateway, 0)
	a.events = services.NewEventService(services.NewContractDialer(factory), fetcher, cache, a.session, cfg.TokenDecimals)

	return a, nil
}

// checkinLog avoids handing a typed nil to the handlers.
func (a *app) checkinLog() handlers.CheckinLog {
	if a.auditLog == nil {
		return nil
	}
	return a.auditLog
}

func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			log.Printf("Error closing publisher: %v", err)
		}
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.auditLog != nil {
		a.auditLog.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.ethClient != nil {
		a.ethClient.Close()
	}
}
