package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	algotypes "github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	x402 "github.com/t402-io/x402-facilitator"
	"github.com/t402-io/x402-facilitator/discovery"
	"github.com/t402-io/x402-facilitator/erc8004"
	"github.com/t402-io/x402-facilitator/internal/xlog"
	"github.com/t402-io/x402-facilitator/mechanisms/algorand"
	"github.com/t402-io/x402-facilitator/mechanisms/evm"
	"github.com/t402-io/x402-facilitator/noncestore"
)

func main() {
	log := xlog.New(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("starting x402 facilitator")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	nonces, err := setupNonceStore(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure nonce store")
	}
	log.Info().Str("backend", nonces.StoreType()).Msg("nonce store configured")

	facilitator := x402.NewFacilitator(log)
	recorder := erc8004.NewRecorder(log)

	if err := registerAlgorandProviders(facilitator, nonces, log); err != nil {
		log.Warn().Err(err).Msg("algorand providers not registered")
	}
	if err := registerEVMProviders(ctx, facilitator, nonces, recorder, log); err != nil {
		log.Warn().Err(err).Msg("evm providers not registered")
	}

	facilitator.OnAfterVerify(func(rctx x402.VerifyResultContext) error {
		log.Debug().Bool("valid", rctx.Result.Valid).Msg("verify completed")
		return nil
	})
	facilitator.OnAfterSettle(func(rctx x402.SettleResultContext) error {
		log.Info().Bool("success", rctx.Result.Success).Str("tx", rctx.Result.Transaction.Hash).Msg("settle completed")
		if !rctx.Result.Success {
			return nil
		}
		req := rctx.Request.PaymentRequirements
		recorder.RecordSettlement(
			rctx.Ctx,
			string(rctx.Result.Network),
			req.Extra,
			common.HexToHash(rctx.Result.Transaction.Hash),
			0,
			rctx.Result.Payer.Address,
			req.PayTo,
			req.Amount,
			req.Asset,
			time.Now().Unix(),
		)
		return nil
	})

	registry := discovery.NewMemoryRegistry()
	interval := 5 * time.Minute
	if raw := os.Getenv("DISCOVERY_INTERVAL_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			interval = time.Duration(secs) * time.Second
		}
	}
	aggregator := discovery.NewAggregator(discovery.DefaultPeers(), registry, interval, log)
	go aggregator.Run(ctx)

	log.Info().Int("providers", len(facilitator.GetSupported().Kinds)).Msg("facilitator ready")

	<-ctx.Done()
	log.Info().Msg("shutting down")
}

// setupNonceStore prefers the persistent DynamoDB backend when
// NONCE_STORE_TABLE_NAME is configured; otherwise it falls back to the
// in-memory backend with a loud warning, per the store's selection rule.
func setupNonceStore(ctx context.Context, log zerolog.Logger) (noncestore.Store, error) {
	table := os.Getenv("NONCE_STORE_TABLE_NAME")
	if table == "" {
		log.Warn().Msg("NONCE_STORE_TABLE_NAME unset: using in-memory nonce store, unsafe across restarts")
		return noncestore.NewMemoryStore(5 * time.Minute), nil
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	client := dynamodb.NewFromConfig(awsCfg)
	return noncestore.NewDynamoStore(client, table, log), nil
}

func registerAlgorandProviders(facilitator *x402.Facilitator, nonces noncestore.Store, log zerolog.Logger) error {
	seedHex := os.Getenv("ALGORAND_FEE_PAYER_SEED_HEX")
	if seedHex == "" {
		return nil
	}
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return err
	}
	privateKey := ed25519.NewKeyFromSeed(seed)

	account, err := algotypes.DecodeAddress(os.Getenv("ALGORAND_FEE_PAYER_ADDRESS"))
	if err != nil {
		return err
	}

	networks := []struct {
		network   x402.Network
		algodEnv  string
		tokenEnv  string
		usdcAsset uint64
	}{
		{x402.NetworkAlgorandMainnet, "ALGOD_MAINNET_ADDRESS", "ALGOD_MAINNET_TOKEN", 31566704},
		{x402.NetworkAlgorandTestnet, "ALGOD_TESTNET_ADDRESS", "ALGOD_TESTNET_TOKEN", 10458941},
	}

	for _, n := range networks {
		address := os.Getenv(n.algodEnv)
		if address == "" {
			continue
		}
		algodClient, err := algorand.NewAlgodClient(address, os.Getenv(n.tokenEnv))
		if err != nil {
			log.Warn().Err(err).Str("network", string(n.network)).Msg("algod client init failed")
			continue
		}
		provider := algorand.NewProvider(algorand.Config{
			Network:     n.network,
			USDCAssetID: n.usdcAsset,
			Account:     account,
			PrivateKey:  privateKey,
			Algod:       algodClient,
			NonceStore:  nonces,
			Log:         log,
		})
		facilitator.Register(provider)
		log.Info().Str("network", string(n.network)).Msg("registered algorand provider")
	}
	return nil
}

func registerEVMProviders(ctx context.Context, facilitator *x402.Facilitator, nonces noncestore.Store, recorder *erc8004.Recorder, log zerolog.Logger) error {
	privateKeyHex := os.Getenv("EVM_FACILITATOR_PRIVATE_KEY")
	if privateKeyHex == "" {
		return nil
	}

	networks := []struct {
		network   x402.Network
		rpcEnv    string
		assetEnv  string
		assetName string
		assetVer  string
	}{
		{"eip155:8453", "BASE_RPC_URL", "BASE_USDC_ADDRESS", "USD Coin", "2"},
		{"eip155:84532", "BASE_SEPOLIA_RPC_URL", "BASE_SEPOLIA_USDC_ADDRESS", "USDC", "2"},
	}

	for _, n := range networks {
		rpcURL := os.Getenv(n.rpcEnv)
		assetAddr := os.Getenv(n.assetEnv)
		if rpcURL == "" || assetAddr == "" {
			continue
		}
		signer, err := evm.NewEthSigner(ctx, rpcURL, privateKeyHex)
		if err != nil {
			log.Warn().Err(err).Str("network", string(n.network)).Msg("evm signer init failed")
			continue
		}
		provider := evm.NewProvider(evm.Config{
			Network: n.network,
			Signer:  signer,
			Asset: evm.AssetInfo{
				Address: common.HexToAddress(assetAddr),
				Name:    n.assetName,
				Version: n.assetVer,
			},
			NonceStore: nonces,
			Log:        log,
		})
		facilitator.Register(provider)
		recorder.Register(string(n.network), signer)
		log.Info().Str("network", string(n.network)).Msg("registered evm provider")
	}
	return nil
}
