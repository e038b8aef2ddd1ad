package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	MySQLDSN          string
	RedisURL          string
	JWTSecret         string
	LensEndpoint      string
	LensRPCURL        string
	GroveEndpoint     string
	GroveGateway      string
	ChainID           uint64
	OperatorKey       string
	Port              string
	FrontendURL       string
	ReconcileInterval int
	GateContract      string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	ri, _ := strconv.Atoi(getenv("RECONCILE_INTERVAL", "300"))
	chainID, _ := strconv.ParseUint(getenv("LENS_CHAIN_ID", "232"), 10, 64)
	return Config{
		MySQLDSN:          getenv("MYSQL_DSN", "lensforum:lensforum@tcp(127.0.0.1:3306)/lensforum?parseTime=true"),
		RedisURL:          getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		JWTSecret:         getenv("JWT_SECRET", ""),
		LensEndpoint:      getenv("LENS_API_URL", "https://api.lens.xyz"),
		LensRPCURL:        getenv("LENS_RPC_URL", "https://rpc.lens.xyz"),
		GroveEndpoint:     getenv("GROVE_API_URL", "https://api.grove.storage"),
		GroveGateway:      getenv("GROVE_GATEWAY_URL", "https://api.grove.storage"),
		ChainID:           chainID,
		OperatorKey:       getenv("OPERATOR_PRIVATE_KEY", ""),
		Port:              getenv("PORT", "8080"),
		FrontendURL:       getenv("FRONTEND_URL", "http://localhost:3000"),
		ReconcileInterval: ri,
		GateContract:      os.Getenv("GATE_NFT_CONTRACT"),
	}
}
