package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"splat/internal/api"
	"splat/internal/audio"
	"splat/internal/config"
	"splat/internal/splat"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/joho/godotenv"
)

// groundWorld is the built-in collision provider: an infinite horizontal
// plane at y=0. Deployments embedding the engine supply their own World;
// the daemon only needs something for droplets to land on.
type groundWorld struct{}

func (groundWorld) Raycast(from, to mgl64.Vec3) (splat.Hit, bool) {
	if from[1] < 0 || to[1] >= from[1] {
		return splat.Hit{}, false
	}
	t := from[1] / (from[1] - to[1])
	if t < 0 || t > 1 {
		return splat.Hit{}, false
	}
	point := from.Add(to.Sub(from).Mul(t))
	point[1] = 0
	return splat.Hit{
		Position: point,
		Normal:   mgl64.Vec3{0, 1, 0},
		Surface:  splat.Surface{ID: "ground"},
	}, true
}

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("💧 ================================")
	log.Println("💧  SPLAT ENGINE DAEMON")
	log.Println("💧 ================================")

	appConfig := config.Load()
	engineCfg := appConfig.Engine
	audioCfg := appConfig.Audio
	serverCfg := appConfig.Server

	log.Printf("🎛️ Config: %d TPS, pool limit %d", engineCfg.TickRate, engineCfg.PoolLimit)

	// Start debug server (pprof + prometheus on localhost)
	if serverCfg.DebugServer {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	// Base settings: defaults plus daemon-level limits
	base := splat.DefaultSettings()
	base.Limit = engineCfg.PoolLimit

	opts := []splat.Option{
		splat.WithWorld(groundWorld{}),
		splat.WithTickRate(engineCfg.TickRate),
	}
	if engineCfg.Seed != 0 {
		opts = append(opts, splat.WithSeed(engineCfg.Seed))
	}
	if audioCfg.Enabled {
		volume := audioCfg.Volume
		opts = append(opts, splat.WithSoundPlayer(audio.NewPlayer(audioCfg.SampleDir, volume)))
	}

	engine, err := splat.New(base, opts...)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	server := api.NewServer(engine)

	engine.Start()
	log.Println("✅ Splat engine started")

	// Start API server in goroutine
	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		log.Printf("🌐 API server on http://localhost%s", addr)

		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Daemon ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	server.Stop()
	engine.Destroy()
	log.Println("👋 Goodbye!")
}
