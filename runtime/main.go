package main

import (
	"github.com/elitereplicas/elite_api/services"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("No .env file found, using system environment variables")
	}

	ctx, err := context.NewCtx(
		&services.MonitoringService{},
		&services.PostgresService{},
		&services.RedisService{},

		&services.JWTService{},
		&services.EmailService{},
		&services.VerificationTokenService{},
		&services.RateLimitService{},

		&services.AuthService{},
		&services.AuthMiddleware{},
		&services.UserService{},
		&services.OrderService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err)
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err)
		return
	}
}
