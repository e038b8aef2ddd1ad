package webserver

import (
	"math/big"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/lensforum/lensforum/src/api/config"
	"github.com/lensforum/lensforum/src/api/services"
	"github.com/lensforum/lensforum/src/chain"
	"github.com/lensforum/lensforum/src/lens"
)

// Deps carries the wired collaborators the handlers need.
type Deps struct {
	Config   config.Config
	DB       *gorm.DB
	RDB      *redis.Client
	Service  *services.Service
	Lens     *lens.Client
	GateRead chain.BalanceReader
}

func New(deps Deps) *gin.Engine {
	r := gin.Default()
	attachRoutes(r, deps)
	return r
}

func attachRoutes(r *gin.Engine, deps Deps) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", deps.Config.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Lens-Token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	authH := NewAuth(deps.RDB, []byte(deps.Config.JWTSecret))
	communityH := NewCommunities(deps.Service, deps.Lens, deps.DB)
	threadH := NewThreads(deps.Service, deps.Lens)
	replyH := NewReplies(deps.Service, deps.Lens, deps.DB)
	reactionH := NewReactions(deps.Service, deps.Lens)

	limiter := NewRateLimiter(30, time.Minute)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/challenge", authH.Challenge)
		v1.POST("/auth/verify", authH.Verify)

		v1.GET("/communities", communityH.List)
		v1.GET("/communities/:address", communityH.Get)
		v1.GET("/communities/:address/threads", threadH.List)
		v1.GET("/threads/:slug", threadH.Get)

		secured := v1.Group("")
		secured.Use(JWTMiddleware([]byte(deps.Config.JWTSecret)))
		secured.Use(RateLimitMiddleware(limiter))
		if deps.Config.GateContract != "" {
			secured.Use(NFTGateMiddleware(deps.GateRead, deps.Config.GateContract))
		}
		{
			secured.POST("/communities", communityH.Create)
			secured.PUT("/communities/:address", communityH.UpdateMetadata)
			secured.PUT("/communities/:address/rules", communityH.UpdateRules)
			secured.POST("/communities/:address/join", communityH.Join)
			secured.POST("/communities/:address/leave", communityH.Leave)
			secured.POST("/threads", threadH.Create)
			secured.POST("/replies", replyH.Create)
			secured.POST("/replies/:id/hide", replyH.Hide)
			secured.POST("/replies/:id/unhide", replyH.Unhide)
			secured.POST("/reactions", reactionH.Add)
			secured.DELETE("/reactions", reactionH.Remove)
		}
	}
}

// NFTGateMiddleware restricts mutations to holders of the configured NFT
// collection. Only attached when a gate contract is configured; the default
// deployment runs open.
func NFTGateMiddleware(reader chain.BalanceReader, contract string) gin.HandlerFunc {
	one := big.NewInt(1)
	return func(c *gin.Context) {
		addr := c.GetString("addr")
		if addr == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		balance, err := reader.BalanceOf(c, contract, addr)
		if err != nil || balance.Cmp(one) < 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": "membership NFT required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
